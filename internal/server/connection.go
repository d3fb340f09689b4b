package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// ErrConnClosed is returned by Send when the connection is gone or its
// buffer overflowed.
var ErrConnClosed = errors.New("connection closed")

// Conn wraps one WebSocket client. Outbound messages are serialized
// through a buffered channel drained by a single write pump; inbound
// frames are handed to the onMessage callback from the read pump.
type Conn struct {
	ws        *websocket.Conn
	send      chan *Message
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	onMessage func(*Message)
	onClose   func()
}

// NewConn wraps an upgraded WebSocket connection. onMessage receives
// every inbound frame (nil for read-only connections); onClose fires
// once when the connection dies for any reason.
func NewConn(ws *websocket.Conn, logger *log.Logger, onMessage func(*Message), onClose func()) *Conn {
	ctx, cancel := context.WithCancel(context.Background())
	return &Conn{
		ws:        ws,
		send:      make(chan *Message, 256),
		logger:    logger.WithPrefix("conn"),
		ctx:       ctx,
		cancel:    cancel,
		onMessage: onMessage,
		onClose:   onClose,
	}
}

// Start launches the read and write pumps.
func (c *Conn) Start() {
	go c.writePump()
	go c.readPump()
}

// Close tears the connection down. Safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.ws.Close()
		if c.onClose != nil {
			c.onClose()
		}
	})
	return err
}

// Send queues a message for delivery. A full buffer counts as a dead
// connection: the broker treats the error by dropping the client.
func (c *Conn) Send(msg *Message) error {
	select {
	case <-c.ctx.Done():
		return ErrConnClosed
	default:
	}

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return ErrConnClosed
	default:
		c.logger.Warn("send buffer full, dropping connection")
		_ = c.Close()
		return ErrConnClosed
	}
}

func (c *Conn) readPump() {
	defer func() { _ = c.Close() }()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read failed", "error", err)
			}
			return
		}
		if c.onMessage != nil {
			c.onMessage(&msg)
		}
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(msg); err != nil {
				c.logger.Debug("websocket write failed", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}
