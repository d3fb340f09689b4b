// Package client talks to a holdem server: lobby CRUD over HTTP and
// the lobby/game event channels over WebSockets. The terminal client
// is built on it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/cardhall/holdem/internal/game"
	"github.com/cardhall/holdem/internal/server"
	"github.com/cardhall/holdem/internal/store"
)

// Client issues lobby requests against one server.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Logger
}

// New creates a client for the server at baseURL (e.g.
// "http://localhost:8080").
func New(baseURL string, logger *log.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		logger:  logger.WithPrefix("client"),
	}
}

// apiError is the server's JSON error body.
type apiError struct {
	Error string `json:"error"`
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("server returned %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Health reports the server and database status.
func (c *Client) Health(ctx context.Context) (map[string]string, error) {
	var out map[string]string
	if err := c.doJSON(ctx, http.MethodGet, "/api/health", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListGames returns the rooms accepting players.
func (c *Client) ListGames(ctx context.Context) ([]game.Snapshot, error) {
	var out []game.Snapshot
	if err := c.doJSON(ctx, http.MethodGet, "/api/games", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateGame makes a room with the given nickname as creator.
func (c *Client) CreateGame(ctx context.Context, nickname string) (game.Snapshot, error) {
	var out game.Snapshot
	err := c.doJSON(ctx, http.MethodPost, "/api/games",
		map[string]string{"nickname": nickname}, &out)
	return out, err
}

// JoinGame seats the nickname in an existing room.
func (c *Client) JoinGame(ctx context.Context, gameID, nickname string) (game.Snapshot, error) {
	var out game.Snapshot
	err := c.doJSON(ctx, http.MethodPost, "/api/games/"+gameID+"/join",
		map[string]string{"nickname": nickname}, &out)
	return out, err
}

// Leaderboard returns the all-time standings.
func (c *Client) Leaderboard(ctx context.Context, limit int) ([]store.LeaderboardEntry, error) {
	var out []store.LeaderboardEntry
	err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/leaderboard?limit=%d", limit), nil, &out)
	return out, err
}

// wsURL converts the HTTP base into a ws:// or wss:// endpoint.
func (c *Client) wsURL(path string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = path
	return u.String(), nil
}

// EventConn is one WebSocket channel. Events delivers every inbound
// frame until the connection dies, then closes.
type EventConn struct {
	conn   *websocket.Conn
	events chan *server.Message
	logger *log.Logger
}

// Events returns the inbound frame stream.
func (e *EventConn) Events() <-chan *server.Message {
	return e.events
}

// Close shuts the channel down.
func (e *EventConn) Close() error {
	return e.conn.Close()
}

func (e *EventConn) readLoop() {
	defer close(e.events)
	for {
		var msg server.Message
		if err := e.conn.ReadJSON(&msg); err != nil {
			e.logger.Debug("connection closed", "error", err)
			return
		}
		e.events <- &msg
	}
}

func (c *Client) dial(ctx context.Context, path, query string) (*EventConn, error) {
	wsURL, err := c.wsURL(path)
	if err != nil {
		return nil, err
	}
	if query != "" {
		wsURL += "?" + query
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", path, err)
	}

	e := &EventConn{
		conn:   conn,
		events: make(chan *server.Message, 64),
		logger: c.logger,
	}
	go e.readLoop()
	return e, nil
}

// ConnectLobby subscribes to lobby updates.
func (c *Client) ConnectLobby(ctx context.Context) (*EventConn, error) {
	return c.dial(ctx, "/ws/lobby", "")
}

// GameConn is a player's channel into one room.
type GameConn struct {
	*EventConn
}

// ConnectGame joins a room's event channel as the given player.
func (c *Client) ConnectGame(ctx context.Context, gameID, nickname string) (*GameConn, error) {
	e, err := c.dial(ctx, "/ws/game/"+gameID, "nickname="+url.QueryEscape(nickname))
	if err != nil {
		return nil, err
	}
	return &GameConn{EventConn: e}, nil
}

// StartGame asks the server to begin the tournament. Only the creator
// may do this.
func (g *GameConn) StartGame() error {
	msg, err := server.NewMessage(server.MsgStartGame, nil)
	if err != nil {
		return err
	}
	return g.conn.WriteJSON(msg)
}

// SendAction submits a table action. amount is the raise-to total and
// ignored for other actions.
func (g *GameConn) SendAction(action string, amount int) error {
	msg, err := server.NewMessage(server.MsgAction, server.ActionRequest{
		Action: action,
		Amount: amount,
	})
	if err != nil {
		return err
	}
	return g.conn.WriteJSON(msg)
}
