package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// closePolicyViolation is sent when a game channel is rejected during
// the handshake: unknown room, bad nickname, not on the roster.
const closePolicyViolation = 4000

func (s *Server) handleLobbyWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("lobby upgrade failed", "error", err)
		return
	}

	var conn *Conn
	conn = NewConn(ws, s.logger, nil, func() {
		s.hub.DisconnectLobby(conn)
	})
	s.hub.ConnectLobby(conn)
	conn.Start()

	// Fresh subscribers get the current room list immediately.
	if msg, err := NewMessage(EventLobbyUpdate, LobbyUpdatePayload{Games: s.registry.ListWaiting()}); err == nil {
		_ = conn.Send(msg)
	}
}

func (s *Server) handleGameWS(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")
	nickname, validNick := normalizeNickname(r.URL.Query().Get("nickname"))

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("game upgrade failed", "error", err)
		return
	}

	reject := func(reason string) {
		data := websocket.FormatCloseMessage(closePolicyViolation, reason)
		_ = ws.WriteControl(websocket.CloseMessage, data, time.Now().Add(writeWait))
		_ = ws.Close()
	}

	if !validNick {
		reject("Nickname is required")
		return
	}
	room := s.registry.Get(roomID)
	if room == nil {
		reject("Game not found")
		return
	}
	if !room.HasPlayer(nickname) {
		reject("You are not a player in this game")
		return
	}

	var conn *Conn
	conn = NewConn(ws, s.logger,
		func(msg *Message) {
			room.HandleMessage(nickname, msg)
		},
		func() {
			s.hub.DisconnectRoom(roomID, nickname, conn)
			room.PlayerDisconnected(nickname)
		})
	s.hub.ConnectRoom(roomID, nickname, conn)
	conn.Start()

	snap, ok := room.Snapshot()
	if !ok {
		_ = conn.Close()
		return
	}
	if msg, err := NewMessage(EventGameJoined, GameJoinedPayload{Game: snap}); err == nil {
		_ = conn.Send(msg)
	}
	room.PlayerConnected(nickname)
}
