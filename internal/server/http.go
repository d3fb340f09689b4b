package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// nicknameParam is the JSON body of create and join requests.
type nicknameParam struct {
	Nickname string `json:"nickname"`
}

// normalizeNickname trims and lower-cases a nickname. Empty after
// trimming is invalid.
func normalizeNickname(nickname string) (string, bool) {
	n := strings.ToLower(strings.TrimSpace(nickname))
	return n, n != ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	database := "not connected"
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if s.store.Ping(ctx) == nil {
			database = "connected"
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"message":  "Poker server is running",
		"database": database,
	})
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.ListWaiting())
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var params nicknameParam
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	nickname, ok := normalizeNickname(params.Nickname)
	if !ok {
		writeError(w, http.StatusBadRequest, "Nickname cannot be empty")
		return
	}

	_, snap, err := s.CreateRoom(nickname)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	room := s.registry.Get(r.PathValue("id"))
	if room == nil {
		writeError(w, http.StatusNotFound, "Game not found")
		return
	}
	snap, ok := room.Snapshot()
	if !ok {
		writeError(w, http.StatusNotFound, "Game not found")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleJoinGame(w http.ResponseWriter, r *http.Request) {
	room := s.registry.Get(r.PathValue("id"))
	if room == nil {
		writeError(w, http.StatusNotFound, "Game not found")
		return
	}

	var params nicknameParam
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	nickname, ok := normalizeNickname(params.Nickname)
	if !ok {
		writeError(w, http.StatusBadRequest, "Nickname cannot be empty")
		return
	}

	snap, err := room.Join(nickname)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "Database not available")
		return
	}

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	entries, err := s.store.Leaderboard(r.Context(), limit)
	if err != nil {
		s.logger.Error("leaderboard query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load leaderboard")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
