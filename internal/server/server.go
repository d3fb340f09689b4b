// Package server hosts the tournament: an HTTP surface for the lobby,
// WebSocket channels for the lobby feed and each game room, a registry
// of rooms and the per-room game loops.
package server

import (
	"context"
	"fmt"
	rand "math/rand/v2"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/cardhall/holdem/internal/game"
	"github.com/cardhall/holdem/internal/gameid"
	"github.com/cardhall/holdem/internal/store"
)

// Server wires the registry, hub and room loops behind one HTTP
// listener.
type Server struct {
	cfg      *Config
	logger   *log.Logger
	clock    quartz.Clock
	registry *Registry
	hub      *Hub
	store    *store.Store // nil when persistence is disabled
	upgrader websocket.Upgrader

	// seedMu guards the rng handing each room its shuffle seed.
	seedMu sync.Mutex
	rng    *rand.Rand

	httpServer *http.Server
}

// Option customizes a Server.
type Option func(*Server)

// WithClock injects the clock used for every room timer.
func WithClock(clock quartz.Clock) Option {
	return func(s *Server) { s.clock = clock }
}

// WithStore injects the results store. Without one the server skips
// persistence.
func WithStore(st *store.Store) Option {
	return func(s *Server) { s.store = st }
}

// New creates a server. rng seeds each room's deck shuffles; pass a
// deterministic source for reproducible games.
func New(cfg *Config, logger *log.Logger, rng *rand.Rand, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		logger:   logger.WithPrefix("server"),
		clock:    quartz.NewReal(),
		registry: NewRegistry(),
		hub:      NewHub(logger),
		rng:      rng,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the full route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/games", s.handleListGames)
	mux.HandleFunc("POST /api/games", s.handleCreateGame)
	mux.HandleFunc("GET /api/games/{id}", s.handleGetGame)
	mux.HandleFunc("POST /api/games/{id}/join", s.handleJoinGame)
	mux.HandleFunc("GET /api/leaderboard", s.handleLeaderboard)
	mux.HandleFunc("GET /ws/lobby", s.handleLobbyWS)
	mux.HandleFunc("GET /ws/game/{id}", s.handleGameWS)
	return mux
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:    s.cfg.Server.ListenAddr,
		Handler: s.Handler(),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", "addr", s.cfg.Server.ListenAddr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("shutting down")
		return s.httpServer.Shutdown(context.Background())
	})
	return g.Wait()
}

// CreateRoom makes a room with the creator seated and starts its loop.
func (s *Server) CreateRoom(creator string) (*Room, game.Snapshot, error) {
	g := game.New(gameid.Generate(), creator, s.cfg.Game.MaxPlayers)
	if _, err := g.AddPlayer(creator, s.cfg.Game.StartingChips); err != nil {
		return nil, game.Snapshot{}, err
	}

	// An interface holding a nil *store.Store would not compare equal
	// to nil inside the room.
	var results ResultStore
	if s.store != nil {
		results = s.store
	}

	room := NewRoom(g, s.cfg.Game, RoomDeps{
		Logger:      s.logger,
		Clock:       s.clock,
		Broadcaster: s.hub,
		Store:       results,
		Rand:        s.roomRand(),
		// Run async: the lobby snapshot queries every room's loop,
		// including the one raising the notification.
		NotifyLobby: func() { go s.broadcastLobbyUpdate() },
		OnFinished: func(roomID string) {
			s.registry.Remove(roomID)
			s.hub.RemoveRoom(roomID)
		},
	})
	s.registry.Add(room)
	go room.Run()

	s.logger.Info("room created", "room_id", g.ID, "creator", creator)
	s.broadcastLobbyUpdate()
	return room, g.Snapshot(), nil
}

// roomRand derives an independent deterministic source for one room.
func (s *Server) roomRand() *rand.Rand {
	s.seedMu.Lock()
	defer s.seedMu.Unlock()
	return rand.New(rand.NewPCG(s.rng.Uint64(), s.rng.Uint64()))
}

// broadcastLobbyUpdate pushes the waiting-room list to every lobby
// subscriber.
func (s *Server) broadcastLobbyUpdate() {
	msg, err := NewMessage(EventLobbyUpdate, LobbyUpdatePayload{Games: s.registry.ListWaiting()})
	if err != nil {
		s.logger.Error("failed to encode lobby update", "error", err)
		return
	}
	s.hub.BroadcastLobby(msg)
}
