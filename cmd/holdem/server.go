package main

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cardhall/holdem/cmd/holdem/shared"
	"github.com/cardhall/holdem/internal/randutil"
	"github.com/cardhall/holdem/internal/server"
	"github.com/cardhall/holdem/internal/store"
)

// ServerCmd contains core server configuration
type ServerCmd struct {
	Addr        string `kong:"env='LISTEN_ADDR',help='Listen address (overrides config file)'"`
	DatabaseURL string `kong:"env='DATABASE_URL',help='Postgres URL for the leaderboard (overrides config file)'"`
	Config      string `kong:"default='holdem.hcl',help='Path to HCL config file'"`
	Debug       bool   `kong:"help='Enable debug logging'"`
	Seed        *int64 `kong:"help='Deterministic RNG seed for the server (optional)'"`
}

func (c *ServerCmd) Run() error {
	logger := shared.SetupLogger(c.Debug)

	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	if c.Addr != "" {
		cfg.Server.ListenAddr = c.Addr
	}
	if c.DatabaseURL != "" {
		cfg.Server.DatabaseURL = c.DatabaseURL
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var seed int64
	if c.Seed != nil {
		seed = *c.Seed
		logger.Info("using deterministic seed", "seed", seed)
	} else {
		seed = time.Now().UnixNano()
	}
	rng := randutil.New(seed)

	ctx := shared.SetupSignalHandler(logger)

	opts := []server.Option{}
	if cfg.Server.DatabaseURL != "" {
		st, err := openStore(ctx, cfg.Server.DatabaseURL, logger)
		if err != nil {
			// The tables still play without a database; only the
			// leaderboard goes dark.
			logger.Error("database unavailable, continuing without persistence", "error", err)
		} else {
			defer st.Close()
			opts = append(opts, server.WithStore(st))
		}
	}

	s := server.New(cfg, logger, rng, opts...)

	logger.Info("starting holdem server",
		"addr", cfg.Server.ListenAddr,
		"small_blind", cfg.Game.SmallBlind,
		"big_blind", cfg.Game.BigBlind,
		"starting_chips", cfg.Game.StartingChips,
		"hand_limit", cfg.Game.HandLimit,
		"max_players", cfg.Game.MaxPlayers,
		"persistence", cfg.Server.DatabaseURL != "")

	return s.Start(ctx)
}

func openStore(ctx context.Context, databaseURL string, logger *log.Logger) (*store.Store, error) {
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	st, err := store.Open(openCtx, databaseURL, logger)
	if err != nil {
		return nil, err
	}
	if err := st.EnsureSchema(openCtx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}
