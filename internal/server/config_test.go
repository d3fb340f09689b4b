package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.hcl"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
	assert.Equal(t, 1000, cfg.Game.StartingChips)
	assert.Equal(t, 10, cfg.Game.SmallBlind)
	assert.Equal(t, 20, cfg.Game.BigBlind)
	assert.Equal(t, 50, cfg.Game.HandLimit)
	assert.Equal(t, 30*time.Second, cfg.Game.TurnTimer())
	assert.Equal(t, []int{10, 5, 2, 1}, cfg.Game.Points)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "holdem.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
server {
  listen_addr  = ":9090"
  database_url = "postgres://localhost/holdem"
}

game {
  starting_chips     = 2000
  small_blind        = 25
  big_blind          = 50
  turn_timer_seconds = 15
}
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.ListenAddr)
	assert.Equal(t, "postgres://localhost/holdem", cfg.Server.DatabaseURL)
	assert.Equal(t, 2000, cfg.Game.StartingChips)
	assert.Equal(t, 25, cfg.Game.SmallBlind)
	assert.Equal(t, 50, cfg.Game.BigBlind)
	// Untouched values keep their defaults.
	assert.Equal(t, 50, cfg.Game.HandLimit)
	assert.Equal(t, 4, cfg.Game.MaxPlayers)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigRejectsBadHCL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`server {`), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(c *Config) {}, ""},
		{"big blind below small blind", func(c *Config) { c.Game.BigBlind = 5 }, "big blind"},
		{"zero small blind", func(c *Config) { c.Game.SmallBlind = 0 }, "small blind"},
		{"chips below big blind", func(c *Config) { c.Game.StartingChips = 10 }, "starting chips"},
		{"min players too low", func(c *Config) { c.Game.MinPlayers = 1 }, "min players"},
		{"max below min", func(c *Config) { c.Game.MaxPlayers = 1 }, "max players"},
		{"zero hand limit", func(c *Config) { c.Game.HandLimit = 0 }, "hand limit"},
		{"zero turn timer", func(c *Config) { c.Game.TurnTimerSeconds = 0 }, "turn timer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}
