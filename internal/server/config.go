package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the full server configuration, loadable from an HCL file.
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Game   GameSettings   `hcl:"game,block"`
}

// ServerSettings is the server block of the config file.
type ServerSettings struct {
	ListenAddr  string `hcl:"listen_addr,optional"`
	DatabaseURL string `hcl:"database_url,optional"`
	LogLevel    string `hcl:"log_level,optional"`
}

// GameSettings is the game block: table rules shared by every room.
type GameSettings struct {
	StartingChips    int   `hcl:"starting_chips,optional"`
	SmallBlind       int   `hcl:"small_blind,optional"`
	BigBlind         int   `hcl:"big_blind,optional"`
	HandLimit        int   `hcl:"hand_limit,optional"`
	TurnTimerSeconds int   `hcl:"turn_timer_seconds,optional"`
	MinPlayers       int   `hcl:"min_players,optional"`
	MaxPlayers       int   `hcl:"max_players,optional"`
	Points           []int `hcl:"points_by_placement,optional"`
}

// TurnTimer returns the per-turn deadline as a duration.
func (g GameSettings) TurnTimer() time.Duration {
	return time.Duration(g.TurnTimerSeconds) * time.Second
}

// InterHandPause is the delay between hands. It is not configurable.
const InterHandPause = 3 * time.Second

// DefaultConfig returns the standard tournament configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			ListenAddr: ":8080",
			LogLevel:   "info",
		},
		Game: GameSettings{
			StartingChips:    1000,
			SmallBlind:       10,
			BigBlind:         20,
			HandLimit:        50,
			TurnTimerSeconds: 30,
			MinPlayers:       2,
			MaxPlayers:       4,
			Points:           []int{10, 5, 2, 1},
		},
	}
}

// LoadConfig reads an HCL config file, filling unset values with
// defaults. A missing file yields the defaults.
func LoadConfig(filename string) (*Config, error) {
	config := DefaultConfig()
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return config, nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse config: %s", diags.Error())
	}

	var loaded Config
	if diags := gohcl.DecodeBody(file.Body, nil, &loaded); diags.HasErrors() {
		return nil, fmt.Errorf("decode config: %s", diags.Error())
	}

	if loaded.Server.ListenAddr != "" {
		config.Server.ListenAddr = loaded.Server.ListenAddr
	}
	if loaded.Server.DatabaseURL != "" {
		config.Server.DatabaseURL = loaded.Server.DatabaseURL
	}
	if loaded.Server.LogLevel != "" {
		config.Server.LogLevel = loaded.Server.LogLevel
	}
	if loaded.Game.StartingChips != 0 {
		config.Game.StartingChips = loaded.Game.StartingChips
	}
	if loaded.Game.SmallBlind != 0 {
		config.Game.SmallBlind = loaded.Game.SmallBlind
	}
	if loaded.Game.BigBlind != 0 {
		config.Game.BigBlind = loaded.Game.BigBlind
	}
	if loaded.Game.HandLimit != 0 {
		config.Game.HandLimit = loaded.Game.HandLimit
	}
	if loaded.Game.TurnTimerSeconds != 0 {
		config.Game.TurnTimerSeconds = loaded.Game.TurnTimerSeconds
	}
	if loaded.Game.MinPlayers != 0 {
		config.Game.MinPlayers = loaded.Game.MinPlayers
	}
	if loaded.Game.MaxPlayers != 0 {
		config.Game.MaxPlayers = loaded.Game.MaxPlayers
	}
	if len(loaded.Game.Points) != 0 {
		config.Game.Points = loaded.Game.Points
	}
	return config, nil
}

// Validate checks the configuration ranges.
func (c *Config) Validate() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("listen address is required")
	}
	g := c.Game
	if g.SmallBlind <= 0 {
		return fmt.Errorf("small blind must be positive")
	}
	if g.BigBlind <= g.SmallBlind {
		return fmt.Errorf("big blind must be greater than small blind")
	}
	if g.StartingChips < g.BigBlind {
		return fmt.Errorf("starting chips must cover the big blind")
	}
	if g.HandLimit <= 0 {
		return fmt.Errorf("hand limit must be positive")
	}
	if g.TurnTimerSeconds <= 0 {
		return fmt.Errorf("turn timer must be positive")
	}
	if g.MinPlayers < 2 {
		return fmt.Errorf("min players must be at least 2")
	}
	if g.MaxPlayers < g.MinPlayers {
		return fmt.Errorf("max players must be at least min players")
	}
	return nil
}
