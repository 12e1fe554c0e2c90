package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/marcward/homegame/domain"
)

// Config represents the complete server configuration.
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Game   GameSettings   `hcl:"game,block"`
}

// ServerSettings contains server-level configuration.
type ServerSettings struct {
	Addr     string `hcl:"addr,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// GameSettings contains the table rules and lifecycle windows. Windows are
// Go duration strings, e.g. "10m" or "3h".
type GameSettings struct {
	SmallBlind      int    `hcl:"small_blind,optional"`
	StartingChips   int    `hcl:"starting_chips,optional"`
	MaxPlayers      int    `hcl:"max_players,optional"`
	ReconnectWindow string `hcl:"reconnect_window,optional"`
	IdleWindow      string `hcl:"idle_window,optional"`
	MaxTableAge     string `hcl:"max_table_age,optional"`
	SweepInterval   string `hcl:"sweep_interval,optional"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Addr:     ":5001",
			LogLevel: "info",
		},
		Game: GameSettings{
			SmallBlind:      10,
			StartingChips:   1000,
			MaxPlayers:      8,
			ReconnectWindow: "10m",
			IdleWindow:      "5m",
			MaxTableAge:     "3h",
			SweepInterval:   "15m",
		},
	}
}

// LoadConfig loads configuration from an HCL file. A missing file yields the
// defaults; a present but invalid file is an error.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var cfg Config
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaults.Server.Addr
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = defaults.Server.LogLevel
	}
	if cfg.Game.SmallBlind == 0 {
		cfg.Game.SmallBlind = defaults.Game.SmallBlind
	}
	if cfg.Game.StartingChips == 0 {
		cfg.Game.StartingChips = defaults.Game.StartingChips
	}
	if cfg.Game.MaxPlayers == 0 {
		cfg.Game.MaxPlayers = defaults.Game.MaxPlayers
	}
	if cfg.Game.ReconnectWindow == "" {
		cfg.Game.ReconnectWindow = defaults.Game.ReconnectWindow
	}
	if cfg.Game.IdleWindow == "" {
		cfg.Game.IdleWindow = defaults.Game.IdleWindow
	}
	if cfg.Game.MaxTableAge == "" {
		cfg.Game.MaxTableAge = defaults.Game.MaxTableAge
	}
	if cfg.Game.SweepInterval == "" {
		cfg.Game.SweepInterval = defaults.Game.SweepInterval
	}
}

// Validate checks the configuration for nonsensical values.
func (c *Config) Validate() error {
	if c.Game.SmallBlind <= 0 {
		return fmt.Errorf("small_blind must be positive, got %d", c.Game.SmallBlind)
	}
	if c.Game.StartingChips < c.Game.SmallBlind*2 {
		return fmt.Errorf("starting_chips %d cannot cover the big blind %d", c.Game.StartingChips, c.Game.SmallBlind*2)
	}
	if c.Game.MaxPlayers < 2 {
		return fmt.Errorf("max_players must be at least 2, got %d", c.Game.MaxPlayers)
	}

	if _, err := c.LobbyConfig(); err != nil {
		return err
	}
	return nil
}

// LobbyConfig translates the settings into the domain's lobby configuration.
func (c *Config) LobbyConfig() (domain.LobbyConfig, error) {
	windows := map[string]string{
		"reconnect_window": c.Game.ReconnectWindow,
		"idle_window":      c.Game.IdleWindow,
		"max_table_age":    c.Game.MaxTableAge,
		"sweep_interval":   c.Game.SweepInterval,
	}

	parsed := make(map[string]time.Duration, len(windows))
	for key, value := range windows {
		d, err := time.ParseDuration(value)
		if err != nil {
			return domain.LobbyConfig{}, fmt.Errorf("invalid %s %q: %w", key, value, err)
		}
		if d <= 0 {
			return domain.LobbyConfig{}, fmt.Errorf("%s must be positive, got %q", key, value)
		}
		parsed[key] = d
	}

	return domain.LobbyConfig{
		Rules: domain.TableRules{
			SmallBlind:    c.Game.SmallBlind,
			StartingChips: c.Game.StartingChips,
			MaxPlayers:    c.Game.MaxPlayers,
		},
		ReconnectWindow: parsed["reconnect_window"],
		IdleWindow:      parsed["idle_window"],
		MaxTableAge:     parsed["max_table_age"],
		SweepInterval:   parsed["sweep_interval"],
	}, nil
}
