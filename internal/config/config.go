// Package config loads the casino configuration from HCL with optional .env
// overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/joho/godotenv"

	"github.com/lox/casino/internal/casino"
	"github.com/lox/casino/internal/ledger"
)

// Environment variables that override the file.
const (
	EnvDSN      = "CASINO_DSN"
	EnvLedger   = "CASINO_LEDGER"
	EnvLogLevel = "CASINO_LOG_LEVEL"
)

// Config is the complete configuration.
type Config struct {
	Casino *CasinoSettings `hcl:"casino,block"`
	Games  []GameConfig    `hcl:"game,block"`
	Ledger *LedgerSettings `hcl:"ledger,block"`
	Server *ServerSettings `hcl:"server,block"`
}

// CasinoSettings are the table rules.
type CasinoSettings struct {
	TimeoutSeconds  int    `hcl:"timeout_seconds,optional"`
	MinBet          int64  `hcl:"min_bet,optional"`
	MaxBet          int64  `hcl:"max_bet,optional"`
	StartingBalance int64  `hcl:"starting_balance,optional"`
	DeckMode        string `hcl:"deck_mode,optional"`
	AllinMultiplier int    `hcl:"allin_multiplier,optional"`
}

// GameConfig overrides one game's payout or availability.
type GameConfig struct {
	Name    string   `hcl:"name,label"`
	Payout  *float64 `hcl:"payout,optional"`
	Enabled *bool    `hcl:"enabled,optional"`
}

// LedgerSettings selects where balances live.
type LedgerSettings struct {
	Driver string `hcl:"driver,optional"`
	Path   string `hcl:"path,optional"`
	DSN    string `hcl:"dsn,optional"`
}

// ServerSettings configures the websocket server.
type ServerSettings struct {
	Address        string   `hcl:"address,optional"`
	Port           int      `hcl:"port,optional"`
	LogLevel       string   `hcl:"log_level,optional"`
	AllowedOrigins []string `hcl:"allowed_origins,optional"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads filename, falling back to defaults when it does not exist.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var c Config
	diags = gohcl.DecodeBody(file.Body, nil, &c)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Casino == nil {
		c.Casino = &CasinoSettings{}
	}
	if c.Casino.TimeoutSeconds == 0 {
		c.Casino.TimeoutSeconds = int(casino.DefaultTimeout / time.Second)
	}
	if c.Casino.MinBet == 0 {
		c.Casino.MinBet = 1
	}
	if c.Casino.MaxBet == 0 {
		c.Casino.MaxBet = 100000
	}
	if c.Casino.StartingBalance == 0 {
		c.Casino.StartingBalance = 1000
	}
	if c.Casino.DeckMode == "" {
		c.Casino.DeckMode = string(casino.DeckPerSession)
	}
	if c.Casino.AllinMultiplier == 0 {
		c.Casino.AllinMultiplier = casino.DefaultAllinMultiplier
	}

	if c.Ledger == nil {
		c.Ledger = &LedgerSettings{}
	}
	if c.Ledger.Driver == "" {
		c.Ledger.Driver = string(ledger.DriverFile)
	}
	if c.Ledger.Path == "" {
		c.Ledger.Path = "casino-ledger.json"
	}

	if c.Server == nil {
		c.Server = &ServerSettings{}
	}
	if c.Server.Address == "" {
		c.Server.Address = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
}

// LoadDotEnv loads variables from files into the process environment. Missing
// files are skipped.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides settings from the environment. lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvDSN); ok && v != "" {
		c.Ledger.DSN = v
	}
	if v, ok := lookup(EnvLedger); ok && v != "" {
		c.Ledger.Driver = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Server.LogLevel = v
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Casino.TimeoutSeconds < 1 {
		return fmt.Errorf("invalid timeout_seconds: %d", c.Casino.TimeoutSeconds)
	}
	if c.Casino.MinBet < 1 {
		return fmt.Errorf("invalid min_bet: %d", c.Casino.MinBet)
	}
	if c.Casino.MaxBet < c.Casino.MinBet {
		return fmt.Errorf("max_bet (%d) is below min_bet (%d)", c.Casino.MaxBet, c.Casino.MinBet)
	}
	if c.Casino.StartingBalance < 0 {
		return fmt.Errorf("invalid starting_balance: %d", c.Casino.StartingBalance)
	}
	switch casino.DeckMode(c.Casino.DeckMode) {
	case casino.DeckPerSession, casino.DeckShared:
	default:
		return fmt.Errorf("invalid deck_mode %q: must be %q or %q", c.Casino.DeckMode, casino.DeckPerSession, casino.DeckShared)
	}
	if c.Casino.AllinMultiplier < 1 {
		return fmt.Errorf("invalid allin_multiplier: %d", c.Casino.AllinMultiplier)
	}

	seen := make(map[string]bool)
	for _, g := range c.Games {
		game, ok := casino.Lookup(g.Name)
		if !ok {
			return fmt.Errorf("unknown game %q", g.Name)
		}
		if seen[game.Name()] {
			return fmt.Errorf("game %q configured twice", game.Name())
		}
		seen[game.Name()] = true
		if g.Payout != nil && *g.Payout < 0 {
			return fmt.Errorf("game %q: invalid payout %v", g.Name, *g.Payout)
		}
	}

	switch ledger.Driver(c.Ledger.Driver) {
	case ledger.DriverMemory:
	case ledger.DriverFile:
		if c.Ledger.Path == "" {
			return errors.New("ledger path is required for the file driver")
		}
	case ledger.DriverPostgres:
		if c.Ledger.DSN == "" {
			return fmt.Errorf("ledger dsn is required for the postgres driver (or set %s)", EnvDSN)
		}
	default:
		return fmt.Errorf("invalid ledger driver %q", c.Ledger.Driver)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if _, err := log.ParseLevel(c.Server.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.Server.LogLevel, err)
	}
	return nil
}

// TableSettings converts the configuration into table rules.
func (c *Config) TableSettings() casino.Settings {
	s := casino.DefaultSettings()
	s.Timeout = time.Duration(c.Casino.TimeoutSeconds) * time.Second
	s.MinBet = c.Casino.MinBet
	s.MaxBet = c.Casino.MaxBet
	s.AllinMultiplier = c.Casino.AllinMultiplier
	s.DeckMode = casino.DeckMode(c.Casino.DeckMode)

	for _, g := range c.Games {
		game, ok := casino.Lookup(g.Name)
		if !ok {
			continue
		}
		gs := s.Game(game.Name())
		if g.Payout != nil {
			gs.Payout = *g.Payout
		}
		if g.Enabled != nil {
			gs.Enabled = *g.Enabled
		}
		s.Games[game.Name()] = gs
	}
	return s
}

// LedgerOptions converts the configuration into ledger options.
func (c *Config) LedgerOptions() ledger.Options {
	return ledger.Options{
		Driver:          ledger.Driver(c.Ledger.Driver),
		Path:            c.Ledger.Path,
		DSN:             c.Ledger.DSN,
		StartingBalance: c.Casino.StartingBalance,
	}
}

// LogLevel returns the configured level, defaulting to info.
func (c *Config) LogLevel() log.Level {
	level, err := log.ParseLevel(c.Server.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// Addr is the server listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
