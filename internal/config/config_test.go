package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/casino/internal/casino"
	"github.com/lox/casino/internal/ledger"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.hcl"))
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, 35, c.Casino.TimeoutSeconds)
	assert.Equal(t, int64(1000), c.Casino.StartingBalance)
	assert.Equal(t, "file", c.Ledger.Driver)
	assert.Equal(t, "localhost:8080", c.Addr())

	s := c.TableSettings()
	assert.Equal(t, casino.DefaultTimeout, s.Timeout)
	assert.Equal(t, casino.DeckPerSession, s.DeckMode)
	assert.Equal(t, 2.0, s.Game("Blackjack").Payout)
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "casino.hcl", `
casino {
  timeout_seconds  = 10
  min_bet          = 5
  max_bet          = 500
  starting_balance = 250
  deck_mode        = "shared"
  allin_multiplier = 3
}

game "blackjack" {
  payout = 2.5
}

game "Craps" {
  enabled = false
}

ledger {
  driver = "memory"
}

server {
  address         = "0.0.0.0"
  port            = 9000
  log_level       = "debug"
  allowed_origins = ["https://example.com"]
}
`)

	c, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	s := c.TableSettings()
	assert.Equal(t, 10*time.Second, s.Timeout)
	assert.Equal(t, int64(5), s.MinBet)
	assert.Equal(t, int64(500), s.MaxBet)
	assert.Equal(t, casino.DeckShared, s.DeckMode)
	assert.Equal(t, 3, s.AllinMultiplier)
	assert.Equal(t, casino.GameSettings{Payout: 2.5, Enabled: true}, s.Game("Blackjack"))
	assert.Equal(t, casino.GameSettings{Payout: 2, Enabled: false}, s.Game("Craps"))
	assert.Equal(t, 1.5, s.Game("Coin").Payout)

	opts := c.LedgerOptions()
	assert.Equal(t, ledger.DriverMemory, opts.Driver)
	assert.Equal(t, int64(250), opts.StartingBalance)

	assert.Equal(t, "0.0.0.0:9000", c.Addr())
	assert.Equal(t, log.DebugLevel, c.LogLevel())
	assert.Equal(t, []string{"https://example.com"}, c.Server.AllowedOrigins)
}

func TestLoadRejectsBadHCL(t *testing.T) {
	_, err := Load(writeFile(t, "bad.hcl", `casino {`))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "unknown.hcl", `casino { colour = "red" }`))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	payout := -1.0
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"timeout", func(c *Config) { c.Casino.TimeoutSeconds = -1 }},
		{"max below min", func(c *Config) { c.Casino.MinBet = 10; c.Casino.MaxBet = 5 }},
		{"deck mode", func(c *Config) { c.Casino.DeckMode = "infinite" }},
		{"allin multiplier", func(c *Config) { c.Casino.AllinMultiplier = -2 }},
		{"unknown game", func(c *Config) { c.Games = []GameConfig{{Name: "Roulette"}} }},
		{"duplicate game", func(c *Config) { c.Games = []GameConfig{{Name: "War"}, {Name: "war"}} }},
		{"negative payout", func(c *Config) { c.Games = []GameConfig{{Name: "War", Payout: &payout}} }},
		{"ledger driver", func(c *Config) { c.Ledger.Driver = "redis" }},
		{"postgres without dsn", func(c *Config) { c.Ledger.Driver = "postgres" }},
		{"port", func(c *Config) { c.Server.Port = 70000 }},
		{"log level", func(c *Config) { c.Server.LogLevel = "chatty" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvDSN:      "postgres://casino@localhost/casino",
		EnvLedger:   "postgres",
		EnvLogLevel: "warn",
	}
	c := Default()
	c.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	require.NoError(t, c.Validate())
	assert.Equal(t, ledger.DriverPostgres, c.LedgerOptions().Driver)
	assert.Equal(t, env[EnvDSN], c.LedgerOptions().DSN)
	assert.Equal(t, log.WarnLevel, c.LogLevel())
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "CASINO_TEST_DOTENV=loaded\n")
	t.Cleanup(func() { os.Unsetenv("CASINO_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"), path))
	assert.Equal(t, "loaded", os.Getenv("CASINO_TEST_DOTENV"))
}
