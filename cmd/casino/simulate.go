package main

import (
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/casino/internal/simulator"
)

// SimulateCmd plays many sessions with random players.
type SimulateCmd struct {
	Games    []string `arg:"" optional:"" help:"Games to simulate (default every enabled game)"`
	Sessions int      `short:"n" default:"1000" help:"Sessions per game"`
	Bet      int64    `default:"10" help:"Bet per session"`
	Workers  int      `default:"0" help:"Concurrent sessions (0 for GOMAXPROCS)"`
	Seed     *int64   `help:"Deterministic RNG seed (optional)"`
	Format   string   `enum:"text,yaml,json" default:"text" help:"Report format (text, yaml, json)"`
}

func (c *SimulateCmd) Run(g *Globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	logger := g.newLogger(cfg, os.Stderr)

	seed := time.Now().UnixNano()
	if c.Seed != nil {
		seed = *c.Seed
	}

	ctx, cancel := setupSignalHandler(logger)
	defer cancel()

	start := time.Now()
	logger.Info("Starting simulation", "games", c.Games, "sessions", c.Sessions, "bet", c.Bet, "seed", seed)

	// Per-session logging would swamp the report
	simLogger := logger.WithPrefix("sim")
	if !g.Debug {
		simLogger.SetLevel(log.WarnLevel)
	}

	collector, err := simulator.New(simulator.Config{
		Games:    c.Games,
		Sessions: c.Sessions,
		Bet:      c.Bet,
		Seed:     seed,
		Workers:  c.Workers,
		Settings: cfg.TableSettings(),
		Logger:   simLogger,
	}).Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("Simulation complete", "duration", time.Since(start).Round(time.Millisecond))
	return simulator.WriteReport(os.Stdout, collector.Summaries(), simulator.Format(c.Format))
}
