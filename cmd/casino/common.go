package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/casino/internal/casino"
	"github.com/lox/casino/internal/config"
	"github.com/lox/casino/internal/ledger"
	"github.com/lox/casino/internal/randutil"
)

// Globals are the flags shared by every command.
type Globals struct {
	Config  string `short:"c" default:"casino.hcl" help:"Path to HCL configuration file"`
	EnvFile string `name:"env-file" default:".env" help:"Dotenv file with CASINO_* overrides, skipped when missing"`
	Debug   bool   `help:"Enable debug logging"`
}

// loadConfig reads the dotenv file and configuration.
func (g *Globals) loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(g.EnvFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (g *Globals) newLogger(cfg *config.Config, w io.Writer) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Level:           cfg.LogLevel(),
	})
	if g.Debug {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// app is everything a command needs once configuration is loaded.
type app struct {
	cfg    *config.Config
	logger *log.Logger
	store  ledger.Store
}

// setup loads configuration and opens the ledger, logging to w.
func (g *Globals) setup(ctx context.Context, w io.Writer) (*app, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, err
	}
	logger := g.newLogger(cfg, w)

	store, err := ledger.Open(ctx, cfg.LedgerOptions(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	logger.Debug("Opened ledger", "driver", cfg.Ledger.Driver)
	return &app{cfg: cfg, logger: logger, store: store}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// table builds the casino table, seeded when seed is set.
func (a *app) table(seed *int64) *casino.Table {
	var opts []casino.Option
	if seed != nil {
		a.logger.Info("Using deterministic seed", "seed", *seed)
		opts = append(opts, casino.WithRand(randutil.New(*seed)))
	}
	return casino.NewTable(a.store, a.cfg.TableSettings(), a.logger, opts...)
}

// setupSignalHandler creates a context that is cancelled on interrupt signals.
func setupSignalHandler(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Received signal, shutting down gracefully", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
