package main

import (
	"context"
	"os"

	"github.com/lox/casino/internal/server"
)

// ServeCmd runs the WebSocket server.
type ServeCmd struct {
	Addr string `help:"Address to listen on (overrides config)"`
	Seed *int64 `help:"Deterministic RNG seed (optional)"`
}

func (c *ServeCmd) Run(g *Globals) error {
	a, err := g.setup(context.Background(), os.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	addr := c.Addr
	if addr == "" {
		addr = a.cfg.Addr()
	}

	settings := a.cfg.TableSettings()
	a.logger.Info("Starting casino server",
		"addr", addr,
		"ledger", a.cfg.Ledger.Driver,
		"timeout", settings.Timeout,
		"min_bet", settings.MinBet,
		"max_bet", settings.MaxBet,
		"deck_mode", settings.DeckMode)

	srv := server.NewServer(addr, a.table(c.Seed), a.store, a.logger,
		server.WithAllowedOrigins(a.cfg.Server.AllowedOrigins...))

	ctx, cancel := setupSignalHandler(a.logger)
	defer cancel()
	return srv.Serve(ctx)
}
