package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/coder/quartz"

	"github.com/lox/casino/internal/chat"
	"github.com/lox/casino/internal/lobby"
	"github.com/lox/casino/internal/render"
	"github.com/lox/casino/internal/tui"
)

// PlayCmd plays at the table from the terminal.
type PlayCmd struct {
	Account string `arg:"" optional:"" help:"Account to play as (defaults to $USER)"`
	Name    string `help:"Display name (defaults to the account)"`
	Plain   bool   `help:"Read commands from stdin and print plain text instead of opening the chat window"`
	LogFile string `default:"casino.log" help:"Log file used while the chat window is open"`
	Seed    *int64 `help:"Deterministic RNG seed (optional)"`
}

func (c *PlayCmd) Run(g *Globals) error {
	account := c.Account
	if account == "" {
		account = os.Getenv("USER")
	}
	if account == "" {
		account = "player"
	}
	name := c.Name
	if name == "" {
		name = account
	}

	// The chat window owns the terminal, so logs go to a file
	logOut := io.Writer(os.Stderr)
	if !c.Plain {
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer func() { _ = f.Close() }()
		logOut = f
	}

	a, err := g.setup(context.Background(), logOut)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx, cancel := setupSignalHandler(a.logger)
	defer cancel()

	l := lobby.New(a.table(c.Seed), a.store, quartz.NewReal(), a.logger)
	a.logger.Info("Starting casino", "account", account, "plain", c.Plain)

	if c.Plain {
		stream := chat.NewStream(os.Stdin, os.Stdout, render.New(os.Stdout).Message)
		return l.Serve(ctx, stream, account, name)
	}
	return tui.Run(ctx, l, account, name, render.New(os.Stdout), a.logger)
}
