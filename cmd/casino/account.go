package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/lox/casino/internal/casino"
)

// BalanceCmd prints an account's balance.
type BalanceCmd struct {
	Account string `arg:"" help:"Account name"`
}

func (c *BalanceCmd) Run(g *Globals) error {
	ctx := context.Background()
	a, err := g.setup(ctx, os.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	balance, err := a.store.Balance(ctx, c.Account)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d credits\n", c.Account, balance)
	return nil
}

// DepositCmd credits an account.
type DepositCmd struct {
	Account string `arg:"" help:"Account name"`
	Amount  int64  `arg:"" help:"Credits to add"`
}

func (c *DepositCmd) Run(g *Globals) error {
	ctx := context.Background()
	a, err := g.setup(ctx, os.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if err := a.store.Deposit(ctx, c.Account, c.Amount); err != nil {
		return fmt.Errorf("failed to deposit: %w", err)
	}
	balance, err := a.store.Balance(ctx, c.Account)
	if err != nil {
		return err
	}
	a.logger.Info("Deposited", "account", c.Account, "amount", c.Amount, "balance", balance)
	fmt.Printf("%s: %d credits\n", c.Account, balance)
	return nil
}

// GamesCmd lists the games with their configured payouts.
type GamesCmd struct{}

func (c *GamesCmd) Run(g *Globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	settings := cfg.TableSettings()

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("Game", "Payout", "Enabled", "Description")
	for _, game := range casino.Games() {
		gs := settings.Game(game.Name())
		t.Row(game.Name(), "x"+strconv.FormatFloat(gs.Payout, 'g', -1, 64), strconv.FormatBool(gs.Enabled), game.Description())
	}
	fmt.Println(t.String())
	return nil
}
