// Package ledger keeps player balances. Games only ever see the Bank
// interface; the backing store is chosen by configuration.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
)

var (
	// ErrInsufficientFunds is returned by Withdraw when the balance does not cover the amount.
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")
	// ErrUnknownAccount is returned for a blank account name.
	ErrUnknownAccount = errors.New("ledger: unknown account")
	// ErrInvalidAmount is returned for negative amounts.
	ErrInvalidAmount = errors.New("ledger: invalid amount")
)

// Bank moves credits in and out of player accounts. An account that has never
// been seen starts with the ledger's starting balance.
type Bank interface {
	Balance(ctx context.Context, account string) (int64, error)
	Withdraw(ctx context.Context, account string, amount int64) error
	Deposit(ctx context.Context, account string, amount int64) error
}

// Store is a Bank that holds resources.
type Store interface {
	Bank
	Close() error
}

// Kind labels a journal entry.
type Kind string

const (
	KindWithdraw Kind = "withdraw"
	KindDeposit  Kind = "deposit"
)

// Entry is one balance movement.
type Entry struct {
	Account string `json:"account"`
	Kind    Kind   `json:"kind"`
	Amount  int64  `json:"amount"`
	Balance int64  `json:"balance"`
}

// Driver names a backing store.
type Driver string

const (
	DriverMemory   Driver = "memory"
	DriverFile     Driver = "file"
	DriverPostgres Driver = "postgres"
)

// Options selects and configures a store.
type Options struct {
	Driver          Driver
	Path            string
	DSN             string
	StartingBalance int64
}

// Open creates the store described by opts.
func Open(ctx context.Context, opts Options, logger *log.Logger) (Store, error) {
	switch opts.Driver {
	case DriverMemory, "":
		return NewMemory(opts.StartingBalance), nil
	case DriverFile:
		return OpenFile(opts.Path, opts.StartingBalance, logger)
	case DriverPostgres:
		pg, err := OpenPostgres(ctx, opts.DSN, opts.StartingBalance, logger)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("ledger: unknown driver %q", opts.Driver)
	}
}

func checkAccount(account string) error {
	if strings.TrimSpace(account) == "" {
		return ErrUnknownAccount
	}
	return nil
}

func checkAmount(amount int64) error {
	if amount < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}
	return nil
}

// accounts is the balance table shared by the memory and file stores.
// Callers hold their own lock.
type accounts struct {
	starting int64
	balances map[string]int64
}

func newAccounts(starting int64) *accounts {
	return &accounts{starting: starting, balances: make(map[string]int64)}
}

func (a *accounts) balance(account string) int64 {
	if bal, ok := a.balances[account]; ok {
		return bal
	}
	return a.starting
}

// apply moves delta into account and returns the journal entry.
func (a *accounts) apply(account string, kind Kind, amount int64) (Entry, error) {
	if err := checkAccount(account); err != nil {
		return Entry{}, err
	}
	if err := checkAmount(amount); err != nil {
		return Entry{}, err
	}

	bal := a.balance(account)
	switch kind {
	case KindWithdraw:
		if bal < amount {
			return Entry{}, fmt.Errorf("%w: balance %d, need %d", ErrInsufficientFunds, bal, amount)
		}
		bal -= amount
	case KindDeposit:
		bal += amount
	}
	a.balances[account] = bal
	return Entry{Account: account, Kind: kind, Amount: amount, Balance: bal}, nil
}
