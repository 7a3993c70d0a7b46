package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/lox/casino/internal/fileutil"
)

// fileFormat is the on-disk layout of a file ledger.
type fileFormat struct {
	StartingBalance int64            `json:"starting_balance"`
	Accounts        map[string]int64 `json:"accounts"`
}

// File is a ledger persisted as a JSON document. Every movement rewrites the
// whole file atomically.
type File struct {
	mu       sync.Mutex
	path     string
	accounts *accounts
	logger   *log.Logger
}

// OpenFile loads the ledger at path, creating an empty one if the file does not exist.
func OpenFile(path string, starting int64, logger *log.Logger) (*File, error) {
	if path == "" {
		return nil, errors.New("ledger: file path is required")
	}
	f := &File{
		path:     path,
		accounts: newAccounts(starting),
		logger:   logger.WithPrefix("ledger").With("path", path),
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		f.logger.Debug("Starting new ledger file")
		return f, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	var doc fileFormat
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse ledger %s: %w", path, err)
	}
	for account, bal := range doc.Accounts {
		f.accounts.balances[account] = bal
	}
	f.logger.Debug("Loaded ledger", "accounts", len(doc.Accounts))
	return f, nil
}

// Balance implements Bank.
func (f *File) Balance(_ context.Context, account string) (int64, error) {
	if err := checkAccount(account); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accounts.balance(account), nil
}

// Withdraw implements Bank.
func (f *File) Withdraw(_ context.Context, account string, amount int64) error {
	return f.record(account, KindWithdraw, amount)
}

// Deposit implements Bank.
func (f *File) Deposit(_ context.Context, account string, amount int64) error {
	return f.record(account, KindDeposit, amount)
}

func (f *File) record(account string, kind Kind, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev, existed := f.accounts.balances[account]
	entry, err := f.accounts.apply(account, kind, amount)
	if err != nil {
		return err
	}
	if err := f.save(); err != nil {
		if existed {
			f.accounts.balances[account] = prev
		} else {
			delete(f.accounts.balances, account)
		}
		f.logger.Error("Failed to persist ledger", "account", account, "error", err)
		return err
	}
	f.logger.Debug("Recorded", "account", entry.Account, "kind", entry.Kind, "amount", entry.Amount, "balance", entry.Balance)
	return nil
}

func (f *File) save() error {
	doc := fileFormat{
		StartingBalance: f.accounts.starting,
		Accounts:        f.accounts.balances,
	}
	return fileutil.WriteJSONAtomic(f.path, doc, 0o600)
}

// Close implements Store.
func (f *File) Close() error { return nil }
