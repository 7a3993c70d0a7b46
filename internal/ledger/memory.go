package ledger

import (
	"context"
	"sync"
)

// Memory is an in-process ledger. It keeps a journal of every movement so tests
// can assert on deposits and withdrawals.
type Memory struct {
	mu       sync.Mutex
	accounts *accounts
	journal  []Entry
}

// NewMemory creates an empty ledger where new accounts start with starting credits.
func NewMemory(starting int64) *Memory {
	return &Memory{accounts: newAccounts(starting)}
}

// Set forces an account balance.
func (m *Memory) Set(account string, balance int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts.balances[account] = balance
}

// Balance implements Bank.
func (m *Memory) Balance(_ context.Context, account string) (int64, error) {
	if err := checkAccount(account); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts.balance(account), nil
}

// Withdraw implements Bank.
func (m *Memory) Withdraw(_ context.Context, account string, amount int64) error {
	return m.record(account, KindWithdraw, amount)
}

// Deposit implements Bank.
func (m *Memory) Deposit(_ context.Context, account string, amount int64) error {
	return m.record(account, KindDeposit, amount)
}

func (m *Memory) record(account string, kind Kind, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, err := m.accounts.apply(account, kind, amount)
	if err != nil {
		return err
	}
	m.journal = append(m.journal, entry)
	return nil
}

// Journal returns every movement in order.
func (m *Memory) Journal() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry{}, m.journal...)
}

// Deposits returns the amounts deposited into account, in order.
func (m *Memory) Deposits(account string) []int64 {
	return m.amounts(account, KindDeposit)
}

// Withdrawals returns the amounts withdrawn from account, in order.
func (m *Memory) Withdrawals(account string) []int64 {
	return m.amounts(account, KindWithdraw)
}

func (m *Memory) amounts(account string, kind Kind) []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []int64
	for _, e := range m.journal {
		if e.Account == account && e.Kind == kind {
			out = append(out, e.Amount)
		}
	}
	return out
}

// Close implements Store.
func (m *Memory) Close() error { return nil }
