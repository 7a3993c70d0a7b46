package ledger

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

// exerciseBank runs the behaviour every Bank must share.
func exerciseBank(t *testing.T, bank Bank) {
	t.Helper()
	ctx := context.Background()

	bal, err := bank.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(100), bal, "new accounts start with the starting balance")

	require.NoError(t, bank.Withdraw(ctx, "alice", 30))
	require.NoError(t, bank.Deposit(ctx, "alice", 5))
	bal, err = bank.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(75), bal)

	err = bank.Withdraw(ctx, "alice", 76)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	bal, err = bank.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(75), bal, "a failed withdrawal leaves the balance alone")

	require.NoError(t, bank.Withdraw(ctx, "alice", 75), "withdrawing the exact balance is allowed")

	assert.ErrorIs(t, bank.Deposit(ctx, " ", 1), ErrUnknownAccount)
	assert.ErrorIs(t, bank.Deposit(ctx, "bob", -1), ErrInvalidAmount)
}

func TestMemory(t *testing.T) {
	t.Parallel()
	exerciseBank(t, NewMemory(100))
}

func TestMemoryJournal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory(0)
	m.Set("carol", 50)

	require.NoError(t, m.Withdraw(ctx, "carol", 20))
	require.NoError(t, m.Deposit(ctx, "carol", 20))
	require.NoError(t, m.Deposit(ctx, "dave", 7))

	assert.Equal(t, []int64{20}, m.Deposits("carol"))
	assert.Equal(t, []int64{20}, m.Withdrawals("carol"))
	assert.Equal(t, []Entry{
		{Account: "carol", Kind: KindWithdraw, Amount: 20, Balance: 30},
		{Account: "carol", Kind: KindDeposit, Amount: 20, Balance: 50},
		{Account: "dave", Kind: KindDeposit, Amount: 7, Balance: 7},
	}, m.Journal())
}

func TestMemoryConcurrent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory(1000)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Withdraw(ctx, "eve", 10)
			_ = m.Deposit(ctx, "eve", 5)
		}()
	}
	wg.Wait()

	bal, err := m.Balance(ctx, "eve")
	require.NoError(t, err)
	assert.Equal(t, int64(750), bal)
}

func TestFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "ledger.json")

	f, err := OpenFile(path, 100, testLogger())
	require.NoError(t, err)
	exerciseBank(t, f)
}

func TestFilePersists(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.json")

	f, err := OpenFile(path, 100, testLogger())
	require.NoError(t, err)
	require.NoError(t, f.Deposit(ctx, "frank", 25))
	require.NoError(t, f.Close())

	reopened, err := OpenFile(path, 100, testLogger())
	require.NoError(t, err)
	bal, err := reopened.Balance(ctx, "frank")
	require.NoError(t, err)
	assert.Equal(t, int64(125), bal)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files are left behind")
}

func TestFileRejectsCorruptLedger(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "ledger.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := OpenFile(path, 100, testLogger())
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store, err := Open(ctx, Options{Driver: DriverMemory, StartingBalance: 10}, testLogger())
	require.NoError(t, err)
	bal, err := store.Balance(ctx, "gina")
	require.NoError(t, err)
	assert.Equal(t, int64(10), bal)

	store, err = Open(ctx, Options{Driver: DriverFile, Path: filepath.Join(t.TempDir(), "l.json")}, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &File{}, store)

	_, err = Open(ctx, Options{Driver: "redis"}, testLogger())
	assert.Error(t, err)

	_, err = Open(ctx, Options{Driver: DriverPostgres}, testLogger())
	assert.Error(t, err, "postgres needs a dsn")
}

func TestPostgres(t *testing.T) {
	dsn := os.Getenv("CASINO_TEST_DSN")
	if dsn == "" {
		t.Skip("CASINO_TEST_DSN not set")
	}
	ctx := context.Background()

	pg, err := OpenPostgres(ctx, dsn, 100, testLogger())
	require.NoError(t, err)
	defer pg.Close()
	require.NoError(t, pg.Migrate(ctx))

	_, err = pg.pool.Exec(ctx, "TRUNCATE ledger_entries, accounts")
	require.NoError(t, err)

	exerciseBank(t, pg)

	entries, err := pg.Journal(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, Entry{Account: "alice", Kind: KindWithdraw, Amount: 75, Balance: 0}, entries[0])
}
