package casino

import (
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"github.com/lox/casino/internal/chat"
	"github.com/lox/casino/internal/deck"
	"github.com/lox/casino/internal/ledger"
	"github.com/lox/casino/internal/randutil"
)

const testAccount = "alice"

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

// testEnv builds an env over a stacked deck, scripted rolls and a memory bank.
func testEnv(cards string, rolls []int, bank ledger.Bank) Env {
	if bank == nil {
		bank = ledger.NewMemory(1000)
	}
	return Env{
		Account: testAccount,
		Player:  "Alice",
		Deck:    deck.NewStacked(deck.MustParseCards(cards)...),
		Rand:    randutil.NewFixed(rolls...),
		Bank:    bank,
		Logger:  testLogger(),
	}
}

// play runs a session to completion against scripted replies.
func play(t *testing.T, g Game, env Env, bet int64, choice string, replies ...string) (Result, *chat.Script) {
	t.Helper()
	script := chat.NewScript(replies...)
	res, err := Run(context.Background(), g.NewSession(env, bet, choice), script, DefaultTimeout, testLogger())
	require.NoError(t, err)
	return res, script
}
