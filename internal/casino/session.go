// Package casino is the game resolution engine. Every game is a resumable
// session that deals, asks the player for decisions and finally settles to a
// Result. A Table dispatches requests to games and settles results against
// the bank.
package casino

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/casino/internal/chat"
	"github.com/lox/casino/internal/deck"
	"github.com/lox/casino/internal/ledger"
	"github.com/lox/casino/internal/randutil"
)

// DefaultTimeout is how long a prompt waits before applying its default.
const DefaultTimeout = 35 * time.Second

var (
	ErrUnknownGame   = errors.New("casino: unknown game")
	ErrGameDisabled  = errors.New("casino: game disabled")
	ErrInvalidBet    = errors.New("casino: invalid bet")
	ErrInvalidChoice = errors.New("casino: invalid choice")
	// ErrNotAwaiting is returned when a session is resumed without an open prompt.
	ErrNotAwaiting = errors.New("casino: session is not awaiting input")
)

// Result is the contract every game settles to. Amount is the settled wager
// after multipliers; the caller credits it when Won and forfeits it otherwise.
type Result struct {
	Won     bool
	Amount  int64
	Payload chat.Message
}

// Prompt is an open decision: the message to show and the replies that answer it.
type Prompt struct {
	Message chat.Message
	Choices []string
}

// Step is what a session produces each time it advances. Notices are sent
// first; then either Prompt is awaited or Result ends the session.
type Step struct {
	Notices []chat.Message
	Prompt  *Prompt
	Result  *Result
}

// Done reports whether the session has settled.
func (s Step) Done() bool {
	return s.Result != nil
}

// Session is one game in progress, modelled as an explicit state machine. It
// never blocks waiting for the player: it returns a Prompt and is advanced by
// Resume with the reply or by Expire when the prompt times out.
type Session interface {
	Start(ctx context.Context) (Step, error)
	Resume(ctx context.Context, reply string) (Step, error)
	Expire(ctx context.Context) (Step, error)
}

// Env is everything a session may touch.
type Env struct {
	Account string
	Player  string
	Deck    deck.Dealer
	Rand    randutil.Source
	Bank    ledger.Bank
	// AllinMultiplier is the jackpot multiplier for Allin.
	AllinMultiplier int
	Logger          *log.Logger
}

func (e Env) playerName() string {
	if e.Player != "" {
		return e.Player
	}
	if e.Account != "" {
		return e.Account
	}
	return "Player"
}

func (e Env) logger() *log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.Default()
}

func settle(won bool, amount int64, payload chat.Message, notices ...chat.Message) Step {
	return Step{
		Notices: notices,
		Result:  &Result{Won: won, Amount: amount, Payload: payload},
	}
}

func prompt(msg chat.Message, choices []string, notices ...chat.Message) Step {
	return Step{
		Notices: notices,
		Prompt:  &Prompt{Message: msg, Choices: choices},
	}
}

// instant is a session that settles in Start without asking anything.
type instant func(ctx context.Context) (Step, error)

func (f instant) Start(ctx context.Context) (Step, error) { return f(ctx) }

func (instant) Resume(context.Context, string) (Step, error) { return Step{}, ErrNotAwaiting }

func (instant) Expire(context.Context) (Step, error) { return Step{}, ErrNotAwaiting }

// awaiting tracks the open prompt of a multi-step session.
type awaiting struct {
	choices []string
}

func (a *awaiting) open(s Step) Step {
	if s.Prompt != nil {
		a.choices = s.Prompt.Choices
	} else {
		a.choices = nil
	}
	return s
}

// accept validates reply against the open prompt and closes it.
func (a *awaiting) accept(reply string) (string, error) {
	if a.choices == nil {
		return "", ErrNotAwaiting
	}
	choice, ok := chat.Match(a.choices, reply)
	if !ok {
		return "", ErrInvalidChoice
	}
	a.choices = nil
	return chat.Normalize(choice), nil
}

func (a *awaiting) expire() error {
	if a.choices == nil {
		return ErrNotAwaiting
	}
	a.choices = nil
	return nil
}
