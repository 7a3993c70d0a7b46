package casino

import (
	"context"
	"fmt"

	"github.com/lox/casino/internal/chat"
)

var doubleChoices = []string{"double", "cash out"}

// Double is double or nothing: each fair flip either doubles the wager or
// wipes it out, and the player may cash out between flips.
type Double struct{}

func (Double) Name() string        { return "Double" }
func (Double) Description() string { return "Keep doubling your bet, or lose it all." }
func (Double) Choices() []string   { return nil }

func (Double) NewSession(env Env, bet int64, _ string) Session {
	return &doubleSession{env: env, amount: bet}
}

type doubleSession struct {
	awaiting
	env    Env
	amount int64
	count  int
}

func (s *doubleSession) Start(context.Context) (Step, error) {
	return s.flip(), nil
}

func (s *doubleSession) Resume(_ context.Context, reply string) (Step, error) {
	choice, err := s.accept(reply)
	if err != nil {
		return Step{}, err
	}
	if choice == "double" {
		return s.flip(), nil
	}
	return s.cashOut(), nil
}

// Expire cashes out.
func (s *doubleSession) Expire(context.Context) (Step, error) {
	if err := s.expire(); err != nil {
		return Step{}, err
	}
	return s.cashOut(), nil
}

func (s *doubleSession) flip() Step {
	s.count++
	if s.env.Rand.IntN(2) == 0 {
		s.amount = 0
		return settle(false, 0, s.score("**Outcome:** You Lost It All!"))
	}
	s.amount *= 2
	msg := s.score("**Options:** double or cash out").With("", "Remember, you can cash out at anytime.")
	return s.open(prompt(msg, doubleChoices))
}

func (s *doubleSession) cashOut() Step {
	return settle(s.amount > 0, s.amount, s.score("**Outcome:** Cashed Out!"))
}

func (s *doubleSession) score(options string) chat.Message {
	value := fmt.Sprintf("%d\n**NOTHING!**", s.amount)
	if s.amount > 0 {
		value = fmt.Sprintf("%d\n**DOUBLE!:** x%d", s.amount, s.count)
	}
	return chat.Message{
		Fields: []chat.Field{
			{Name: s.env.playerName() + "'s Score", Value: value},
			{Value: options},
		},
		Footer: "Try again and test your luck!",
	}
}
