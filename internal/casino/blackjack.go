package casino

import (
	"context"
	"errors"
	"fmt"

	"github.com/lox/casino/internal/chat"
	"github.com/lox/casino/internal/deck"
	"github.com/lox/casino/internal/ledger"
)

const (
	blackjack = 21
	// the dealer draws while below this total.
	dealerStandsOn = 16
)

var (
	blackjackOpening = []string{"hit", "stay", "double"}
	blackjackHitStay = []string{"hit", "stay"}
)

// Blackjack against a dealer who stands on 16. Double down withdraws a second
// bet from the bank; a push refunds the wager but does not count as a win.
type Blackjack struct{}

func (Blackjack) Name() string        { return "Blackjack" }
func (Blackjack) Description() string { return "Beat the dealer without going over 21." }
func (Blackjack) Choices() []string   { return nil }

func (Blackjack) NewSession(env Env, bet int64, _ string) Session {
	return &blackjackSession{env: env, amount: bet}
}

type blackjackSession struct {
	awaiting
	env    Env
	amount int64
	player []deck.Card
	dealer []deck.Card
}

func (s *blackjackSession) Start(ctx context.Context) (Step, error) {
	s.player = s.env.Deck.Deal(2)
	s.dealer = s.env.Deck.Deal(2)
	s.env.logger().Debug("Dealt", "player", deck.Format(s.player), "dealer", deck.Format(s.dealer))

	if deck.BlackjackValue(s.player, false) == blackjack {
		return s.finish(ctx)
	}
	return s.open(prompt(s.status("**Options:** hit, stay, or double"), blackjackOpening)), nil
}

func (s *blackjackSession) Resume(ctx context.Context, reply string) (Step, error) {
	choice, err := s.accept(reply)
	if err != nil {
		return Step{}, err
	}

	switch choice {
	case "stay":
		return s.finish(ctx)
	case "hit":
		s.player = append(s.player, s.env.Deck.DealOne())
		if deck.BlackjackValue(s.player, false) >= blackjack {
			return s.finish(ctx)
		}
		return s.open(prompt(s.status("**Options:** hit or stay"), blackjackHitStay)), nil
	case "double":
		return s.doubleDown(ctx)
	}
	return Step{}, fmt.Errorf("%w: %q", ErrInvalidChoice, reply)
}

// Expire stands on whatever the player holds.
func (s *blackjackSession) Expire(ctx context.Context) (Step, error) {
	if err := s.expire(); err != nil {
		return Step{}, err
	}
	return s.finish(ctx)
}

func (s *blackjackSession) doubleDown(ctx context.Context) (Step, error) {
	err := s.env.Bank.Withdraw(ctx, s.env.Account, s.amount)
	if errors.Is(err, ledger.ErrInsufficientFunds) {
		s.env.logger().Warn("Cannot cover double down, offering hit or stay", "bet", s.amount)
		notice := chat.Text(fmt.Sprintf("%s You can not cover the bet. Please choose hit or stay.", s.env.playerName()))
		return s.open(prompt(s.status("**Options:** hit or stay"), blackjackHitStay, notice)), nil
	}
	if err != nil {
		return Step{}, fmt.Errorf("failed to withdraw double down: %w", err)
	}

	s.player = append(s.player, s.env.Deck.DealOne())
	s.amount *= 2
	return s.finish(ctx)
}

// dealerTurn forces one hit on an Ace-holding hand short of 21, then draws
// while below dealerStandsOn.
func (s *blackjackSession) dealerTurn() {
	count := deck.BlackjackValue(s.dealer, false)
	if deck.HasRank(s.dealer, deck.Ace) && count != blackjack {
		s.dealer = append(s.dealer, s.env.Deck.DealOne())
		count = deck.BlackjackValue(s.dealer, false)
	}
	for count < dealerStandsOn {
		s.dealer = append(s.dealer, s.env.Deck.DealOne())
		count = deck.BlackjackValue(s.dealer, false)
	}
}

func (s *blackjackSession) finish(ctx context.Context) (Step, error) {
	s.dealerTurn()
	pc := deck.BlackjackValue(s.player, false)
	dc := deck.BlackjackValue(s.dealer, false)

	var (
		won     bool
		outcome string
	)
	switch {
	case (dc > blackjack && pc <= blackjack) || (dc < pc && pc <= blackjack):
		won, outcome = true, "Winner!"
	case pc > blackjack:
		outcome = "BUST!"
	case dc == pc:
		if err := s.env.Bank.Deposit(ctx, s.env.Account, s.amount); err != nil {
			return Step{}, fmt.Errorf("failed to refund push: %w", err)
		}
		outcome = "Pushed"
	default:
		outcome = "House Wins!"
	}

	s.env.logger().Debug("Settled", "player", pc, "dealer", dc, "outcome", outcome, "amount", s.amount)
	return settle(won, s.amount, s.final(outcome)), nil
}

func (s *blackjackSession) hand(cards []deck.Card, score int) string {
	return fmt.Sprintf("%s\n**Score:** %d", deck.Format(cards), score)
}

// status shows the player's hand and only the dealer's up card.
func (s *blackjackSession) status(options string) chat.Message {
	return chat.Message{
		Fields: []chat.Field{
			{Name: s.env.playerName() + "'s Hand", Value: s.hand(s.player, deck.BlackjackValue(s.player, false)), Inline: true},
			{Name: "Dealer's Hand", Value: s.hand(s.dealer[:1], deck.BlackjackValue(s.dealer, true)), Inline: true},
			{Value: options},
		},
		Footer: fmt.Sprintf("Cards in Deck: %d", s.env.Deck.Remaining()),
	}
}

func (s *blackjackSession) final(outcome string) chat.Message {
	return chat.Message{
		Fields: []chat.Field{
			{Name: s.env.playerName() + "'s Hand", Value: s.hand(s.player, deck.BlackjackValue(s.player, false)), Inline: true},
			{Name: "Dealer's Hand", Value: s.hand(s.dealer, deck.BlackjackValue(s.dealer, false)), Inline: true},
			{Value: "**Outcome:** " + outcome},
		},
		Footer: fmt.Sprintf("Cards in Deck: %d", s.env.Deck.Remaining()),
	}
}
