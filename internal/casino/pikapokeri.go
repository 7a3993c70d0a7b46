package casino

import (
	"context"
	"fmt"

	"github.com/lox/casino/internal/chat"
	"github.com/lox/casino/internal/deck"
	"github.com/lox/casino/internal/poker"
)

var (
	pikapokeriOptions = []string{"1", "2"}
	pikapokeriDoubles = []string{"draw", "cash out"}
)

// Pikapokeri is five-card draw against the pay table. The player is dealt two
// cards, picks one of two offered cards and receives two more. A paying hand
// may then be risked in rounds of higher-card double or nothing.
type Pikapokeri struct{}

func (Pikapokeri) Name() string { return "Pikapokeri" }
func (Pikapokeri) Description() string {
	return "Build a five card poker hand. Tens or better pays, then double or nothing."
}
func (Pikapokeri) Choices() []string { return nil }

func (Pikapokeri) NewSession(env Env, bet int64, _ string) Session {
	return &pikapokeriSession{env: env, bet: bet}
}

type pikapokeriSession struct {
	awaiting
	env      Env
	bet      int64
	amount   int64
	hand     []deck.Card
	options  [2]deck.Card
	result   poker.Result
	stage    int
	doubling bool
	// challenge is the card to beat in the current double or nothing round.
	challenge deck.Card
}

func (s *pikapokeriSession) Start(context.Context) (Step, error) {
	s.hand = s.env.Deck.Deal(2)
	s.options[0] = s.env.Deck.DealOne()
	s.options[1] = s.env.Deck.DealOne()

	msg := chat.Message{
		Fields: []chat.Field{
			{Name: s.env.playerName() + "'s Hand", Value: deck.Format(s.hand)},
			{Name: "Options", Value: fmt.Sprintf("1: %s  2: %s", s.options[0], s.options[1])},
		},
		Footer: s.footer(),
	}
	return s.open(prompt(msg, pikapokeriOptions, chat.Text("Pikapokeri"))), nil
}

func (s *pikapokeriSession) Resume(_ context.Context, reply string) (Step, error) {
	choice, err := s.accept(reply)
	if err != nil {
		return Step{}, err
	}

	if s.doubling {
		if choice == "draw" {
			return s.drawAgainst(), nil
		}
		return s.cashOut(), nil
	}

	if choice == "1" {
		return s.complete(s.options[0])
	}
	return s.complete(s.options[1])
}

// Expire takes the second option, or cashes out once doubling.
func (s *pikapokeriSession) Expire(context.Context) (Step, error) {
	if err := s.expire(); err != nil {
		return Step{}, err
	}
	if s.doubling {
		return s.cashOut(), nil
	}
	return s.complete(s.options[1])
}

// complete adds the chosen card, deals the last two and evaluates.
func (s *pikapokeriSession) complete(chosen deck.Card) (Step, error) {
	s.hand = append(s.hand, chosen)
	s.hand = append(s.hand, s.env.Deck.Deal(2)...)

	h, err := poker.NewHand(s.hand)
	if err != nil {
		return Step{}, err
	}
	s.result = poker.Evaluate(h)
	s.amount = s.bet * int64(s.result.Multiplier)
	s.env.logger().Debug("Evaluated", "hand", deck.Format(s.hand), "category", s.result.Category, "multiplier", s.result.Multiplier)

	if !s.result.Pays() {
		return settle(false, 0, s.final("You lost")), nil
	}
	if s.amount <= s.bet {
		return s.cashOut(), nil
	}
	s.doubling = true
	return s.offer(s.final(fmt.Sprintf("You won %d", s.amount))), nil
}

// offer draws a challenge card and asks whether to risk the winnings on beating it.
func (s *pikapokeriSession) offer(notices ...chat.Message) Step {
	s.challenge = s.env.Deck.DealOne()
	msg := chat.Message{
		Title: "Double or nothing?",
		Fields: []chat.Field{
			{Name: "Winnings", Value: fmt.Sprintf("%d", s.amount), Inline: true},
			{Name: "Card to beat", Value: s.challenge.String(), Inline: true},
			{Value: "**Options:** draw or cash out"},
		},
		Footer: s.footer(),
	}
	return s.open(prompt(msg, pikapokeriDoubles, notices...))
}

// drawAgainst deals the comparison card. Only a strictly higher rank doubles;
// a tie loses.
func (s *pikapokeriSession) drawAgainst() Step {
	card := s.env.Deck.DealOne()
	s.stage++
	line := fmt.Sprintf("You drew %s against %s.", card, s.challenge)

	if deck.PokerRankValue(card) > deck.PokerRankValue(s.challenge) {
		s.amount *= 2
		return s.offer(chat.Text(fmt.Sprintf("%s Doubled to %d!", line, s.amount)))
	}
	s.amount = 0
	return settle(false, 0, s.final("Lost it all in the double"), chat.Text(line))
}

func (s *pikapokeriSession) cashOut() Step {
	return settle(s.amount > 0, s.amount, s.final(fmt.Sprintf("You won %d", s.amount)))
}

func (s *pikapokeriSession) final(outcome string) chat.Message {
	msg := chat.Message{
		Fields: []chat.Field{
			{Name: s.env.playerName() + "'s Hand", Value: deck.Format(s.hand)},
			{Name: "Hand", Value: fmt.Sprintf("%s (x%d)", s.result.Category, s.result.Multiplier), Inline: true},
		},
		Footer: s.footer(),
	}
	if h, err := poker.NewHand(s.hand); err == nil {
		if desc, err := poker.Describe(h); err == nil {
			msg = msg.With("Description", desc)
		}
	}
	if s.stage > 0 {
		msg = msg.With("Doubles", fmt.Sprintf("%d", s.stage))
	}
	return msg.With("Result", outcome)
}

func (s *pikapokeriSession) footer() string {
	return fmt.Sprintf("Cards in Deck: %d", s.env.Deck.Remaining())
}
