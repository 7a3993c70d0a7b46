package casino

import (
	"context"
	"fmt"

	"github.com/lox/casino/internal/chat"
	"github.com/lox/casino/internal/deck"
)

var warChoices = []string{"war", "surrender", "ffs"}

// cards burned before the second face-off.
const warBurn = 3

// War is a single high-card face-off against the dealer. A tie offers the
// choice to surrender half the bet or go to war for one more draw.
type War struct{}

func (War) Name() string        { return "War" }
func (War) Description() string { return "Draw a higher card than the dealer. Ties go to war." }
func (War) Choices() []string   { return nil }

func (War) NewSession(env Env, bet int64, _ string) Session {
	return &warSession{env: env, amount: bet}
}

type warSession struct {
	awaiting
	env            Env
	amount         int64
	player, dealer deck.Card
}

var warDeal = chat.Text("The dealer shuffles the deck and deals 2 cards face down. One for the player and one for the dealer...")

func (s *warSession) Start(context.Context) (Step, error) {
	s.draw()
	flip := chat.Text("**FLIP!**")

	if deck.WarValue(s.player) != deck.WarValue(s.dealer) {
		return s.compare(warDeal, flip), nil
	}

	tie := chat.Text(fmt.Sprintf("The player and dealer are both showing a **%s**!\n"+
		"THIS MEANS WAR! You may choose to surrender and forfeit half your bet, or you can go to war.\n"+
		"Going to war keeps your bet as it is and settles on one more draw.", s.player))
	return s.open(prompt(tie.With("Options", "war or surrender"), warChoices, warDeal, flip)), nil
}

func (s *warSession) Resume(ctx context.Context, reply string) (Step, error) {
	choice, err := s.accept(reply)
	if err != nil {
		return Step{}, err
	}
	if choice != "war" {
		return s.surrender(ctx)
	}

	s.env.Deck.Burn(warBurn)
	s.draw()
	return s.compare(
		chat.Text("The dealer burns three cards and deals two cards face down..."),
		chat.Text("**FLIP!**"),
	), nil
}

// Expire surrenders.
func (s *warSession) Expire(ctx context.Context) (Step, error) {
	if err := s.expire(); err != nil {
		return Step{}, err
	}
	return s.surrender(ctx)
}

func (s *warSession) draw() {
	cards := s.env.Deck.Deal(2)
	s.player, s.dealer = cards[0], cards[1]
}

// compare settles on the face-off. A tie here, which can only follow a war,
// goes to the player.
func (s *warSession) compare(notices ...chat.Message) Step {
	if deck.WarValue(s.player) >= deck.WarValue(s.dealer) {
		return settle(true, s.amount, s.result("Winner"), notices...)
	}
	return settle(false, s.amount, s.result("Loser"), notices...)
}

// surrender forfeits half the bet, rounded down, and returns the rest to the
// player. The settled amount is the forfeited half.
func (s *warSession) surrender(ctx context.Context) (Step, error) {
	forfeit := s.amount / 2
	if err := s.env.Bank.Deposit(ctx, s.env.Account, s.amount-forfeit); err != nil {
		return Step{}, fmt.Errorf("failed to return surrendered stake: %w", err)
	}
	s.env.logger().Debug("Surrendered", "forfeit", forfeit, "returned", s.amount-forfeit)
	s.amount = forfeit
	return settle(false, s.amount, s.result("Surrendered")), nil
}

func (s *warSession) result(label string) chat.Message {
	return chat.Text(fmt.Sprintf("**Player Card:** %s\n**Dealer Card:** %s\n**Result**: %s", s.player, s.dealer, label))
}
