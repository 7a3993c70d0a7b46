package poker

import (
	"fmt"

	ph "github.com/paulhankin/poker"

	"github.com/lox/casino/internal/deck"
)

// toPH converts a card to the paulhankin representation, which numbers ranks
// 1..13 with the Ace as 1.
func toPH(c deck.Card) (ph.Card, error) {
	var s ph.Suit
	switch c.Suit {
	case deck.Clubs:
		s = ph.Club
	case deck.Diamonds:
		s = ph.Diamond
	case deck.Hearts:
		s = ph.Heart
	case deck.Spades:
		s = ph.Spade
	default:
		var zero ph.Card
		return zero, fmt.Errorf("unknown suit %d", c.Suit)
	}

	r := ph.Rank(c.Rank)
	if c.Rank == deck.Ace {
		r = ph.Rank(1)
	}
	return ph.MakeCard(s, r)
}

// Describe returns a conventional poker description of the hand, for example
// "pair of kings" or "ace-high straight flush". It is presentation only and
// plays no part in the payout.
func Describe(h Hand) (string, error) {
	cards := make([]ph.Card, 0, HandSize)
	for _, c := range h {
		pc, err := toPH(c)
		if err != nil {
			return "", err
		}
		cards = append(cards, pc)
	}
	return ph.Describe(cards)
}
