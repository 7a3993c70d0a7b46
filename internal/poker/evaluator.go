// Package poker classifies five-card Pikapokeri hands into paying categories.
//
// Evaluate is a pure function: the same five cards in any order always produce
// the same Result. Categories are tested in strict precedence order and the
// first match wins, so exactly one category applies to every hand.
package poker

import (
	"fmt"
	"sort"

	"github.com/lox/casino/internal/deck"
)

// HandSize is the number of cards in a finished Pikapokeri hand.
const HandSize = 5

// Category is a paying Pikapokeri hand class, ordered from weakest to strongest.
type Category uint8

const (
	NoHand Category = iota
	HighPair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

// minimum pair rank that still pays.
const highPairMin = deck.Ten

var multipliers = [...]int{
	NoHand:        0,
	HighPair:      2,
	TwoPair:       3,
	ThreeOfAKind:  5,
	Straight:      11,
	Flush:         15,
	FullHouse:     20,
	FourOfAKind:   50,
	StraightFlush: 75,
}

// Multiplier is the payout applied to the bet; 0 means the bet is lost.
func (c Category) Multiplier() int {
	if int(c) >= len(multipliers) {
		return 0
	}
	return multipliers[c]
}

// String returns the display name of the category.
func (c Category) String() string {
	switch c {
	case NoHand:
		return "No Hand"
	case HighPair:
		return "Pair (10-A)"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	default:
		return "Unknown"
	}
}

// Categories lists every category from strongest to weakest, the order Evaluate tests them in.
var Categories = []Category{
	StraightFlush, FourOfAKind, FullHouse, Flush, Straight,
	ThreeOfAKind, TwoPair, HighPair, NoHand,
}

// Hand is a complete five-card Pikapokeri hand.
type Hand [HandSize]deck.Card

// NewHand builds a Hand from exactly five cards.
func NewHand(cards []deck.Card) (Hand, error) {
	var h Hand
	if len(cards) != HandSize {
		return h, fmt.Errorf("pikapokeri hand needs %d cards, got %d", HandSize, len(cards))
	}
	copy(h[:], cards)
	return h, nil
}

// Result is the outcome of evaluating a hand.
type Result struct {
	Category   Category
	Multiplier int
}

// Pays reports whether the hand wins anything.
func (r Result) Pays() bool {
	return r.Multiplier > 0
}

// Evaluate classifies the hand.
func Evaluate(h Hand) Result {
	c := classify(h)
	return Result{Category: c, Multiplier: c.Multiplier()}
}

// rankGroup is a rank and how many cards in the hand share it.
type rankGroup struct {
	rank  deck.Rank
	count int
}

// groups returns rank groups sorted by count then rank, largest first.
func groups(h Hand) []rankGroup {
	counts := make(map[deck.Rank]int, HandSize)
	for _, c := range h {
		counts[c.Rank]++
	}
	out := make([]rankGroup, 0, len(counts))
	for r, n := range counts {
		out = append(out, rankGroup{rank: r, count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].rank > out[j].rank
	})
	return out
}

func isFlush(h Hand) bool {
	for _, c := range h[1:] {
		if c.Suit != h[0].Suit {
			return false
		}
	}
	return true
}

// isStraight needs five distinct consecutive ranks; A-2-3-4-5 counts with the Ace low.
func isStraight(g []rankGroup) bool {
	if len(g) != HandSize {
		return false
	}
	lo, hi := g[0].rank, g[0].rank
	for _, rg := range g[1:] {
		lo = min(lo, rg.rank)
		hi = max(hi, rg.rank)
	}
	if hi-lo == 4 {
		return true
	}
	// wheel: the other four must be 2..5
	return hi == deck.Ace && lo == deck.Two && secondHighest(g) == deck.Five
}

func secondHighest(g []rankGroup) deck.Rank {
	var first, second deck.Rank
	for _, rg := range g {
		switch {
		case rg.rank > first:
			first, second = rg.rank, first
		case rg.rank > second:
			second = rg.rank
		}
	}
	return second
}

func classify(h Hand) Category {
	g := groups(h)
	flush := isFlush(h)
	straight := isStraight(g)

	switch {
	case flush && straight:
		return StraightFlush
	case g[0].count == 4:
		return FourOfAKind
	case g[0].count == 3 && g[1].count == 2:
		return FullHouse
	case flush:
		return Flush
	case straight:
		return Straight
	case g[0].count == 3:
		return ThreeOfAKind
	case g[0].count == 2 && g[1].count == 2:
		return TwoPair
	case g[0].count == 2 && g[0].rank >= highPairMin:
		return HighPair
	default:
		return NoHand
	}
}
