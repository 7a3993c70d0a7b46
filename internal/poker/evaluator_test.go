package poker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/casino/internal/deck"
	"github.com/lox/casino/internal/randutil"
)

func mustHand(t *testing.T, s string) Hand {
	t.Helper()
	h, err := NewHand(deck.MustParseCards(s))
	require.NoError(t, err)
	return h
}

func TestEvaluateCategories(t *testing.T) {
	tests := []struct {
		name string
		hand string
		want Category
		mult int
	}{
		{"royal flush", "AsKsQsJsTs", StraightFlush, 75},
		{"wheel straight flush", "Ah2h3h4h5h", StraightFlush, 75},
		{"four of a kind", "9s9d9h9cKs", FourOfAKind, 50},
		{"full house", "QsQdQh4c4s", FullHouse, 20},
		{"flush", "As9s7s4s2s", Flush, 15},
		{"broadway straight", "AdKsQhJcTs", Straight, 11},
		{"wheel straight", "Ad2s3h4c5s", Straight, 11},
		{"middle straight", "5d6s7h8c9s", Straight, 11},
		{"no wrap around", "QdKsAh2c3s", NoHand, 0},
		{"three of a kind", "7s7d7hKc2s", ThreeOfAKind, 5},
		{"two pair", "8s8dKhKc2s", TwoPair, 3},
		{"low two pair", "2s2d3h3c9s", TwoPair, 3},
		{"pair of tens", "TsTd4h7c2s", HighPair, 2},
		{"pair of aces", "AsAd4h7c2s", HighPair, 2},
		{"pair of nines", "9s9d4h7cKs", NoHand, 0},
		{"high card", "As9d7h4c2s", NoHand, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Evaluate(mustHand(t, tt.hand))
			assert.Equal(t, tt.want, r.Category)
			assert.Equal(t, tt.mult, r.Multiplier)
			assert.Equal(t, tt.mult > 0, r.Pays())
		})
	}
}

func TestNewHandRequiresFiveCards(t *testing.T) {
	_, err := NewHand(deck.MustParseCards("AsKs"))
	assert.Error(t, err)
}

func TestEvaluateIsOrderIndependent(t *testing.T) {
	rng := randutil.New(99)
	d := deck.New(rng)

	for i := 0; i < 2000; i++ {
		h, err := NewHand(d.Deal(HandSize))
		require.NoError(t, err)
		want := Evaluate(h)

		for p := 0; p < 5; p++ {
			perm := h
			for k := len(perm) - 1; k > 0; k-- {
				j := rng.IntN(k + 1)
				perm[k], perm[j] = perm[j], perm[k]
			}
			assert.Equal(t, want, Evaluate(perm), "hand %v permuted to %v", h, perm)
		}
	}
}

// Every 5-card hand lands in exactly one category and the totals match the
// standard combinatorial counts.
func TestEvaluateAllHands(t *testing.T) {
	if testing.Short() {
		t.Skip("enumerates all 2,598,960 hands")
	}

	var all []deck.Card
	for _, s := range deck.Suits {
		for r := deck.Two; r <= deck.Ace; r++ {
			all = append(all, deck.NewCard(s, r))
		}
	}

	counts := map[Category]int{}
	var h Hand
	n := len(all)
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			for c := b + 1; c < n; c++ {
				for d := c + 1; d < n; d++ {
					for e := d + 1; e < n; e++ {
						h = Hand{all[a], all[b], all[c], all[d], all[e]}
						counts[Evaluate(h).Category]++
					}
				}
			}
		}
	}

	assert.Equal(t, 40, counts[StraightFlush])
	assert.Equal(t, 624, counts[FourOfAKind])
	assert.Equal(t, 3744, counts[FullHouse])
	assert.Equal(t, 5108, counts[Flush])
	assert.Equal(t, 10200, counts[Straight])
	assert.Equal(t, 54912, counts[ThreeOfAKind])
	assert.Equal(t, 123552, counts[TwoPair])
	assert.Equal(t, 422400, counts[HighPair])

	total := 0
	for _, v := range counts {
		total += v
	}
	assert.Equal(t, 2598960, total)
}

func TestCategoryMetadata(t *testing.T) {
	prev := 1 << 30
	for _, c := range Categories {
		assert.NotEqual(t, "Unknown", c.String())
		assert.LessOrEqual(t, c.Multiplier(), prev, "categories are listed strongest first")
		prev = c.Multiplier()
	}
	assert.Equal(t, 0, Category(200).Multiplier())
}

func TestDescribe(t *testing.T) {
	desc, err := Describe(mustHand(t, "KsKd4h7c2s"))
	require.NoError(t, err)
	assert.NotEmpty(t, desc)
}
