package deck

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/casino/internal/randutil"
)

func testRand(seed int64) randutil.Source {
	return randutil.New(seed)
}

func TestNewDeckHasAllCards(t *testing.T) {
	d := New(testRand(1))
	require.Equal(t, Size, d.Remaining())

	seen := map[Card]bool{}
	for _, c := range d.Deal(Size) {
		assert.True(t, c.Valid())
		seen[c] = true
	}
	assert.Len(t, seen, Size)
	assert.Equal(t, 0, d.Remaining())
}

func TestShuffleIsDeterministicForSeed(t *testing.T) {
	a := New(testRand(42)).Deal(10)
	b := New(testRand(42)).Deal(10)
	c := New(testRand(43)).Deal(10)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestDealReshufflesWhenExhausted(t *testing.T) {
	d := New(testRand(3))
	d.Deal(50)
	require.Equal(t, 2, d.Remaining())

	cards := d.Deal(5)
	assert.Len(t, cards, 5)
	assert.Equal(t, Size-5, d.Remaining(), "reshuffle restores 52 cards before the draw")
}

func TestBurn(t *testing.T) {
	d := NewStacked(MustParseCards("2s3s4s5s6s")...)
	d.Burn(3)
	assert.Equal(t, MustParseCards("2s3s4s"), d.Burned())
	assert.Equal(t, MustParseCards("5s"), d.Deal(1))

	d.Shuffle()
	assert.Empty(t, d.Burned(), "shuffle clears the burn pile")
	assert.Equal(t, Size, d.Remaining())
}

func TestStackedDeckDealsInOrder(t *testing.T) {
	d := NewStacked(MustParseCards("AsKd")...)
	assert.Equal(t, NewCard(Spades, Ace), d.DealOne())
	assert.Equal(t, NewCard(Diamonds, King), d.DealOne())

	// exhausted stack falls back to a full shuffled deck
	next := d.Deal(3)
	assert.Len(t, next, 3)
	assert.Equal(t, Size-3, d.Remaining())
}

func TestDealBurnNeverExceedsDeck(t *testing.T) {
	d := New(testRand(11))
	rng := testRand(12)

	var hands [][]Card
	for i := 0; i < 300; i++ {
		if rng.IntN(4) == 0 {
			d.Burn(1 + rng.IntN(3))
		} else {
			hands = append(hands, d.Deal(1+rng.IntN(5)))
		}

		// everything dealt since the last reshuffle plus the remainder is a subset
		// of one 52-card deck
		assert.LessOrEqual(t, d.Remaining(), Size)
		assert.LessOrEqual(t, len(d.Burned())+d.Remaining(), Size)
	}
	assert.NotEmpty(t, hands)
}

func TestSyncDeckConcurrentDeals(t *testing.T) {
	s := NewSync(New(testRand(5)))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				assert.Len(t, s.Deal(2), 2)
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, s.Remaining(), Size)
}
