package deck

import (
	"sync"

	"github.com/lox/casino/internal/randutil"
)

// Size of a standard deck.
const Size = 52

// Dealer is the deck surface the games draw from. *Deck and *SyncDeck satisfy it.
type Dealer interface {
	Shuffle()
	Deal(n int) []Card
	DealOne() Card
	Burn(n int)
	Remaining() int
}

// Deck represents a deck of playing cards. A Deck is owned by one game flow at a
// time and is not safe for concurrent use; see SyncDeck for the shared-table mode.
type Deck struct {
	cards  []Card // top of the deck is cards[0]
	burned []Card
	rng    randutil.Source
}

// New creates a full 52-card deck shuffled with rng.
func New(rng randutil.Source) *Deck {
	d := &Deck{
		cards: make([]Card, 0, Size),
		rng:   rng,
	}
	d.Shuffle()
	return d
}

// NewStacked creates a deck whose next draws are exactly cards, top first. Once the
// stacked cards run out the deck reshuffles into a full deck like any other.
func NewStacked(cards ...Card) *Deck {
	stacked := make([]Card, len(cards))
	copy(stacked, cards)
	return &Deck{
		cards: stacked,
		rng:   randutil.New(int64(len(cards))),
	}
}

// fill resets the deck to the ordered 52 cards.
func (d *Deck) fill() {
	d.cards = d.cards[:0]
	for _, suit := range Suits {
		for rank := Two; rank <= Ace; rank++ {
			d.cards = append(d.cards, NewCard(suit, rank))
		}
	}
}

// Shuffle restores all 52 cards in uniformly random order and clears the burn pile.
func (d *Deck) Shuffle() {
	d.fill()
	d.burned = d.burned[:0]
	for i := len(d.cards) - 1; i > 0; i-- {
		j := d.rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// ensure reshuffles when fewer than n cards remain.
func (d *Deck) ensure(n int) {
	if len(d.cards) < n {
		d.Shuffle()
	}
}

// Deal removes and returns n cards from the top. It never fails: when fewer than
// n cards remain the deck is reshuffled first.
func (d *Deck) Deal(n int) []Card {
	if n <= 0 {
		return nil
	}
	d.ensure(n)

	cards := make([]Card, n)
	copy(cards, d.cards[:n])
	d.cards = d.cards[n:]
	return cards
}

// DealOne deals a single card.
func (d *Deck) DealOne() Card {
	return d.Deal(1)[0]
}

// Burn moves n cards from the top into the burn pile.
func (d *Deck) Burn(n int) {
	if n <= 0 {
		return
	}
	d.ensure(n)
	d.burned = append(d.burned, d.cards[:n]...)
	d.cards = d.cards[n:]
}

// Remaining returns the number of undealt cards.
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// Burned returns a copy of the burn pile.
func (d *Deck) Burned() []Card {
	out := make([]Card, len(d.burned))
	copy(out, d.burned)
	return out
}

// SyncDeck serialises every operation on a single Deck so that concurrent
// sessions can share one table deck. Individual draws are atomic; a session's
// sequence of draws may still interleave with another session's.
type SyncDeck struct {
	mu   sync.Mutex
	deck *Deck
}

// NewSync wraps d for shared use.
func NewSync(d *Deck) *SyncDeck {
	return &SyncDeck{deck: d}
}

func (s *SyncDeck) Shuffle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deck.Shuffle()
}

func (s *SyncDeck) Deal(n int) []Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deck.Deal(n)
}

func (s *SyncDeck) DealOne() Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deck.DealOne()
}

func (s *SyncDeck) Burn(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deck.Burn(n)
}

func (s *SyncDeck) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deck.Remaining()
}
