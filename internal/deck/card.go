package deck

import (
	"fmt"
	"strings"
)

// Suit represents a card suit.
type Suit int

const (
	Clubs Suit = iota
	Diamonds
	Spades
	Hearts
)

// Suits lists every suit in deck construction order.
var Suits = [...]Suit{Clubs, Diamonds, Spades, Hearts}

// String returns the symbol for a suit.
func (s Suit) String() string {
	switch s {
	case Clubs:
		return "♣"
	case Diamonds:
		return "♦"
	case Spades:
		return "♠"
	case Hearts:
		return "♥"
	default:
		return "?"
	}
}

// Name returns the lower-case English name of the suit.
func (s Suit) Name() string {
	switch s {
	case Clubs:
		return "clubs"
	case Diamonds:
		return "diamonds"
	case Spades:
		return "spades"
	case Hearts:
		return "hearts"
	default:
		return "unknown"
	}
}

// IsRed returns true if the suit is red (Hearts or Diamonds).
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// Rank represents a card rank. The numeric value is the Ace-high comparison order.
type Rank int

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// String returns the display form of a rank ("2".."10", "J", "Q", "K", "A").
func (r Rank) String() string {
	switch {
	case r >= Two && r <= Ten:
		return fmt.Sprintf("%d", int(r))
	case r == Jack:
		return "J"
	case r == Queen:
		return "Q"
	case r == King:
		return "K"
	case r == Ace:
		return "A"
	default:
		return "?"
	}
}

// Name returns the English rank name used in chat output.
func (r Rank) Name() string {
	switch r {
	case Jack:
		return "Jack"
	case Queen:
		return "Queen"
	case King:
		return "King"
	case Ace:
		return "Ace"
	default:
		return r.String()
	}
}

// code is the single-character rank used by ParseCards ("T" for ten).
func (r Rank) code() byte {
	if r == Ten {
		return 'T'
	}
	return r.String()[0]
}

// Card is an immutable playing card. Two cards are equal when suit and rank match.
type Card struct {
	Suit Suit
	Rank Rank
}

// NewCard creates a new card.
func NewCard(suit Suit, rank Rank) Card {
	return Card{Suit: suit, Rank: rank}
}

// String returns the string representation of a card (e.g., "A♠", "10♥").
func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// Name returns the long form of a card, e.g. "Queen of hearts".
func (c Card) Name() string {
	return c.Rank.Name() + " of " + c.Suit.Name()
}

// Code returns the two-character form accepted by ParseCards (e.g., "Ts").
func (c Card) Code() string {
	suits := map[Suit]byte{Clubs: 'c', Diamonds: 'd', Spades: 's', Hearts: 'h'}
	return string([]byte{c.Rank.code(), suits[c.Suit]})
}

// IsAce returns true if the card is an Ace.
func (c Card) IsAce() bool {
	return c.Rank == Ace
}

// IsFaceCard returns true if the card is a face card (J, Q, K).
func (c Card) IsFaceCard() bool {
	return c.Rank >= Jack && c.Rank <= King
}

// Valid reports whether the card has a known suit and rank.
func (c Card) Valid() bool {
	return c.Suit >= Clubs && c.Suit <= Hearts && c.Rank >= Two && c.Rank <= Ace
}

// ParseCards parses a compact card string such as "AsKdTc2h" (case insensitive).
func ParseCards(s string) ([]Card, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("card string %q has odd length", s)
	}

	cards := make([]Card, 0, len(s)/2)
	for i := 0; i < len(s); i += 2 {
		card, err := ParseCard(s[i : i+2])
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// ParseCard parses a single two-character card code.
func ParseCard(s string) (Card, error) {
	if len(s) != 2 {
		return Card{}, fmt.Errorf("invalid card %q", s)
	}

	var rank Rank
	switch r := strings.ToUpper(s[:1]); r {
	case "T":
		rank = Ten
	case "J":
		rank = Jack
	case "Q":
		rank = Queen
	case "K":
		rank = King
	case "A":
		rank = Ace
	default:
		if r[0] < '2' || r[0] > '9' {
			return Card{}, fmt.Errorf("invalid rank in card %q", s)
		}
		rank = Rank(r[0] - '0')
	}

	var suit Suit
	switch strings.ToLower(s[1:]) {
	case "c":
		suit = Clubs
	case "d":
		suit = Diamonds
	case "s":
		suit = Spades
	case "h":
		suit = Hearts
	default:
		return Card{}, fmt.Errorf("invalid suit in card %q", s)
	}

	return NewCard(suit, rank), nil
}

// MustParseCards is ParseCards for fixtures; it panics on malformed input.
func MustParseCards(s string) []Card {
	cards, err := ParseCards(s)
	if err != nil {
		panic(err)
	}
	return cards
}

// Format renders a hand as a comma separated list ("A♠, 10♥").
func Format(hand []Card) string {
	parts := make([]string, len(hand))
	for i, c := range hand {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}
