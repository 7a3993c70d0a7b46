package deck

// BlackjackPoints is the nominal blackjack value of a card: face cards count 10,
// an Ace 11 (BlackjackValue lowers it to 1 when needed).
func (c Card) BlackjackPoints() int {
	switch {
	case c.Rank == Ace:
		return 11
	case c.Rank >= Ten:
		return 10
	default:
		return int(c.Rank)
	}
}

// BlackjackValue scores a blackjack hand. Each Ace counts 11 unless that would bust
// the hand, in which case it counts 1. With hideHole the second card is left out,
// which is how the dealer's concealed hand is shown.
func BlackjackValue(hand []Card, hideHole bool) int {
	total, aces := 0, 0
	for i, c := range hand {
		if hideHole && i == 1 {
			continue
		}
		total += c.BlackjackPoints()
		if c.IsAce() {
			aces++
		}
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total
}

// IsBust reports whether a blackjack hand is over 21.
func IsBust(hand []Card) bool {
	return BlackjackValue(hand, false) > 21
}

// HasRank reports whether any card in hand has rank r.
func HasRank(hand []Card, r Rank) bool {
	for _, c := range hand {
		if c.Rank == r {
			return true
		}
	}
	return false
}

// PokerRankValue maps a card to its poker comparison order, 2..14 with Ace high.
func PokerRankValue(c Card) int {
	return int(c.Rank)
}

// WarValue is the rank-only value used for War's face-off, Ace high.
func WarValue(c Card) int {
	return int(c.Rank)
}
