package casino

import (
	"strings"
)

// Game is one casino game. NewSession binds a bet and the player's up-front
// choice (empty for games that take none) to a fresh session.
type Game interface {
	Name() string
	Description() string
	// Choices is the set of valid up-front choices, or nil when the game takes none.
	Choices() []string
	NewSession(env Env, bet int64, choice string) Session
}

// Games returns every game, in display order.
func Games() []Game {
	return []Game{
		Allin{},
		Blackjack{},
		Coin{},
		Craps{},
		Cups{},
		Dice{},
		Double{},
		Hilo{},
		Pikapokeri{},
		War{},
	}
}

// Lookup finds a game by case-insensitive name.
func Lookup(name string) (Game, bool) {
	for _, g := range Games() {
		if strings.EqualFold(g.Name(), strings.TrimSpace(name)) {
			return g, true
		}
	}
	return nil, false
}
