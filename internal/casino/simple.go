package casino

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/lox/casino/internal/chat"
	"github.com/lox/casino/internal/randutil"
)

// DefaultAllinMultiplier is the Allin jackpot multiplier when none is configured.
const DefaultAllinMultiplier = 2

// Allin pays bet × multiplier when a draw in [0, multiplier] lands on 0.
type Allin struct{}

func (Allin) Name() string        { return "Allin" }
func (Allin) Description() string { return "Bet all your credits. All or nothing gamble." }
func (Allin) Choices() []string   { return nil }

func (Allin) NewSession(env Env, bet int64, _ string) Session {
	return instant(func(context.Context) (Step, error) {
		multiplier := env.AllinMultiplier
		if multiplier < 1 {
			multiplier = DefaultAllinMultiplier
		}
		intro := chat.Text("You put all your chips into the machine and pull the lever...")

		if env.Rand.IntN(multiplier+1) != 0 {
			return settle(false, bet, chat.Text("Nothing happens. You stare at the machine contemplating your decision."), intro), nil
		}
		jackpot := "▂▃▅▇█▓▒░ [♠]  [♥]  [♦]  [♣] ░▒▓█▇▅▃▂\n" +
			"          CONGRATULATIONS YOU WON\n" +
			"░▒▓█▇▅▃▂ ⚅ J A C K P O T ⚅ ▂▃▅▇█▓▒░"
		return settle(true, bet*int64(multiplier), chat.Text(jackpot), intro), nil
	})
}

var coinSides = []string{"heads", "tails"}

// Coin is a coin flip; the player calls heads or tails.
type Coin struct{}

func (Coin) Name() string        { return "Coin" }
func (Coin) Description() string { return "Coin flip game. Pick heads or tails." }
func (Coin) Choices() []string   { return coinSides }

func (Coin) NewSession(env Env, bet int64, choice string) Session {
	return instant(func(context.Context) (Step, error) {
		outcome := randutil.Choice(env.Rand, coinSides)
		return settle(chat.Normalize(choice) == outcome, bet,
			chat.Text(fmt.Sprintf("The coin landed on %s!", outcome)),
			chat.Text("The coin flips into the air..."),
		), nil
	})
}

var cupChoices = []string{"1", "2", "3"}

// Cups hides a coin under one of three cups.
type Cups struct{}

func (Cups) Name() string        { return "Cups" }
func (Cups) Description() string { return "Three cups are shuffled. Pick the one covering the ball." }
func (Cups) Choices() []string   { return cupChoices }

func (Cups) NewSession(env Env, bet int64, choice string) Session {
	return instant(func(context.Context) (Step, error) {
		picked, err := strconv.Atoi(strings.TrimSpace(choice))
		if err != nil {
			return Step{}, fmt.Errorf("%w: cup %q", ErrInvalidChoice, choice)
		}
		outcome := randutil.Between(env.Rand, 1, 3)
		return settle(picked == outcome, bet,
			chat.Text(fmt.Sprintf("The coin was under cup %d!", outcome)),
			chat.Text("The cups start shuffling along the table..."),
		), nil
	})
}

// Dice wins when a pair of dice totals 2, 7, 11 or 12.
type Dice struct{}

var diceWinners = []int{2, 7, 11, 12}

func (Dice) Name() string        { return "Dice" }
func (Dice) Description() string { return "Roll a pair of dice. 2, 7, 11, or 12 wins." }
func (Dice) Choices() []string   { return nil }

func (Dice) NewSession(env Env, bet int64, _ string) Session {
	return instant(func(context.Context) (Step, error) {
		d1, d2 := randutil.Dice(env.Rand)
		total := d1 + d2
		return settle(slices.Contains(diceWinners, total), bet,
			chat.Text(fmt.Sprintf("The dice landed on %d and %d (%d).", d1, d2, total)),
			chat.Text("The dice strike the back of the table and begin to tumble into place..."),
		), nil
	})
}

var hiloChoices = []string{"low", "lo", "high", "hi", "seven", "7"}

// hiloSevenMultiplier pays a correct call of exactly seven.
const hiloSevenMultiplier = 5

// Hilo is a call of low, high or seven on the total of two dice.
type Hilo struct{}

func (Hilo) Name() string        { return "Hilo" }
func (Hilo) Description() string { return "Guess if the dice result will be high, low, or 7." }
func (Hilo) Choices() []string   { return hiloChoices }

func (Hilo) NewSession(env Env, bet int64, choice string) Session {
	return instant(func(context.Context) (Step, error) {
		total := randutil.Between(env.Rand, 1, 6) + randutil.Between(env.Rand, 1, 6)

		var outcome []string
		switch {
		case total < 7:
			outcome = []string{"low", "lo"}
		case total > 7:
			outcome = []string{"high", "hi"}
		default:
			outcome = []string{"seven", "7"}
		}

		won := slices.Contains(outcome, chat.Normalize(choice))
		amount := bet
		if won && total == 7 {
			amount *= hiloSevenMultiplier
		}
		return settle(won, amount,
			chat.Text(fmt.Sprintf("The outcome was %d (%s)!", total, outcome[0])),
			chat.Text("The dice hit the table and slowly fall into place..."),
		), nil
	})
}

const crapsSevenMultiplier = 3

// Craps wins on a comeout of 7 or 11 and loses on 2, 3 or 12. Any other comeout
// sets the point, and the dice are rolled until the point (win) or a 7 (loss).
type Craps struct{}

func (Craps) Name() string { return "Craps" }
func (Craps) Description() string {
	return "Win with a comeout roll of 7 or 11, lose on 2, 3, or 12. " +
		"Any other number becomes the point, which you must roll again before a 7."
}
func (Craps) Choices() []string { return nil }

func (Craps) NewSession(env Env, bet int64, _ string) Session {
	return instant(func(ctx context.Context) (Step, error) {
		var notices []chat.Message
		roll := func() (int, chat.Message) {
			notices = append(notices, chat.Text("The dice strike against the back of the table..."))
			d1, d2 := randutil.Dice(env.Rand)
			return d1 + d2, chat.Text(fmt.Sprintf("You rolled a %d and %d.", d1, d2))
		}

		total, msg := roll()
		switch total {
		case 7:
			return settle(true, bet*crapsSevenMultiplier, msg, notices...), nil
		case 11:
			return settle(true, bet, msg, notices...), nil
		case 2, 3, 12:
			return settle(false, bet, msg, notices...), nil
		}

		point := total
		notices = append(notices, msg.Merge(chat.Text(fmt.Sprintf(
			"I'll keep rolling the dice. You need exactly %d before a 7 to win.", point))))
		for {
			if err := ctx.Err(); err != nil {
				return Step{}, err
			}
			total, msg = roll()
			switch total {
			case point:
				return settle(true, bet, msg, notices...), nil
			case 7:
				return settle(false, bet, msg, notices...), nil
			}
			notices = append(notices, msg)
		}
	})
}
