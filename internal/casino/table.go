package casino

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/casino/internal/chat"
	"github.com/lox/casino/internal/deck"
	"github.com/lox/casino/internal/gameid"
	"github.com/lox/casino/internal/ledger"
	"github.com/lox/casino/internal/randutil"
)

// DeckMode selects how sessions get their cards.
type DeckMode string

const (
	// DeckPerSession gives every session its own freshly shuffled deck.
	DeckPerSession DeckMode = "session"
	// DeckShared has every session draw from one table deck. Draws are
	// serialised but sessions interleave.
	DeckShared DeckMode = "shared"
)

// GameSettings configures one game at the table.
type GameSettings struct {
	// Payout multiplies a won amount into the credit paid out.
	Payout  float64
	Enabled bool
}

// Settings configures a Table.
type Settings struct {
	Timeout         time.Duration
	MinBet          int64
	MaxBet          int64 // 0 for no limit
	AllinMultiplier int
	DeckMode        DeckMode
	Games           map[string]GameSettings
}

var defaultPayouts = map[string]float64{
	"Allin":      1,
	"Blackjack":  2,
	"Coin":       1.5,
	"Craps":      2,
	"Cups":       2.5,
	"Dice":       2.5,
	"Double":     1,
	"Hilo":       1.5,
	"Pikapokeri": 1,
	"War":        1.5,
}

// DefaultSettings returns the house rules with every game enabled.
func DefaultSettings() Settings {
	games := make(map[string]GameSettings, len(defaultPayouts))
	for name, payout := range defaultPayouts {
		games[name] = GameSettings{Payout: payout, Enabled: true}
	}
	return Settings{
		Timeout:         DefaultTimeout,
		MinBet:          1,
		MaxBet:          100000,
		AllinMultiplier: DefaultAllinMultiplier,
		DeckMode:        DeckPerSession,
		Games:           games,
	}
}

// Game returns the settings for a game. Games without an entry are enabled
// with a payout of 1.
func (s Settings) Game(name string) GameSettings {
	if gs, ok := s.Games[name]; ok {
		return gs
	}
	return GameSettings{Payout: 1, Enabled: true}
}

// Request asks the table to play one game.
type Request struct {
	Account string
	// Player is the display name, defaulting to Account.
	Player string
	Game   string
	// Bet is the wager. For Allin a zero bet stakes the whole balance.
	Bet    int64
	Choice string
}

// Outcome is a settled game as seen by the table.
type Outcome struct {
	SessionID string
	Game      string
	Account   string
	Bet       int64
	Result    Result
	// Credited is what the table paid out for a win.
	Credited int64
	// Wagered is everything withdrawn during the game, including double downs.
	Wagered int64
	// Returned is everything deposited during the game, including refunds.
	Returned int64
	Balance  int64
	Duration time.Duration
}

// Net is the change in the player's balance.
func (o *Outcome) Net() int64 {
	return o.Returned - o.Wagered
}

// Option configures a Table.
type Option func(*Table)

// WithRand sets the source session seeds are drawn from.
func WithRand(src randutil.Source) Option {
	return func(t *Table) {
		t.rng = randutil.NewLocked(src)
	}
}

// WithSessionRand replaces how each session's random source is created.
func WithSessionRand(newRand func() randutil.Source) Option {
	return func(t *Table) {
		t.newRand = newRand
	}
}

// WithDeck replaces how each session's deck is created.
func WithDeck(newDeck func(rng randutil.Source) deck.Dealer) Option {
	return func(t *Table) {
		t.newDeck = newDeck
	}
}

// WithSessionIDs replaces the session ID generator.
func WithSessionIDs(newID func() string) Option {
	return func(t *Table) {
		t.newID = newID
	}
}

// Table validates requests, takes bets, runs sessions and pays out.
type Table struct {
	settings Settings
	bank     ledger.Bank
	logger   *log.Logger

	rng     randutil.Source
	newRand func() randutil.Source
	newDeck func(rng randutil.Source) deck.Dealer
	newID   func() string

	sharedOnce sync.Once
	shared     deck.Dealer
}

// NewTable creates a table settling against bank.
func NewTable(bank ledger.Bank, settings Settings, logger *log.Logger, opts ...Option) *Table {
	src, _ := randutil.NewTimeSeeded()
	t := &Table{
		settings: settings,
		bank:     bank,
		logger:   logger.WithPrefix("table"),
		rng:      randutil.NewLocked(src),
		newID:    gameid.Generate,
	}
	t.newRand = func() randutil.Source {
		return randutil.New(int64(t.rng.IntN(math.MaxInt)))
	}
	t.newDeck = func(rng randutil.Source) deck.Dealer {
		return deck.New(rng)
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Settings returns the table's configuration.
func (t *Table) Settings() Settings {
	return t.settings
}

// Games returns the games open at this table.
func (t *Table) Games() []Game {
	var games []Game
	for _, g := range Games() {
		if t.settings.Game(g.Name()).Enabled {
			games = append(games, g)
		}
	}
	return games
}

func (t *Table) dealer(rng randutil.Source) deck.Dealer {
	if t.settings.DeckMode != DeckShared {
		return t.newDeck(rng)
	}
	// The table deck gets its own source so no session's rng is shared
	t.sharedOnce.Do(func() {
		d := t.newDeck(t.newRand())
		if plain, ok := d.(*deck.Deck); ok {
			d = deck.NewSync(plain)
		}
		t.shared = d
	})
	return t.shared
}

// validate resolves the game, choice and bet of a request.
func (t *Table) validate(ctx context.Context, req *Request) (Game, string, error) {
	game, ok := Lookup(req.Game)
	if !ok {
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownGame, req.Game)
	}
	if !t.settings.Game(game.Name()).Enabled {
		return nil, "", fmt.Errorf("%w: %s", ErrGameDisabled, game.Name())
	}

	var choice string
	if choices := game.Choices(); choices != nil {
		c, ok := chat.Match(choices, req.Choice)
		if !ok {
			return nil, "", fmt.Errorf("%w: %s takes one of %s", ErrInvalidChoice, game.Name(), strings.Join(choices, ", "))
		}
		choice = c
	}

	if _, isAllin := game.(Allin); isAllin && req.Bet == 0 {
		bal, err := t.bank.Balance(ctx, req.Account)
		if err != nil {
			return nil, "", err
		}
		req.Bet = bal
	}
	if req.Bet < t.settings.MinBet || req.Bet <= 0 {
		return nil, "", fmt.Errorf("%w: minimum bet is %d", ErrInvalidBet, max(t.settings.MinBet, 1))
	}
	if t.settings.MaxBet > 0 && req.Bet > t.settings.MaxBet {
		return nil, "", fmt.Errorf("%w: maximum bet is %d", ErrInvalidBet, t.settings.MaxBet)
	}
	return game, choice, nil
}

// Play runs one game for req over p. The bet is withdrawn up front, a win is
// credited at the game's payout, and the final result is sent to the player.
// If the session aborts before settling, whatever it withdrew is refunded.
func (t *Table) Play(ctx context.Context, p chat.Prompter, req Request) (*Outcome, error) {
	game, choice, err := t.validate(ctx, &req)
	if err != nil {
		return nil, err
	}

	id := t.newID()
	logger := t.logger.With("session", id, "game", game.Name(), "account", req.Account)
	bank := &trackingBank{Bank: t.bank}

	if err := bank.Withdraw(ctx, req.Account, req.Bet); err != nil {
		return nil, fmt.Errorf("failed to take bet: %w", err)
	}

	rng := t.newRand()
	env := Env{
		Account:         req.Account,
		Player:          req.Player,
		Deck:            t.dealer(rng),
		Rand:            rng,
		Bank:            bank,
		AllinMultiplier: t.settings.AllinMultiplier,
		Logger:          logger,
	}

	logger.Info("Session started", "bet", req.Bet, "choice", choice)
	started := time.Now()

	res, err := Run(ctx, game.NewSession(env, req.Bet, choice), p, t.settings.Timeout, logger)
	if err != nil {
		t.refund(context.WithoutCancel(ctx), logger, bank, req.Account)
		return nil, fmt.Errorf("%s session aborted: %w", game.Name(), err)
	}

	var credited int64
	if res.Won {
		credited = int64(math.Floor(float64(res.Amount) * t.settings.Game(game.Name()).Payout))
		if err := bank.Deposit(ctx, req.Account, credited); err != nil {
			logger.Error("Failed to credit win", "credit", credited, "error", err)
			return nil, fmt.Errorf("failed to credit win: %w", err)
		}
	}

	balance, err := t.bank.Balance(ctx, req.Account)
	if err != nil {
		return nil, err
	}

	wagered, returned := bank.totals()
	out := &Outcome{
		SessionID: id,
		Game:      game.Name(),
		Account:   req.Account,
		Bet:       req.Bet,
		Result:    res,
		Credited:  credited,
		Wagered:   wagered,
		Returned:  returned,
		Balance:   balance,
		Duration:  time.Since(started),
	}
	logger.Info("Session settled", "won", res.Won, "amount", res.Amount, "credited", credited, "net", out.Net(), "balance", balance)

	if err := p.Send(ctx, summary(game, out)); err != nil {
		return out, fmt.Errorf("failed to send result: %w", err)
	}
	return out, nil
}

func (t *Table) refund(ctx context.Context, logger *log.Logger, bank *trackingBank, account string) {
	wagered, returned := bank.totals()
	owed := wagered - returned
	if owed <= 0 {
		return
	}
	if err := t.bank.Deposit(ctx, account, owed); err != nil {
		logger.Error("Failed to refund aborted session", "owed", owed, "error", err)
		return
	}
	logger.Warn("Refunded aborted session", "amount", owed)
}

// summary is the final message: the game's payload plus the settlement.
func summary(game Game, out *Outcome) chat.Message {
	var line string
	switch {
	case out.Result.Won:
		line = fmt.Sprintf("You won %d credits!", out.Credited)
	case out.Returned >= out.Wagered:
		line = fmt.Sprintf("Your bet of %d credits was returned.", out.Returned)
	case out.Returned > 0:
		line = fmt.Sprintf("You lost %d credits and got %d back.", out.Wagered-out.Returned, out.Returned)
	default:
		line = fmt.Sprintf("You lost %d credits.", out.Wagered-out.Returned)
	}
	return chat.Message{Title: game.Name()}.
		Merge(out.Result.Payload).
		Merge(chat.Text(line)).
		With("Balance", fmt.Sprintf("%d", out.Balance))
}

// trackingBank records what a session moves through the bank.
type trackingBank struct {
	ledger.Bank
	mu        sync.Mutex
	withdrawn int64
	deposited int64
}

func (b *trackingBank) Withdraw(ctx context.Context, account string, amount int64) error {
	if err := b.Bank.Withdraw(ctx, account, amount); err != nil {
		return err
	}
	b.mu.Lock()
	b.withdrawn += amount
	b.mu.Unlock()
	return nil
}

func (b *trackingBank) Deposit(ctx context.Context, account string, amount int64) error {
	if err := b.Bank.Deposit(ctx, account, amount); err != nil {
		return err
	}
	b.mu.Lock()
	b.deposited += amount
	b.mu.Unlock()
	return nil
}

func (b *trackingBank) totals() (withdrawn, deposited int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.withdrawn, b.deposited
}

// IsPlayerError reports whether err is the player's mistake rather than a fault.
func IsPlayerError(err error) bool {
	return errors.Is(err, ErrUnknownGame) ||
		errors.Is(err, ErrGameDisabled) ||
		errors.Is(err, ErrInvalidBet) ||
		errors.Is(err, ErrInvalidChoice) ||
		errors.Is(err, ledger.ErrInsufficientFunds)
}
