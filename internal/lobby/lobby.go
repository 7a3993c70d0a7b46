// Package lobby is the chat command front-end of the casino. It reads a
// player's commands off a chat channel and starts games at the table.
package lobby

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/casino/internal/casino"
	"github.com/lox/casino/internal/chat"
	"github.com/lox/casino/internal/ledger"
)

// Kind is what a command asks for.
type Kind int

const (
	KindPlay Kind = iota
	KindHelp
	KindGames
	KindBalance
	KindQuit
)

// Command is one parsed line of player input.
type Command struct {
	Kind   Kind
	Game   string
	Bet    int64
	Choice string
}

var (
	// ErrUnknownCommand is returned for input that names no command or game.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrBadBet is returned when a game command's bet is not a whole number.
	ErrBadBet = errors.New("bet must be a whole number of credits")
)

// Parse reads a command line such as "coin 10 heads" or "!blackjack 50".
// The bet may be left off only for Allin, which then stakes everything.
func Parse(line string) (Command, error) {
	parts := strings.Fields(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(line), "!")))
	if len(parts) == 0 {
		return Command{}, ErrUnknownCommand
	}

	action, args := parts[0], parts[1:]
	switch action {
	case "help", "?":
		return Command{Kind: KindHelp}, nil
	case "games", "list":
		return Command{Kind: KindGames}, nil
	case "balance", "bal":
		return Command{Kind: KindBalance}, nil
	case "quit", "q", "exit":
		return Command{Kind: KindQuit}, nil
	}

	game, ok := casino.Lookup(action)
	if !ok {
		return Command{}, fmt.Errorf("%w: %s", ErrUnknownCommand, action)
	}

	cmd := Command{Kind: KindPlay, Game: game.Name()}
	if len(args) == 0 {
		if _, allin := game.(casino.Allin); allin {
			return cmd, nil
		}
		return Command{}, fmt.Errorf("%w: usage %s", ErrBadBet, usage(game))
	}

	bet, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return Command{}, fmt.Errorf("%w: usage %s", ErrBadBet, usage(game))
	}
	cmd.Bet = bet
	if len(args) > 1 {
		cmd.Choice = args[1]
	}
	return cmd, nil
}

func usage(g casino.Game) string {
	u := strings.ToLower(g.Name()) + " <bet>"
	if choices := g.Choices(); len(choices) > 0 {
		u += " <" + strings.Join(choices, "|") + ">"
	}
	return u
}

// Lobby serves one player's commands against a table.
type Lobby struct {
	table  *casino.Table
	bank   ledger.Bank
	clock  quartz.Clock
	logger *log.Logger
}

// New creates a lobby. clock times prompts on channels that do not do their
// own waiting.
func New(table *casino.Table, bank ledger.Bank, clock quartz.Clock, logger *log.Logger) *Lobby {
	return &Lobby{
		table:  table,
		bank:   bank,
		clock:  clock,
		logger: logger.WithPrefix("lobby"),
	}
}

// Serve handles commands from ch until the player quits, the channel closes or
// ctx is cancelled. Games run inline, so while one is in progress the
// channel's replies go to the game.
func (l *Lobby) Serve(ctx context.Context, ch chat.Channel, account, player string) error {
	p := l.prompter(ch)
	logger := l.logger.With("account", account)

	if err := ch.Send(ctx, l.welcome(ctx, account, player)); err != nil {
		return err
	}

	for {
		var line string
		select {
		case reply, ok := <-ch.Replies():
			if !ok {
				return nil
			}
			line = reply
		case <-ctx.Done():
			return ctx.Err()
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		cmd, err := Parse(line)
		if err != nil {
			logger.Debug("Bad command", "line", line, "error", err)
			if err := ch.Send(ctx, chat.Text(capitalize(err.Error())+". Type help for commands.")); err != nil {
				return err
			}
			continue
		}

		quit, err := l.handle(ctx, p, cmd, account, player)
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
	}
}

// handle runs one command. Only failures that leave the channel unusable are
// returned; everything else is reported to the player.
func (l *Lobby) handle(ctx context.Context, p chat.Prompter, cmd Command, account, player string) (bool, error) {
	switch cmd.Kind {
	case KindQuit:
		return true, p.Send(ctx, chat.Text("Thanks for playing!"))

	case KindHelp:
		return false, p.Send(ctx, l.help())

	case KindGames:
		return false, p.Send(ctx, l.games())

	case KindBalance:
		balance, err := l.bank.Balance(ctx, account)
		if err != nil {
			return false, fmt.Errorf("failed to read balance: %w", err)
		}
		return false, p.Send(ctx, chat.Text(fmt.Sprintf("You have **%d** credits.", balance)))
	}

	_, err := l.table.Play(ctx, p, casino.Request{
		Account: account,
		Player:  player,
		Game:    cmd.Game,
		Bet:     cmd.Bet,
		Choice:  cmd.Choice,
	})
	switch {
	case err == nil:
		return false, nil
	case casino.IsPlayerError(err):
		return false, p.Send(ctx, chat.Text(capitalize(err.Error())+"."))
	default:
		return false, err
	}
}

// prompter uses the channel's own prompting when it has one.
func (l *Lobby) prompter(ch chat.Channel) chat.Prompter {
	if p, ok := ch.(chat.Prompter); ok {
		return p
	}
	return chat.NewConversation(ch, l.clock, l.logger)
}

func (l *Lobby) welcome(ctx context.Context, account, player string) chat.Message {
	msg := chat.Message{Title: "Casino", Text: fmt.Sprintf("Welcome, %s! Type help for commands.", player)}
	if balance, err := l.bank.Balance(ctx, account); err == nil {
		msg = msg.With("Balance", strconv.FormatInt(balance, 10))
	}
	return msg
}

func (l *Lobby) help() chat.Message {
	settings := l.table.Settings()
	msg := chat.Message{Title: "Commands"}
	for _, g := range l.table.Games() {
		msg = msg.With(usage(g), g.Description())
	}
	return msg.
		With("games", "List games and payouts").
		With("balance", "Show your credits").
		With("quit", "Leave the casino").
		Merge(chat.Message{Footer: fmt.Sprintf("Bets from %d to %d credits", settings.MinBet, settings.MaxBet)})
}

func (l *Lobby) games() chat.Message {
	settings := l.table.Settings()
	msg := chat.Message{Title: "Games"}
	for _, g := range l.table.Games() {
		msg = msg.With(g.Name(), fmt.Sprintf("%s\nPays x%g", g.Description(), settings.Game(g.Name()).Payout))
	}
	return msg
}

func capitalize(s string) string {
	s = strings.TrimPrefix(s, "casino: ")
	s = strings.TrimPrefix(s, "ledger: ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
