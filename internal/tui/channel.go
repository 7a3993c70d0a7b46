package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/lox/casino/internal/chat"
	"github.com/lox/casino/internal/lobby"
	"github.com/lox/casino/internal/render"
)

// sender is the part of a tea.Program the channel needs.
type sender interface {
	Send(msg tea.Msg)
}

// Channel is the chat channel behind the window. Messages are posted to the
// program; replies are the lines the player enters.
type Channel struct {
	program sender
	model   *Model
	conv    *chat.Conversation
}

// NewChannel connects a model, and the program running it, as a chat channel.
func NewChannel(program sender, model *Model, clock quartz.Clock, logger *log.Logger) *Channel {
	c := &Channel{program: program, model: model}
	c.conv = chat.NewConversation(c, clock, logger)
	return c
}

// Send implements chat.Channel.
func (c *Channel) Send(ctx context.Context, msg chat.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.program.Send(chatMsg(msg))
	return nil
}

// Replies implements chat.Channel.
func (c *Channel) Replies() <-chan string {
	return c.model.Lines()
}

// Await implements chat.Prompter, showing the choices in the sidebar while
// the game waits.
func (c *Channel) Await(ctx context.Context, choices []string, timeout time.Duration) (string, error) {
	c.program.Send(promptMsg(choices))
	defer c.program.Send(promptMsg(nil))
	return c.conv.Await(ctx, choices, timeout)
}

// Run opens the chat window and serves the player's commands from l until
// they quit or ctx is cancelled.
func Run(ctx context.Context, l *lobby.Lobby, account, player string, renderer *render.Renderer, logger *log.Logger) error {
	model := NewModel(renderer, account, logger)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	ch := NewChannel(program, model, quartz.NewReal(), logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer program.Quit()
		err := l.Serve(gctx, ch, account, player)
		if errors.Is(err, chat.ErrClosed) || errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		_, err := program.Run()
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return err
	})
	return g.Wait()
}
