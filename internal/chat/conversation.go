package chat

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
)

var (
	// ErrTimeout is returned by Await when no matching reply arrives in time.
	ErrTimeout = errors.New("chat: reply timed out")
	// ErrClosed is returned once the channel stops delivering replies.
	ErrClosed = errors.New("chat: channel closed")
)

// Channel is a single chat conversation with one player.
type Channel interface {
	// Send delivers a message to the player.
	Send(ctx context.Context, msg Message) error
	// Replies yields every message the player types. It is closed when the
	// player goes away.
	Replies() <-chan string
}

// Prompter is what a game flow needs from the chat side: send messages and wait
// for one of a fixed set of replies.
type Prompter interface {
	Send(ctx context.Context, msg Message) error
	Await(ctx context.Context, choices []string, timeout time.Duration) (string, error)
}

// Conversation adapts a Channel into a Prompter, using clock for reply timeouts.
type Conversation struct {
	ch     Channel
	clock  quartz.Clock
	logger *log.Logger
}

// NewConversation creates a conversation over ch.
func NewConversation(ch Channel, clock quartz.Clock, logger *log.Logger) *Conversation {
	return &Conversation{
		ch:     ch,
		clock:  clock,
		logger: logger.WithPrefix("chat"),
	}
}

// Send implements Prompter.
func (c *Conversation) Send(ctx context.Context, msg Message) error {
	return c.ch.Send(ctx, msg)
}

// Await waits for a reply matching one of choices. Replies outside the choice
// set are ignored. It returns ErrTimeout once timeout elapses without a match.
func (c *Conversation) Await(ctx context.Context, choices []string, timeout time.Duration) (string, error) {
	fired := make(chan struct{})
	timer := c.clock.AfterFunc(timeout, func() {
		close(fired)
	})
	defer timer.Stop()

	replies := c.ch.Replies()
	for {
		select {
		case reply, ok := <-replies:
			if !ok {
				return "", ErrClosed
			}
			choice, matched := Match(choices, reply)
			if !matched {
				c.logger.Debug("Ignoring reply", "reply", reply, "choices", choices)
				continue
			}
			return choice, nil

		case <-fired:
			c.logger.Debug("Reply timed out", "timeout", timeout, "choices", choices)
			return "", ErrTimeout

		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}
