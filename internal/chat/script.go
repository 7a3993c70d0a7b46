package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lox/casino/internal/randutil"
)

// Timeout is a scripted reply that makes Await report ErrTimeout.
const Timeout = "\x00timeout"

// Script is a Prompter that replays canned replies and records everything sent.
// Once the script runs out every further prompt times out.
type Script struct {
	mu      sync.Mutex
	replies []string
	sent    []Message
	prompts [][]string
}

// NewScript creates a script that answers prompts with replies in order.
func NewScript(replies ...string) *Script {
	return &Script{replies: replies}
}

// Send implements Prompter.
func (s *Script) Send(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

// Await implements Prompter. A scripted reply outside the offered choices is an
// error so that tests notice a prompt they did not expect.
func (s *Script) Await(ctx context.Context, choices []string, _ time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, append([]string{}, choices...))

	if len(s.replies) == 0 {
		return "", ErrTimeout
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	if reply == Timeout {
		return "", ErrTimeout
	}

	choice, ok := Match(choices, reply)
	if !ok {
		return "", fmt.Errorf("scripted reply %q not in %v", reply, choices)
	}
	return choice, nil
}

// Sent returns every message sent so far.
func (s *Script) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message{}, s.sent...)
}

// Prompts returns the choice set of every prompt awaited so far.
func (s *Script) Prompts() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]string{}, s.prompts...)
}

// Remaining returns the number of unused scripted replies.
func (s *Script) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.replies)
}

// Bot is a Prompter that answers every prompt with a uniformly random choice
// and discards outgoing messages. Simulations use it as the player.
type Bot struct {
	rng  randutil.Source
	mu   sync.Mutex
	sent int
}

// NewBot creates a bot drawing its choices from rng.
func NewBot(rng randutil.Source) *Bot {
	return &Bot{rng: rng}
}

// Send implements Prompter.
func (b *Bot) Send(ctx context.Context, _ Message) error {
	b.mu.Lock()
	b.sent++
	b.mu.Unlock()
	return ctx.Err()
}

// Await implements Prompter.
func (b *Bot) Await(ctx context.Context, choices []string, _ time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(choices) == 0 {
		return "", ErrTimeout
	}
	return randutil.Choice(b.rng, choices), nil
}

// MessagesSent returns how many messages the bot has received.
func (b *Bot) MessagesSent() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sent
}
