package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
)

// Formatter turns a message into text for a line-oriented transport.
type Formatter func(Message) string

// Stream is a Channel over a plain reader and writer, one reply per line.
// It backs the non-interactive terminal mode.
type Stream struct {
	w       io.Writer
	format  Formatter
	replies chan string
	mu      sync.Mutex
}

// NewStream starts reading lines from r. format may be nil for plain text.
func NewStream(r io.Reader, w io.Writer, format Formatter) *Stream {
	if format == nil {
		format = Message.String
	}
	s := &Stream{
		w:       w,
		format:  format,
		replies: make(chan string, 16),
	}
	go s.readLoop(r)
	return s
}

func (s *Stream) readLoop(r io.Reader) {
	defer close(s.replies)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		s.replies <- scanner.Text()
	}
}

// Send implements Channel.
func (s *Stream) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintln(s.w, s.format(msg))
	return err
}

// Replies implements Channel.
func (s *Stream) Replies() <-chan string {
	return s.replies
}
