package chat

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/casino/internal/randutil"
)

// memChannel is an in-memory Channel for tests.
type memChannel struct {
	mu      sync.Mutex
	sent    []Message
	replies chan string
}

func newMemChannel() *memChannel {
	return &memChannel{replies: make(chan string, 8)}
}

func (m *memChannel) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *memChannel) Replies() <-chan string { return m.replies }

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func TestMatch(t *testing.T) {
	choices := []string{"hit", "stay", "double"}

	tests := []struct {
		reply string
		want  string
		ok    bool
	}{
		{"hit", "hit", true},
		{"  STAY ", "stay", true},
		{"Double", "double", true},
		{"hit me", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := Match(choices, tt.reply)
		assert.Equal(t, tt.ok, ok, "reply %q", tt.reply)
		assert.Equal(t, tt.want, got, "reply %q", tt.reply)
	}
}

func TestAwaitReturnsMatchingReply(t *testing.T) {
	ch := newMemChannel()
	conv := NewConversation(ch, quartz.NewMock(t), testLogger())

	ch.replies <- "what?"
	ch.replies <- "HEADS"

	got, err := conv.Await(context.Background(), []string{"heads", "tails"}, 35*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "heads", got)
}

func TestAwaitTimesOut(t *testing.T) {
	ch := newMemChannel()
	mClock := quartz.NewMock(t)
	conv := NewConversation(ch, mClock, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	type result struct {
		reply string
		err   error
	}
	done := make(chan result, 1)
	go func() {
		reply, err := conv.Await(ctx, []string{"hit", "stay"}, 35*time.Second)
		done <- result{reply, err}
	}()

	// wait for the timer to be armed, then fire it
	require.Eventually(t, func() bool {
		_, ok := mClock.Peek()
		return ok
	}, time.Second, time.Millisecond)

	ch.replies <- "nonsense"
	d, w := mClock.AdvanceNext()
	w.MustWait(ctx)
	assert.Equal(t, 35*time.Second, d)

	select {
	case r := <-done:
		assert.ErrorIs(t, r.err, ErrTimeout)
		assert.Empty(t, r.reply)
	case <-ctx.Done():
		t.Fatal("Await did not return after timeout")
	}
}

func TestAwaitClosedChannel(t *testing.T) {
	ch := newMemChannel()
	close(ch.replies)
	conv := NewConversation(ch, quartz.NewMock(t), testLogger())

	_, err := conv.Await(context.Background(), []string{"1", "2"}, time.Second)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestAwaitContextCancelled(t *testing.T) {
	conv := NewConversation(newMemChannel(), quartz.NewMock(t), testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := conv.Await(ctx, []string{"1"}, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStreamChannel(t *testing.T) {
	var out strings.Builder
	s := NewStream(strings.NewReader("hit\nstay\n"), &out, nil)

	require.NoError(t, s.Send(context.Background(), Text("hello")))
	assert.Equal(t, "hello\n", out.String())

	var got []string
	for r := range s.Replies() {
		got = append(got, r)
	}
	assert.Equal(t, []string{"hit", "stay"}, got)
}

func TestMessageMergeAndString(t *testing.T) {
	base := Message{Title: "Blackjack", Text: "Dealing"}
	payload := Message{Fields: []Field{{Name: "Outcome", Value: "Winner!"}}, Footer: "Cards in deck: 40"}

	merged := base.Merge(payload)
	assert.Equal(t, "Blackjack", merged.Title)
	assert.True(t, merged.Structured())
	assert.Equal(t, "Cards in deck: 40", merged.Footer)
	assert.Equal(t, "Blackjack\nDealing\nOutcome: Winner!\nCards in deck: 40", merged.String())

	withNote := merged.Merge(Text("Balance: 10"))
	assert.Equal(t, "Dealing\nBalance: 10", withNote.Text)
	assert.Len(t, base.Fields, 0, "merge does not mutate the receiver")

	assert.Equal(t, []Field{{Name: "a", Value: "b"}}, Message{}.With("a", "b").Fields)
}

func TestScript(t *testing.T) {
	s := NewScript("1", Timeout, "bogus")
	ctx := context.Background()

	got, err := s.Await(ctx, []string{"1", "2"}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "1", got)

	_, err = s.Await(ctx, []string{"1", "2"}, time.Second)
	assert.ErrorIs(t, err, ErrTimeout)

	_, err = s.Await(ctx, []string{"1", "2"}, time.Second)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrTimeout)

	_, err = s.Await(ctx, []string{"1", "2"}, time.Second)
	assert.ErrorIs(t, err, ErrTimeout, "an exhausted script times out")

	assert.Len(t, s.Prompts(), 4)
	assert.Equal(t, 0, s.Remaining())
}

func TestBotPicksOfferedChoice(t *testing.T) {
	b := NewBot(randutil.New(1))
	for i := 0; i < 50; i++ {
		got, err := b.Await(context.Background(), []string{"hit", "stay"}, time.Second)
		require.NoError(t, err)
		assert.Contains(t, []string{"hit", "stay"}, got)
	}
	require.NoError(t, b.Send(context.Background(), Text("x")))
	assert.Equal(t, 1, b.MessagesSent())
}
