package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/casino/internal/casino"
	"github.com/lox/casino/internal/chat"
	"github.com/lox/casino/internal/deck"
	"github.com/lox/casino/internal/ledger"
	"github.com/lox/casino/internal/randutil"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

// newTestServer serves a table whose sessions draw from a stacked deck and
// scripted rolls.
func newTestServer(t *testing.T, cards string, rolls ...int) (*Server, *httptest.Server, *ledger.Memory) {
	t.Helper()

	bank := ledger.NewMemory(1000)
	table := casino.NewTable(bank, casino.DefaultSettings(), testLogger(),
		casino.WithSessionRand(func() randutil.Source { return randutil.NewFixed(rolls...) }),
		casino.WithDeck(func(randutil.Source) deck.Dealer { return deck.NewStacked(deck.MustParseCards(cards)...) }),
		casino.WithSessionIDs(func() string { return "session-1" }),
	)
	srv := NewServer("", table, bank, testLogger())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Stop()
		ts.Close()
	})
	return srv, ts, bank
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, messageType MessageType, data any) {
	t.Helper()
	msg, err := NewMessage(messageType, data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(msg))
}

// readUntil reads messages until one of the wanted type arrives, returning it
// along with everything skipped on the way.
func readUntil(t *testing.T, conn *websocket.Conn, want MessageType) (*Message, []*Message) {
	t.Helper()
	var skipped []*Message
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == want {
			return &msg, skipped
		}
		skipped = append(skipped, &msg)
	}
}

func decode[T any](t *testing.T, msg *Message) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(msg.Data, &v))
	return v
}

func authenticate(t *testing.T, conn *websocket.Conn, account string) AuthResponseData {
	t.Helper()
	send(t, conn, MessageTypeAuth, AuthData{Account: account, Player: "Alice"})
	msg, _ := readUntil(t, conn, MessageTypeAuthResponse)
	return decode[AuthResponseData](t, msg)
}

func TestServerHealth(t *testing.T) {
	_, ts, _ := newTestServer(t, "")

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestGamesEndpoint(t *testing.T) {
	_, ts, _ := newTestServer(t, "")

	resp, err := http.Get(ts.URL + "/games")
	require.NoError(t, err)
	defer resp.Body.Close()

	var list GameListData
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list.Games, len(casino.Games()))

	byName := make(map[string]GameInfo)
	for _, g := range list.Games {
		byName[g.Name] = g
	}
	assert.Equal(t, 1.5, byName["Coin"].Payout)
	assert.Equal(t, []string{"heads", "tails"}, byName["Coin"].Choices)
	assert.Empty(t, byName["Blackjack"].Choices)
}

func TestBalanceAndDeposit(t *testing.T) {
	_, ts, _ := newTestServer(t, "")

	resp, err := http.Get(ts.URL + "/accounts/bob")
	require.NoError(t, err)
	var bal BalanceData
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&bal))
	resp.Body.Close()
	assert.Equal(t, BalanceData{Account: "bob", Balance: 1000}, bal)

	tests := []struct {
		name    string
		body    string
		status  int
		balance int64
	}{
		{"deposit", `{"amount": 50}`, http.StatusOK, 1050},
		{"negative amount", `{"amount": -5}`, http.StatusBadRequest, 0},
		{"malformed body", `{"amount":`, http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/accounts/bob/deposit", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.status == http.StatusOK {
				var bal BalanceData
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&bal))
				assert.Equal(t, tt.balance, bal.Balance)
			}
		})
	}
}

func TestPlayRequiresAuth(t *testing.T) {
	_, ts, _ := newTestServer(t, "")
	conn := dial(t, ts)

	send(t, conn, MessageTypePlay, PlayData{Game: "coin", Bet: 10, Choice: "heads"})
	msg, _ := readUntil(t, conn, MessageTypeError)
	assert.Equal(t, "not_authenticated", decode[ErrorData](t, msg).Code)
}

func TestAuthRequiresAccount(t *testing.T) {
	_, ts, _ := newTestServer(t, "")
	conn := dial(t, ts)

	resp := authenticate(t, conn, "  ")
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}

func TestPlayCoinOverWebSocket(t *testing.T) {
	_, ts, bank := newTestServer(t, "", 0)
	conn := dial(t, ts)

	resp := authenticate(t, conn, "alice")
	require.True(t, resp.Success)
	assert.Equal(t, int64(1000), resp.Balance)

	send(t, conn, MessageTypePlay, PlayData{Game: "coin", Bet: 10, Choice: "heads"})
	msg, skipped := readUntil(t, conn, MessageTypeOutcome)

	out := decode[OutcomeData](t, msg)
	assert.Equal(t, "Coin", out.Game)
	assert.True(t, out.Won)
	assert.Equal(t, int64(15), out.Credited)
	assert.Equal(t, int64(5), out.Net)
	assert.Equal(t, int64(1005), out.Balance)

	require.NotEmpty(t, skipped)
	final := decode[chat.Message](t, skipped[len(skipped)-1])
	assert.Equal(t, "Coin", final.Title)
	assert.Contains(t, final.Text, "You won 15 credits!")

	bal, err := bank.Balance(t.Context(), "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1005), bal)
}

func TestWarPromptOverWebSocket(t *testing.T) {
	_, ts, _ := newTestServer(t, "KhKs2c3d4hAhQd")
	conn := dial(t, ts)
	authenticate(t, conn, "alice")

	send(t, conn, MessageTypePlay, PlayData{Game: "War", Bet: 10})

	msg, _ := readUntil(t, conn, MessageTypePrompt)
	prompt := decode[PromptData](t, msg)
	assert.Equal(t, []string{"war", "surrender", "ffs"}, prompt.Choices)
	assert.Equal(t, casino.DefaultTimeout.Seconds(), prompt.Timeout)

	send(t, conn, MessageTypeReply, ReplyData{Text: "WAR"})

	msg, _ = readUntil(t, conn, MessageTypeOutcome)
	out := decode[OutcomeData](t, msg)
	assert.True(t, out.Won)
	assert.Equal(t, int64(15), out.Credited)
	assert.Equal(t, int64(1005), out.Balance)
}

func TestInvalidPlayReportsError(t *testing.T) {
	_, ts, bank := newTestServer(t, "")
	conn := dial(t, ts)
	authenticate(t, conn, "alice")

	send(t, conn, MessageTypePlay, PlayData{Game: "roulette", Bet: 10})
	msg, _ := readUntil(t, conn, MessageTypeError)
	data := decode[ErrorData](t, msg)
	assert.Equal(t, "invalid_play", data.Code)
	assert.Contains(t, data.Message, "unknown game")

	bal, err := bank.Balance(t.Context(), "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), bal)
}

func TestBalanceAndGamesOverWebSocket(t *testing.T) {
	_, ts, _ := newTestServer(t, "")
	conn := dial(t, ts)
	authenticate(t, conn, "alice")

	send(t, conn, MessageTypeBalance, nil)
	msg, _ := readUntil(t, conn, MessageTypeBalance)
	assert.Equal(t, BalanceData{Account: "alice", Balance: 1000}, decode[BalanceData](t, msg))

	send(t, conn, MessageTypeListGames, nil)
	msg, _ = readUntil(t, conn, MessageTypeGameList)
	assert.Len(t, decode[GameListData](t, msg).Games, len(casino.Games()))

	send(t, conn, MessageType("shuffle"), nil)
	msg, _ = readUntil(t, conn, MessageTypeError)
	assert.Equal(t, "unknown_message_type", decode[ErrorData](t, msg).Code)
}

func TestConnectionsTracked(t *testing.T) {
	srv, ts, _ := newTestServer(t, "")
	conn := dial(t, ts)
	authenticate(t, conn, "alice")
	assert.Equal(t, 1, srv.Connections())

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return srv.Connections() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestCheckOrigin(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"no restriction", nil, "https://evil.example", true},
		{"wildcard", []string{"*"}, "https://evil.example", true},
		{"listed origin", []string{"https://casino.example"}, "https://casino.example", true},
		{"unlisted origin", []string{"https://casino.example"}, "https://evil.example", false},
		{"non-browser client", []string{"https://casino.example"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewServer("", nil, nil, testLogger(), WithAllowedOrigins(tt.allowed...))
			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, srv.checkOrigin(req))
		})
	}
}
