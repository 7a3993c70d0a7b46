package server

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/casino/internal/casino"
	"github.com/lox/casino/internal/chat"
)

// Connection is one player's WebSocket. It is the chat channel their games
// are played over, one game at a time.
type Connection struct {
	conn      *websocket.Conn
	server    *Server
	send      chan *Message
	replies   chan string
	conv      *chat.Conversation
	account   string
	player    string
	playing   atomic.Bool
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	closeOnce sync.Once
}

// NewConnection creates a new connection wrapper.
func NewConnection(conn *websocket.Conn, server *Server) *Connection {
	ctx, cancel := context.WithCancel(server.ctx)

	c := &Connection{
		conn:    conn,
		server:  server,
		send:    make(chan *Message, 256),
		replies: make(chan string, 16),
		logger:  server.logger.WithPrefix("conn"),
		ctx:     ctx,
		cancel:  cancel,
	}
	c.conv = chat.NewConversation(c, server.clock, c.logger)
	return c
}

// Start begins handling the connection.
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// Done is closed once the connection shuts down.
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// SendMessage queues a message for the client.
func (c *Connection) SendMessage(msg *Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			// send was closed under us during shutdown
			c.logger.Debug("Attempted to send message on closed connection", "error", r)
			err = ErrConnectionClosed
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// Send implements chat.Channel.
func (c *Connection) Send(ctx context.Context, msg chat.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	envelope, err := NewMessage(MessageTypeChat, ChatData(msg))
	if err != nil {
		return err
	}
	return c.SendMessage(envelope)
}

// Replies implements chat.Channel.
func (c *Connection) Replies() <-chan string {
	return c.replies
}

// Await implements chat.Prompter. The client is told which replies are
// acceptable before the wait starts.
func (c *Connection) Await(ctx context.Context, choices []string, timeout time.Duration) (string, error) {
	envelope, err := NewMessage(MessageTypePrompt, PromptData{
		Choices: choices,
		Timeout: timeout.Seconds(),
	})
	if err != nil {
		return "", err
	}
	if err := c.SendMessage(envelope); err != nil {
		return "", err
	}
	return c.conv.Await(ctx, choices, timeout)
}

// SetIdentity associates this connection with an account.
func (c *Connection) SetIdentity(account, player string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.account = account
	c.player = player
}

// Identity returns the associated account and display name.
func (c *Connection) Identity() (account, player string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.account, c.player
}

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 8192
)

var (
	ErrConnectionClosed = websocket.ErrCloseSent
)

// readPump handles incoming messages from the client. It is the only writer
// of replies, so it closes them on the way out and any game waiting for a
// reply sees the player leave.
func (c *Connection) readPump() {
	defer func() {
		close(c.replies)
		_ = c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client.
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage processes incoming messages from the client.
func (c *Connection) handleMessage(msg *Message) {
	account, _ := c.Identity()
	c.logger.Debug("Received message", "type", msg.Type, "account", account)

	switch msg.Type {
	case MessageTypeAuth:
		var data AuthData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse auth data")
			return
		}
		c.handleAuth(data)

	case MessageTypePlay:
		var data PlayData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse play data")
			return
		}
		c.handlePlay(data)

	case MessageTypeReply:
		var data ReplyData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse reply data")
			return
		}
		c.handleReply(data)

	case MessageTypeBalance:
		c.handleBalance()

	case MessageTypeListGames:
		c.reply(MessageTypeGameList, GameListData{Games: c.server.gameInfo()})

	default:
		c.sendError("unknown_message_type", "Unknown message type: "+msg.Type.String())
	}
}

// reply queues a typed message, logging rather than failing on errors.
func (c *Connection) reply(messageType MessageType, data any) {
	msg, err := NewMessage(messageType, data)
	if err != nil {
		c.logger.Error("Failed to create message", "type", messageType, "error", err)
		return
	}
	_ = c.SendMessage(msg)
}

// sendError sends an error message to the client.
func (c *Connection) sendError(code, message string) {
	c.reply(MessageTypeError, ErrorData{
		Code:    code,
		Message: message,
	})
}

func (c *Connection) handleAuth(data AuthData) {
	account := strings.TrimSpace(data.Account)
	c.logger.Info("Auth request", "account", account)

	if account == "" {
		c.reply(MessageTypeAuthResponse, AuthResponseData{Error: "Account name required"})
		return
	}
	if c.playing.Load() {
		c.sendError("game_in_progress", "Cannot switch accounts during a game")
		return
	}

	balance, err := c.server.bank.Balance(c.ctx, account)
	if err != nil {
		c.logger.Error("Failed to read balance", "account", account, "error", err)
		c.reply(MessageTypeAuthResponse, AuthResponseData{Error: err.Error()})
		return
	}

	player := strings.TrimSpace(data.Player)
	if player == "" {
		player = account
	}
	c.SetIdentity(account, player)

	c.reply(MessageTypeAuthResponse, AuthResponseData{
		Success: true,
		Account: account,
		Balance: balance,
	})
}

func (c *Connection) handlePlay(data PlayData) {
	account, player := c.Identity()
	if account == "" {
		c.sendError("not_authenticated", "Must authenticate first")
		return
	}
	if !c.playing.CompareAndSwap(false, true) {
		c.sendError("game_in_progress", "Finish the current game first")
		return
	}
	c.drainReplies()

	req := casino.Request{
		Account: account,
		Player:  player,
		Game:    data.Game,
		Bet:     data.Bet,
		Choice:  data.Choice,
	}
	c.server.wg.Add(1)
	go func() {
		defer c.server.wg.Done()
		defer c.playing.Store(false)
		c.play(req)
	}()
}

// play runs one game over this connection and reports the outcome.
func (c *Connection) play(req casino.Request) {
	c.logger.Info("Play request", "game", req.Game, "bet", req.Bet, "choice", req.Choice)

	out, err := c.server.table.Play(c.ctx, c, req)
	switch {
	case err == nil:
	case casino.IsPlayerError(err):
		c.sendError("invalid_play", err.Error())
		return
	case errors.Is(err, context.Canceled), errors.Is(err, chat.ErrClosed):
		c.logger.Debug("Game abandoned", "game", req.Game, "error", err)
		return
	case out == nil:
		c.logger.Error("Game failed", "game", req.Game, "error", err)
		c.sendError("session_failed", err.Error())
		return
	default:
		c.logger.Warn("Game settled with error", "game", req.Game, "error", err)
	}

	c.reply(MessageTypeOutcome, OutcomeFromCasino(out))
}

// handleReply hands the player's text to the game waiting on it. Replies
// arriving between games are dropped.
func (c *Connection) handleReply(data ReplyData) {
	if !c.playing.Load() {
		c.logger.Debug("Ignoring reply outside a game", "text", data.Text)
		return
	}
	select {
	case c.replies <- data.Text:
	default:
		c.logger.Warn("Reply buffer full, dropping reply", "text", data.Text)
	}
}

func (c *Connection) drainReplies() {
	for {
		select {
		case <-c.replies:
		default:
			return
		}
	}
}

func (c *Connection) handleBalance() {
	account, _ := c.Identity()
	if account == "" {
		c.sendError("not_authenticated", "Must authenticate first")
		return
	}
	balance, err := c.server.bank.Balance(c.ctx, account)
	if err != nil {
		c.sendError("balance_failed", err.Error())
		return
	}
	c.reply(MessageTypeBalance, BalanceData{Account: account, Balance: balance})
}
