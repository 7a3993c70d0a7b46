package server

import (
	"encoding/json"
	"time"

	"github.com/lox/casino/internal/casino"
	"github.com/lox/casino/internal/chat"
)

// MessageType represents a WebSocket message type.
type MessageType string

const (
	// Client to server messages.
	MessageTypeAuth      MessageType = "auth"
	MessageTypePlay      MessageType = "play"
	MessageTypeReply     MessageType = "reply"
	MessageTypeBalance   MessageType = "balance"
	MessageTypeListGames MessageType = "list_games"

	// Server to client messages.
	MessageTypeAuthResponse MessageType = "auth_response"
	MessageTypeChat         MessageType = "chat"
	MessageTypePrompt       MessageType = "prompt"
	MessageTypeOutcome      MessageType = "outcome"
	MessageTypeGameList     MessageType = "game_list"
	MessageTypeError        MessageType = "error"
)

// String returns the string representation of the message type.
func (mt MessageType) String() string {
	return string(mt)
}

// Message is the envelope for everything sent over the socket.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a new message with the current timestamp.
func NewMessage(messageType MessageType, data any) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

type AuthData struct {
	Account string `json:"account"`
	Player  string `json:"player,omitempty"`
}

type PlayData struct {
	Game   string `json:"game"`
	Bet    int64  `json:"bet"`
	Choice string `json:"choice,omitempty"`
}

type ReplyData struct {
	Text string `json:"text"`
}

// Server → Client Messages

type AuthResponseData struct {
	Success bool   `json:"success"`
	Account string `json:"account,omitempty"`
	Balance int64  `json:"balance"`
	Error   string `json:"error,omitempty"`
}

// ChatData is a game message, as the games wrote it.
type ChatData = chat.Message

// PromptData tells the client which replies the game is waiting for.
type PromptData struct {
	Choices []string `json:"choices"`
	Timeout float64  `json:"timeoutSeconds"`
}

type OutcomeData struct {
	SessionID string  `json:"sessionId"`
	Game      string  `json:"game"`
	Bet       int64   `json:"bet"`
	Won       bool    `json:"won"`
	Amount    int64   `json:"amount"`
	Credited  int64   `json:"credited"`
	Net       int64   `json:"net"`
	Balance   int64   `json:"balance"`
	Duration  float64 `json:"durationSeconds"`
}

// OutcomeFromCasino converts a settled table outcome to its wire form.
func OutcomeFromCasino(out *casino.Outcome) OutcomeData {
	return OutcomeData{
		SessionID: out.SessionID,
		Game:      out.Game,
		Bet:       out.Bet,
		Won:       out.Result.Won,
		Amount:    out.Result.Amount,
		Credited:  out.Credited,
		Net:       out.Net(),
		Balance:   out.Balance,
		Duration:  out.Duration.Seconds(),
	}
}

type BalanceData struct {
	Account string `json:"account"`
	Balance int64  `json:"balance"`
}

type GameInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Choices     []string `json:"choices,omitempty"`
	Payout      float64  `json:"payout"`
}

type GameListData struct {
	Games []GameInfo `json:"games"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type DepositRequest struct {
	Amount int64 `json:"amount"`
}
