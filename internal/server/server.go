// Package server exposes the casino over HTTP. Games are played over a
// WebSocket, one chat conversation per connection; balances and the game list
// are plain JSON endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"github.com/lox/casino/internal/casino"
	"github.com/lox/casino/internal/ledger"
)

// Server serves the casino table over HTTP and WebSocket.
type Server struct {
	addr        string
	table       *casino.Table
	bank        ledger.Bank
	clock       quartz.Clock
	origins     []string
	upgrader    websocket.Upgrader
	connections map[*Connection]struct{}
	wg          sync.WaitGroup
	logger      *log.Logger
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	router      chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithClock sets the clock used for reply timeouts.
func WithClock(clock quartz.Clock) Option {
	return func(s *Server) {
		s.clock = clock
	}
}

// WithAllowedOrigins restricts browser origins for both CORS and WebSocket
// upgrades. An empty list or "*" allows any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// NewServer creates a server for table, reading balances from bank.
func NewServer(addr string, table *casino.Table, bank ledger.Bank, logger *log.Logger, opts ...Option) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		addr:        addr,
		table:       table,
		bank:        bank,
		clock:       quartz.NewReal(),
		connections: make(map[*Connection]struct{}),
		logger:      logger.WithPrefix("server"),
		ctx:         ctx,
		cancel:      cancel,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.upgrader = websocket.Upgrader{
		CheckOrigin:     s.checkOrigin,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.corsOrigins(),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           60 * 15,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/ws", s.handleWebSocket)
	r.Get("/games", s.handleGames)
	r.Get("/accounts/{account}", s.handleBalance)
	r.Post("/accounts/{account}/deposit", s.handleDeposit)
	return r
}

// Handler returns the HTTP handler for the server's routes.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve listens on the server's address until ctx is cancelled, then shuts
// down, closing every connection and waiting for running games to settle.
func (s *Server) Serve(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting casino server", "addr", s.addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Stop()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	err := httpServer.Shutdown(shutdownCtx)
	s.Stop()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop closes every connection and waits for their games to finish.
func (s *Server) Stop() {
	s.cancel()

	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// Connections returns the number of open WebSocket connections.
func (s *Server) Connections() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connections)
}

func (s *Server) register(conn *Connection) {
	s.mu.Lock()
	s.connections[conn] = struct{}{}
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Client connected", "total", total)
}

func (s *Server) unregister(conn *Connection) {
	s.mu.Lock()
	delete(s.connections, conn)
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Client disconnected", "total", total)
}

func (s *Server) corsOrigins() []string {
	if len(s.origins) == 0 {
		return []string{"*"}
	}
	return s.origins
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.origins) == 0 || slices.Contains(s.origins, "*") {
		return true
	}
	return slices.Contains(s.origins, origin)
}

func (s *Server) gameInfo() []GameInfo {
	settings := s.table.Settings()
	games := s.table.Games()
	info := make([]GameInfo, 0, len(games))
	for _, g := range games {
		info = append(info, GameInfo{
			Name:        g.Name(),
			Description: g.Description(),
			Choices:     g.Choices(),
			Payout:      settings.Game(g.Name()).Payout,
		})
	}
	return info
}

// handleWebSocket handles WebSocket upgrade requests.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, s)
	s.register(client)
	client.Start()

	go func() {
		<-client.Done()
		s.unregister(client)
	}()
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, GameListData{Games: s.gameInfo()})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")
	balance, err := s.bank.Balance(r.Context(), account)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceData{Account: account, Balance: balance})
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")

	var req DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorData{Code: "invalid_request", Message: err.Error()})
		return
	}

	if err := s.bank.Deposit(r.Context(), account, req.Amount); err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("Deposit", "account", account, "amount", req.Amount)

	balance, err := s.bank.Balance(r.Context(), account)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceData{Account: account, Balance: balance})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ledger.ErrUnknownAccount):
		writeJSON(w, http.StatusBadRequest, ErrorData{Code: "invalid_request", Message: err.Error()})
	default:
		s.logger.Error("Request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorData{Code: "internal_error", Message: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
