// Package simulator plays large numbers of casino sessions with randomly
// choosing players and aggregates the outcomes.
package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/lox/casino/internal/casino"
	"github.com/lox/casino/internal/chat"
	"github.com/lox/casino/internal/ledger"
	"github.com/lox/casino/internal/randutil"
	"github.com/lox/casino/internal/statistics"
)

// simulatedBalance is large enough that no run exhausts an account.
const simulatedBalance = 1 << 40

// Config holds configuration for running simulations.
type Config struct {
	// Games to simulate; empty for every enabled game.
	Games    []string
	Sessions int // per game
	Bet      int64
	// Seed fixes the players' choices. Deals are only reproducible with a
	// single worker.
	Seed    int64
	Workers int // 0 for GOMAXPROCS
	// Timeout bounds a single session, catching sessions that never settle.
	Timeout  time.Duration
	Settings casino.Settings
	Logger   *log.Logger
}

// Simulator runs casino sessions against an in-memory bank.
type Simulator struct {
	config Config
	bank   *ledger.Memory
	table  *casino.Table
}

// New creates a new simulator with the given configuration.
func New(config Config) *Simulator {
	if config.Logger == nil {
		config.Logger = log.New(io.Discard)
	}
	if config.Workers <= 0 {
		config.Workers = runtime.GOMAXPROCS(0)
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}

	bank := ledger.NewMemory(simulatedBalance)
	seeds := randutil.NewLocked(randutil.New(config.Seed))
	return &Simulator{
		config: config,
		bank:   bank,
		table:  casino.NewTable(bank, config.Settings, config.Logger, casino.WithRand(seeds)),
	}
}

// games resolves the configured game names against the table.
func (s *Simulator) games() ([]casino.Game, error) {
	if len(s.config.Games) == 0 {
		return s.table.Games(), nil
	}
	games := make([]casino.Game, 0, len(s.config.Games))
	for _, name := range s.config.Games {
		g, ok := casino.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", casino.ErrUnknownGame, name)
		}
		games = append(games, g)
	}
	return games, nil
}

// Run plays every session and returns the aggregated results.
func (s *Simulator) Run(ctx context.Context) (*statistics.Collector, error) {
	games, err := s.games()
	if err != nil {
		return nil, err
	}

	collector := statistics.NewCollector()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)

	for _, game := range games {
		for i := 0; i < s.config.Sessions; i++ {
			// Independent, reproducible seed for each session's player
			sessionSeed := s.config.Seed + int64(i)
			g.Go(func() error {
				result, err := s.playSessionWithTimeout(gctx, game, sessionSeed)
				if err != nil {
					return fmt.Errorf("%s session %d: %w", game.Name(), i+1, err)
				}
				collector.Add(result)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := collector.Validate(); err != nil {
		return nil, fmt.Errorf("statistics validation failed: %w", err)
	}
	return collector, nil
}

// playSessionWithTimeout runs a single session with timeout protection.
func (s *Simulator) playSessionWithTimeout(ctx context.Context, game casino.Game, seed int64) (statistics.GameResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	rng := randutil.New(seed)
	req := casino.Request{
		Account: "sim-" + strings.ToLower(game.Name()),
		Game:    game.Name(),
		Bet:     s.config.Bet,
	}
	if choices := game.Choices(); len(choices) > 0 {
		req.Choice = randutil.Choice(rng, choices)
	}

	out, err := s.table.Play(ctx, chat.NewBot(rng), req)
	if err != nil {
		return statistics.GameResult{}, err
	}
	return statistics.GameResult{
		Game:     out.Game,
		Won:      out.Result.Won,
		Wagered:  out.Wagered,
		Returned: out.Returned,
	}, nil
}

// RunSimulation is a convenience function for running a simulation with basic parameters.
func RunSimulation(ctx context.Context, sessions int, bet, seed int64, logger *log.Logger) (*statistics.Collector, error) {
	return New(Config{
		Sessions: sessions,
		Bet:      bet,
		Seed:     seed,
		Settings: casino.DefaultSettings(),
		Logger:   logger,
	}).Run(ctx)
}

// Format selects how a report is written.
type Format string

const (
	FormatText Format = "text"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// WriteReport writes summaries to w in format.
func WriteReport(w io.Writer, summaries []statistics.Summary, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(summaries); err != nil {
			return err
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	case FormatText, "":
		_, err := fmt.Fprintln(w, SummaryTable(summaries))
		return err
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// SummaryTable renders summaries as a bordered table.
func SummaryTable(summaries []statistics.Summary) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Game", "Games", "Wins", "Pushes", "Win rate", "Wagered", "Returned", "Return", "Mean net", "95% CI")
	for _, s := range summaries {
		t.Row(
			s.Game,
			fmt.Sprintf("%d", s.Games),
			fmt.Sprintf("%d", s.Wins),
			fmt.Sprintf("%d", s.Pushes),
			fmt.Sprintf("%.1f%%", s.WinRate*100),
			fmt.Sprintf("%d", s.Wagered),
			fmt.Sprintf("%d", s.Returned),
			fmt.Sprintf("%.3f", s.ReturnRate),
			fmt.Sprintf("%.3f", s.MeanNet),
			fmt.Sprintf("[%.3f, %.3f]", s.CI95Low, s.CI95High),
		)
	}
	return t.String()
}
