// Package statistics aggregates settled games from simulation runs.
package statistics

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// GameResult is the outcome of a single settled game.
type GameResult struct {
	Game     string
	Won      bool
	Wagered  int64 // everything withdrawn, double downs included
	Returned int64 // everything paid back, refunds included
}

// Net is the player's gain or loss in credits.
func (r GameResult) Net() int64 {
	return r.Returned - r.Wagered
}

// Statistics tracks results for one game, or for all games together.
type Statistics struct {
	Games    int
	Wins     int
	Pushes   int // lost games that returned the stake
	Wagered  int64
	Returned int64
	SumNet   float64
	SumNet2  float64   // Sum of squares for variance calculation
	Values   []float64 // Net per game for median/percentile calculation
}

// Add incorporates a result.
func (s *Statistics) Add(r GameResult) {
	net := float64(r.Net())
	s.Games++
	if r.Won {
		s.Wins++
	} else if r.Returned > 0 && r.Returned == r.Wagered {
		s.Pushes++
	}
	s.Wagered += r.Wagered
	s.Returned += r.Returned
	s.SumNet += net
	s.SumNet2 += net * net
	s.Values = append(s.Values, net)
}

// WinRate is the fraction of games won.
func (s *Statistics) WinRate() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Games)
}

// ReturnRate is credits returned per credit wagered.
func (s *Statistics) ReturnRate() float64 {
	if s.Wagered == 0 {
		return 0
	}
	return float64(s.Returned) / float64(s.Wagered)
}

// Mean returns the mean net result per game.
func (s *Statistics) Mean() float64 {
	if s.Games == 0 {
		return 0
	}
	return s.SumNet / float64(s.Games)
}

// Variance returns the sample variance of net results.
func (s *Statistics) Variance() float64 {
	if s.Games < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.SumNet2 - float64(s.Games)*mean*mean) / float64(s.Games-1)
}

// StdDev returns the sample standard deviation.
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean.
func (s *Statistics) StdError() float64 {
	if s.Games == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Games))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean.
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// Median returns the median net result.
func (s *Statistics) Median() float64 {
	return s.Percentile(0.5)
}

// Percentile returns the net result at p (0.0 to 1.0), interpolating between values.
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Validate checks the accounting is consistent.
func (s *Statistics) Validate() error {
	if s.Games <= 0 {
		return fmt.Errorf("invalid games count: %d", s.Games)
	}
	if len(s.Values) != s.Games {
		return fmt.Errorf("values array length (%d) does not match games count (%d)", len(s.Values), s.Games)
	}
	if s.Wins+s.Pushes > s.Games {
		return fmt.Errorf("wins (%d) and pushes (%d) exceed games (%d)", s.Wins, s.Pushes, s.Games)
	}
	if math.Abs(s.SumNet-float64(s.Returned-s.Wagered)) > 1e-6 {
		return fmt.Errorf("ledger mismatch: net=%.2f, returned-wagered=%d", s.SumNet, s.Returned-s.Wagered)
	}
	return nil
}

// Summary is a flattened report row.
type Summary struct {
	Game       string  `yaml:"game" json:"game"`
	Games      int     `yaml:"games" json:"games"`
	Wins       int     `yaml:"wins" json:"wins"`
	Pushes     int     `yaml:"pushes" json:"pushes"`
	WinRate    float64 `yaml:"win_rate" json:"win_rate"`
	Wagered    int64   `yaml:"wagered" json:"wagered"`
	Returned   int64   `yaml:"returned" json:"returned"`
	ReturnRate float64 `yaml:"return_rate" json:"return_rate"`
	MeanNet    float64 `yaml:"mean_net" json:"mean_net"`
	CI95Low    float64 `yaml:"ci95_low" json:"ci95_low"`
	CI95High   float64 `yaml:"ci95_high" json:"ci95_high"`
}

// Summarize reports s under name.
func (s *Statistics) Summarize(name string) Summary {
	lo, hi := s.ConfidenceInterval95()
	return Summary{
		Game:       name,
		Games:      s.Games,
		Wins:       s.Wins,
		Pushes:     s.Pushes,
		WinRate:    s.WinRate(),
		Wagered:    s.Wagered,
		Returned:   s.Returned,
		ReturnRate: s.ReturnRate(),
		MeanNet:    s.Mean(),
		CI95Low:    lo,
		CI95High:   hi,
	}
}

// Collector aggregates results per game. It is safe for concurrent use.
type Collector struct {
	mu      sync.Mutex
	games   map[string]*Statistics
	overall Statistics
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{games: make(map[string]*Statistics)}
}

// Add records a result.
func (c *Collector) Add(r GameResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.games[r.Game]
	if !ok {
		s = &Statistics{}
		c.games[r.Game] = s
	}
	s.Add(r)
	c.overall.Add(r)
}

// Summaries returns one row per game, sorted by name, followed by the total.
func (c *Collector) Summaries() []Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(c.games))
	for name := range c.games {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Summary, 0, len(names)+1)
	for _, name := range names {
		out = append(out, c.games[name].Summarize(name))
	}
	return append(out, c.overall.Summarize("Total"))
}

// Validate checks every game's accounting.
func (c *Collector) Validate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, s := range c.games {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if c.overall.Games == 0 {
		return nil
	}
	return c.overall.Validate()
}
