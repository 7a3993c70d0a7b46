package statistics

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatistics_Empty(t *testing.T) {
	s := &Statistics{}
	assert.Zero(t, s.Mean())
	assert.Zero(t, s.Variance())
	assert.Zero(t, s.StdDev())
	assert.Zero(t, s.StdError())
	assert.Zero(t, s.Median())
	assert.Zero(t, s.WinRate())
	assert.Zero(t, s.ReturnRate())
	assert.Error(t, s.Validate())
}

func TestStatistics_Add(t *testing.T) {
	s := &Statistics{}
	s.Add(GameResult{Game: "Coin", Won: true, Wagered: 10, Returned: 15})
	s.Add(GameResult{Game: "Coin", Wagered: 10})
	s.Add(GameResult{Game: "Blackjack", Wagered: 10, Returned: 10})
	s.Add(GameResult{Game: "Blackjack", Won: true, Wagered: 20, Returned: 40})

	require.NoError(t, s.Validate())
	assert.Equal(t, 4, s.Games)
	assert.Equal(t, 2, s.Wins)
	assert.Equal(t, 1, s.Pushes)
	assert.Equal(t, 0.5, s.WinRate())
	assert.Equal(t, int64(50), s.Wagered)
	assert.Equal(t, int64(65), s.Returned)
	assert.InDelta(t, 1.3, s.ReturnRate(), 1e-9)
	// nets: 5, -10, 0, 20
	assert.InDelta(t, 3.75, s.Mean(), 1e-9)
	assert.InDelta(t, 2.5, s.Median(), 1e-9)
	assert.InDelta(t, -10, s.Percentile(0), 1e-9)
	assert.InDelta(t, 20, s.Percentile(1), 1e-9)
}

func TestStatistics_VarianceAndCI(t *testing.T) {
	s := &Statistics{}
	for _, net := range []int64{2, 4, 4, 4, 5, 5, 7, 9} {
		s.Add(GameResult{Wagered: 10, Returned: 10 + net})
	}
	assert.InDelta(t, 5, s.Mean(), 1e-9)
	assert.InDelta(t, 32.0/7.0, s.Variance(), 1e-9)
	assert.InDelta(t, math.Sqrt(32.0/7.0), s.StdDev(), 1e-9)

	lo, hi := s.ConfidenceInterval95()
	assert.Less(t, lo, s.Mean())
	assert.Greater(t, hi, s.Mean())
	assert.InDelta(t, s.Mean()-lo, hi-s.Mean(), 1e-9)
}

func TestStatistics_ValidateDetectsMismatch(t *testing.T) {
	s := &Statistics{}
	s.Add(GameResult{Wagered: 10, Returned: 20, Won: true})
	s.Returned = 5
	assert.Error(t, s.Validate())
}

func TestCollector(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			game := "Coin"
			if i%2 == 0 {
				game = "Dice"
			}
			c.Add(GameResult{Game: game, Won: i%4 == 0, Wagered: 10, Returned: int64(i%4/3) * 25})
		}(i)
	}
	wg.Wait()

	require.NoError(t, c.Validate())
	rows := c.Summaries()
	require.Len(t, rows, 3)
	assert.Equal(t, "Coin", rows[0].Game)
	assert.Equal(t, "Dice", rows[1].Game)
	assert.Equal(t, "Total", rows[2].Game)
	assert.Equal(t, 10, rows[0].Games)
	assert.Equal(t, 20, rows[2].Games)
	assert.Equal(t, int64(200), rows[2].Wagered)
}
