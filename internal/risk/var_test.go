package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHistoricalVaR(t *testing.T) {
	require.Zero(t, HistoricalVaR(nil, 0.95, 1000000))

	// 100 returns from -0.50 up; the 5th percentile read lands on -0.45.
	returns := make([]float64, 100)
	for i := range returns {
		returns[i] = -0.50 + float64(i)*0.01
	}
	got := HistoricalVaR(returns, 0.95, 1000)
	require.InDelta(t, 450, got, 1e-6)
}

func TestParametricVaR(t *testing.T) {
	require.Zero(t, ParametricVaR(nil, 0.95, 1000000))

	returns := []float64{0.01, -0.01, 0.02, -0.02}
	m := mean(returns)
	sigma := stddev(returns)
	want := math.Abs((m - 1.645*sigma) * 1000)
	require.InDelta(t, want, ParametricVaR(returns, 0.95, 1000), 1e-9)
}

func TestParametricVaRZScores(t *testing.T) {
	returns := []float64{0.01, -0.01}
	v90 := ParametricVaR(returns, 0.90, 1000)
	v95 := ParametricVaR(returns, 0.95, 1000)
	v99 := ParametricVaR(returns, 0.99, 1000)
	require.Less(t, v90, v95)
	require.Less(t, v95, v99)

	// Unknown confidence falls back to the 95% z-score.
	require.Equal(t, v95, ParametricVaR(returns, 0.80, 1000))
}

func TestExpectedShortfallAveragesTail(t *testing.T) {
	returns := make([]float64, 100)
	for i := range returns {
		returns[i] = -0.50 + float64(i)*0.01
	}
	// Tail below 95% VaR: the 5 worst returns -0.50..-0.46, mean -0.48.
	got := ExpectedShortfall(returns, 0.95, 1000)
	require.InDelta(t, 480, got, 1e-6)
}

func TestExpectedShortfallEmptyTail(t *testing.T) {
	require.Zero(t, ExpectedShortfall([]float64{0.01}, 0.95, 1000))
}

func TestSingleTickVaR(t *testing.T) {
	// price 100, annual vol 0.5: daily = 0.5/sqrt(252), VaR = 100*daily*1.645
	want := 100 * (0.5 / math.Sqrt(252)) * 1.645
	require.InDelta(t, want, SingleTickVaR(100, 0.5), 1e-9)
	require.Zero(t, SingleTickVaR(100, 0))
}
