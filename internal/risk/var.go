package risk

import (
	"math"
	"sort"
)

// zScores for one-tailed confidence levels; unknown levels fall back to
// the 95% score.
var zScores = map[float64]float64{
	0.90: 1.282,
	0.95: 1.645,
	0.99: 2.326,
}

func zScore(confidence float64) float64 {
	if z, ok := zScores[confidence]; ok {
		return z
	}
	return 1.645
}

// HistoricalVaR sorts returns ascending and reads the loss at the
// (1-confidence) percentile, scaled to the portfolio value.
func HistoricalVaR(returns []float64, confidence, portfolioValue float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	sorted := append([]float64(nil), returns...)
	sort.Float64s(sorted)

	idx := int(math.Floor(float64(len(sorted)) * (1 - confidence)))
	if idx < 0 {
		idx = 0
	}
	return math.Abs(sorted[idx] * portfolioValue)
}

// ParametricVaR assumes normally distributed returns:
// |mean - z*sigma| * value.
func ParametricVaR(returns []float64, confidence, portfolioValue float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	m := mean(returns)
	sigma := stddev(returns)
	return math.Abs((m - zScore(confidence)*sigma) * portfolioValue)
}

// ExpectedShortfall averages the tail losses beyond the VaR cutoff.
func ExpectedShortfall(returns []float64, confidence, portfolioValue float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	sorted := append([]float64(nil), returns...)
	sort.Float64s(sorted)

	cutoff := int(math.Floor(float64(len(sorted)) * (1 - confidence)))
	if cutoff <= 0 {
		return 0
	}
	tail := sorted[:cutoff]
	return math.Abs(mean(tail) * portfolioValue)
}

// SingleTickVaR is the live estimate when no return series is available:
// one-day 95% VaR from the annualized volatility alone.
func SingleTickVaR(price, annualVolatility float64) float64 {
	daily := annualVolatility / annualFactor
	return price * daily * 1.645
}
