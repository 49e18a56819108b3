package risk

import "math"

// 252 trading days per year; all estimators annualize with its root.
var annualFactor = math.Sqrt(252)

// Returns computes simple period-over-period returns, skipping intervals
// whose starting price is 0.
func Returns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			out = append(out, (prices[i]-prices[i-1])/prices[i-1])
		}
	}
	return out
}

// HistoricalVolatility is the annualized standard deviation of daily
// returns over the trailing window. Fewer than 2 prices yields 0.
func HistoricalVolatility(prices []float64, windowDays int) float64 {
	if len(prices) < 2 {
		return 0
	}
	returns := Returns(prices)
	if windowDays > 0 && len(returns) > windowDays {
		returns = returns[len(returns)-windowDays:]
	}
	return stddev(returns) * annualFactor
}

// EWMAVolatility weights recent squared returns by the decay factor
// lambda (RiskMetrics convention, 0.94 daily).
func EWMAVolatility(prices []float64, lambda float64) float64 {
	returns := Returns(prices)
	if len(returns) == 0 {
		return 0
	}
	variance := returns[0] * returns[0]
	for i := 1; i < len(returns); i++ {
		variance = lambda*variance + (1-lambda)*returns[i]*returns[i]
	}
	return math.Sqrt(variance) * annualFactor
}

// ParkinsonVolatility estimates from high/low ranges:
// sqrt(sum(ln(H/L)^2) / (4n ln2)), annualized. Mismatched or empty
// series yield 0.
func ParkinsonVolatility(highs, lows []float64) float64 {
	n := len(highs)
	if n == 0 || n != len(lows) {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		if lows[i] != 0 {
			r := math.Log(highs[i] / lows[i])
			sum += r * r
		}
	}
	variance := sum / (4 * float64(n) * math.Ln2)
	return math.Sqrt(variance) * annualFactor
}

// RealizedVolatility annualizes the sum of squared intraday returns.
func RealizedVolatility(intradayReturns []float64) float64 {
	if len(intradayReturns) == 0 {
		return 0
	}
	var sum float64
	for _, r := range intradayReturns {
		sum += r * r
	}
	return math.Sqrt(sum * 252)
}

// DetectClustering reports GARCH-like behavior: short-horizon volatility
// (10d) running above long-horizon (60d) by the given multiple. Needs at
// least 60 prices.
func DetectClustering(prices []float64, threshold float64) bool {
	if len(prices) < 60 {
		return false
	}
	shortVol := HistoricalVolatility(prices[len(prices)-10:], 10)
	longVol := HistoricalVolatility(prices[len(prices)-60:], 60)
	return shortVol > longVol*threshold
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev is the population standard deviation.
func stddev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	var sum float64
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func normalize(v, lo, hi float64) float64 {
	if hi == lo {
		return 0
	}
	return clamp((v-lo)/(hi-lo), 0, 1)
}
