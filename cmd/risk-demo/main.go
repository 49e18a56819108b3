package main

import (
	"fmt"
	"math"

	"github.com/riskmind/riskmind/internal/risk"
)

// Walks the series estimators over a synthetic price history so their
// outputs can be eyeballed against each other.
func main() {
	fmt.Println("Risk estimator demo")
	fmt.Println("===================")

	prices, highs, lows := syntheticSeries(120, 1000)

	returns := risk.Returns(prices)
	fmt.Printf("observations:        %d prices, %d returns\n", len(prices), len(returns))

	histVol := risk.HistoricalVolatility(prices, 30)
	ewmaVol := risk.EWMAVolatility(prices, 0.94)
	parkVol := risk.ParkinsonVolatility(highs, lows)
	fmt.Printf("historical vol(30d): %.2f%%\n", histVol*100)
	fmt.Printf("ewma vol:            %.2f%%\n", ewmaVol*100)
	fmt.Printf("parkinson vol:       %.2f%%\n", parkVol*100)

	const positionValue = 500000.0
	for _, conf := range []float64{0.90, 0.95, 0.99} {
		hv := risk.HistoricalVaR(returns, conf, positionValue)
		pv := risk.ParametricVaR(returns, conf, positionValue)
		fmt.Printf("VaR %.0f%%:             historical %10.2f  parametric %10.2f\n", conf*100, hv, pv)
	}
	es := risk.ExpectedShortfall(returns, 0.95, positionValue)
	fmt.Printf("expected shortfall:  %.2f\n", es)

	if risk.DetectClustering(prices, 1.5) {
		fmt.Println("clustering:          recent volatility elevated vs baseline")
	} else {
		fmt.Println("clustering:          none detected")
	}

	last := prices[len(prices)-1]
	fmt.Printf("single-tick VaR:     %.2f (price %.2f, vol %.2f%%)\n",
		risk.SingleTickVaR(last, histVol), last, histVol*100)
}

// syntheticSeries is a deterministic pseudo-random walk with a calm
// first half and a turbulent second half, so the clustering check has
// something to find.
func syntheticSeries(n int, start float64) (prices, highs, lows []float64) {
	prices = make([]float64, 0, n)
	highs = make([]float64, 0, n)
	lows = make([]float64, 0, n)

	price := start
	for i := 0; i < n; i++ {
		scale := 0.005
		if i > n/2 {
			scale = 0.02
		}
		// Deterministic oscillation standing in for randomness.
		move := scale * math.Sin(float64(i)*1.7) * price
		price += move
		prices = append(prices, price)
		highs = append(highs, price*(1+scale))
		lows = append(lows, price*(1-scale))
	}
	return prices, highs, lows
}
