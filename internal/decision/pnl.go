package decision

import "github.com/riskmind/riskmind/internal/portfolio"

// PnL is a profit/loss pair in currency units and percent of entry.
type PnL struct {
	Amount  float64
	Percent float64
}

// RealizedPnL values a closed position. Percent is 0 when entry is 0.
func RealizedPnL(entryPrice, exitPrice, quantity float64) PnL {
	p := PnL{Amount: (exitPrice - entryPrice) * quantity}
	if entryPrice != 0 {
		p.Percent = (exitPrice - entryPrice) / entryPrice * 100
	}
	return p
}

// UnrealizedPnL marks an open position to the current price.
func UnrealizedPnL(entryPrice, currentPrice, quantity float64) PnL {
	return RealizedPnL(entryPrice, currentPrice, quantity)
}

// Exposure is the current market value of a holding.
func Exposure(currentPrice, quantity float64) float64 {
	return currentPrice * quantity
}

// PortfolioPnL aggregates across positions, percent weighted by
// invested capital.
func PortfolioPnL(positions []portfolio.Position) PnL {
	var total, investment float64
	for _, pos := range positions {
		total += UnrealizedPnL(pos.EntryPrice, pos.CurrentPrice, pos.Quantity).Amount
		investment += pos.EntryPrice * pos.Quantity
	}
	p := PnL{Amount: total}
	if investment != 0 {
		p.Percent = total / investment * 100
	}
	return p
}
