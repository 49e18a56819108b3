// Package portfolio holds the caller-owned position model. The pipeline
// only reads positions; ownership stays with the portfolio store.
package portfolio

// Position is an open holding in a single symbol.
type Position struct {
	Symbol        string  `json:"symbol"`
	Quantity      float64 `json:"quantity"`
	EntryPrice    float64 `json:"entry_price"`
	CurrentPrice  float64 `json:"current_price"`
	RealizedPnL   float64 `json:"realized_pnl"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
}

// Exposure is the current market value of the position.
func (p Position) Exposure() float64 {
	return p.CurrentPrice * p.Quantity
}
