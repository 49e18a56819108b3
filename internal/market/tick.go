package market

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Tick is one price update for a single security. Optional fields use
// pointers so "absent" stays distinct from zero.
type Tick struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Close         float64   `json:"close"`
	Volume        float64   `json:"volume"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Timestamp     time.Time `json:"timestamp"`
	Sentiment     *float64  `json:"sentiment,omitempty"`      // -1..1
	Volatility30d *float64  `json:"volatility_30d,omitempty"` // annualized, 0..1
	Sector        string    `json:"sector,omitempty"`
	MarketCap     *int64    `json:"market_cap,omitempty"`
	PERatio       *float64  `json:"pe_ratio,omitempty"`
}

// ValidatedTick is the immutable output of the validation stage. Nothing
// downstream mutates it.
type ValidatedTick struct {
	Tick
	Normalized    bool    `json:"normalized"`
	Enriched      bool    `json:"enriched"`
	PriceMomentum float64 `json:"price_momentum"` // (close-open)/open*100
}

// NewsItem is one headline with a sentiment score, consumed by the
// alternatives scan.
type NewsItem struct {
	Symbol    string  `json:"symbol"`
	Headline  string  `json:"headline"`
	Sentiment float64 `json:"sentiment_score"`
}

// Reference holds enrichment fields served by a reference-data lookup.
type Reference struct {
	Sentiment     *float64
	Volatility30d *float64
	Sector        string
	MarketCap     *int64
	PERatio       *float64
}

// Lookup backfills optional tick fields, keyed by bare symbol. A miss is
// not an error.
type Lookup interface {
	Get(symbol string) (Reference, bool)
}

// NSE symbols: 1-20 uppercase alphanumerics, '&' allowed, optional .NS.
var symbolPattern = regexp.MustCompile(`^[A-Z0-9&]{1,20}(\.NS)?$`)

// ValidSymbol reports whether symbol matches the exchange format.
func ValidSymbol(symbol string) bool {
	return symbolPattern.MatchString(symbol)
}

// NormalizeSymbol upcases, trims, and appends .NS when no exchange
// suffix is present.
func NormalizeSymbol(symbol string) string {
	upper := strings.ToUpper(strings.TrimSpace(symbol))
	if upper == "" {
		return ""
	}
	if strings.HasSuffix(upper, ".NS") || strings.HasSuffix(upper, ".BO") {
		return upper
	}
	return upper + ".NS"
}

// BareSymbol strips the exchange suffix for reference-data keys.
func BareSymbol(symbol string) string {
	s := strings.TrimSuffix(symbol, ".NS")
	return strings.TrimSuffix(s, ".BO")
}

// CheckPriceRelationships enforces low <= {open, close, price} <= high.
func CheckPriceRelationships(t Tick) error {
	if t.High < t.Low || t.High < t.Open || t.High < t.Close {
		return fmt.Errorf("high %.4f below another price (low %.4f open %.4f close %.4f)", t.High, t.Low, t.Open, t.Close)
	}
	if t.Low > t.Open || t.Low > t.Close {
		return fmt.Errorf("low %.4f above another price (open %.4f close %.4f)", t.Low, t.Open, t.Close)
	}
	if t.Price < t.Low || t.Price > t.High {
		return fmt.Errorf("price %.4f outside [%.4f, %.4f]", t.Price, t.Low, t.High)
	}
	return nil
}

// Momentum is the intraday drift in percent, 0 when open is 0.
func Momentum(open, close float64) float64 {
	if open == 0 {
		return 0
	}
	return (close - open) / open * 100
}
