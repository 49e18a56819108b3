package decision

import (
	"sort"

	"github.com/riskmind/riskmind/internal/market"
	"github.com/riskmind/riskmind/internal/observ"
)

// Alternative is one ranked replacement candidate.
type Alternative struct {
	Symbol       string  `json:"symbol"`
	Reason       string  `json:"reason"`
	RiskScore    float64 `json:"risk_score"`
	Sentiment    float64 `json:"sentiment"`
	Score        float64 `json:"score"`
	Sector       string  `json:"sector,omitempty"`
	CurrentPrice float64 `json:"current_price"`
}

// Universe supplies the candidate set for the alternatives scan.
type Universe interface {
	ListTicks() []market.Tick
	ListNews() []market.NewsItem
}

// Finder scans the universe for lower-risk replacements. Only consulted
// when the chosen action is EXIT or REALLOCATE.
type Finder struct {
	universe Universe
	limit    int
}

func NewFinder(universe Universe, limit int) *Finder {
	if limit <= 0 {
		limit = 5
	}
	return &Finder{universe: universe, limit: limit}
}

// Find returns up to the configured number of candidates with estimated
// risk < 0.4 and sentiment > 0.3, ranked by composite score descending.
func (f *Finder) Find(currentSymbol string, exclude []string) []Alternative {
	if f.universe == nil {
		return nil
	}

	excluded := make(map[string]bool, len(exclude)+1)
	excluded[currentSymbol] = true
	for _, s := range exclude {
		excluded[s] = true
	}

	news := f.universe.ListNews()

	var candidates []Alternative
	for _, tick := range f.universe.ListTicks() {
		if excluded[tick.Symbol] {
			continue
		}

		sentiment := 0.0
		if tick.Sentiment != nil {
			sentiment = *tick.Sentiment
		}
		volatility := 0.2
		if tick.Volatility30d != nil {
			volatility = *tick.Volatility30d
		}

		riskScore := estimateRisk(volatility, sentiment)
		if riskScore >= 0.4 || sentiment <= 0.3 {
			continue
		}

		momentum := normalizeMomentum(tick.ChangePercent)
		candidates = append(candidates, Alternative{
			Symbol:       tick.Symbol,
			Reason:       candidateReason(tick.Symbol, news, sentiment, riskScore),
			RiskScore:    riskScore,
			Sentiment:    sentiment,
			Score:        0.4*sentiment + 0.4*(1-riskScore) + 0.2*momentum,
			Sector:       tick.Sector,
			CurrentPrice: tick.Price,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > f.limit {
		candidates = candidates[:f.limit]
	}

	observ.IncCounter("alternatives_scans_total", nil)
	observ.Log("alternatives_found", map[string]any{
		"for":   currentSymbol,
		"count": len(candidates),
	})
	return candidates
}

// FindInSector narrows the scan to one sector, with a smaller default
// limit.
func (f *Finder) FindInSector(sector string, exclude []string, limit int) []Alternative {
	if limit <= 0 {
		limit = 3
	}
	wide := &Finder{universe: f.universe, limit: limit * 2}
	all := wide.Find("", exclude)

	var out []Alternative
	for _, alt := range all {
		if alt.Sector == sector {
			out = append(out, alt)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// estimateRisk is the cheap screen used instead of a full assessment:
// volatility normalized against 0.5 carries 60%, sentiment risk 40%.
func estimateRisk(volatility, sentiment float64) float64 {
	volRisk := volatility / 0.5
	if volRisk > 1 {
		volRisk = 1
	}
	sentRisk := (1 - sentiment) / 2
	return volRisk*0.6 + sentRisk*0.4
}

// normalizeMomentum maps change-percent over -10..+10 to [0,1].
func normalizeMomentum(changePercent float64) float64 {
	n := (changePercent + 10) / 20
	if n < 0 {
		return 0
	}
	if n > 1 {
		return 1
	}
	return n
}

// candidateReason prefers the most positive headline for the symbol,
// falling back to canned phrasing tiers.
func candidateReason(symbol string, news []market.NewsItem, sentiment, riskScore float64) string {
	var best *market.NewsItem
	for i := range news {
		if news[i].Symbol != symbol {
			continue
		}
		if best == nil || news[i].Sentiment > best.Sentiment {
			best = &news[i]
		}
	}
	if best != nil {
		headline := best.Headline
		if len(headline) > 80 {
			headline = headline[:80]
		}
		return `Strong fundamentals with positive news: "` + headline + `..."`
	}

	switch {
	case sentiment > 0.6 && riskScore < 0.3:
		return "Strong positive sentiment with low risk profile"
	case riskScore < 0.25:
		return "Low risk alternative with stable performance"
	default:
		return "Moderate risk with positive market outlook"
	}
}
