package decision

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riskmind/riskmind/internal/market"
)

type staticUniverse struct {
	ticks []market.Tick
	news  []market.NewsItem
}

func (u staticUniverse) ListTicks() []market.Tick    { return u.ticks }
func (u staticUniverse) ListNews() []market.NewsItem { return u.news }

func candidate(symbol string, sentiment, volatility, changePct float64, sector string) market.Tick {
	return market.Tick{
		Symbol:        symbol,
		Price:         100,
		Sentiment:     &sentiment,
		Volatility30d: &volatility,
		ChangePercent: changePct,
		Sector:        sector,
	}
}

func TestFinderFiltersAndRanks(t *testing.T) {
	u := staticUniverse{ticks: []market.Tick{
		candidate("GOOD.NS", 0.8, 0.1, 5, "IT"),      // keeper, strong
		candidate("OKAY.NS", 0.4, 0.2, 0, "Energy"),  // keeper, weaker
		candidate("RISKY.NS", 0.8, 0.6, 5, "IT"),     // vol too high
		candidate("GLOOMY.NS", 0.1, 0.1, 0, "Auto"),  // sentiment too low
		candidate("CURRENT.NS", 0.9, 0.05, 8, "IT"),  // excluded as current
		candidate("BANNED.NS", 0.9, 0.05, 8, "Bank"), // explicitly excluded
	}}
	f := NewFinder(u, 5)

	got := f.Find("CURRENT.NS", []string{"BANNED.NS"})
	require.Len(t, got, 2)
	require.Equal(t, "GOOD.NS", got[0].Symbol, "ranked by score descending")
	require.Equal(t, "OKAY.NS", got[1].Symbol)

	for _, alt := range got {
		require.Less(t, alt.RiskScore, 0.4)
		require.Greater(t, alt.Sentiment, 0.3)
	}
}

func TestFinderScoreFormula(t *testing.T) {
	u := staticUniverse{ticks: []market.Tick{candidate("ONE.NS", 0.8, 0.1, 5, "")}}
	f := NewFinder(u, 5)

	got := f.Find("", nil)
	require.Len(t, got, 1)

	risk := 0.6*(0.1/0.5) + 0.4*((1-0.8)/2)
	momentum := (5.0 + 10) / 20
	want := 0.4*0.8 + 0.4*(1-risk) + 0.2*momentum
	require.InDelta(t, want, got[0].Score, 1e-9)
	require.InDelta(t, risk, got[0].RiskScore, 1e-9)
}

func TestFinderLimit(t *testing.T) {
	var ticks []market.Tick
	for i := 0; i < 10; i++ {
		ticks = append(ticks, candidate(fmt.Sprintf("S%d.NS", i), 0.7, 0.1, float64(i), ""))
	}
	f := NewFinder(staticUniverse{ticks: ticks}, 5)

	got := f.Find("", nil)
	require.Len(t, got, 5)
}

func TestFinderNewsReason(t *testing.T) {
	u := staticUniverse{
		ticks: []market.Tick{candidate("NEWSY.NS", 0.8, 0.1, 0, "")},
		news: []market.NewsItem{
			{Symbol: "NEWSY.NS", Headline: "Record quarterly profit announced", Sentiment: 0.9},
			{Symbol: "NEWSY.NS", Headline: "Minor supply delay", Sentiment: 0.1},
		},
	}
	got := NewFinder(u, 5).Find("", nil)
	require.Len(t, got, 1)
	require.Contains(t, got[0].Reason, "Record quarterly profit announced")
}

func TestFinderFallbackReasonTiers(t *testing.T) {
	cases := []struct {
		sentiment, volatility float64
		want                  string
	}{
		{0.7, 0.05, "Strong positive sentiment with low risk profile"},
		{0.5, 0.05, "Low risk alternative with stable performance"},
		{0.4, 0.2, "Moderate risk with positive market outlook"},
	}
	for _, c := range cases {
		u := staticUniverse{ticks: []market.Tick{candidate("X.NS", c.sentiment, c.volatility, 0, "")}}
		got := NewFinder(u, 5).Find("", nil)
		require.Len(t, got, 1)
		require.Equal(t, c.want, got[0].Reason)
	}
}

func TestFinderSectorScan(t *testing.T) {
	u := staticUniverse{ticks: []market.Tick{
		candidate("IT1.NS", 0.8, 0.1, 5, "IT"),
		candidate("IT2.NS", 0.6, 0.1, 2, "IT"),
		candidate("EN1.NS", 0.8, 0.1, 5, "Energy"),
	}}
	got := NewFinder(u, 5).FindInSector("IT", nil, 3)
	require.Len(t, got, 2)
	for _, alt := range got {
		require.Equal(t, "IT", alt.Sector)
	}
}

func TestFinderNilUniverse(t *testing.T) {
	f := NewFinder(nil, 5)
	require.Nil(t, f.Find("X", nil))
}
