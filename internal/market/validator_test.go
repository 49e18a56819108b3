package market

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riskmind/riskmind/internal/agent"
)

type staticLookup map[string]Reference

func (l staticLookup) Get(symbol string) (Reference, bool) {
	ref, ok := l[symbol]
	return ref, ok
}

func f(v float64) *float64 { return &v }

func TestNormalizeSymbol(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"reliance", "RELIANCE.NS"},
		{"TCS.NS", "TCS.NS"},
		{"INFY.BO", "INFY.BO"},
		{"  hdfc ", "HDFC.NS"},
		{"", ""},
	}
	for _, c := range cases {
		require.Equal(t, c.want, NormalizeSymbol(c.in), "input %q", c.in)
	}
}

func TestValidSymbol(t *testing.T) {
	cases := []struct {
		symbol string
		ok     bool
	}{
		{"RELIANCE", true},
		{"TCS.NS", true},
		{"M&M", true},
		{"ITC123", true},
		{"reliance", false},
		{"TOO-LONG-SYMBOL-WITH-DASHES", false},
		{"ABCDEFGHIJKLMNOPQRSTU", false}, // 21 chars
		{"", false},
	}
	for _, c := range cases {
		require.Equal(t, c.ok, ValidSymbol(c.symbol), "symbol %q", c.symbol)
	}
}

func TestValidatorHappyPath(t *testing.T) {
	refs := staticLookup{
		"XYZ": {Sentiment: f(0.4), Volatility30d: f(0.25), Sector: "Energy"},
	}
	v := NewValidator(refs)

	raw := []byte(`{"symbol":"XYZ","price":100,"open":98,"high":101,"low":97,"close":100,"volume":5000}`)
	require.NoError(t, v.Validate(raw))

	vt, err := v.Process(context.Background(), raw)
	require.NoError(t, err)
	require.Equal(t, "XYZ.NS", vt.Symbol)
	require.True(t, vt.Normalized)
	require.True(t, vt.Enriched)
	require.NotNil(t, vt.Sentiment)
	require.Equal(t, 0.4, *vt.Sentiment)
	require.Equal(t, "Energy", vt.Sector)
	require.InDelta(t, (100.0-98.0)/98.0*100, vt.PriceMomentum, 1e-9)
	require.Zero(t, vt.Change)
	require.Zero(t, vt.ChangePercent)
}

func TestValidatorEnrichmentMissIsSoft(t *testing.T) {
	v := NewValidator(staticLookup{})
	raw := []byte(`{"symbol":"NOREF","price":10,"open":10,"high":11,"low":9,"close":10,"volume":1}`)

	vt, err := v.Process(context.Background(), raw)
	require.NoError(t, err)
	require.Nil(t, vt.Sentiment)
	require.Nil(t, vt.Volatility30d)
	require.Empty(t, vt.Sector)
	require.True(t, vt.Enriched)
}

func TestValidatorRejectsBadSymbol(t *testing.T) {
	v := NewValidator(nil)
	for _, raw := range []string{
		`{"price":10}`,
		`{"symbol":"bad lower","price":10}`,
	} {
		err := v.Validate([]byte(raw))
		require.Error(t, err)
		require.True(t, agent.IsValidation(err))
	}
}

func TestValidatorRejectsPriceRelationshipViolations(t *testing.T) {
	v := NewValidator(nil)
	cases := []struct {
		name string
		raw  string
	}{
		{"price above high", `{"symbol":"XYZ","price":102,"open":98,"high":101,"low":97,"close":100,"volume":1}`},
		{"low above close", `{"symbol":"XYZ","price":100,"open":101,"high":101,"low":100.5,"close":100,"volume":1}`},
		{"high below open", `{"symbol":"XYZ","price":98,"open":99,"high":98.5,"low":97,"close":98,"volume":1}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := v.Process(context.Background(), []byte(c.raw))
			require.Error(t, err)
			require.True(t, agent.IsValidation(err), "violation must be a hard validation failure")
		})
	}
}

func TestValidatorMissingRequiredNumeric(t *testing.T) {
	v := NewValidator(nil)
	raw := []byte(`{"symbol":"XYZ","price":100,"open":98,"high":101,"low":97,"volume":1}`) // no close

	_, err := v.Process(context.Background(), raw)
	require.Error(t, err)
	require.True(t, agent.IsValidation(err))
	require.Contains(t, err.Error(), "close")
}

func TestParseTickAlternateKeysAndOptionals(t *testing.T) {
	raw := []byte(`{
		"symbol":"ABC","price":50,"open":49,"high":51,"low":48,"close":50,"volume":100,
		"change_percent":"1.5","volatility_30d":0.3,"market_cap":123456789,"pe_ratio":21.5,
		"sector":"IT","timestamp":"2026-02-10T09:15:00Z"
	}`)
	tick, err := ParseTick(raw, "ABC.NS")
	require.NoError(t, err)
	require.Equal(t, 1.5, tick.ChangePercent)
	require.NotNil(t, tick.Volatility30d)
	require.Equal(t, 0.3, *tick.Volatility30d)
	require.NotNil(t, tick.MarketCap)
	require.EqualValues(t, 123456789, *tick.MarketCap)
	require.Equal(t, "IT", tick.Sector)
	require.Equal(t, 2026, tick.Timestamp.Year())
}

func TestMomentumZeroOpen(t *testing.T) {
	require.Zero(t, Momentum(0, 100))
}
