package market

import (
	"context"

	"github.com/tidwall/gjson"

	"github.com/riskmind/riskmind/internal/agent"
	"github.com/riskmind/riskmind/internal/observ"
)

// Validator turns a raw tick payload into a ValidatedTick: symbol check
// and normalization, field parsing, reference-data enrichment, derived
// momentum, price-relationship invariants.
type Validator struct {
	refs Lookup
}

// NewValidator builds the validation stage. refs may be nil; enrichment
// then degrades to a no-op.
func NewValidator(refs Lookup) *Validator {
	return &Validator{refs: refs}
}

func (v *Validator) Name() string { return "market" }

// Validate checks only the symbol up front. Everything else is parsed in
// Process so the error carries field context.
func (v *Validator) Validate(raw []byte) error {
	symbol := gjson.GetBytes(raw, "symbol").String()
	if symbol == "" {
		return &agent.ValidationError{Stage: v.Name(), Reason: "missing symbol"}
	}
	if !ValidSymbol(symbol) {
		return &agent.ValidationError{Stage: v.Name(), Reason: "invalid symbol format: " + symbol}
	}
	return nil
}

func (v *Validator) Process(ctx context.Context, raw []byte) (ValidatedTick, error) {
	symbol := NormalizeSymbol(gjson.GetBytes(raw, "symbol").String())

	tick, err := ParseTick(raw, symbol)
	if err != nil {
		return ValidatedTick{}, &agent.ValidationError{Stage: v.Name(), Reason: err.Error()}
	}

	tick = v.enrich(tick)

	if err := CheckPriceRelationships(tick); err != nil {
		return ValidatedTick{}, &agent.ValidationError{Stage: v.Name(), Reason: err.Error()}
	}

	vt := ValidatedTick{
		Tick:          tick,
		Normalized:    true,
		Enriched:      true,
		PriceMomentum: Momentum(tick.Open, tick.Close),
	}

	observ.Log("tick_validated", map[string]any{
		"symbol":   vt.Symbol,
		"price":    vt.Price,
		"momentum": vt.PriceMomentum,
	})
	return vt, nil
}

// enrich backfills optional fields from reference data. Misses are soft;
// the tick goes through with the fields absent.
func (v *Validator) enrich(t Tick) Tick {
	if v.refs == nil {
		return t
	}
	if t.Sentiment != nil && t.Volatility30d != nil && t.Sector != "" {
		return t
	}

	ref, ok := v.refs.Get(BareSymbol(t.Symbol))
	if !ok {
		observ.IncCounter("enrichment_misses_total", map[string]string{"symbol": t.Symbol})
		return t
	}

	if t.Sentiment == nil {
		t.Sentiment = ref.Sentiment
	}
	if t.Volatility30d == nil {
		t.Volatility30d = ref.Volatility30d
	}
	if t.Sector == "" {
		t.Sector = ref.Sector
	}
	if t.MarketCap == nil {
		t.MarketCap = ref.MarketCap
	}
	if t.PERatio == nil {
		t.PERatio = ref.PERatio
	}
	return t
}
