package decision

import (
	"context"
	"fmt"

	"github.com/riskmind/riskmind/internal/agent"
	"github.com/riskmind/riskmind/internal/market"
	"github.com/riskmind/riskmind/internal/observ"
	"github.com/riskmind/riskmind/internal/portfolio"
	"github.com/riskmind/riskmind/internal/risk"
)

// Input feeds the decision stage.
type Input struct {
	Tick     market.ValidatedTick
	Risk     risk.Assessment
	Position *portfolio.Position
}

// Decision is the immutable output of the decision stage. Action and
// urgency come from the rule table alone; narrative only shapes the
// rationale text.
type Decision struct {
	Symbol       string        `json:"symbol"`
	Action       Action        `json:"action"`
	Rationale    string        `json:"rationale"`
	Urgency      int           `json:"urgency"`
	RiskScore    float64       `json:"risk_score"`
	ExpectedPnL  float64       `json:"expected_pnl"`
	Alternatives []Alternative `json:"alternatives,omitempty"`
}

// RationaleContext is the structured input handed to the narrative
// collaborator.
type RationaleContext struct {
	Symbol        string
	Sector        string
	CurrentPrice  float64
	EntryPrice    float64
	ChangePercent float64
	PnLPercent    float64
	PnLAmount     float64
	Quantity      float64
	Exposure      float64
	RiskScore     float64
	RiskLevel     string
	Volatility    float64
	Sentiment     *float64
	VaR95         float64
	Action        Action
	Urgency       int
}

// RationaleGenerator produces prose for a decision. May fail or time
// out; the engine always has a deterministic fallback.
type RationaleGenerator interface {
	GenerateRationale(ctx context.Context, rc RationaleContext) (string, error)
}

// EngineConfig tunes the decision stage.
type EngineConfig struct {
	NarrativeUrgency int // minimum urgency that warrants narrative prose, default 7
}

// Engine is the decision stage: P&L, rule table, optional narrative,
// alternatives for exit-class actions.
type Engine struct {
	narrator RationaleGenerator // nil disables narrative entirely
	finder   *Finder            // nil disables the alternatives scan
	cfg      EngineConfig
}

func NewEngine(narrator RationaleGenerator, finder *Finder, cfg EngineConfig) *Engine {
	if cfg.NarrativeUrgency == 0 {
		cfg.NarrativeUrgency = 7
	}
	return &Engine{narrator: narrator, finder: finder, cfg: cfg}
}

func (e *Engine) Name() string { return "decision" }

func (e *Engine) Validate(in Input) error {
	if in.Tick.Symbol == "" {
		return &agent.ValidationError{Stage: e.Name(), Reason: "missing tick"}
	}
	if in.Risk.Symbol == "" {
		return &agent.ValidationError{Stage: e.Name(), Reason: "missing risk assessment"}
	}
	return nil
}

func (e *Engine) Process(ctx context.Context, in Input) (Decision, error) {
	tick := in.Tick

	var pnl PnL
	var exposure float64
	if in.Position != nil {
		pnl = UnrealizedPnL(in.Position.EntryPrice, tick.Price, in.Position.Quantity)
		exposure = Exposure(tick.Price, in.Position.Quantity)
	}

	volatility := 0.2
	if tick.Volatility30d != nil {
		volatility = *tick.Volatility30d
	}

	rule := EvaluateRules(RuleContext{
		Symbol:            tick.Symbol,
		RiskScore:         in.Risk.RiskScore,
		RiskLevel:         string(in.Risk.RiskLevel),
		Sentiment:         tick.Sentiment,
		PnLPercent:        pnl.Percent,
		Volatility:        volatility,
		ConcentrationRisk: in.Risk.Factors.ConcentrationRisk,
	})

	rationale := rule.Reason
	if e.narrator != nil && rule.Urgency >= e.cfg.NarrativeUrgency {
		rc := RationaleContext{
			Symbol:        tick.Symbol,
			Sector:        tick.Sector,
			CurrentPrice:  tick.Price,
			EntryPrice:    entryOr(in.Position, tick.Price),
			ChangePercent: tick.ChangePercent,
			PnLPercent:    pnl.Percent,
			PnLAmount:     pnl.Amount,
			Quantity:      quantityOf(in.Position),
			Exposure:      exposure,
			RiskScore:     in.Risk.RiskScore,
			RiskLevel:     string(in.Risk.RiskLevel),
			Volatility:    volatility,
			Sentiment:     tick.Sentiment,
			VaR95:         in.Risk.Factors.VaR95,
			Action:        rule.Action,
			Urgency:       rule.Urgency,
		}
		if text, err := e.narrator.GenerateRationale(ctx, rc); err == nil {
			rationale = text
		} else {
			observ.IncCounter("narrative_fallbacks_total", map[string]string{"stage": e.Name()})
			rationale = FallbackRationale(rule.Action, in.Risk.RiskScore, pnl.Percent, tick.Sentiment)
		}
	}

	var alternatives []Alternative
	if e.finder != nil && (rule.Action == ActionExit || rule.Action == ActionReallocate) {
		alternatives = e.finder.Find(tick.Symbol, nil)
	}

	d := Decision{
		Symbol:       tick.Symbol,
		Action:       rule.Action,
		Rationale:    rationale,
		Urgency:      rule.Urgency,
		RiskScore:    in.Risk.RiskScore,
		ExpectedPnL:  pnl.Amount,
		Alternatives: alternatives,
	}

	observ.Log("decision_made", map[string]any{
		"symbol":  d.Symbol,
		"action":  string(d.Action),
		"urgency": d.Urgency,
	})
	return d, nil
}

// FallbackRationale builds templated prose from numeric thresholds
// alone. It never changes the action or the urgency, only the text.
func FallbackRationale(action Action, riskScore, pnlPercent float64, sentiment *float64) string {
	out := fmt.Sprintf("Recommended action: %s. ", action)
	if riskScore > 0.7 {
		out += fmt.Sprintf("High risk level (%.0f%%) indicates increased downside potential. ", riskScore*100)
	}
	if pnlPercent < -10 {
		out += fmt.Sprintf("Position is showing significant loss of %.1f%%. ", pnlPercent)
	}
	if sentiment != nil && *sentiment < -0.2 {
		out += "Negative market sentiment adds to risk factors. "
	}
	out += "Taking action now may help protect capital and optimize portfolio performance."
	return out
}

func entryOr(pos *portfolio.Position, fallback float64) float64 {
	if pos == nil {
		return fallback
	}
	return pos.EntryPrice
}

func quantityOf(pos *portfolio.Position) float64 {
	if pos == nil {
		return 0
	}
	return pos.Quantity
}
