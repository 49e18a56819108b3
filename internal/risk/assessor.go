package risk

import (
	"context"
	"time"

	"github.com/riskmind/riskmind/internal/agent"
	"github.com/riskmind/riskmind/internal/market"
	"github.com/riskmind/riskmind/internal/observ"
	"github.com/riskmind/riskmind/internal/portfolio"
)

// Input feeds the risk stage: the validated tick plus the caller's view
// of the position it prices, if any.
type Input struct {
	Tick           market.ValidatedTick
	Position       *portfolio.Position
	PortfolioValue float64
}

// Assessment is the immutable output of the risk stage.
type Assessment struct {
	Symbol      string    `json:"symbol"`
	RiskScore   float64   `json:"risk_score"`
	RiskLevel   Level     `json:"risk_level"`
	Factors     Factors   `json:"factors"`
	ReasonCodes []string  `json:"reason_codes"`
	Timestamp   time.Time `json:"timestamp"`
}

// AssessorConfig tunes the risk stage.
type AssessorConfig struct {
	Scorer            ScorerConfig
	DefaultVolatility float64 // used when the tick carries none, default 0.2
}

// Assessor turns a ValidatedTick into an Assessment. It is the risk
// stage of the pipeline; the series estimators in this package stay
// auxiliary and are only consulted by callers that hold history.
type Assessor struct {
	scorer *Scorer
	cfg    AssessorConfig
}

func NewAssessor(cfg AssessorConfig) *Assessor {
	if cfg.DefaultVolatility == 0 {
		cfg.DefaultVolatility = 0.2
	}
	return &Assessor{scorer: NewScorer(cfg.Scorer), cfg: cfg}
}

func (a *Assessor) Name() string { return "risk" }

func (a *Assessor) Validate(in Input) error {
	if in.Tick.Symbol == "" {
		return &agent.ValidationError{Stage: a.Name(), Reason: "empty symbol"}
	}
	if !in.Tick.Normalized || !in.Tick.Enriched {
		return &agent.ValidationError{Stage: a.Name(), Reason: "tick has not been through validation"}
	}
	return nil
}

func (a *Assessor) Process(ctx context.Context, in Input) (Assessment, error) {
	tick := in.Tick

	vol := a.cfg.DefaultVolatility
	if tick.Volatility30d != nil {
		vol = *tick.Volatility30d
	}

	factors := Factors{
		VaR95:             SingleTickVaR(tick.Price, vol),
		Volatility:        vol,
		SentimentRisk:     SentimentRisk(tick.Sentiment),
		ConcentrationRisk: a.concentration(in),
	}

	score := a.scorer.CompositeScore(factors)
	level := a.scorer.LevelFor(score)

	observ.Log("risk_assessed", map[string]any{
		"symbol": tick.Symbol,
		"score":  score,
		"level":  string(level),
	})
	observ.SetGauge("risk_score", score, map[string]string{"symbol": tick.Symbol})

	return Assessment{
		Symbol:      tick.Symbol,
		RiskScore:   score,
		RiskLevel:   level,
		Factors:     factors,
		ReasonCodes: a.scorer.ReasonCodes(factors, tick.Sentiment),
		Timestamp:   time.Now().UTC(),
	}, nil
}

// concentration scores the current position against the portfolio value.
// No position or no portfolio value means no concentration signal.
func (a *Assessor) concentration(in Input) float64 {
	if in.Position == nil || in.PortfolioValue == 0 {
		return 0
	}
	exposure := map[string]float64{in.Position.Symbol: in.Tick.Price * in.Position.Quantity}
	return a.scorer.ConcentrationRisk(exposure, in.PortfolioValue)
}

// PortfolioRisk aggregates exposure-weighted risk across positions.
type PortfolioRisk struct {
	OverallRisk      float64            `json:"overall_risk"`
	ExposureBySymbol map[string]float64 `json:"exposure_by_symbol"`
}

// AssessPortfolio runs the single-tick assessment per holding and
// weights the scores by exposure.
func (a *Assessor) AssessPortfolio(ctx context.Context, ticks []market.ValidatedTick, quantities map[string]float64) (PortfolioRisk, error) {
	exposure := make(map[string]float64, len(ticks))
	var totalExposure, weighted float64

	for _, tick := range ticks {
		qty := quantities[tick.Symbol]
		exp := tick.Price * qty
		exposure[tick.Symbol] = exp
		totalExposure += exp

		assessment, err := a.Process(ctx, Input{Tick: tick})
		if err != nil {
			return PortfolioRisk{}, err
		}
		weighted += assessment.RiskScore * exp
	}

	pr := PortfolioRisk{ExposureBySymbol: exposure}
	if totalExposure > 0 {
		pr.OverallRisk = weighted / totalExposure
	}
	return pr, nil
}
