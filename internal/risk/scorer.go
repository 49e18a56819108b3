package risk

import (
	"github.com/riskmind/riskmind/internal/observ"
)

// Reason codes attached to an assessment. Independent and non-exclusive.
const (
	ReasonHighVolatility    = "HIGH_VOLATILITY"
	ReasonNegativeSentiment = "NEGATIVE_SENTIMENT"
	ReasonHighVaR           = "HIGH_VAR"
	ReasonConcentration     = "CONCENTRATION_RISK"
)

// Level buckets a composite score.
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// Factors are the four inputs to the composite score.
type Factors struct {
	VaR95             float64 `json:"var95"`              // currency units
	Volatility        float64 `json:"volatility"`         // annualized
	SentimentRisk     float64 `json:"sentiment_risk"`     // 0..1
	ConcentrationRisk float64 `json:"concentration_risk"` // 0..1
}

// ScorerConfig carries the tunable thresholds. Zero values take the
// production defaults.
type ScorerConfig struct {
	HighThreshold          float64 // level boundary, default 0.7
	MediumThreshold        float64 // level boundary, default 0.4
	ConcentrationThreshold float64 // portfolio share, default 0.4
	VaRCeiling             float64 // normalization ceiling, default 500000
	VaRAlertThreshold      float64 // absolute reason-code cutoff, default 100000
}

func (c *ScorerConfig) applyDefaults() {
	if c.HighThreshold == 0 {
		c.HighThreshold = 0.7
	}
	if c.MediumThreshold == 0 {
		c.MediumThreshold = 0.4
	}
	if c.ConcentrationThreshold == 0 {
		c.ConcentrationThreshold = 0.4
	}
	if c.VaRCeiling == 0 {
		c.VaRCeiling = 500000
	}
	if c.VaRAlertThreshold == 0 {
		c.VaRAlertThreshold = 100000
	}
}

// Scorer blends factors into one [0,1] composite and maps it to a level.
type Scorer struct {
	cfg ScorerConfig
}

func NewScorer(cfg ScorerConfig) *Scorer {
	cfg.applyDefaults()
	return &Scorer{cfg: cfg}
}

// CompositeScore is the fixed weighted sum
// 0.35*VaR_norm + 0.25*vol + 0.25*sentimentRisk + 0.15*concentration,
// clamped to [0,1].
func (s *Scorer) CompositeScore(f Factors) float64 {
	varNorm := normalize(f.VaR95, 0, s.cfg.VaRCeiling)
	vol := clamp(f.Volatility, 0, 1)
	sent := clamp(f.SentimentRisk, 0, 1)
	conc := clamp(f.ConcentrationRisk, 0, 1)

	score := 0.35*varNorm + 0.25*vol + 0.25*sent + 0.15*conc
	return clamp(score, 0, 1)
}

// LevelFor maps a score to a discrete level. The critical boundary is
// fixed at 0.8; high and medium come from config.
func (s *Scorer) LevelFor(score float64) Level {
	switch {
	case score >= 0.8:
		return LevelCritical
	case score >= s.cfg.HighThreshold:
		return LevelHigh
	case score >= s.cfg.MediumThreshold:
		return LevelMedium
	default:
		return LevelLow
	}
}

// ReasonCodes emits every applicable code; sentiment is skipped when
// absent.
func (s *Scorer) ReasonCodes(f Factors, sentiment *float64) []string {
	var reasons []string
	if f.Volatility > 0.3 {
		reasons = append(reasons, ReasonHighVolatility)
	}
	if sentiment != nil && *sentiment < -0.2 {
		reasons = append(reasons, ReasonNegativeSentiment)
	}
	if f.VaR95 > s.cfg.VaRAlertThreshold {
		reasons = append(reasons, ReasonHighVaR)
	}
	if f.ConcentrationRisk > 0.4 {
		reasons = append(reasons, ReasonConcentration)
	}
	return reasons
}

// SentimentRisk maps sentiment in [-1,1] to risk in [0,1], 0.5 when
// sentiment is unknown.
func SentimentRisk(sentiment *float64) float64 {
	if sentiment == nil {
		return 0.5
	}
	return clamp((1-*sentiment)/2, 0, 1)
}

// ConcentrationRisk scores the largest single exposure as a share of
// portfolio value, saturating at twice the concentration threshold.
func (s *Scorer) ConcentrationRisk(exposureBySymbol map[string]float64, totalPortfolioValue float64) float64 {
	if totalPortfolioValue == 0 || len(exposureBySymbol) == 0 {
		return 0
	}
	var maxExposure float64
	for _, exp := range exposureBySymbol {
		if exp > maxExposure {
			maxExposure = exp
		}
	}
	share := maxExposure / totalPortfolioValue
	risk := normalize(share, 0, s.cfg.ConcentrationThreshold*2)
	if risk >= 1 {
		observ.IncCounter("concentration_saturated_total", nil)
	}
	return clamp(risk, 0, 1)
}
