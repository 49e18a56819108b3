package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Agent struct {
	RetryAttempts int `yaml:"retry_attempts"`
	TimeoutMs     int `yaml:"timeout_ms"`
	BackoffBaseMs int `yaml:"backoff_base_ms"`
	BackoffMaxMs  int `yaml:"backoff_max_ms"`
}

type Breaker struct {
	FailureThreshold float64 `yaml:"failure_threshold"`
	WindowMs         int     `yaml:"window_ms"`
	CooldownMs       int     `yaml:"cooldown_ms"`
	MinSamples       int     `yaml:"min_samples"`
}

type Risk struct {
	HighThreshold          float64 `yaml:"high_threshold"`
	MediumThreshold        float64 `yaml:"medium_threshold"`
	ConcentrationThreshold float64 `yaml:"concentration_threshold"`
	VaRConfidence          float64 `yaml:"var_confidence"`
	VaRCeiling             float64 `yaml:"var_ceiling"`       // normalization ceiling for composite scoring
	VaRAlertThreshold      float64 `yaml:"var_alert_threshold"` // absolute level that emits the high_var reason code
	VolatilityWindowDays   int     `yaml:"volatility_window_days"`
	EwmaLambda             float64 `yaml:"ewma_lambda"`
	DefaultVolatility      float64 `yaml:"default_volatility"` // fallback when a tick carries no 30d volatility
}

type Decision struct {
	NarrativeUrgency  int `yaml:"narrative_urgency"` // urgency at which prose is delegated to the LLM
	AlternativesLimit int `yaml:"alternatives_limit"`
}

type Narrative struct {
	Enabled          bool    `yaml:"enabled"`
	TimeoutMs        int     `yaml:"timeout_ms"`
	RequestsPerMin   float64 `yaml:"requests_per_min"`
	Model            string  `yaml:"model"`
}

type Audit struct {
	Sink       string `yaml:"sink"` // jsonl | sqlite | none
	JSONLPath  string `yaml:"jsonl_path"`
	SQLitePath string `yaml:"sqlite_path"`
}

type Root struct {
	Agent     Agent     `yaml:"agent"`
	Breaker   Breaker   `yaml:"breaker"`
	Risk      Risk      `yaml:"risk"`
	Decision  Decision  `yaml:"decision"`
	Narrative Narrative `yaml:"narrative"`
	Audit     Audit     `yaml:"audit"`
}

func Load(path string) (Root, error) {
	var c Root
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, err
	}
	c.ApplyDefaults()
	return c, nil
}

// Default returns a config with every field at its default.
func Default() Root {
	var c Root
	c.ApplyDefaults()
	return c
}

func (c *Root) ApplyDefaults() {
	if c.Agent.RetryAttempts == 0 {
		c.Agent.RetryAttempts = 3
	}
	if c.Agent.TimeoutMs == 0 {
		c.Agent.TimeoutMs = 5000
	}
	if c.Agent.BackoffBaseMs == 0 {
		c.Agent.BackoffBaseMs = 1000
	}
	if c.Agent.BackoffMaxMs == 0 {
		c.Agent.BackoffMaxMs = 8000
	}

	if c.Breaker.FailureThreshold == 0 {
		c.Breaker.FailureThreshold = 0.5
	}
	if c.Breaker.WindowMs == 0 {
		c.Breaker.WindowMs = 600000
	}
	if c.Breaker.CooldownMs == 0 {
		c.Breaker.CooldownMs = 60000
	}
	if c.Breaker.MinSamples == 0 {
		c.Breaker.MinSamples = 10
	}

	if c.Risk.HighThreshold == 0 {
		c.Risk.HighThreshold = 0.7
	}
	if c.Risk.MediumThreshold == 0 {
		c.Risk.MediumThreshold = 0.4
	}
	if c.Risk.ConcentrationThreshold == 0 {
		c.Risk.ConcentrationThreshold = 0.4
	}
	if c.Risk.VaRConfidence == 0 {
		c.Risk.VaRConfidence = 0.95
	}
	if c.Risk.VaRCeiling == 0 {
		c.Risk.VaRCeiling = 500000
	}
	if c.Risk.VaRAlertThreshold == 0 {
		c.Risk.VaRAlertThreshold = 100000
	}
	if c.Risk.VolatilityWindowDays == 0 {
		c.Risk.VolatilityWindowDays = 30
	}
	if c.Risk.EwmaLambda == 0 {
		c.Risk.EwmaLambda = 0.94
	}
	if c.Risk.DefaultVolatility == 0 {
		c.Risk.DefaultVolatility = 0.2
	}

	if c.Decision.NarrativeUrgency == 0 {
		c.Decision.NarrativeUrgency = 7
	}
	if c.Decision.AlternativesLimit == 0 {
		c.Decision.AlternativesLimit = 5
	}

	if c.Narrative.TimeoutMs == 0 {
		c.Narrative.TimeoutMs = 10000
	}
	if c.Narrative.RequestsPerMin == 0 {
		c.Narrative.RequestsPerMin = 30
	}

	if c.Audit.Sink == "" {
		c.Audit.Sink = "jsonl"
	}
	if c.Audit.JSONLPath == "" {
		c.Audit.JSONLPath = "data/audit.jsonl"
	}
	if c.Audit.SQLitePath == "" {
		c.Audit.SQLitePath = "data/audit.db"
	}
}
