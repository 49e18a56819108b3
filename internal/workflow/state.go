package workflow

import (
	"time"

	"github.com/riskmind/riskmind/internal/decision"
	"github.com/riskmind/riskmind/internal/market"
	"github.com/riskmind/riskmind/internal/narrative"
	"github.com/riskmind/riskmind/internal/portfolio"
	"github.com/riskmind/riskmind/internal/risk"
)

// AuditEntry is one stage outcome in the accumulating trail.
type AuditEntry struct {
	Stage     string    `json:"stage"`
	Status    string    `json:"status"` // success | failure
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// State accumulates across the run. Nodes never mutate it; they return
// a Delta that merge folds into a fresh copy.
type State struct {
	TraceID        string                `json:"trace_id"`
	UserID         string                `json:"user_id"`
	Symbol         string                `json:"symbol"`
	RawTick        []byte                `json:"-"`
	Position       *portfolio.Position   `json:"position,omitempty"`
	PortfolioValue float64               `json:"portfolio_value,omitempty"`
	ValidatedTick  *market.ValidatedTick `json:"validated_tick,omitempty"`
	Risk           *risk.Assessment      `json:"risk,omitempty"`
	Interpretation string                `json:"interpretation,omitempty"`
	Decision       *decision.Decision    `json:"decision,omitempty"`
	Review         *narrative.Review     `json:"review,omitempty"`
	AuditTrail     []AuditEntry          `json:"audit_trail"`
	Errors         []string              `json:"errors,omitempty"`
	Terminated     bool                  `json:"terminated"`
	StartedAt      time.Time             `json:"started_at"`
	FinishedAt     time.Time             `json:"finished_at"`
}

// Succeeded reports whether the run accumulated no errors.
func (s State) Succeeded() bool {
	return len(s.Errors) == 0
}

// Delta is the field-group a node contributes. Value fields overwrite
// only when set; audit entries and errors append.
type Delta struct {
	ValidatedTick  *market.ValidatedTick
	Risk           *risk.Assessment
	Interpretation string
	Decision       *decision.Decision
	Review         *narrative.Review
	Audit          []AuditEntry
	Errors         []string
	Terminate      bool
}

// merge folds a Delta into the state, reducer-style: pure, append-only
// for the trail and error list, last-write-wins for the value fields.
// Prior outputs are never modified in place.
func merge(s State, d Delta) State {
	if d.ValidatedTick != nil {
		s.ValidatedTick = d.ValidatedTick
		s.Symbol = d.ValidatedTick.Symbol
	}
	if d.Risk != nil {
		s.Risk = d.Risk
	}
	if d.Interpretation != "" {
		s.Interpretation = d.Interpretation
	}
	if d.Decision != nil {
		s.Decision = d.Decision
	}
	if d.Review != nil {
		s.Review = d.Review
	}
	if len(d.Audit) > 0 {
		trail := make([]AuditEntry, 0, len(s.AuditTrail)+len(d.Audit))
		trail = append(trail, s.AuditTrail...)
		trail = append(trail, d.Audit...)
		s.AuditTrail = trail
	}
	if len(d.Errors) > 0 {
		errs := make([]string, 0, len(s.Errors)+len(d.Errors))
		errs = append(errs, s.Errors...)
		errs = append(errs, d.Errors...)
		s.Errors = errs
	}
	if d.Terminate {
		s.Terminated = true
	}
	return s
}

func successEntry(stage string) AuditEntry {
	return AuditEntry{Stage: stage, Status: "success", Timestamp: time.Now().UTC()}
}

func failureEntry(stage, detail string) AuditEntry {
	return AuditEntry{Stage: stage, Status: "failure", Detail: detail, Timestamp: time.Now().UTC()}
}
