package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/riskmind/riskmind/internal/agent"
	"github.com/riskmind/riskmind/internal/audit"
	"github.com/riskmind/riskmind/internal/config"
	"github.com/riskmind/riskmind/internal/decision"
	"github.com/riskmind/riskmind/internal/market"
	"github.com/riskmind/riskmind/internal/narrative"
	"github.com/riskmind/riskmind/internal/observ"
	"github.com/riskmind/riskmind/internal/portfolio"
	"github.com/riskmind/riskmind/internal/risk"
)

// Node names, also used as audit trail stages.
const (
	nodeValidate  = "validate"
	nodeRiskScore = "risk_score"
	nodeInterpret = "interpret"
	nodeDecide    = "decide"
	nodeReview    = "review"
	nodeRecord    = "record"
)

// interpretThreshold routes through the Interpret node only for scores
// above it.
const interpretThreshold = 0.7

// Reasoner is the optional LLM collaborator consulted by the Interpret
// and Review nodes. Both calls degrade internally; they never fail.
type Reasoner interface {
	InterpretRisk(ctx context.Context, in narrative.RiskContext) string
	ValidateDecision(ctx context.Context, in narrative.ReviewContext) narrative.Review
}

// Deps are the collaborators the orchestrator is assembled from. Only
// Sink is required; the rest degrade to no-ops when nil.
type Deps struct {
	RefData  market.Lookup
	Universe decision.Universe
	Narrator decision.RationaleGenerator
	Reasoner Reasoner
	Sink     audit.Sink
}

// Request is one unit of work for the pipeline.
type Request struct {
	UserID         string
	RawTick        []byte
	Position       *portfolio.Position
	PortfolioValue float64
}

// Orchestrator drives the node graph
// validate -> risk_score -> [interpret] -> decide -> review -> record
// for one tick at a time. Runs are independent; the circuit breaker is
// the only state shared across them.
type Orchestrator struct {
	breaker  *agent.CircuitBreaker
	validate *agent.Runner[[]byte, market.ValidatedTick]
	assess   *agent.Runner[risk.Input, risk.Assessment]
	decide   *agent.Runner[decision.Input, decision.Decision]
	reasoner Reasoner
	sink     audit.Sink
	nodes    map[string]graphNode
}

type graphNode struct {
	run  func(ctx context.Context, s State) Delta
	next func(s State) string
}

func New(cfg config.Root, deps Deps) *Orchestrator {
	cfg.ApplyDefaults()

	runnerCfg := agent.Config{
		RetryAttempts: cfg.Agent.RetryAttempts,
		Timeout:       time.Duration(cfg.Agent.TimeoutMs) * time.Millisecond,
		BackoffBase:   time.Duration(cfg.Agent.BackoffBaseMs) * time.Millisecond,
		BackoffMax:    time.Duration(cfg.Agent.BackoffMaxMs) * time.Millisecond,
	}

	assessor := risk.NewAssessor(risk.AssessorConfig{
		Scorer: risk.ScorerConfig{
			HighThreshold:          cfg.Risk.HighThreshold,
			MediumThreshold:        cfg.Risk.MediumThreshold,
			ConcentrationThreshold: cfg.Risk.ConcentrationThreshold,
			VaRCeiling:             cfg.Risk.VaRCeiling,
			VaRAlertThreshold:      cfg.Risk.VaRAlertThreshold,
		},
		DefaultVolatility: cfg.Risk.DefaultVolatility,
	})

	var finder *decision.Finder
	if deps.Universe != nil {
		finder = decision.NewFinder(deps.Universe, cfg.Decision.AlternativesLimit)
	}
	engine := decision.NewEngine(deps.Narrator, finder, decision.EngineConfig{
		NarrativeUrgency: cfg.Decision.NarrativeUrgency,
	})

	o := &Orchestrator{
		breaker: agent.NewCircuitBreaker("workflow", agent.BreakerConfig{
			FailureThreshold: cfg.Breaker.FailureThreshold,
			MinSamples:       cfg.Breaker.MinSamples,
			Window:           time.Duration(cfg.Breaker.WindowMs) * time.Millisecond,
			Cooldown:         time.Duration(cfg.Breaker.CooldownMs) * time.Millisecond,
		}),
		validate: agent.NewRunner[[]byte, market.ValidatedTick](market.NewValidator(deps.RefData), runnerCfg),
		assess:   agent.NewRunner[risk.Input, risk.Assessment](assessor, runnerCfg),
		decide:   agent.NewRunner[decision.Input, decision.Decision](engine, runnerCfg),
		reasoner: deps.Reasoner,
		sink:     deps.Sink,
	}
	o.nodes = o.buildGraph()
	return o
}

// buildGraph wires the explicit node/edge machine. Every node checks
// the termination flag itself; record has no outgoing edge.
func (o *Orchestrator) buildGraph() map[string]graphNode {
	always := func(next string) func(State) string {
		return func(State) string { return next }
	}
	return map[string]graphNode{
		nodeValidate:  {run: o.validateNode, next: always(nodeRiskScore)},
		nodeRiskScore: {run: o.riskNode, next: o.afterRisk},
		nodeInterpret: {run: o.interpretNode, next: always(nodeDecide)},
		nodeDecide:    {run: o.decideNode, next: always(nodeReview)},
		nodeReview:    {run: o.reviewNode, next: always(nodeRecord)},
		nodeRecord:    {run: o.recordNode, next: always("")},
	}
}

// Run drives one tick through the graph. The breaker is consulted once
// up front; a denial returns immediately with a single synthetic error
// and an empty audit trail. Otherwise the breaker is updated exactly
// once, after record, success iff no error accumulated.
func (o *Orchestrator) Run(ctx context.Context, req Request) State {
	s := State{
		TraceID:        uuid.NewString(),
		UserID:         req.UserID,
		Symbol:         gjson.GetBytes(req.RawTick, "symbol").String(),
		RawTick:        req.RawTick,
		Position:       req.Position,
		PortfolioValue: req.PortfolioValue,
		StartedAt:      time.Now().UTC(),
	}

	if !o.breaker.Allow() {
		observ.IncCounter("runs_rejected_total", nil)
		s.Errors = []string{o.breaker.Err().Error()}
		s.Terminated = true
		s.FinishedAt = time.Now().UTC()
		return s
	}

	observ.Log("run_started", map[string]any{"trace_id": s.TraceID, "symbol": s.Symbol})

	cur := nodeValidate
	for cur != "" {
		node := o.nodes[cur]
		s = merge(s, node.run(ctx, s))
		cur = node.next(s)
	}

	if s.Succeeded() {
		o.breaker.RecordSuccess()
	} else {
		o.breaker.RecordFailure()
	}

	s.FinishedAt = time.Now().UTC()
	observ.Log("run_finished", map[string]any{
		"trace_id": s.TraceID,
		"symbol":   s.Symbol,
		"success":  s.Succeeded(),
		"errors":   len(s.Errors),
	})
	return s
}

func (o *Orchestrator) validateNode(ctx context.Context, s State) Delta {
	res := o.validate.Execute(ctx, s.RawTick)
	if !res.Success {
		return failDelta(nodeValidate, res.Err)
	}
	tick := res.Output
	return Delta{ValidatedTick: &tick, Audit: []AuditEntry{successEntry(nodeValidate)}}
}

func (o *Orchestrator) riskNode(ctx context.Context, s State) Delta {
	if s.Terminated || s.ValidatedTick == nil {
		return Delta{}
	}
	res := o.assess.Execute(ctx, risk.Input{
		Tick:           *s.ValidatedTick,
		Position:       s.Position,
		PortfolioValue: s.PortfolioValue,
	})
	if !res.Success {
		return failDelta(nodeRiskScore, res.Err)
	}
	assessment := res.Output
	return Delta{Risk: &assessment, Audit: []AuditEntry{successEntry(nodeRiskScore)}}
}

// afterRisk routes high scores through the Interpret node.
func (o *Orchestrator) afterRisk(s State) string {
	if !s.Terminated && s.Risk != nil && s.Risk.RiskScore > interpretThreshold {
		return nodeInterpret
	}
	return nodeDecide
}

// interpretNode attaches prose context for a high score. It cannot fail
// the run; without a reasoner it is skipped silently.
func (o *Orchestrator) interpretNode(ctx context.Context, s State) Delta {
	if s.Terminated || s.Risk == nil || o.reasoner == nil {
		return Delta{}
	}
	text := o.reasoner.InterpretRisk(ctx, narrative.RiskContext{
		Symbol:       s.Risk.Symbol,
		RiskScore:    s.Risk.RiskScore,
		RiskLevel:    s.Risk.RiskLevel,
		Volatility:   s.Risk.Factors.Volatility,
		VaR95:        s.Risk.Factors.VaR95,
		CurrentPrice: s.ValidatedTick.Price,
	})
	return Delta{Interpretation: text, Audit: []AuditEntry{successEntry(nodeInterpret)}}
}

func (o *Orchestrator) decideNode(ctx context.Context, s State) Delta {
	if s.Terminated || s.ValidatedTick == nil || s.Risk == nil {
		return Delta{}
	}
	res := o.decide.Execute(ctx, decision.Input{
		Tick:     *s.ValidatedTick,
		Risk:     *s.Risk,
		Position: s.Position,
	})
	if !res.Success {
		return failDelta(nodeDecide, res.Err)
	}
	d := res.Output
	return Delta{Decision: &d, Audit: []AuditEntry{successEntry(nodeDecide)}}
}

// reviewNode annotates the decision with a confidence verdict. It never
// changes the action.
func (o *Orchestrator) reviewNode(ctx context.Context, s State) Delta {
	if s.Terminated || s.Decision == nil || o.reasoner == nil {
		return Delta{}
	}
	review := o.reasoner.ValidateDecision(ctx, narrative.ReviewContext{
		Symbol:       s.Decision.Symbol,
		Action:       s.Decision.Action,
		Urgency:      s.Decision.Urgency,
		RiskScore:    s.Decision.RiskScore,
		CurrentPrice: s.ValidatedTick.Price,
		PnLPercent:   pnlPercent(s),
		Volatility:   s.Risk.Factors.Volatility,
		Rationale:    s.Decision.Rationale,
	})
	return Delta{Review: &review, Audit: []AuditEntry{successEntry(nodeReview)}}
}

// recordNode always runs, even after upstream failure, so failure is
// itself audited. It is fail-open: sink errors are logged and swallowed.
func (o *Orchestrator) recordNode(ctx context.Context, s State) Delta {
	if o.sink == nil {
		return Delta{Audit: []AuditEntry{successEntry(nodeRecord)}}
	}

	for _, entry := range s.AuditTrail {
		err := o.sink.Record(ctx, audit.Entry{
			TraceID:   s.TraceID,
			Stage:     entry.Stage,
			Status:    entry.Status,
			Detail:    entry.Detail,
			Timestamp: entry.Timestamp,
		})
		if err != nil {
			o.auditFailed(err)
		}
	}

	if s.Decision != nil && !s.Terminated {
		err := o.sink.RecordDecision(ctx, audit.DecisionRecord{
			TraceID:      s.TraceID,
			UserID:       s.UserID,
			Symbol:       s.Decision.Symbol,
			Action:       string(s.Decision.Action),
			Rationale:    s.Decision.Rationale,
			Urgency:      s.Decision.Urgency,
			RiskScore:    s.Decision.RiskScore,
			Alternatives: s.Decision.Alternatives,
			Timestamp:    time.Now().UTC(),
		})
		if err != nil {
			o.auditFailed(err)
		}
	}

	return Delta{Audit: []AuditEntry{successEntry(nodeRecord)}}
}

func (o *Orchestrator) auditFailed(err error) {
	observ.IncCounter("audit_failures_total", nil)
	observ.Log("audit_sink_error", map[string]any{"error": err.Error()})
}

// ResetBreaker forces the breaker back to CLOSED. Operator action.
func (o *Orchestrator) ResetBreaker() {
	o.breaker.Reset()
}

// Breaker exposes a point-in-time snapshot for the health surface.
func (o *Orchestrator) Breaker() agent.BreakerSnapshot {
	return o.breaker.Snapshot()
}

func failDelta(stage string, err error) Delta {
	detail := "unknown error"
	if err != nil {
		detail = err.Error()
	}
	observ.IncCounter("node_failures_total", map[string]string{"node": stage})
	return Delta{
		Audit:     []AuditEntry{failureEntry(stage, detail)},
		Errors:    []string{detail},
		Terminate: true,
	}
}

func pnlPercent(s State) float64 {
	if s.Position == nil || s.ValidatedTick == nil {
		return 0
	}
	return decision.UnrealizedPnL(s.Position.EntryPrice, s.ValidatedTick.Price, s.Position.Quantity).Percent
}
