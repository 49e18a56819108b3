// Package narrative wraps the text-generation collaborator. Every call
// has a deterministic fallback; the pipeline never depends on the model
// being up.
package narrative

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"

	"github.com/riskmind/riskmind/internal/decision"
	"github.com/riskmind/riskmind/internal/observ"
	"github.com/riskmind/riskmind/internal/risk"
)

// RiskContext feeds a risk interpretation request.
type RiskContext struct {
	Symbol       string
	RiskScore    float64
	RiskLevel    risk.Level
	Volatility   float64
	VaR95        float64
	CurrentPrice float64
}

// ReviewContext feeds a decision validation request.
type ReviewContext struct {
	Symbol       string
	Action       decision.Action
	Urgency      int
	RiskScore    float64
	CurrentPrice float64
	PnLPercent   float64
	Volatility   float64
	Rationale    string
}

// Review is the validation verdict. It annotates a decision and never
// changes it.
type Review struct {
	Confidence float64 `json:"confidence"`
	Concerns   string  `json:"concerns"`
	Verdict    string  `json:"verdict"` // APPROVE | REVIEW_NEEDED
	Reasoning  string  `json:"reasoning"`
}

const (
	VerdictApprove      = "APPROVE"
	VerdictReviewNeeded = "REVIEW_NEEDED"
)

// Config tunes the collaborator wrapper.
type Config struct {
	Timeout        time.Duration // per-call, default 10s
	RequestsPerMin int           // rate limit, default 30
}

// LLM talks to an eino chat model with a per-call timeout and a
// process-wide rate limit.
type LLM struct {
	chat    model.BaseChatModel
	limiter *rate.Limiter
	timeout time.Duration
}

func New(chat model.BaseChatModel, cfg Config) *LLM {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerMin == 0 {
		cfg.RequestsPerMin = 30
	}
	return &LLM{
		chat:    chat,
		limiter: rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMin)/60), 1),
		timeout: cfg.Timeout,
	}
}

// GenerateRationale produces decision prose. Errors propagate so the
// decision engine can apply its own templated fallback.
func (l *LLM) GenerateRationale(ctx context.Context, rc decision.RationaleContext) (string, error) {
	text, err := l.generate(ctx, rationaleSystemPrompt, rationalePrompt(rc))
	if err != nil {
		observ.IncCounter("narrative_errors_total", map[string]string{"op": "rationale"})
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// InterpretRisk explains a high assessment in prose. Never fails: on
// error it returns a one-line numeric summary.
func (l *LLM) InterpretRisk(ctx context.Context, in RiskContext) string {
	prompt := fill(interpretTemplate, map[string]string{
		"symbol":        in.Symbol,
		"risk_score":    fmt.Sprintf("%.2f", in.RiskScore),
		"risk_level":    string(in.RiskLevel),
		"volatility":    fmt.Sprintf("%.2f", in.Volatility*100),
		"var95":         fmt.Sprintf("%.2f", in.VaR95),
		"current_price": fmt.Sprintf("%.2f", in.CurrentPrice),
	})

	text, err := l.generate(ctx, interpretSystemPrompt, prompt)
	if err != nil {
		observ.IncCounter("narrative_errors_total", map[string]string{"op": "interpret"})
		return FallbackInterpretation(in)
	}
	return strings.TrimSpace(text)
}

// ValidateDecision asks the model to approve or flag a decision. Never
// fails: on error it approves with low confidence.
func (l *LLM) ValidateDecision(ctx context.Context, in ReviewContext) Review {
	prompt := fill(reviewTemplate, map[string]string{
		"symbol":        in.Symbol,
		"action":        string(in.Action),
		"urgency":       fmt.Sprintf("%d", in.Urgency),
		"risk_score":    fmt.Sprintf("%.2f", in.RiskScore),
		"current_price": fmt.Sprintf("%.2f", in.CurrentPrice),
		"pnl":           fmt.Sprintf("%.2f", in.PnLPercent),
		"volatility":    fmt.Sprintf("%.2f", in.Volatility*100),
		"rationale":     in.Rationale,
	})

	text, err := l.generate(ctx, reviewSystemPrompt, prompt)
	if err != nil {
		observ.IncCounter("narrative_errors_total", map[string]string{"op": "review"})
		return FallbackReview()
	}
	return parseReview(text)
}

func (l *LLM) generate(ctx context.Context, system, user string) (string, error) {
	if l.chat == nil {
		return "", errors.New("no chat model configured")
	}
	if err := l.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	start := time.Now()
	msg, err := l.chat.Generate(callCtx, []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(user),
	})
	observ.RecordDuration("narrative_call", time.Since(start), nil)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if msg == nil || msg.Content == "" {
		return "", errors.New("empty completion")
	}
	return msg.Content, nil
}

// parseReview extracts the JSON verdict, falling back to keyword
// scanning when the model ignores the format.
func parseReview(text string) Review {
	if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			var r Review
			if err := json.Unmarshal([]byte(text[start:end+1]), &r); err == nil {
				if r.Confidence == 0 {
					r.Confidence = 0.7
				}
				if r.Concerns == "" {
					r.Concerns = "None"
				}
				if r.Verdict != VerdictReviewNeeded {
					r.Verdict = VerdictApprove
				}
				if r.Reasoning == "" {
					r.Reasoning = "Decision appears reasonable"
				}
				return r
			}
		}
	}

	lower := strings.ToLower(text)
	r := Review{Confidence: 0.6, Concerns: "None", Verdict: VerdictApprove}
	if strings.Contains(lower, "confident") {
		r.Confidence = 0.8
	}
	if strings.Contains(lower, "review") {
		r.Verdict = VerdictReviewNeeded
	}
	if len(text) > 100 {
		text = text[:100]
	}
	r.Reasoning = text
	return r
}

// FallbackInterpretation is the deterministic stand-in when the model
// is unavailable.
func FallbackInterpretation(in RiskContext) string {
	return fmt.Sprintf("Risk Level: %s (%.0f%%). Volatility: %.1f%%.",
		in.RiskLevel, in.RiskScore*100, in.Volatility*100)
}

// FallbackReview approves with reduced confidence when the model is
// unavailable.
func FallbackReview() Review {
	return Review{
		Confidence: 0.5,
		Concerns:   "LLM validation unavailable",
		Verdict:    VerdictApprove,
		Reasoning:  "Proceeding with rule-based validation",
	}
}
