// Package audit records stage outcomes and final decisions. Sinks are
// fire-and-forget from the pipeline's perspective: a failing sink is
// logged and swallowed, never a correctness dependency.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/riskmind/riskmind/internal/decision"
)

// Entry is one stage outcome within a run.
type Entry struct {
	TraceID   string    `json:"trace_id"`
	Stage     string    `json:"stage"`
	Status    string    `json:"status"` // success | failure
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// DecisionRecord is the persisted final decision of a run.
type DecisionRecord struct {
	TraceID      string                 `json:"trace_id"`
	UserID       string                 `json:"user_id"`
	Symbol       string                 `json:"symbol"`
	Action       string                 `json:"action"`
	Rationale    string                 `json:"rationale"`
	Urgency      int                    `json:"urgency"`
	RiskScore    float64                `json:"risk_score"`
	Alternatives []decision.Alternative `json:"alternatives,omitempty"`
	Timestamp    time.Time              `json:"timestamp"`
}

// Sink receives audit writes.
type Sink interface {
	Record(ctx context.Context, e Entry) error
	RecordDecision(ctx context.Context, d DecisionRecord) error
}

// Memory keeps everything in process. Used by tests and the demo
// binary.
type Memory struct {
	mu        sync.Mutex
	entries   []Entry
	decisions []DecisionRecord
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Record(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *Memory) RecordDecision(_ context.Context, d DecisionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions = append(m.decisions, d)
	return nil
}

func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

func (m *Memory) Decisions() []DecisionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]DecisionRecord, len(m.decisions))
	copy(out, m.decisions)
	return out
}
