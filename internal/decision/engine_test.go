package decision

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riskmind/riskmind/internal/agent"
	"github.com/riskmind/riskmind/internal/market"
	"github.com/riskmind/riskmind/internal/portfolio"
	"github.com/riskmind/riskmind/internal/risk"
)

type fakeNarrator struct {
	text  string
	err   error
	calls int
}

func (n *fakeNarrator) GenerateRationale(_ context.Context, _ RationaleContext) (string, error) {
	n.calls++
	return n.text, n.err
}

func decisionInput(riskScore float64, sentiment *float64) Input {
	tick := market.ValidatedTick{
		Tick:       market.Tick{Symbol: "XYZ.NS", Price: 100, Open: 98, High: 101, Low: 97, Close: 100, Sentiment: sentiment},
		Normalized: true,
		Enriched:   true,
	}
	return Input{
		Tick: tick,
		Risk: risk.Assessment{Symbol: "XYZ.NS", RiskScore: riskScore, RiskLevel: risk.LevelHigh},
	}
}

func TestEngineValidation(t *testing.T) {
	e := NewEngine(nil, nil, EngineConfig{})

	err := e.Validate(Input{})
	require.Error(t, err)
	require.True(t, agent.IsValidation(err))

	err = e.Validate(decisionInput(0.5, nil))
	require.NoError(t, err)
}

func TestEngineLowUrgencySkipsNarrative(t *testing.T) {
	n := &fakeNarrator{text: "prose"}
	e := NewEngine(n, nil, EngineConfig{})

	got, err := e.Process(context.Background(), decisionInput(0.45, nil))
	require.NoError(t, err)
	require.Equal(t, ActionHold, got.Action)
	require.Equal(t, "Risk metrics within acceptable range", got.Rationale)
	require.Zero(t, n.calls, "narrative only for urgency >= 7")
}

func TestEngineHighUrgencyUsesNarrative(t *testing.T) {
	n := &fakeNarrator{text: "tailored prose"}
	e := NewEngine(n, nil, EngineConfig{})

	got, err := e.Process(context.Background(), decisionInput(0.85, f(-0.5)))
	require.NoError(t, err)
	require.Equal(t, ActionExit, got.Action)
	require.Equal(t, 10, got.Urgency)
	require.Equal(t, "tailored prose", got.Rationale)
	require.Equal(t, 1, n.calls)
}

func TestEngineNarrativeFailureKeepsActionAndUrgency(t *testing.T) {
	n := &fakeNarrator{err: errors.New("llm unavailable")}
	e := NewEngine(n, nil, EngineConfig{})

	got, err := e.Process(context.Background(), decisionInput(0.85, f(-0.5)))
	require.NoError(t, err)
	require.Equal(t, ActionExit, got.Action)
	require.Equal(t, 10, got.Urgency)
	require.Contains(t, got.Rationale, "Recommended action: EXIT")
	require.Contains(t, got.Rationale, "High risk level")
	require.Contains(t, got.Rationale, "Negative market sentiment")
}

func TestEngineComputesPnLFromPosition(t *testing.T) {
	e := NewEngine(nil, nil, EngineConfig{})

	in := decisionInput(0.2, nil)
	in.Position = &portfolio.Position{Symbol: "XYZ.NS", EntryPrice: 125, Quantity: 10}

	// Price 100 against entry 125 is a -20% loss: stop-loss row fires.
	got, err := e.Process(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, ActionStopLoss, got.Action)
	require.Equal(t, 9, got.Urgency)
	require.Equal(t, -250.0, got.ExpectedPnL)
}

func TestEngineAlternativesOnlyForExitClassActions(t *testing.T) {
	u := staticUniverse{ticks: []market.Tick{candidate("ALT.NS", 0.8, 0.1, 5, "IT")}}
	finder := NewFinder(u, 5)
	e := NewEngine(nil, finder, EngineConfig{})

	exit, err := e.Process(context.Background(), decisionInput(0.85, f(-0.5)))
	require.NoError(t, err)
	require.Equal(t, ActionExit, exit.Action)
	require.Len(t, exit.Alternatives, 1)

	hold, err := e.Process(context.Background(), decisionInput(0.2, nil))
	require.NoError(t, err)
	require.Equal(t, ActionHold, hold.Action)
	require.Empty(t, hold.Alternatives)
}

func TestFallbackRationaleTiers(t *testing.T) {
	got := FallbackRationale(ActionReduce, 0.3, -5, nil)
	require.Equal(t, "Recommended action: REDUCE. Taking action now may help protect capital and optimize portfolio performance.", got)

	got = FallbackRationale(ActionExit, 0.9, -12, f(-0.5))
	require.Contains(t, got, "High risk level (90%)")
	require.Contains(t, got, "significant loss of -12.0%")
	require.Contains(t, got, "Negative market sentiment")
}
