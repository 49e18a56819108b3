package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riskmind/riskmind/internal/audit"
	"github.com/riskmind/riskmind/internal/config"
	"github.com/riskmind/riskmind/internal/decision"
)

func TestRunBatchKeepsRequestOrder(t *testing.T) {
	o := New(exitConfig(), Deps{Sink: audit.NewMemory()})

	reqs := []Request{
		{UserID: "u-1", RawTick: []byte(holdTick)},
		exitRequest(),
		{UserID: "u-1", RawTick: []byte(brokenTick)},
	}

	states := o.RunBatch(context.Background(), reqs, 2)

	require.Len(t, states, 3)
	require.Equal(t, "ABC.NS", states[0].Symbol)
	require.Equal(t, "XYZ.NS", states[1].Symbol)
	require.False(t, states[2].Succeeded())
}

func TestRankDecisionsMostUrgentFirst(t *testing.T) {
	o := New(exitConfig(), Deps{Sink: audit.NewMemory()})

	states := o.RunBatch(context.Background(), []Request{
		{UserID: "u-1", RawTick: []byte(holdTick)},
		exitRequest(),
		{UserID: "u-1", RawTick: []byte(brokenTick)},
	}, 4)

	ranked := RankDecisions(states)

	require.Len(t, ranked, 2)
	require.Equal(t, decision.ActionExit, ranked[0].Decision.Action)
	require.Equal(t, decision.ActionHold, ranked[1].Decision.Action)
}

func TestRunBatchDefaultsParallelism(t *testing.T) {
	o := New(config.Default(), Deps{Sink: audit.NewMemory()})

	states := o.RunBatch(context.Background(), []Request{
		{UserID: "u-1", RawTick: []byte(holdTick)},
	}, 0)

	require.Len(t, states, 1)
	require.True(t, states[0].Succeeded())
}
