package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riskmind/riskmind/internal/agent"
	"github.com/riskmind/riskmind/internal/audit"
	"github.com/riskmind/riskmind/internal/config"
)

func TestHealthBeforeTraffic(t *testing.T) {
	o := New(config.Default(), Deps{Sink: audit.NewMemory()})

	h := o.Health()

	require.Equal(t, "healthy", h.Overall)
	require.Len(t, h.Stages, 3)
	require.Equal(t, agent.BreakerClosed, h.Breaker.State)
}

func TestHealthStaysHealthyOnSuccess(t *testing.T) {
	o := New(config.Default(), Deps{Sink: audit.NewMemory()})

	for i := 0; i < 3; i++ {
		s := o.Run(context.Background(), Request{UserID: "u-1", RawTick: []byte(holdTick)})
		require.True(t, s.Succeeded())
	}

	h := o.Health()
	require.Equal(t, "healthy", h.Overall)
	for _, st := range h.Stages {
		require.Equal(t, 1.0, st.SuccessRate)
	}
}

func TestHealthDegradesOnFailures(t *testing.T) {
	o := New(config.Default(), Deps{Sink: audit.NewMemory()})

	// Half the validate traffic fails; downstream stages see none of it,
	// so the average of the three stage rates lands between the bands.
	for i := 0; i < 4; i++ {
		raw := holdTick
		if i%2 == 1 {
			raw = brokenTick
		}
		o.Run(context.Background(), Request{UserID: "u-1", RawTick: []byte(raw)})
	}

	h := o.Health()
	require.Equal(t, "degraded", h.Overall)
}

func TestHealthDownWhileBreakerOpen(t *testing.T) {
	o := New(config.Default(), Deps{Sink: audit.NewMemory()})

	for i := 0; i < 11; i++ {
		o.Run(context.Background(), Request{RawTick: []byte(brokenTick)})
	}

	h := o.Health()
	require.Equal(t, agent.BreakerOpen, h.Breaker.State)
	require.Equal(t, "down", h.Overall)
}
