package decision

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riskmind/riskmind/internal/portfolio"
)

func TestRealizedPnLRoundTrip(t *testing.T) {
	got := RealizedPnL(100, 110, 10)
	require.Equal(t, 100.0, got.Amount)
	require.Equal(t, 10.0, got.Percent)
}

func TestRealizedPnLZeroEntry(t *testing.T) {
	got := RealizedPnL(0, 50, 10)
	require.Equal(t, 500.0, got.Amount)
	require.Zero(t, got.Percent)
}

func TestUnrealizedPnLLoss(t *testing.T) {
	got := UnrealizedPnL(200, 150, 4)
	require.Equal(t, -200.0, got.Amount)
	require.Equal(t, -25.0, got.Percent)
}

func TestExposure(t *testing.T) {
	require.Equal(t, 200.0, Exposure(50, 4))
}

func TestPortfolioPnLWeightsByInvestment(t *testing.T) {
	positions := []portfolio.Position{
		{EntryPrice: 100, CurrentPrice: 110, Quantity: 10}, // +100 on 1000
		{EntryPrice: 50, CurrentPrice: 45, Quantity: 20},   // -100 on 1000
	}
	got := PortfolioPnL(positions)
	require.Zero(t, got.Amount)
	require.Zero(t, got.Percent)

	got = PortfolioPnL(positions[:1])
	require.Equal(t, 100.0, got.Amount)
	require.Equal(t, 10.0, got.Percent)
}

func TestPortfolioPnLEmpty(t *testing.T) {
	got := PortfolioPnL(nil)
	require.Zero(t, got.Amount)
	require.Zero(t, got.Percent)
}
