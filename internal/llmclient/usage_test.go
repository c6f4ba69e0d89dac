package llmclient

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUsageTrackerAggregates(t *testing.T) {
	tr := NewUsageTracker(10)
	tr.Record(UsageRecord{Model: "claude-3-5-haiku-latest", TokensIn: 10, TokensOut: 20, CostUSD: 0.01})
	tr.Record(UsageRecord{Model: "claude-3-5-haiku-latest", TokensIn: 5, TokensOut: 15, CostUSD: 0.02})

	agg := tr.Aggregate()
	require.Equal(t, 2, agg.TotalCalls)
	require.Equal(t, 15, agg.TokensIn)
	require.Equal(t, 35, agg.TokensOut)
	require.InDelta(t, 0.03, agg.TotalCostUSD, 1e-9)
	require.Equal(t, 2, agg.PerModel["claude-3-5-haiku-latest"])
}

func TestUsageTrackerRingEvictsOldest(t *testing.T) {
	tr := NewUsageTracker(2)
	tr.Record(UsageRecord{Model: "a", TokensIn: 1})
	tr.Record(UsageRecord{Model: "b", TokensIn: 2})
	tr.Record(UsageRecord{Model: "c", TokensIn: 3})

	recent := tr.Recent()
	require.Len(t, recent, 2)
	require.Equal(t, "b", recent[0].Model)
	require.Equal(t, "c", recent[1].Model)

	// The running aggregate survives ring eviction.
	require.Equal(t, 3, tr.Aggregate().TotalCalls)
}

func TestUsageTrackerResetClearsAggregateNotRing(t *testing.T) {
	tr := NewUsageTracker(10)
	tr.Record(UsageRecord{Model: "a", TokensIn: 1})
	tr.Reset()

	require.Equal(t, 0, tr.Aggregate().TotalCalls)
	require.Len(t, tr.Recent(), 1)
}
