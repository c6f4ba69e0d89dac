package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/talgya/village-sim/internal/llmclient"
	"github.com/talgya/village-sim/internal/world"
)

func TestWorkingCapEvictsLowestSignificanceThenOldest(t *testing.T) {
	s := NewStore()
	agent := uuid.New()

	for i := 0; i < WorkingCap; i++ {
		s.AddWorking(agent, world.Memory{ID: uuid.New(), Content: "filler", Significance: 5, Timestamp: int64(i)})
	}
	// A new, more significant memory should evict the oldest among the
	// lowest-significance ties, not this new high-significance one.
	s.AddWorking(agent, world.Memory{ID: uuid.New(), Content: "important", Significance: 9, Timestamp: 100})

	got := s.GetWorking(agent)
	require.Len(t, got, WorkingCap)
	found := false
	for _, m := range got {
		if m.Content == "important" {
			found = true
		}
	}
	require.True(t, found)
}

func TestGetWorkingOrderedByTimestampDesc(t *testing.T) {
	s := NewStore()
	agent := uuid.New()
	s.AddWorking(agent, world.Memory{ID: uuid.New(), Timestamp: 1, Significance: 3})
	s.AddWorking(agent, world.Memory{ID: uuid.New(), Timestamp: 3, Significance: 3})
	s.AddWorking(agent, world.Memory{ID: uuid.New(), Timestamp: 2, Significance: 3})

	got := s.GetWorking(agent)
	require.Equal(t, []int64{3, 2, 1}, []int64{got[0].Timestamp, got[1].Timestamp, got[2].Timestamp})
}

func TestGetLongtermOrderedBySignificanceDesc(t *testing.T) {
	s := NewStore()
	agent := uuid.New()
	s.AddLongterm(agent, world.Memory{ID: uuid.New(), Significance: 6, Timestamp: 1})
	s.AddLongterm(agent, world.Memory{ID: uuid.New(), Significance: 9, Timestamp: 2})
	s.AddLongterm(agent, world.Memory{ID: uuid.New(), Significance: 7, Timestamp: 3})

	got := s.GetLongterm(agent)
	require.Equal(t, 9, got[0].Significance)
	require.Equal(t, 7, got[1].Significance)
	require.Equal(t, 6, got[2].Significance)
}

func TestCompressDayEmptyWorkingIsNoop(t *testing.T) {
	s := NewStore()
	agent := uuid.New()
	result := s.CompressDay(context.Background(), agent, 1000, nil)
	require.Equal(t, CompressionResult{}, result)
}

// Scenario 5: memory compression.
func TestCompressDayProducesSummaryAndFacts(t *testing.T) {
	s := NewStore()
	agent := uuid.New()

	s.AddWorking(agent, world.Memory{ID: uuid.New(), Content: "discovered hidden letter", Significance: 8, Timestamp: 1})
	for i := 0; i < 9; i++ {
		s.AddWorking(agent, world.Memory{ID: uuid.New(), Content: "an ordinary moment", Significance: 3, Timestamp: int64(2 + i)})
	}

	mock := llmclient.NewMockClient("A discovery was made", "Letter was hidden in the bakery")
	result := s.CompressDay(context.Background(), agent, 9999, mock)

	require.Equal(t, "A discovery was made", result.Summary)
	require.Equal(t, []string{"Letter was hidden in the bakery"}, result.Facts)
	require.Equal(t, 10, result.WorkingCount)

	require.Empty(t, s.GetWorking(agent), "working memories must be cleared after compression")

	recent := s.GetRecent(agent)
	require.Len(t, recent, 1)
	require.Equal(t, "A discovery was made", recent[0].Content)
	require.Equal(t, 5, recent[0].Significance)

	longterm := s.GetLongterm(agent)
	require.Len(t, longterm, 1)
	require.Equal(t, "Letter was hidden in the bakery", longterm[0].Content)
	require.Equal(t, 7, longterm[0].Significance)
}

func TestCompressDayCapsFactsFromVerboseReply(t *testing.T) {
	s := NewStore()
	agent := uuid.New()
	s.AddWorking(agent, world.Memory{ID: uuid.New(), Content: "a full day", Significance: 6, Timestamp: 1})

	mock := llmclient.NewMockClient(
		"A busy day",
		"- f1\n- f2\n- f3\n- f4\n- f5\n- f6\n- f7\n- f8",
	)
	result := s.CompressDay(context.Background(), agent, 100, mock)

	require.Len(t, result.Facts, 5, "an over-long fact list must be truncated")
	require.Len(t, s.GetLongterm(agent), 5)
}

func TestCompressDayFallbackWithoutClient(t *testing.T) {
	s := NewStore()
	agent := uuid.New()
	s.AddWorking(agent, world.Memory{ID: uuid.New(), Content: "found a coin", Significance: 7, Timestamp: 1})
	s.AddWorking(agent, world.Memory{ID: uuid.New(), Content: "said hello", Significance: 2, Timestamp: 2})

	result := s.CompressDay(context.Background(), agent, 100, nil)
	require.NotEmpty(t, result.Summary)
	require.Contains(t, result.Facts, "found a coin")
	require.Empty(t, s.GetWorking(agent))
}

func TestNewStoreWithCapsOverridesRetention(t *testing.T) {
	s := NewStoreWithCaps(3, 2, 5)
	agent := uuid.New()
	for i := 0; i < 10; i++ {
		s.AddWorking(agent, world.Memory{ID: uuid.New(), Significance: 5, Timestamp: int64(i)})
		s.AddRecent(agent, world.Memory{ID: uuid.New(), Significance: 5, Timestamp: int64(i)})
		s.AddLongterm(agent, world.Memory{ID: uuid.New(), Significance: 5, Timestamp: int64(i)})
	}
	require.Len(t, s.GetWorking(agent), 3)
	require.Len(t, s.GetRecent(agent), 2)
	require.Len(t, s.GetLongterm(agent), 5)
}

func TestMemoryCapsHoldAfterManyWrites(t *testing.T) {
	s := NewStore()
	agent := uuid.New()
	for i := 0; i < 50; i++ {
		s.AddWorking(agent, world.Memory{ID: uuid.New(), Significance: i%10 + 1, Timestamp: int64(i)})
		s.AddRecent(agent, world.Memory{ID: uuid.New(), Significance: i%10 + 1, Timestamp: int64(i)})
		s.AddLongterm(agent, world.Memory{ID: uuid.New(), Significance: i%10 + 1, Timestamp: int64(i)})
	}
	require.LessOrEqual(t, len(s.GetWorking(agent)), WorkingCap)
	require.LessOrEqual(t, len(s.GetRecent(agent)), RecentCap)
	require.LessOrEqual(t, len(s.GetLongterm(agent)), LongtermCap)
}
