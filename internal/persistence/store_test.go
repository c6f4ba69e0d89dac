package persistence

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/talgya/village-sim/internal/world"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "village.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func TestAgentSaveLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)
	agent := world.Agent{ID: uuid.New(), Name: "Agnes", Inventory: []string{"bread"}}
	require.NoError(t, s.SaveAgent(agent))

	loaded, err := s.LoadAgents()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, agent, loaded[0])
}

func TestSaveAgentUpsertsOnConflict(t *testing.T) {
	s := openTestStore(t)
	id := uuid.New()
	require.NoError(t, s.SaveAgent(world.Agent{ID: id, Name: "Agnes"}))
	require.NoError(t, s.SaveAgent(world.Agent{ID: id, Name: "Agnes Renamed"}))

	loaded, err := s.LoadAgents()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, "Agnes Renamed", loaded[0].Name)
}

func TestLocationSaveLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)
	loc := world.Location{ID: uuid.New(), Name: "bakery", Objects: []string{"bread"}}
	require.NoError(t, s.SaveLocation(loc))

	loaded, err := s.LoadLocations()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, loc, loaded[0])
}

func TestRelationshipSaveLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)
	rel := world.Relationship{AgentID: uuid.New(), TargetID: uuid.New(), Type: "friend", Score: 6}
	require.NoError(t, s.SaveRelationship(rel))

	loaded, err := s.LoadRelationships()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, rel, loaded[0])
}

func TestMemorySaveLoadFiltersByAgent(t *testing.T) {
	s := openTestStore(t)
	agentID := uuid.New()
	other := uuid.New()
	require.NoError(t, s.SaveMemory(world.Memory{ID: uuid.New(), AgentID: agentID, Kind: world.MemoryWorking, Content: "mine"}))
	require.NoError(t, s.SaveMemory(world.Memory{ID: uuid.New(), AgentID: other, Kind: world.MemoryWorking, Content: "not mine"}))

	loaded, err := s.LoadMemories(agentID.String())
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, "mine", loaded[0].Content)
}

func TestGoalSaveLoadFiltersByAgent(t *testing.T) {
	s := openTestStore(t)
	agentID := uuid.New()
	require.NoError(t, s.SaveGoal(world.Goal{ID: uuid.New(), AgentID: agentID, Type: world.GoalEat, Priority: 9}))

	loaded, err := s.LoadGoals(agentID.String())
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, world.GoalEat, loaded[0].Type)
}

func TestSessionCommitMakesWritesDurable(t *testing.T) {
	s := openTestStore(t)

	tx, err := s.Session()
	require.NoError(t, err)
	require.NoError(t, tx.SaveAgent(world.Agent{ID: uuid.New(), Name: "Agnes"}))
	require.NoError(t, tx.SaveClock(world.Clock{CurrentDay: 2}))

	inside, err := tx.LoadAgents()
	require.NoError(t, err)
	require.Len(t, inside, 1, "a transaction reads its own writes")

	require.NoError(t, tx.Commit())

	loaded, err := s.LoadAgents()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	clock, ok, err := s.LoadClock()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 2, clock.CurrentDay)
}

func TestSessionRollbackDiscardsWrites(t *testing.T) {
	s := openTestStore(t)

	tx, err := s.Session()
	require.NoError(t, err)
	require.NoError(t, tx.SaveAgent(world.Agent{ID: uuid.New(), Name: "Agnes"}))
	require.NoError(t, tx.Rollback())

	loaded, err := s.LoadAgents()
	require.NoError(t, err)
	require.Empty(t, loaded, "rolled-back writes must not be visible")
}

func TestClockRoundTripAndMissingIsFalse(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.LoadClock()
	require.NoError(t, err)
	require.False(t, ok)

	clock := world.Clock{CurrentDay: 3, CurrentHour: 12.5, Season: world.SeasonSummer, Weather: "rainy"}
	require.NoError(t, s.SaveClock(clock))

	loaded, ok, err := s.LoadClock()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, clock, loaded)
}
