package goal

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/talgya/village-sim/internal/world"
)

func TestResolveConflictsKeepsOneNeedGoalPerType(t *testing.T) {
	goals := []world.Goal{
		{ID: uuid.New(), Type: world.GoalEat, Priority: 9},
		{ID: uuid.New(), Type: world.GoalEat, Priority: 5},
	}
	resolved := ResolveConflicts(goals)
	require.Len(t, resolved, 1)
	require.Equal(t, 9, resolved[0].Priority)
}

func TestResolveConflictsHelpFriendVsConfront(t *testing.T) {
	target := uuid.New()
	goals := []world.Goal{
		{ID: uuid.New(), Type: world.GoalHelpFriend, TargetID: &target, Priority: 8},
		{ID: uuid.New(), Type: world.GoalConfront, TargetID: &target, Priority: 6},
	}
	resolved := ResolveConflicts(goals)
	require.Len(t, resolved, 1)
	require.Equal(t, world.GoalHelpFriend, resolved[0].Type)
}

func TestResolveConflictsSeekRevengeVsApologize(t *testing.T) {
	target := uuid.New()
	goals := []world.Goal{
		{ID: uuid.New(), Type: world.GoalApologize, TargetID: &target, Priority: 8},
		{ID: uuid.New(), Type: world.GoalSeekRevenge, TargetID: &target, Priority: 6},
	}
	resolved := ResolveConflicts(goals)
	require.Len(t, resolved, 1)
	require.Equal(t, world.GoalApologize, resolved[0].Type)
}

func TestResolveConflictsDifferentTargetsBothSurvive(t *testing.T) {
	t1, t2 := uuid.New(), uuid.New()
	goals := []world.Goal{
		{ID: uuid.New(), Type: world.GoalHelpFriend, TargetID: &t1, Priority: 8},
		{ID: uuid.New(), Type: world.GoalConfront, TargetID: &t2, Priority: 6},
	}
	resolved := ResolveConflicts(goals)
	require.Len(t, resolved, 2)
}

func TestPrioritizeOrdersByWeightedScore(t *testing.T) {
	goals := []world.Goal{
		{ID: uuid.New(), Type: world.GoalInvestigate, Priority: 7, CreatedAt: 0},
		{ID: uuid.New(), Type: world.GoalEat, Priority: 5, CreatedAt: 0},
	}
	sorted := Prioritize(goals, 0)
	// 5*10 + need bonus 30 = 80 beats 7*10 + desire bonus 0 = 70.
	require.Equal(t, world.GoalEat, sorted[0].Type, "need category bonus should outrank a higher-priority desire")
}

func TestManagerRefreshDedupesByTypeAndTarget(t *testing.T) {
	m := NewManager()
	agent := world.Agent{ID: uuid.New(), Needs: world.Needs{Hunger: 9, Energy: 5, Social: 5}}

	first := m.Refresh(agent, 0)
	eatCount := 0
	for _, g := range first {
		if g.Type == world.GoalEat {
			eatCount++
		}
	}
	require.Equal(t, 1, eatCount)

	second := m.Refresh(agent, 100)
	eatCount = 0
	for _, g := range second {
		if g.Type == world.GoalEat {
			eatCount++
		}
	}
	require.Equal(t, 1, eatCount, "refresh must not duplicate an already-active need goal")
}

func TestManagerRefreshCompletesEatGoal(t *testing.T) {
	m := NewManager()
	agent := world.Agent{ID: uuid.New(), Needs: world.Needs{Hunger: 9, Energy: 5, Social: 5}}
	m.Refresh(agent, 0)

	agent.Needs.Hunger = 1 // satisfied
	refreshed := m.Refresh(agent, 100)
	for _, g := range refreshed {
		require.NotEqual(t, world.GoalEat, g.Type, "satisfied eat goal should be reaped, and hunger=1 no longer triggers regeneration")
	}
}

func TestManagerTopGoalReturnsHighestPriority(t *testing.T) {
	m := NewManager()
	agent := world.Agent{ID: uuid.New(), Needs: world.Needs{Hunger: 9, Energy: 9, Social: 9}}
	m.Refresh(agent, 0)
	top, ok := m.TopGoal(agent.ID)
	require.True(t, ok)
	require.Equal(t, world.GoalEat, top.Type)
}

func TestManagerAddReactiveInjectsGoal(t *testing.T) {
	m := NewManager()
	agentID := uuid.New()
	m.AddReactive(agentID, world.Goal{ID: uuid.New(), Type: world.GoalConfront, Priority: 8, Status: world.GoalActive})
	active := m.Active(agentID)
	require.Len(t, active, 1)
	require.Equal(t, world.GoalConfront, active[0].Type)
}
