package goal

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/talgya/village-sim/internal/world"
)

func newAgent() world.Agent {
	return world.Agent{
		ID:     uuid.New(),
		Traits: world.TraitSet{Curiosity: 5, Empathy: 5, Ambition: 5},
		Needs:  world.Needs{Hunger: 5, Energy: 5, Social: 5},
	}
}

// Scenario 4: need-goal generation.
func TestGenerateNeedGoalsMatchesScenario(t *testing.T) {
	agent := newAgent()
	agent.Needs = world.Needs{Hunger: 8, Energy: 2, Social: 5}

	goals := GenerateNeedGoals(agent, 0)

	var eat, sleep *world.Goal
	for i := range goals {
		switch goals[i].Type {
		case world.GoalEat:
			eat = &goals[i]
		case world.GoalSleep:
			sleep = &goals[i]
		case world.GoalSocialize:
			t.Fatal("social=5 should not produce a socialize goal")
		}
	}
	require.NotNil(t, eat)
	require.Equal(t, 9, eat.Priority)
	require.NotNil(t, sleep)
	require.Equal(t, 7, sleep.Priority)

	seen := map[world.GoalType]int{}
	for _, g := range goals {
		seen[g.Type]++
	}
	for t2, n := range seen {
		require.LessOrEqualf(t, n, 1, "duplicate goal type %s", t2)
	}
}

func TestGenerateNeedGoalsThresholds(t *testing.T) {
	agent := newAgent()

	agent.Needs.Hunger = 5
	goals := GenerateNeedGoals(agent, 0)
	require.Len(t, filterType(goals, world.GoalEat), 1)
	require.Equal(t, 5, filterType(goals, world.GoalEat)[0].Priority)

	agent.Needs.Hunger = 3
	goals = GenerateNeedGoals(agent, 0)
	require.Empty(t, filterType(goals, world.GoalEat))
}

func filterType(goals []world.Goal, t world.GoalType) []world.Goal {
	var out []world.Goal
	for _, g := range goals {
		if g.Type == t {
			out = append(out, g)
		}
	}
	return out
}

func TestGenerateDesireGoalsPriorityFormula(t *testing.T) {
	origRoll := roll
	defer func() { roll = origRoll }()
	roll = func() float64 { return 0 } // always select

	agent := newAgent()
	agent.Traits.Curiosity = 10 // weight = (10-4)/6 = 1.0

	goals := GenerateDesireGoals(agent, 2, 0)
	require.NotEmpty(t, goals)
	for _, g := range goals {
		require.LessOrEqual(t, g.Priority, 8)
	}
}

func TestGenerateDesireGoalsRespectsMaxCount(t *testing.T) {
	origRoll := roll
	defer func() { roll = origRoll }()
	roll = func() float64 { return 0 }

	agent := newAgent()
	agent.Traits.Curiosity = 10
	agent.Traits.Empathy = 10
	agent.Traits.Ambition = 10

	goals := GenerateDesireGoals(agent, 2, 0)
	require.LessOrEqual(t, len(goals), 2)
}

func TestGenerateDesireGoalsSkipsBelowMidpoint(t *testing.T) {
	origRoll := roll
	defer func() { roll = origRoll }()
	roll = func() float64 { return 0 }

	agent := newAgent()
	agent.Traits.Curiosity = 4
	agent.Traits.Empathy = 4
	agent.Traits.Ambition = 4

	goals := GenerateDesireGoals(agent, 2, 0)
	require.Empty(t, goals)
}

func TestGenerateReactiveGoalDefaultPriority(t *testing.T) {
	g := GenerateReactiveGoal(uuid.New(), world.GoalConfront, "confronted over theft", nil, 0, 0)
	require.Equal(t, 8, g.Priority) // reactive base 6 + 2
}

func TestGenerateReactiveGoalCappedAtTen(t *testing.T) {
	g := GenerateReactiveGoal(uuid.New(), world.GoalConfront, "x", nil, 15, 0)
	require.Equal(t, 10, g.Priority)
}

func TestGoalCategoryDerivation(t *testing.T) {
	require.Equal(t, world.CategoryNeed, world.Goal{Type: world.GoalEat}.Category())
	require.Equal(t, world.CategoryReactive, world.Goal{Type: world.GoalConfront}.Category())
	require.Equal(t, world.CategoryDesire, world.Goal{Type: world.GoalInvestigate}.Category())
}
