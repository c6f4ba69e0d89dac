// Package goal implements need/desire/reactive goal generation,
// prioritization, conflict resolution, and the per-tick refresh cycle.
package goal

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/talgya/village-sim/internal/world"
)

// categoryBasePriority: needs outrank reactive, which outranks desires.
var categoryBasePriority = map[world.GoalCategory]int{
	world.CategoryNeed:     7,
	world.CategoryReactive: 6,
	world.CategoryDesire:   4,
}

// traitGoalMappings maps a trait at or above the 5 midpoint to the desire
// goal types it can drive.
var traitGoalMappings = map[string][]world.GoalType{
	"curiosity": {world.GoalInvestigate, world.GoalGainKnowledge, world.GoalExplore},
	"empathy":   {world.GoalHelpOthers, world.GoalMakeFriend},
	"ambition":  {world.GoalGainWealth, world.GoalGainPower},
}

var desireDescriptions = map[world.GoalType]string{
	world.GoalInvestigate:   "Look into something interesting",
	world.GoalGainWealth:    "Find a way to earn more coin",
	world.GoalMakeFriend:    "Try to befriend someone new",
	world.GoalFindRomance:   "Perhaps find a romantic connection",
	world.GoalGainKnowledge: "Learn something new",
	world.GoalHelpOthers:    "Help someone in need",
	world.GoalGainPower:     "Increase influence in the village",
	world.GoalExplore:       "Explore new places",
}

func newGoal(agentID uuid.UUID, t world.GoalType, description string, priority int, now int64) world.Goal {
	return world.Goal{
		ID:          uuid.New(),
		AgentID:     agentID,
		Type:        t,
		Priority:    priority,
		Description: description,
		Status:      world.GoalActive,
		CreatedAt:   now,
	}
}

// GenerateNeedGoals produces 0-3 goals from the agent's current needs —
// hunger, energy, and social each contribute at most one goal.
func GenerateNeedGoals(agent world.Agent, now int64) []world.Goal {
	var goals []world.Goal

	switch {
	case agent.Needs.Hunger >= 6:
		priority := 7
		desc := "Find something to eat"
		if agent.Needs.Hunger >= 8 {
			priority, desc = 9, "Desperately need food!"
		}
		goals = append(goals, newGoal(agent.ID, world.GoalEat, desc, priority, now))
	case agent.Needs.Hunger >= 4:
		goals = append(goals, newGoal(agent.ID, world.GoalEat, "Getting hungry, should eat soon", 5, now))
	}

	switch {
	case agent.Needs.Energy <= 3:
		priority := 7
		desc := "Need to rest"
		if agent.Needs.Energy <= 1 {
			priority, desc = 9, "Exhausted, must sleep!"
		}
		goals = append(goals, newGoal(agent.ID, world.GoalSleep, desc, priority, now))
	case agent.Needs.Energy <= 5:
		goals = append(goals, newGoal(agent.ID, world.GoalSleep, "Feeling tired", 4, now))
	}

	switch {
	case agent.Needs.Social <= 3:
		priority := 5
		desc := "Need some company"
		if agent.Needs.Social <= 1 {
			priority, desc = 7, "Feeling very lonely"
		}
		goals = append(goals, newGoal(agent.ID, world.GoalSocialize, desc, priority, now))
	case agent.Needs.Social <= 5:
		goals = append(goals, newGoal(agent.ID, world.GoalSocialize, "Would like to chat with someone", 3, now))
	}

	return goals
}

// roll is the source of randomness for desire selection; tests override
// it for determinism.
var roll = rand.Float64

// GenerateDesireGoals produces up to maxDesires personality-driven goals.
// Traits at or above the midpoint (5) each have a chance, weighted by how
// far above the midpoint they sit, to contribute a goal.
func GenerateDesireGoals(agent world.Agent, maxDesires int, now int64) []world.Goal {
	type candidate struct {
		t      world.GoalType
		weight float64
		desc   string
	}
	var candidates []candidate
	seen := map[world.GoalType]bool{}

	for _, trait := range world.TraitNames() {
		types, ok := traitGoalMappings[trait]
		if !ok {
			continue
		}
		value := agent.Traits.Get(trait)
		if value < 5 {
			continue
		}
		weight := float64(value-4) / 6.0
		for _, t := range types {
			if seen[t] {
				continue
			}
			seen[t] = true
			candidates = append(candidates, candidate{t: t, weight: weight, desc: desireDescriptions[t]})
		}
	}

	var goals []world.Goal
	for _, c := range candidates {
		if len(goals) >= maxDesires {
			break
		}
		if roll() >= c.weight {
			continue
		}
		priority := categoryBasePriority[world.CategoryDesire] + int(c.weight*3)
		if priority > 8 {
			priority = 8
		}
		goals = append(goals, newGoal(agent.ID, c.t, c.desc, priority, now))
	}
	return goals
}

// GenerateReactiveGoal creates a single event-triggered goal. A zero
// priority means "use the category default".
func GenerateReactiveGoal(agentID uuid.UUID, t world.GoalType, description string, targetID *uuid.UUID, priority int, now int64) world.Goal {
	if priority == 0 {
		priority = categoryBasePriority[world.CategoryReactive] + 2
	}
	if priority > 10 {
		priority = 10
	}
	g := newGoal(agentID, t, description, priority, now)
	g.TargetID = targetID
	return g
}

// GenerateGoals returns every applicable need goal, plus desire goals when
// includeDesires is true, sorted by raw priority descending.
func GenerateGoals(agent world.Agent, includeDesires bool, now int64) []world.Goal {
	goals := GenerateNeedGoals(agent, now)
	if includeDesires {
		goals = append(goals, GenerateDesireGoals(agent, 2, now)...)
	}
	sortByPriorityDesc(goals)
	return goals
}

func sortByPriorityDesc(goals []world.Goal) {
	for i := 1; i < len(goals); i++ {
		for j := i; j > 0 && goals[j].Priority > goals[j-1].Priority; j-- {
			goals[j], goals[j-1] = goals[j-1], goals[j]
		}
	}
}
