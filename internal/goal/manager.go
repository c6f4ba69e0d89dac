package goal

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/talgya/village-sim/internal/world"
)

const (
	reactiveExpiryHours = 2
	desireExpiryHours   = 24
)

// Manager owns every agent's active goal set and runs the per-tick
// refresh cycle.
type Manager struct {
	mu     sync.Mutex
	active map[uuid.UUID][]world.Goal
}

// NewManager builds an empty goal manager.
func NewManager() *Manager {
	return &Manager{active: make(map[uuid.UUID][]world.Goal)}
}

// Active returns a copy of agentID's current active goals in the order
// the last Refresh ranked them (Prioritize's weighted score, not raw
// priority); goals added by AddReactive since then sit at the end.
func (m *Manager) Active(agentID uuid.UUID) []world.Goal {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]world.Goal, len(m.active[agentID]))
	copy(out, m.active[agentID])
	return out
}

// TopGoal returns the first goal in Active's order, if any.
func (m *Manager) TopGoal(agentID uuid.UUID) (world.Goal, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	goals := m.active[agentID]
	if len(goals) == 0 {
		return world.Goal{}, false
	}
	return goals[0], true
}

// AddReactive injects an externally-triggered goal directly into the
// active set; the next Refresh re-sorts and re-resolves conflicts.
func (m *Manager) AddReactive(agentID uuid.UUID, g world.Goal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active[agentID] = append(m.active[agentID], g)
}

// checkCompletion returns the goal's new status given the agent's current
// needs and the goal's age.
func checkCompletion(g world.Goal, agent world.Agent, nowUnix int64) world.GoalStatus {
	switch g.Type {
	case world.GoalEat:
		if agent.Needs.Hunger <= 2 {
			return world.GoalCompleted
		}
		if agent.Needs.Hunger >= 10 {
			return world.GoalFailed
		}
	case world.GoalSleep:
		if agent.Needs.Energy >= 8 {
			return world.GoalCompleted
		}
	case world.GoalSocialize:
		if agent.Needs.Social >= 7 {
			return world.GoalCompleted
		}
	}

	ageHours := float64(nowUnix-g.CreatedAt) / 3600.0
	switch g.Category() {
	case world.CategoryReactive:
		if ageHours > reactiveExpiryHours {
			return world.GoalFailed
		}
	case world.CategoryDesire:
		if ageHours > desireExpiryHours {
			return world.GoalFailed
		}
	}
	return world.GoalActive
}

// Prioritize sorts goals by a weighted score: base priority (x10) plus a
// category bonus (need=30, reactive=15, desire=0) plus up to +5 for age
// (+1 per 720 seconds between CreatedAt and nowUnix).
func Prioritize(goals []world.Goal, nowUnix int64) []world.Goal {
	sorted := make([]world.Goal, len(goals))
	copy(sorted, goals)

	score := func(g world.Goal) float64 {
		base := float64(g.Priority) * 10
		var categoryBonus float64
		switch g.Category() {
		case world.CategoryNeed:
			categoryBonus = 30
		case world.CategoryReactive:
			categoryBonus = 15
		case world.CategoryDesire:
			categoryBonus = 0
		}
		ageSeconds := float64(nowUnix - g.CreatedAt)
		ageBonus := ageSeconds / 720
		if ageBonus > 5 {
			ageBonus = 5
		}
		if ageBonus < 0 {
			ageBonus = 0
		}
		return base + categoryBonus + ageBonus
	}

	sort.SliceStable(sorted, func(i, j int) bool { return score(sorted[i]) > score(sorted[j]) })
	return sorted
}

// ResolveConflicts walks goals in priority order, keeping at most one
// goal per need type and dropping either side of a help_friend/confront
// or seek_revenge/apologize pair once the higher-priority one is kept.
func ResolveConflicts(goals []world.Goal) []world.Goal {
	var resolved []world.Goal
	seenNeedType := map[world.GoalType]bool{}
	seenTargetTypes := map[uuid.UUID]map[world.GoalType]bool{}

	conflicts := func(a, b world.GoalType) bool {
		return (a == world.GoalHelpFriend && b == world.GoalConfront) ||
			(a == world.GoalConfront && b == world.GoalHelpFriend) ||
			(a == world.GoalSeekRevenge && b == world.GoalApologize) ||
			(a == world.GoalApologize && b == world.GoalSeekRevenge)
	}

	for _, g := range goals {
		if g.Type == world.GoalEat || g.Type == world.GoalSleep || g.Type == world.GoalSocialize {
			if seenNeedType[g.Type] {
				continue
			}
			seenNeedType[g.Type] = true
		}

		if g.TargetID != nil {
			targetTypes := seenTargetTypes[*g.TargetID]
			skip := false
			for existingType := range targetTypes {
				if conflicts(g.Type, existingType) {
					skip = true
					break
				}
			}
			if skip {
				continue
			}
			if targetTypes == nil {
				targetTypes = map[world.GoalType]bool{}
				seenTargetTypes[*g.TargetID] = targetTypes
			}
			targetTypes[g.Type] = true
		}

		resolved = append(resolved, g)
	}
	return resolved
}

// Refresh runs the full per-tick cycle for one agent: reap completed or
// failed goals, regenerate need goals, regenerate desire goals when fewer
// than two are active, dedupe against what survived, prioritize, and
// resolve conflicts. The resulting active set replaces the prior one.
func (m *Manager) Refresh(agent world.Agent, nowUnix int64) []world.Goal {
	m.mu.Lock()
	existing := m.active[agent.ID]
	m.mu.Unlock()

	var stillActive []world.Goal
	for _, g := range existing {
		if checkCompletion(g, agent, nowUnix) == world.GoalActive {
			stillActive = append(stillActive, g)
		}
	}

	activeDesires := 0
	for _, g := range stillActive {
		if g.Category() == world.CategoryDesire {
			activeDesires++
		}
	}
	includeDesires := activeDesires < 2

	newGoals := GenerateGoals(agent, includeDesires, nowUnix)

	type dedupeKey struct {
		t      world.GoalType
		target uuid.UUID
	}
	existingKeys := map[dedupeKey]bool{}
	for _, g := range stillActive {
		var target uuid.UUID
		if g.TargetID != nil {
			target = *g.TargetID
		}
		existingKeys[dedupeKey{g.Type, target}] = true
	}

	for _, ng := range newGoals {
		var target uuid.UUID
		if ng.TargetID != nil {
			target = *ng.TargetID
		}
		key := dedupeKey{ng.Type, target}
		if existingKeys[key] {
			continue
		}
		existingKeys[key] = true
		stillActive = append(stillActive, ng)
	}

	stillActive = Prioritize(stillActive, nowUnix)
	stillActive = ResolveConflicts(stillActive)

	m.mu.Lock()
	m.active[agent.ID] = stillActive
	m.mu.Unlock()

	return stillActive
}
