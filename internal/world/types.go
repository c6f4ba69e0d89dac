// Package world owns the simulation's entities and the single transactional
// store that mutates them.
package world

import (
	"fmt"

	"github.com/google/uuid"
)

// AgentState is the closed set of states an agent may occupy.
type AgentState string

const (
	StateIdle     AgentState = "idle"
	StateBusy     AgentState = "busy"
	StateSleeping AgentState = "sleeping"
)

// TraitSet holds the eight immutable personality dimensions, each in [1,10].
type TraitSet struct {
	Openness          int
	Conscientiousness int
	Extraversion      int
	Agreeableness     int
	Neuroticism       int
	Curiosity         int
	Ambition          int
	Empathy           int
}

// Get returns the value of a named trait, or 0 if unknown.
func (t TraitSet) Get(name string) int {
	switch name {
	case "openness":
		return t.Openness
	case "conscientiousness":
		return t.Conscientiousness
	case "extraversion":
		return t.Extraversion
	case "agreeableness":
		return t.Agreeableness
	case "neuroticism":
		return t.Neuroticism
	case "curiosity":
		return t.Curiosity
	case "ambition":
		return t.Ambition
	case "empathy":
		return t.Empathy
	default:
		return 0
	}
}

// Names lists the eight trait names in a stable order.
func TraitNames() []string {
	return []string{
		"openness", "conscientiousness", "extraversion", "agreeableness",
		"neuroticism", "curiosity", "ambition", "empathy",
	}
}

// Mood is an agent's short-term emotional reading.
type Mood struct {
	Happiness int // [0,10]
	Energy    int // [0,10]
}

// Needs are the three continuous needs an agent tracks, each clamped to [0,10].
type Needs struct {
	Hunger float64
	Energy float64
	Social float64
}

// Agent is a village inhabitant. Created at seeding, mutated only through
// Action effects, need-tick, or sleep/wake; never destroyed during a run.
type Agent struct {
	ID         uuid.UUID
	Name       string
	Traits     TraitSet
	Prompt     string // narrative flavor text injected into decider prompts
	LocationID uuid.UUID
	Inventory  []string
	Mood       Mood
	Needs      Needs
	State      AgentState
}

// Location is an immutable-after-seed node in the village's connection graph.
type Location struct {
	ID          uuid.UUID
	Name        string
	Description string
	Connections []uuid.UUID
	Objects     []string
	Capacity    int
}

// HasConnection reports whether dest is directly reachable from this location.
func (l Location) HasConnection(dest uuid.UUID) bool {
	for _, c := range l.Connections {
		if c == dest {
			return true
		}
	}
	return false
}

// HasObject reports whether obj is present at this location.
func (l Location) HasObject(obj string) bool {
	for _, o := range l.Objects {
		if o == obj {
			return true
		}
	}
	return false
}

// RelationshipKey identifies a directed edge from AgentID to TargetID.
type RelationshipKey struct {
	AgentID  uuid.UUID
	TargetID uuid.UUID
}

// Relationship is a directed, scored edge between two agents.
type Relationship struct {
	AgentID  uuid.UUID
	TargetID uuid.UUID
	Type     string
	Score    int // [-10,10]
	History  []string
}

const relationshipHistoryCap = 10

// AppendHistory adds a short note, dropping the oldest entry past the cap.
func (r *Relationship) AppendHistory(note string) {
	r.History = append(r.History, note)
	if len(r.History) > relationshipHistoryCap {
		r.History = r.History[len(r.History)-relationshipHistoryCap:]
	}
}

func clampScore(v int) int {
	if v > 10 {
		return 10
	}
	if v < -10 {
		return -10
	}
	return v
}

// MemoryKind is the closed set of memory tiers.
type MemoryKind string

const (
	MemoryWorking  MemoryKind = "working"
	MemoryRecent   MemoryKind = "recent"
	MemoryLongterm MemoryKind = "longterm"
)

// Memory belongs to exactly one agent.
type Memory struct {
	ID           uuid.UUID
	AgentID      uuid.UUID
	Kind         MemoryKind
	Content      string
	Significance int // [1,10]
	Timestamp    int64
	Compressed   bool
}

// GoalStatus is the closed set of goal lifecycle states.
type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalFailed    GoalStatus = "failed"
	GoalAbandoned GoalStatus = "abandoned"
)

// GoalCategory is derived from GoalType.
type GoalCategory string

const (
	CategoryNeed     GoalCategory = "need"
	CategoryDesire   GoalCategory = "desire"
	CategoryReactive GoalCategory = "reactive"
)

// GoalType is the closed set of goal types.
type GoalType string

const (
	GoalEat           GoalType = "eat"
	GoalSleep         GoalType = "sleep"
	GoalSocialize     GoalType = "socialize"
	GoalInvestigate   GoalType = "investigate"
	GoalGainWealth    GoalType = "gain_wealth"
	GoalMakeFriend    GoalType = "make_friend"
	GoalFindRomance   GoalType = "find_romance"
	GoalGainKnowledge GoalType = "gain_knowledge"
	GoalHelpOthers    GoalType = "help_others"
	GoalGainPower     GoalType = "gain_power"
	GoalExplore       GoalType = "explore"
	GoalHelpFriend    GoalType = "help_friend"
	GoalConfront      GoalType = "confront"
	GoalSeekRevenge   GoalType = "seek_revenge"
	GoalApologize     GoalType = "apologize"
)

// Goal belongs to exactly one agent.
type Goal struct {
	ID          uuid.UUID
	AgentID     uuid.UUID
	Type        GoalType
	TargetID    *uuid.UUID
	Priority    int // [1,10]
	Description string
	Status      GoalStatus
	CreatedAt   int64
}

// Category derives the goal's category from its type.
func (g Goal) Category() GoalCategory {
	switch g.Type {
	case GoalEat, GoalSleep, GoalSocialize:
		return CategoryNeed
	case GoalHelpFriend, GoalConfront, GoalSeekRevenge, GoalApologize:
		return CategoryReactive
	default:
		return CategoryDesire
	}
}

// Season cycles from the day index.
type Season string

const (
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonAutumn Season = "autumn"
	SeasonWinter Season = "winter"
)

var seasonCycle = [4]Season{SeasonSpring, SeasonSummer, SeasonAutumn, SeasonWinter}

// SeasonForDay computes the season for a given 1-indexed day: thirty days
// per season, cycling through the fixed order.
func SeasonForDay(day int) Season {
	if day < 1 {
		day = 1
	}
	idx := ((day - 1) / 30) % 4
	return seasonCycle[idx]
}

// Clock is the mutable singleton world clock.
type Clock struct {
	CurrentTick uint64
	CurrentDay  int
	CurrentHour float64
	Season      Season
	Weather     string
}

func (c Clock) String() string {
	return fmt.Sprintf("day %d %.2fh (%s, %s)", c.CurrentDay, c.CurrentHour, c.Season, c.Weather)
}
