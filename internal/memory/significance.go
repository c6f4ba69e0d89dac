// Package memory implements the three-tier memory model (working, recent,
// long-term), significance scoring, decay, and end-of-day compression.
package memory

const (
	// SignificanceThresholdForSummary is the minimum significance for a
	// memory to feed the daily summary.
	SignificanceThresholdForSummary = 4
	// SignificanceThresholdForLongterm is the minimum significance for a
	// memory to be promoted into a long-term fact.
	SignificanceThresholdForLongterm = 6
	// neverDecaysThreshold is the significance at or above which a memory
	// never decays.
	neverDecaysThreshold = 8
)

// EventCategory is the closed set of categories base significance is
// keyed on.
type EventCategory string

const (
	CategoryDialogue     EventCategory = "dialogue"
	CategoryGreeting     EventCategory = "greeting"
	CategoryMovement     EventCategory = "movement"
	CategoryAction       EventCategory = "action"
	CategoryDiscovery    EventCategory = "discovery"
	CategoryRelationship EventCategory = "relationship"
	CategoryConflict     EventCategory = "conflict"
	CategorySecret       EventCategory = "secret"
	CategoryBetrayal     EventCategory = "betrayal"
	CategoryRomance      EventCategory = "romance"
	CategoryDeath        EventCategory = "death"
	CategoryGift         EventCategory = "gift"
	CategoryHelp         EventCategory = "help"
	CategoryInsult       EventCategory = "insult"
	CategoryGossip       EventCategory = "gossip"
)

// baseScores is the category->base-significance table.
var baseScores = map[EventCategory]int{
	CategoryDialogue:     3,
	CategoryGreeting:     2,
	CategoryMovement:     1,
	CategoryAction:       4,
	CategoryDiscovery:    6,
	CategoryRelationship: 5,
	CategoryConflict:     7,
	CategorySecret:       8,
	CategoryBetrayal:     9,
	CategoryRomance:      7,
	CategoryDeath:        10,
	CategoryGift:         4,
	CategoryHelp:         4,
	CategoryInsult:       6,
	CategoryGossip:       5,
}

// ScoringContext carries the modifiers applied on top of a category's base
// score.
type ScoringContext struct {
	InvolvesSelf    bool
	InvolvesFriend  bool
	InvolvesRival   bool
	IsFirstTime     bool
	EmotionalImpact int
}

// Significance computes a 1-10 memory importance score: the category's
// base score plus modifiers, clamped to [1, 10].
func Significance(category EventCategory, ctx ScoringContext) int {
	score := baseScores[category]
	if ctx.InvolvesSelf {
		score++
	}
	if ctx.InvolvesFriend {
		score += 2
	}
	if ctx.InvolvesRival {
		score += 2
	}
	if ctx.IsFirstTime {
		score += 2
	}
	score += ctx.EmotionalImpact

	if score < 1 {
		score = 1
	}
	if score > 10 {
		score = 10
	}
	return score
}

// Decay applies the time-based decay rule: significance >= 8 never decays;
// otherwise it loses one point per two full days elapsed, at half that
// rate for memories still at 5-7 significance.
func Decay(currentSignificance int, hoursSinceTimestamp int64) int {
	if currentSignificance >= neverDecaysThreshold {
		return currentSignificance
	}
	daysPassed := hoursSinceTimestamp / 24
	amount := daysPassed / 2
	if currentSignificance >= 5 {
		amount /= 2
	}
	result := currentSignificance - int(amount)
	if result < 1 {
		result = 1
	}
	return result
}
