// Package lifeevent detects relationship-score threshold crossings and
// publishes them as milestone events. It is a pure event-bus subscriber:
// it never mutates world state directly, only reads relationship scores
// and republishes.
package lifeevent

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/talgya/village-sim/internal/event"
	"github.com/talgya/village-sim/internal/eventbus"
	"github.com/talgya/village-sim/internal/world"
)

// Type is the closed set of detectable milestones.
type Type string

const (
	Friendship     Type = "friendship"
	Marriage       Type = "marriage"
	Rivalry        Type = "rivalry"
	Feud           Type = "feud"
	Reconciliation Type = "reconciliation"
)

const (
	friendshipThreshold = 6
	marriageThreshold   = 8
	rivalryThreshold    = -5
	feudThreshold       = -8
)

// significance is the per-type event significance.
var significance = map[Type]int{
	Friendship:     6,
	Marriage:       10,
	Rivalry:        7,
	Feud:           8,
	Reconciliation: 8,
}

var descriptionTemplate = map[Type]string{
	Friendship:     "%s and %s have formed a deep and lasting friendship",
	Marriage:       "%s and %s have committed to a life partnership",
	Rivalry:        "A rivalry has sparked between %s and %s",
	Feud:           "An ongoing feud has erupted between %s and %s",
	Reconciliation: "%s and %s have reconciled their differences",
}

// tier classifies a relationship score into the milestone band it
// currently occupies, used to detect a crossing rather than re-firing
// every tick a score happens to sit above a threshold.
type tier int

const (
	tierFeud tier = iota
	tierRivalry
	tierNeutral
	tierFriendship
	tierMarriage
)

func classify(score int) tier {
	switch {
	case score <= feudThreshold:
		return tierFeud
	case score <= rivalryThreshold:
		return tierRivalry
	case score >= marriageThreshold:
		return tierMarriage
	case score >= friendshipThreshold:
		return tierFriendship
	default:
		return tierNeutral
	}
}

// Detector subscribes to a bus, watches every relationship-affecting
// event, and republishes a System event each time an edge crosses into a
// new milestone tier.
type Detector struct {
	store *world.Store
	bus   *eventbus.Bus
	sub   eventbus.Subscription

	lastTier map[world.RelationshipKey]tier
}

// NewDetector subscribes to bus immediately; call Drain periodically
// (the scheduler does this once per tick) to process queued events.
func NewDetector(store *world.Store, bus *eventbus.Bus) *Detector {
	return &Detector{
		store:    store,
		bus:      bus,
		sub:      bus.Subscribe(),
		lastTier: make(map[world.RelationshipKey]tier),
	}
}

// Close unsubscribes from the bus.
func (d *Detector) Close() {
	d.bus.Unsubscribe(d.sub)
}

// Drain processes every currently-queued event without blocking,
// evaluating relationship-edge transitions and publishing life events
// stamped with now.
func (d *Detector) Drain(now int64) {
	for {
		select {
		case e, ok := <-d.sub.Events:
			if !ok {
				return
			}
			d.handle(e, now)
		default:
			return
		}
	}
}

func (d *Detector) handle(e event.Event, now int64) {
	if e.Type != event.Relationship && e.Type != event.Action && e.Type != event.Dialogue {
		return
	}
	if len(e.Actors) < 2 {
		return
	}
	a, b := e.Actors[0], e.Actors[1]
	d.evaluateEdge(a, b, now)
	d.evaluateEdge(b, a, now)
}

func (d *Detector) evaluateEdge(src, dst uuid.UUID, now int64) {
	rel, ok := d.store.Relationship(src, dst)
	if !ok {
		return
	}
	key := world.RelationshipKey{AgentID: src, TargetID: dst}
	prev, seen := d.lastTier[key]
	curr := classify(rel.Score)
	d.lastTier[key] = curr
	if seen && prev == curr {
		return
	}
	if !seen {
		return // first observation establishes baseline, never fires
	}

	var t Type
	switch {
	case curr == tierMarriage && prev != tierMarriage:
		t = Marriage
	case curr == tierFriendship && prev != tierFriendship && prev != tierMarriage:
		t = Friendship
	case curr == tierFeud && prev != tierFeud:
		t = Feud
	case curr == tierRivalry && prev != tierRivalry && prev != tierFeud:
		t = Rivalry
	case (curr == tierNeutral || curr == tierFriendship || curr == tierMarriage) && (prev == tierRivalry || prev == tierFeud):
		t = Reconciliation
	default:
		return
	}

	srcAgent, ok1 := d.store.Agent(src)
	dstAgent, ok2 := d.store.Agent(dst)
	if !ok1 || !ok2 {
		return
	}

	d.bus.Publish(event.Event{
		ID:           uuid.New(),
		Type:         event.System,
		Summary:      fmt.Sprintf(descriptionTemplate[t], srcAgent.Name, dstAgent.Name),
		Timestamp:    now,
		Actors:       []uuid.UUID{src, dst},
		Significance: significance[t],
		Data:         map[string]any{"life_event_type": string(t)},
	})
}
