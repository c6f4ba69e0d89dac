package action

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/village-sim/internal/event"
	"github.com/talgya/village-sim/internal/world"
)

// baseSignificance gives each verb a fixed event significance (1-10).
var baseSignificance = map[Kind]int{
	Move: 1, Examine: 1, Take: 4, Drop: 4, Use: 4, Wait: 1, Sleep: 1, Work: 4,
	Greet: 2, Talk: 3, Ask: 3, Tell: 3, Give: 4, Help: 4, Confront: 7, Avoid: 3,
	Investigate: 6, Gossip: 5, Scheme: 6, Confess: 8, Observe: 2,
}

func eventTypeFor(a Action) event.Type {
	switch {
	case a.Kind == Move:
		return event.Movement
	case a.IsDialogue():
		return event.Dialogue
	default:
		return event.Action
	}
}

func fail(reason string) Result {
	return Result{Success: false, Reason: reason}
}

func coLocated(store *world.Store, actorLoc, targetID uuid.UUID) bool {
	for _, id := range store.AgentsAt(actorLoc, uuid.Nil) {
		if id == targetID {
			return true
		}
	}
	return false
}

// dispatch maps each verb to its effect function. Each function assumes
// preconditions already hold and applies the effects, returning the
// success Result.
type effectFn func(a Action, actor world.Agent, store *world.Store) Result

var dispatch = map[Kind]effectFn{
	Move: func(a Action, actor world.Agent, store *world.Store) Result {
		dest := *a.TargetID
		_ = store.MoveAgent(actor.ID, dest)
		return Result{Success: true, Message: "moved"}
	},
	Examine: func(a Action, actor world.Agent, store *world.Store) Result {
		return Result{Success: true, Message: fmt.Sprintf("examined %s", a.TargetObject)}
	},
	Take: func(a Action, actor world.Agent, store *world.Store) Result {
		_ = store.AddItem(actor.ID, a.TargetObject)
		return Result{Success: true, Message: fmt.Sprintf("took %s", a.TargetObject)}
	},
	Drop: func(a Action, actor world.Agent, store *world.Store) Result {
		_, _ = store.RemoveItem(actor.ID, a.TargetObject)
		return Result{Success: true, Message: fmt.Sprintf("dropped %s", a.TargetObject)}
	},
	Use: func(a Action, actor world.Agent, store *world.Store) Result {
		return Result{Success: true, Message: fmt.Sprintf("used %s", a.TargetObject)}
	},
	Wait: func(a Action, actor world.Agent, store *world.Store) Result {
		return Result{Success: true, Message: "waited"}
	},
	Sleep: func(a Action, actor world.Agent, store *world.Store) Result {
		_ = store.SetState(actor.ID, world.StateSleeping)
		return Result{Success: true, Message: "fell asleep"}
	},
	Work: func(a Action, actor world.Agent, store *world.Store) Result {
		_ = store.AdjustNeed(actor.ID, world.NeedHunger, 0.5)
		_ = store.AdjustNeed(actor.ID, world.NeedEnergy, -1.0)
		return Result{Success: true, Message: fmt.Sprintf("worked (%s)", param(a, "job_kind"))}
	},
	Greet: func(a Action, actor world.Agent, store *world.Store) Result {
		t := *a.TargetID
		_ = store.UpsertRelationship(actor.ID, t, "", 1, "greeted")
		return Result{Success: true, Message: "greeted"}
	},
	Talk: func(a Action, actor world.Agent, store *world.Store) Result {
		t := *a.TargetID
		_ = store.AdjustNeed(actor.ID, world.NeedSocial, 1)
		_ = store.AdjustNeed(t, world.NeedSocial, 1)
		_ = store.UpsertRelationship(actor.ID, t, "", 1, "talked")
		_ = store.UpsertRelationship(t, actor.ID, "", 1, "talked")
		return Result{Success: true, Message: fmt.Sprintf("talked about %s", param(a, "topic"))}
	},
	Ask: func(a Action, actor world.Agent, store *world.Store) Result {
		t := *a.TargetID
		_ = store.UpsertRelationship(actor.ID, t, "", 0, "")
		return Result{Success: true, Message: fmt.Sprintf("asked %q", param(a, "question"))}
	},
	Tell: func(a Action, actor world.Agent, store *world.Store) Result {
		t := *a.TargetID
		_ = store.UpsertRelationship(actor.ID, t, "", 1, "")
		return Result{Success: true, Message: fmt.Sprintf("told %q", param(a, "information"))}
	},
	Give: func(a Action, actor world.Agent, store *world.Store) Result {
		t := *a.TargetID
		_, _ = store.RemoveItem(actor.ID, a.TargetObject)
		_ = store.AddItem(t, a.TargetObject)
		_ = store.UpsertRelationship(actor.ID, t, "", 2, "gave "+a.TargetObject)
		_ = store.UpsertRelationship(t, actor.ID, "", 2, "received "+a.TargetObject)
		return Result{Success: true, Message: fmt.Sprintf("gave %s", a.TargetObject)}
	},
	Help: func(a Action, actor world.Agent, store *world.Store) Result {
		t := *a.TargetID
		_ = store.UpsertRelationship(t, actor.ID, "", 2, "helped with "+param(a, "task"))
		_ = store.UpsertRelationship(actor.ID, t, "", 1, "")
		return Result{Success: true, Message: fmt.Sprintf("helped with %s", param(a, "task"))}
	},
	Confront: func(a Action, actor world.Agent, store *world.Store) Result {
		t := *a.TargetID
		_ = store.UpsertRelationship(t, actor.ID, "", -2, "confronted: "+param(a, "accusation"))
		_ = store.UpsertRelationship(actor.ID, t, "", -1, "")
		return Result{Success: true, Message: fmt.Sprintf("confronted over %q", param(a, "accusation"))}
	},
	Avoid: func(a Action, actor world.Agent, store *world.Store) Result {
		t := *a.TargetID
		_ = store.UpsertRelationship(actor.ID, t, "", -1, "avoided")
		return Result{Success: true, Message: "avoided"}
	},
	Gossip: func(a Action, actor world.Agent, store *world.Store) Result {
		t := *a.TargetID
		_ = store.UpsertRelationship(actor.ID, t, "", 1, "gossiped")
		subjectID, err := uuid.Parse(param(a, "subject_id"))
		if err == nil {
			_ = store.UpsertRelationship(actor.ID, subjectID, "", -1, "")
		}
		return Result{Success: true, Message: fmt.Sprintf("gossiped about: %s", param(a, "rumor"))}
	},
	Investigate: func(a Action, actor world.Agent, store *world.Store) Result {
		return Result{Success: true, Message: fmt.Sprintf("investigated %s", param(a, "mystery"))}
	},
	Scheme: func(a Action, actor world.Agent, store *world.Store) Result {
		return Result{Success: true, Message: fmt.Sprintf("schemed: %s", param(a, "plan"))}
	},
	Confess: func(a Action, actor world.Agent, store *world.Store) Result {
		return Result{Success: true, Message: fmt.Sprintf("confessed: %s", param(a, "secret"))}
	},
	Observe: func(a Action, actor world.Agent, store *world.Store) Result {
		return Result{Success: true, Message: "observed"}
	},
}

// Execute checks preconditions, and on success applies effects through the
// world store's mutators, returning the Result and — on success only — the
// one Event the action yields. Each mutator takes the store lock on its
// own; an effect made of several writes (talk, give, help, ...) is not
// applied under a single lock hold.
func Execute(a Action, store *world.Store, now int64) (Result, *event.Event) {
	actor, ok := store.Agent(a.ActorID)
	if !ok {
		return fail(fmt.Sprintf("unknown actor %s", a.ActorID)), nil
	}

	if res, ok := checkPrecondition(a, actor, store); !ok {
		return res, nil
	}

	fn, ok := dispatch[a.Kind]
	if !ok {
		return fail(fmt.Sprintf("unrecognized action kind %q", a.Kind)), nil
	}
	result := fn(a, actor, store)
	if !result.Success {
		return result, nil
	}

	evt := &event.Event{
		ID:           uuid.New(),
		Type:         eventTypeFor(a),
		Summary:      result.Message,
		Timestamp:    now,
		Actors:       actorList(a),
		LocationID:   locationPtr(actor.LocationID),
		Significance: baseSignificance[a.Kind],
		Data:         map[string]any{"kind": string(a.Kind)},
	}
	return result, evt
}

func actorList(a Action) []uuid.UUID {
	if a.TargetID != nil {
		return []uuid.UUID{a.ActorID, *a.TargetID}
	}
	return []uuid.UUID{a.ActorID}
}

func locationPtr(id uuid.UUID) *uuid.UUID {
	return &id
}

// checkPrecondition applies the full effect table's precondition column.
// Returns (failureResult, false) if a precondition is not met. Every verb
// except sleep itself requires a waking actor.
func checkPrecondition(a Action, actor world.Agent, store *world.Store) (Result, bool) {
	if a.Kind != Sleep && actor.State == world.StateSleeping {
		return fail("agent is asleep"), false
	}

	requireCoLocated := func() (Result, bool) {
		if a.TargetID == nil {
			return fail("missing target"), false
		}
		if *a.TargetID == a.ActorID {
			return fail("actor and target must differ"), false
		}
		if !coLocated(store, actor.LocationID, *a.TargetID) {
			return fail("target is not co-located"), false
		}
		return Result{}, true
	}

	switch a.Kind {
	case Move:
		loc, ok := store.Location(actor.LocationID)
		if !ok || a.TargetID == nil || !loc.HasConnection(*a.TargetID) {
			return fail("destination is not connected"), false
		}
	case Examine:
		loc, ok := store.Location(actor.LocationID)
		if !ok || !loc.HasObject(a.TargetObject) {
			return fail("object is not present"), false
		}
	case Take:
		loc, ok := store.Location(actor.LocationID)
		if !ok || !loc.HasObject(a.TargetObject) {
			return fail("item is not present"), false
		}
	case Drop:
		found := false
		for _, it := range actor.Inventory {
			if it == a.TargetObject {
				found = true
				break
			}
		}
		if !found {
			return fail("item not in inventory"), false
		}
	case Wait, Observe, Sleep, Work, Investigate, Scheme, Confess:
		// No further preconditions.
	case Avoid:
		if a.TargetID == nil {
			return fail("missing target"), false
		}
		if *a.TargetID == a.ActorID {
			return fail("actor and target must differ"), false
		}
	case Greet, Talk, Ask, Tell, Give, Help, Confront:
		if res, ok := requireCoLocated(); !ok {
			return res, false
		}
		if a.Kind == Give {
			found := false
			for _, it := range actor.Inventory {
				if it == a.TargetObject {
					found = true
					break
				}
			}
			if !found {
				return fail("item not in inventory"), false
			}
		}
	case Gossip:
		if res, ok := requireCoLocated(); !ok {
			return res, false
		}
		subjectID, err := uuid.Parse(param(a, "subject_id"))
		if err != nil || subjectID == a.ActorID || subjectID == *a.TargetID {
			return fail("subject must differ from actor and target"), false
		}
	default:
		return fail(fmt.Sprintf("unrecognized action kind %q", a.Kind)), false
	}
	return Result{}, true
}

// Now is a seam for tests; production callers pass the scheduler's tick
// clock instead.
func Now() int64 { return time.Now().Unix() }
