// Package perception is a pure, side-effect-free projection of world
// state into what a given agent can observe.
package perception

import (
	"github.com/google/uuid"

	"github.com/talgya/village-sim/internal/world"
)

// Perception is the read-only view passed to the action decider.
type Perception struct {
	LocationName    string
	CoLocatedAgents []CoLocatedAgent
	Objects         []string
}

// CoLocatedAgent names another agent sharing the perceiving agent's
// location.
type CoLocatedAgent struct {
	ID   uuid.UUID
	Name string
}

// Perceive projects the store's current state into what agent can see.
// Safe to call multiple times per tick; never mutates the store.
func Perceive(agentID uuid.UUID, store *world.Store) Perception {
	a, ok := store.Agent(agentID)
	if !ok {
		return Perception{}
	}
	loc, ok := store.Location(a.LocationID)
	if !ok {
		return Perception{}
	}

	var coLocated []CoLocatedAgent
	for _, otherID := range store.AgentsAt(a.LocationID, agentID) {
		other, ok := store.Agent(otherID)
		if !ok {
			continue
		}
		coLocated = append(coLocated, CoLocatedAgent{ID: other.ID, Name: other.Name})
	}

	objects := make([]string, len(loc.Objects))
	copy(objects, loc.Objects)

	return Perception{
		LocationName:    loc.Name,
		CoLocatedAgents: coLocated,
		Objects:         objects,
	}
}
