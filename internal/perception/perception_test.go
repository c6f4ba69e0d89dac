package perception

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/talgya/village-sim/internal/world"
)

func TestPerceiveExcludesSelfFromCoLocated(t *testing.T) {
	store := world.NewStore()
	loc := &world.Location{ID: uuid.New(), Name: "square", Objects: []string{"well"}}
	store.SeedLocation(loc)

	self := &world.Agent{ID: uuid.New(), Name: "Agnes", LocationID: loc.ID}
	other := &world.Agent{ID: uuid.New(), Name: "Bob", LocationID: loc.ID}
	store.SeedAgent(self)
	store.SeedAgent(other)

	p := Perceive(self.ID, store)
	require.Equal(t, "square", p.LocationName)
	require.Len(t, p.CoLocatedAgents, 1)
	require.Equal(t, "Bob", p.CoLocatedAgents[0].Name)
	require.Equal(t, []string{"well"}, p.Objects)
}

func TestPerceiveObjectsIsACopyNotAnAlias(t *testing.T) {
	store := world.NewStore()
	loc := &world.Location{ID: uuid.New(), Name: "square", Objects: []string{"well"}}
	store.SeedLocation(loc)
	self := &world.Agent{ID: uuid.New(), Name: "Agnes", LocationID: loc.ID}
	store.SeedAgent(self)

	p := Perceive(self.ID, store)
	p.Objects[0] = "mutated"

	again := Perceive(self.ID, store)
	require.Equal(t, "well", again.Objects[0], "mutating a returned Perception must not affect the store")
}

func TestPerceiveUnknownAgentReturnsZeroValue(t *testing.T) {
	store := world.NewStore()
	p := Perceive(uuid.New(), store)
	require.Equal(t, Perception{}, p)
}
