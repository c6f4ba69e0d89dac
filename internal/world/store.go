package world

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Store is the sole component that performs durable mutation of the
// village. Every mutator and every read takes the same mutex, so each
// operation sees a consistent state; reads do not run concurrently with
// each other or with writes.
type Store struct {
	mu sync.Mutex

	agents        map[uuid.UUID]*Agent
	agentOrder    []uuid.UUID // stable id order, fixed at seed time
	locations     map[uuid.UUID]*Location
	relationships map[RelationshipKey]*Relationship

	dayStart float64 // hour agents wake
	dayEnd   float64 // hour agents go to sleep

	clock Clock
}

// NewStore creates an empty store with the clock at day 1, hour 6, and
// the default 6:00-22:00 waking day.
func NewStore() *Store {
	return &Store{
		agents:        make(map[uuid.UUID]*Agent),
		locations:     make(map[uuid.UUID]*Location),
		relationships: make(map[RelationshipKey]*Relationship),
		dayStart:      defaultDayStart,
		dayEnd:        defaultDayEnd,
		clock: Clock{
			CurrentDay:  1,
			CurrentHour: 6.0,
			Season:      SeasonForDay(1),
			Weather:     "clear",
		},
	}
}

// SetDayWindow overrides the wake/sleep hours. Values outside [0,24) are
// ignored.
func (s *Store) SetDayWindow(start, end float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if start >= 0 && start < 24 {
		s.dayStart = start
	}
	if end >= 0 && end < 24 {
		s.dayEnd = end
	}
}

// SeedAgent registers a new agent. Intended for use during world seeding
// only — agents are never created mid-run.
func (s *Store) SeedAgent(a *Agent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents[a.ID] = a
	s.agentOrder = append(s.agentOrder, a.ID)
}

// SeedLocation registers a new location. Intended for use during world
// seeding only.
func (s *Store) SeedLocation(l *Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations[l.ID] = l
}

// AgentIDs returns agent ids in stable seed order (a defensive copy).
func (s *Store) AgentIDs() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uuid.UUID, len(s.agentOrder))
	copy(out, s.agentOrder)
	return out
}

// Agent returns a copy of the agent's current state.
func (s *Store) Agent(id uuid.UUID) (Agent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[id]
	if !ok {
		return Agent{}, false
	}
	return *a, true
}

// Location returns a copy of the location's current state.
func (s *Store) Location(id uuid.UUID) (Location, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locations[id]
	if !ok {
		return Location{}, false
	}
	return *l, true
}

// Relationship returns a copy of the relationship edge, if it exists.
func (s *Store) Relationship(src, dst uuid.UUID) (Relationship, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.relationships[RelationshipKey{src, dst}]
	if !ok {
		return Relationship{}, false
	}
	return *r, true
}

// Clock returns a copy of the current world clock.
func (s *Store) Clock() Clock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock
}

// AgentsAt returns the ids of agents currently at a location, excluding
// exclude (pass uuid.Nil to exclude none).
func (s *Store) AgentsAt(locationID, exclude uuid.UUID) []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []uuid.UUID
	for _, id := range s.agentOrder {
		a := s.agents[id]
		if a.LocationID == locationID && id != exclude {
			out = append(out, id)
		}
	}
	return out
}

// occupancyLocked returns the number of agents at a location. Caller must
// hold s.mu.
func (s *Store) occupancyLocked(locationID uuid.UUID) int {
	n := 0
	for _, id := range s.agentOrder {
		if s.agents[id].LocationID == locationID {
			n++
		}
	}
	return n
}

func clampNeed(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}

// MoveAgent relocates an agent. Precondition checking (connection,
// sleeping) is the caller's (executor's) responsibility; this is a
// primitive mutator.
func (s *Store) MoveAgent(id, location uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[id]
	if !ok {
		return fmt.Errorf("move_agent: unknown agent %s", id)
	}
	a.LocationID = location
	return nil
}

// SetState sets an agent's state variant.
func (s *Store) SetState(id uuid.UUID, state AgentState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[id]
	if !ok {
		return fmt.Errorf("set_state: unknown agent %s", id)
	}
	a.State = state
	return nil
}

// NeedName is the closed set of adjustable need fields.
type NeedName string

const (
	NeedHunger NeedName = "hunger"
	NeedEnergy NeedName = "energy"
	NeedSocial NeedName = "social"
)

// AdjustNeed applies a clamped delta to one of an agent's needs.
func (s *Store) AdjustNeed(id uuid.UUID, name NeedName, delta float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[id]
	if !ok {
		return fmt.Errorf("adjust_need: unknown agent %s", id)
	}
	switch name {
	case NeedHunger:
		a.Needs.Hunger = clampNeed(a.Needs.Hunger + delta)
	case NeedEnergy:
		a.Needs.Energy = clampNeed(a.Needs.Energy + delta)
	case NeedSocial:
		a.Needs.Social = clampNeed(a.Needs.Social + delta)
	default:
		return fmt.Errorf("adjust_need: unknown need %q", name)
	}
	return nil
}

// UpsertRelationship applies a scored delta to the src→dst edge, creating
// it with type "stranger" if absent. typeOverride, if non-empty, replaces
// the type. historyEntry, if non-empty, is appended (capped).
func (s *Store) UpsertRelationship(src, dst uuid.UUID, typeOverride string, deltaScore int, historyEntry string) error {
	if src == dst {
		return fmt.Errorf("upsert_relationship: agent_id must not equal target_id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := RelationshipKey{src, dst}
	r, ok := s.relationships[key]
	if !ok {
		r = &Relationship{AgentID: src, TargetID: dst, Type: "stranger", Score: 0}
		s.relationships[key] = r
	}
	if typeOverride != "" {
		r.Type = typeOverride
	}
	r.Score = clampScore(r.Score + deltaScore)
	if historyEntry != "" {
		r.AppendHistory(historyEntry)
	}
	return nil
}

// AddItem appends an item to an agent's inventory.
func (s *Store) AddItem(id uuid.UUID, item string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[id]
	if !ok {
		return fmt.Errorf("add_item: unknown agent %s", id)
	}
	a.Inventory = append(a.Inventory, item)
	return nil
}

// RemoveItem removes the first occurrence of item from an agent's
// inventory, reporting whether it was present.
func (s *Store) RemoveItem(id uuid.UUID, item string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[id]
	if !ok {
		return false, fmt.Errorf("remove_item: unknown agent %s", id)
	}
	for i, it := range a.Inventory {
		if it == item {
			a.Inventory = append(a.Inventory[:i], a.Inventory[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

const (
	defaultDayStart = 6.0
	defaultDayEnd   = 22.0

	// wakeWindowLength bounds how long after dayStart the wake transition
	// keeps firing, so a tick landing anywhere in the half hour catches it.
	wakeWindowLength = 0.5
)

// AdvanceTime advances the clock by minutes of in-world time: increments
// the tick, rolls the day at 24.0h, recomputes the season.
func (s *Store) AdvanceTime(minutes float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock.CurrentTick++
	s.clock.CurrentHour += minutes / 60.0
	for s.clock.CurrentHour >= 24.0 {
		s.clock.CurrentHour -= 24.0
		s.clock.CurrentDay++
	}
	s.clock.Season = SeasonForDay(s.clock.CurrentDay)
}

// SetWeather sets the clock's weather flavor string.
func (s *Store) SetWeather(weather string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock.Weather = weather
}

// WakeSleepingAgents wakes every sleeping agent if the current hour falls
// in the half-hour window starting at dayStart. Idempotent: calling twice
// within the window has the same effect as once (waking agents twice is a
// no-op past the first call).
func (s *Store) WakeSleepingAgents() {
	s.mu.Lock()
	defer s.mu.Unlock()
	hour := s.clock.CurrentHour
	if hour < s.dayStart || hour >= s.dayStart+wakeWindowLength {
		return
	}
	for _, id := range s.agentOrder {
		a := s.agents[id]
		if a.State == StateSleeping {
			a.State = StateIdle
		}
	}
}

// PutAgentsToSleep puts every non-sleeping agent to sleep outside the
// waking day (hour at or past dayEnd, or before dayStart). Idempotent
// within a tick.
func (s *Store) PutAgentsToSleep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	hour := s.clock.CurrentHour
	if !(hour >= s.dayEnd || hour < s.dayStart) {
		return
	}
	for _, id := range s.agentOrder {
		a := s.agents[id]
		if a.State != StateSleeping {
			a.State = StateSleeping
		}
	}
}

// UpdateNeeds applies the per-tick need formula to one agent over a
// fractional-hour delta: hunger rises, energy falls unless sleeping,
// social rises with company and falls alone.
func (s *Store) UpdateNeeds(id uuid.UUID, delta float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[id]
	if !ok {
		return fmt.Errorf("update_needs: unknown agent %s", id)
	}
	a.Needs.Hunger = clampNeed(a.Needs.Hunger + 0.5*delta)
	if a.State == StateSleeping {
		a.Needs.Energy = clampNeed(a.Needs.Energy + 2.0*delta)
	} else {
		a.Needs.Energy = clampNeed(a.Needs.Energy - 0.3*delta)
	}
	occupancy := s.occupancyLocked(a.LocationID)
	if occupancy > 1 {
		a.Needs.Social = clampNeed(a.Needs.Social + 0.5*delta)
	} else {
		a.Needs.Social = clampNeed(a.Needs.Social - 0.2*delta)
	}
	return nil
}

// AllAgents returns a snapshot copy of every agent, in stable id order.
func (s *Store) AllAgents() []Agent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Agent, 0, len(s.agentOrder))
	for _, id := range s.agentOrder {
		out = append(out, *s.agents[id])
	}
	return out
}

// AllLocations returns a snapshot copy of every location.
func (s *Store) AllLocations() []Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Location, 0, len(s.locations))
	for _, l := range s.locations {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// AllRelationships returns a snapshot copy of every relationship edge.
func (s *Store) AllRelationships() []Relationship {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Relationship, 0, len(s.relationships))
	for _, r := range s.relationships {
		out = append(out, *r)
	}
	return out
}

// Snapshot is a deep copy of the store's mutable state, used by the
// scheduler to roll back a tick aborted by a catastrophic error.
type Snapshot struct {
	agents        map[uuid.UUID]Agent
	locations     map[uuid.UUID]Location
	relationships map[RelationshipKey]Relationship
	clock         Clock
}

// Snapshot captures the store's current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	agents := make(map[uuid.UUID]Agent, len(s.agents))
	for id, a := range s.agents {
		cp := *a
		cp.Inventory = append([]string(nil), a.Inventory...)
		agents[id] = cp
	}
	locations := make(map[uuid.UUID]Location, len(s.locations))
	for id, l := range s.locations {
		locations[id] = *l
	}
	relationships := make(map[RelationshipKey]Relationship, len(s.relationships))
	for k, r := range s.relationships {
		cp := *r
		cp.History = append([]string(nil), r.History...)
		relationships[k] = cp
	}
	return Snapshot{agents: agents, locations: locations, relationships: relationships, clock: s.clock}
}

// Restore replaces the store's state with a previously captured
// Snapshot. agentOrder is left untouched since seeding never changes
// mid-run.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, a := range snap.agents {
		cp := a
		s.agents[id] = &cp
	}
	for id, l := range snap.locations {
		cp := l
		s.locations[id] = &cp
	}
	s.relationships = make(map[RelationshipKey]*Relationship, len(snap.relationships))
	for k, r := range snap.relationships {
		cp := r
		s.relationships[k] = &cp
	}
	s.clock = snap.clock
}
