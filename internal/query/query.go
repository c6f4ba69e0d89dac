// Package query holds the pure read-side projections handed to external
// read-only consumers: world snapshot, per-agent detail, the relationship
// graph, positions grouped by location, and event-rate buckets. Nothing
// here mutates state.
package query

import (
	"sort"

	"github.com/google/uuid"

	"github.com/talgya/village-sim/internal/event"
	"github.com/talgya/village-sim/internal/world"
)

// WorldSnapshot is the top-level world summary.
type WorldSnapshot struct {
	Tick          uint64
	Day           int
	Hour          float64
	Season        string
	Weather       string
	AgentCount    int
	LocationCount int
}

// Snapshot projects the store's clock and entity counts.
func Snapshot(store *world.Store) WorldSnapshot {
	clock := store.Clock()
	return WorldSnapshot{
		Tick:          clock.CurrentTick,
		Day:           clock.CurrentDay,
		Hour:          clock.CurrentHour,
		Season:        string(clock.Season),
		Weather:       clock.Weather,
		AgentCount:    len(store.AllAgents()),
		LocationCount: len(store.AllLocations()),
	}
}

// AgentDetail is the full read-only view of one agent.
type AgentDetail struct {
	ID           uuid.UUID
	Name         string
	LocationID   uuid.UUID
	LocationName string
	State        string
	Needs        world.Needs
	Mood         world.Mood
	Inventory    []string
}

// Agent projects one agent's current detail, reporting false if the id is
// unknown.
func Agent(store *world.Store, id uuid.UUID) (AgentDetail, bool) {
	a, ok := store.Agent(id)
	if !ok {
		return AgentDetail{}, false
	}
	locName := ""
	if loc, ok := store.Location(a.LocationID); ok {
		locName = loc.Name
	}
	return AgentDetail{
		ID:           a.ID,
		Name:         a.Name,
		LocationID:   a.LocationID,
		LocationName: locName,
		State:        string(a.State),
		Needs:        a.Needs,
		Mood:         a.Mood,
		Inventory:    append([]string(nil), a.Inventory...),
	}, true
}

// GraphNode is one agent in the relationship graph.
type GraphNode struct {
	ID   uuid.UUID
	Name string
}

// GraphEdge is one directed, scored relationship edge.
type GraphEdge struct {
	Source uuid.UUID
	Target uuid.UUID
	Type   string
	Score  int
}

// RelationshipGraph is the nodes-and-edges projection of every agent and
// every relationship edge.
type RelationshipGraph struct {
	Nodes []GraphNode
	Edges []GraphEdge
}

// Relationships builds the full relationship graph. Node order follows
// the store's stable agent order; edge order is sorted by (source,
// target) for a deterministic projection.
func Relationships(store *world.Store) RelationshipGraph {
	var g RelationshipGraph
	for _, a := range store.AllAgents() {
		g.Nodes = append(g.Nodes, GraphNode{ID: a.ID, Name: a.Name})
	}
	for _, r := range store.AllRelationships() {
		g.Edges = append(g.Edges, GraphEdge{
			Source: r.AgentID,
			Target: r.TargetID,
			Type:   r.Type,
			Score:  r.Score,
		})
	}
	sort.Slice(g.Edges, func(i, j int) bool {
		if g.Edges[i].Source != g.Edges[j].Source {
			return g.Edges[i].Source.String() < g.Edges[j].Source.String()
		}
		return g.Edges[i].Target.String() < g.Edges[j].Target.String()
	})
	return g
}

// LocationGroup lists the agents currently at one location.
type LocationGroup struct {
	LocationID   uuid.UUID
	LocationName string
	AgentIDs     []uuid.UUID
	AgentNames   []string
}

// Positions groups every agent by its current location, one group per
// location (including empty ones), sorted by location name.
func Positions(store *world.Store) []LocationGroup {
	groups := make(map[uuid.UUID]*LocationGroup)
	var out []LocationGroup

	for _, l := range store.AllLocations() {
		g := &LocationGroup{LocationID: l.ID, LocationName: l.Name}
		groups[l.ID] = g
	}
	for _, a := range store.AllAgents() {
		g, ok := groups[a.LocationID]
		if !ok {
			continue
		}
		g.AgentIDs = append(g.AgentIDs, a.ID)
		g.AgentNames = append(g.AgentNames, a.Name)
	}
	for _, l := range store.AllLocations() {
		out = append(out, *groups[l.ID])
	}
	return out
}

// RateBucket counts the events whose timestamps fall in [Start,
// Start+bucket).
type RateBucket struct {
	Start  int64
	Count  int
	ByType map[event.Type]int
}

// EventRates aggregates history into fixed-size buckets covering the
// windowMinutes before now. Events outside the window are ignored.
// bucketSeconds must be positive; a non-positive value yields nil.
func EventRates(history []event.Event, now int64, windowMinutes, bucketSeconds int) []RateBucket {
	if bucketSeconds <= 0 || windowMinutes <= 0 {
		return nil
	}
	windowStart := now - int64(windowMinutes)*60
	n := (int(now-windowStart) + bucketSeconds - 1) / bucketSeconds
	buckets := make([]RateBucket, n)
	for i := range buckets {
		buckets[i] = RateBucket{
			Start:  windowStart + int64(i*bucketSeconds),
			ByType: make(map[event.Type]int),
		}
	}
	for _, e := range history {
		if e.Timestamp < windowStart || e.Timestamp >= now {
			continue
		}
		idx := int(e.Timestamp-windowStart) / bucketSeconds
		if idx < 0 || idx >= n {
			continue
		}
		buckets[idx].Count++
		buckets[idx].ByType[e.Type]++
	}
	return buckets
}
