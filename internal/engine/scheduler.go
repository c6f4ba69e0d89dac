// Package engine is the tick-driven scheduler that drives the rest of
// the simulation: one agent turn per tick, in stable id order, publishing
// events and recording health as it goes.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/village-sim/internal/action"
	"github.com/talgya/village-sim/internal/decider"
	"github.com/talgya/village-sim/internal/event"
	"github.com/talgya/village-sim/internal/eventbus"
	"github.com/talgya/village-sim/internal/goal"
	"github.com/talgya/village-sim/internal/lifeevent"
	"github.com/talgya/village-sim/internal/llmclient"
	"github.com/talgya/village-sim/internal/memory"
	"github.com/talgya/village-sim/internal/weather"
	"github.com/talgya/village-sim/internal/world"
)

// State is the scheduler's closed lifecycle.
type State string

const (
	StateStopped  State = "stopped"
	StateRunning  State = "running"
	StateStopping State = "stopping"
)

// defaultTickInterval is used when no interval is configured; one real
// second per tick maps 1:1 to one in-world minute, so the default is 30
// in-world minutes per tick.
const defaultTickInterval = 30 * time.Second

// Scheduler drives the simulation one tick at a time. Only one tick runs
// at a time; Start/Stop may be called repeatedly (restart is permitted).
type Scheduler struct {
	store    *world.Store
	bus      *eventbus.Bus
	memStore *memory.Store
	goalMgr  *goal.Manager
	llm      llmclient.Client
	lifeSub  *lifeevent.Detector
	weather  *weather.Generator

	tickInterval time.Duration
	tickMinutes  float64

	mu    sync.Mutex
	state State
	stop  context.CancelFunc
	done  chan struct{}

	health *healthRecorder
}

// New builds a scheduler wired to store, bus, memory, goals, and an LLM
// client (nil is valid — agents will only ever wait).
func New(store *world.Store, bus *eventbus.Bus, memStore *memory.Store, goalMgr *goal.Manager, llm llmclient.Client, tickInterval time.Duration) *Scheduler {
	if tickInterval <= 0 {
		tickInterval = defaultTickInterval
	}
	return &Scheduler{
		store:        store,
		bus:          bus,
		memStore:     memStore,
		goalMgr:      goalMgr,
		llm:          llm,
		tickInterval: tickInterval,
		tickMinutes:  tickInterval.Seconds(),
		state:        StateStopped,
		health:       newHealthRecorder(),
	}
}

// WithLifeEventDetector attaches the life-event subscriber the scheduler
// drains each tick; optional.
func (s *Scheduler) WithLifeEventDetector(d *lifeevent.Detector) *Scheduler {
	s.lifeSub = d
	return s
}

// WithWeather attaches a weather generator consulted at each day roll;
// optional. Without one the weather string never changes.
func (s *Scheduler) WithWeather(g *weather.Generator) *Scheduler {
	s.weather = g
	return s
}

// State returns the scheduler's current lifecycle state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Health returns a snapshot of the scheduler's operating metrics.
func (s *Scheduler) Health() Health {
	return s.health.snapshot(s.bus.QueueDepthHint())
}

// Start transitions stopped->running and spawns the tick loop. Calling
// Start while already running is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.state == StateRunning {
		s.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.stop = cancel
	s.done = make(chan struct{})
	s.state = StateRunning
	s.health = newHealthRecorder()
	done := s.done
	s.mu.Unlock()

	go s.run(runCtx, done)
}

// Stop requests cancellation and blocks until the tick loop has
// completed its current tick (or aborted it) and exited.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return
	}
	s.state = StateStopping
	cancel := s.stop
	done := s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	s.mu.Lock()
	s.state = StateStopped
	s.mu.Unlock()
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	start := time.Now()
	n := int64(0)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		boundary := start.Add(time.Duration(n) * s.tickInterval)
		if d := time.Until(boundary); d > 0 {
			timer := time.NewTimer(d)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}

		s.step(ctx)
		n++
	}
}

// step executes one tick: time-advance, wake/sleep transitions, per-agent
// turns in stable order, health record, and a TICK event. A panic during
// time-advance or the wake/sleep transitions restores the world store to
// its state at the start of the tick and publishes no event. Per-agent
// failures are isolated in processAgent. Cancellation during the agent
// phase ends the tick without a TICK event; turns already applied are
// not rolled back.
func (s *Scheduler) step(ctx context.Context) {
	tickStart := time.Now()
	snap := s.store.Snapshot()
	dayBefore := s.store.Clock().CurrentDay

	aborted := false
	func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("engine: tick aborted", "panic", r)
				s.health.recordError()
				s.store.Restore(snap)
				aborted = true
			}
		}()
		s.store.AdvanceTime(s.tickMinutes)
		s.store.WakeSleepingAgents()
		s.store.PutAgentsToSleep()
	}()
	if aborted {
		return
	}

	if day := s.store.Clock().CurrentDay; day != dayBefore {
		if s.weather != nil {
			s.store.SetWeather(s.weather.Flavor(day))
		}
		s.endOfDay(ctx, tickStart.Unix())
	}

	processed := 0
	for _, agentID := range s.store.AgentIDs() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if s.processAgent(ctx, agentID, tickStart.Unix()) {
			processed++
		}
	}

	durationMs := time.Since(tickStart).Milliseconds()
	s.health.recordTick(durationMs, processed)

	s.bus.Publish(event.Event{
		ID:           uuid.New(),
		Type:         event.Tick,
		Summary:      fmt.Sprintf("tick %d complete", s.store.Clock().CurrentTick),
		Timestamp:    tickStart.Unix(),
		Significance: 1,
		Data: map[string]any{
			"agents_processed": processed,
			"duration_ms":      durationMs,
		},
	})

	if s.lifeSub != nil {
		s.lifeSub.Drain(tickStart.Unix())
	}
}

// endOfDay runs the day-boundary maintenance for every agent: decay the
// memory tiers, then compress the day's working memories into a recent
// summary and long-term facts. A failure for one agent is recorded and
// does not stop the others.
func (s *Scheduler) endOfDay(ctx context.Context, now int64) {
	for _, agentID := range s.store.AgentIDs() {
		func() {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("engine: end-of-day compression failed", "agent", agentID, "panic", r)
					s.health.recordError()
				}
			}()
			s.memStore.DecayAll(agentID, now)
			res := s.memStore.CompressDay(ctx, agentID, now, s.llm)
			if res.WorkingCount > 0 {
				slog.Debug("engine: compressed day",
					"agent", agentID,
					"working_memories", res.WorkingCount,
					"facts", len(res.Facts))
			}
		}()
	}
}

// processAgent runs one agent's full turn in isolation: a panic or error
// here is recorded and the agent's action is skipped, but other agents in
// the same tick are unaffected.
func (s *Scheduler) processAgent(ctx context.Context, agentID uuid.UUID, now int64) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("engine: agent turn failed", "agent", agentID, "panic", r)
			s.health.recordError()
			ok = false
		}
	}()

	agent, found := s.store.Agent(agentID)
	if !found {
		return false
	}

	if err := s.store.UpdateNeeds(agent.ID, 0.5); err != nil {
		s.health.recordError()
		return false
	}

	agent, _ = s.store.Agent(agent.ID)
	if agent.State == world.StateSleeping {
		return true
	}

	act := decider.Decide(ctx, agent, s.store, s.memStore, s.goalMgr, s.llm)

	scoring := memory.ScoringContext{InvolvesSelf: true}
	if act.TargetID != nil {
		if rel, ok := s.store.Relationship(agent.ID, *act.TargetID); ok {
			scoring.InvolvesFriend = rel.Score >= 6
			scoring.InvolvesRival = rel.Score <= -5
		} else {
			scoring.IsFirstTime = true
		}
	}

	result, evt := action.Execute(act, s.store, now)
	if !result.Success {
		return true
	}

	significance := 3
	if evt != nil {
		significance = memory.Significance(categoryForEvent(evt.Type), scoring)
	}
	s.memStore.AddWorking(agent.ID, world.Memory{
		ID:           uuid.New(),
		AgentID:      agent.ID,
		Kind:         world.MemoryWorking,
		Content:      result.Message,
		Significance: significance,
		Timestamp:    now,
	})

	refreshed, _ := s.store.Agent(agent.ID)
	s.goalMgr.Refresh(refreshed, now)

	if evt != nil {
		s.bus.Publish(*evt)
	}

	return true
}

func categoryForEvent(t event.Type) memory.EventCategory {
	switch t {
	case event.Movement:
		return memory.CategoryMovement
	case event.Dialogue:
		return memory.CategoryDialogue
	case event.Discovery:
		return memory.CategoryDiscovery
	case event.Relationship:
		return memory.CategoryRelationship
	default:
		return memory.CategoryAction
	}
}
