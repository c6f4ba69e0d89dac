package decider

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/talgya/village-sim/internal/action"
	"github.com/talgya/village-sim/internal/goal"
	"github.com/talgya/village-sim/internal/llmclient"
	"github.com/talgya/village-sim/internal/memory"
	"github.com/talgya/village-sim/internal/perception"
	"github.com/talgya/village-sim/internal/world"
)

type testWorld struct {
	store          *world.Store
	agnes, bob     uuid.UUID
	bakery, square uuid.UUID
}

func newTestWorld(t *testing.T) *testWorld {
	t.Helper()
	store := world.NewStore()

	bakery := &world.Location{ID: uuid.New(), Name: "Bakery", Objects: []string{"bread"}}
	square := &world.Location{ID: uuid.New(), Name: "Town Square"}
	bakery.Connections = []uuid.UUID{square.ID}
	square.Connections = []uuid.UUID{bakery.ID}
	store.SeedLocation(bakery)
	store.SeedLocation(square)

	agnes := &world.Agent{ID: uuid.New(), Name: "Agnes", LocationID: bakery.ID, State: world.StateIdle, Inventory: []string{"coin"}}
	bob := &world.Agent{ID: uuid.New(), Name: "Bob", LocationID: bakery.ID, State: world.StateIdle}
	store.SeedAgent(agnes)
	store.SeedAgent(bob)

	return &testWorld{store: store, agnes: agnes.ID, bob: bob.ID, bakery: bakery.ID, square: square.ID}
}

func TestAvailableActionsEnumeratesOptions(t *testing.T) {
	w := newTestWorld(t)
	agent, _ := w.store.Agent(w.agnes)
	p := perception.Perceive(w.agnes, w.store)

	opts := AvailableActions(agent, p, w.store)

	var lines []string
	for _, o := range opts {
		lines = append(lines, o.Line)
	}
	require.Contains(t, lines, "wait")
	require.Contains(t, lines, "move Town Square")
	require.Contains(t, lines, "examine bread")
	require.Contains(t, lines, "take bread")
	require.Contains(t, lines, "drop coin")
	require.Contains(t, lines, "greet Bob")
	require.Contains(t, lines, "talk Bob")
}

func TestBuildPromptIncludesSections(t *testing.T) {
	w := newTestWorld(t)
	agent, _ := w.store.Agent(w.agnes)
	p := perception.Perceive(w.agnes, w.store)
	opts := AvailableActions(agent, p, w.store)

	working := []world.Memory{{Content: "I felt hungry"}}
	recent := []world.Memory{{Content: "Yesterday I baked bread"}}
	goals := []world.Goal{{Description: "eat something", Priority: 9}}

	prompt := BuildPrompt(agent, p, working, recent, goals, opts)

	require.Contains(t, prompt, "You are Agnes.")
	require.Contains(t, prompt, "Personality:")
	require.Contains(t, prompt, "Location: Bakery")
	require.Contains(t, prompt, "Here with you: Bob")
	require.Contains(t, prompt, "Objects here: bread")
	require.Contains(t, prompt, "Fresh memories:")
	require.Contains(t, prompt, "I felt hungry")
	require.Contains(t, prompt, "Recent memories:")
	require.Contains(t, prompt, "Yesterday I baked bread")
	require.Contains(t, prompt, "Current goals")
	require.Contains(t, prompt, "eat something")
	require.Contains(t, prompt, "Available actions:")
}

func TestParseActionResolvesOptionByLine(t *testing.T) {
	w := newTestWorld(t)
	agent, _ := w.store.Agent(w.agnes)
	p := perception.Perceive(w.agnes, w.store)
	opts := AvailableActions(agent, p, w.store)

	act := ParseAction("I should say hello.\nACTION: greet Bob", agent, opts, w.store)
	require.Equal(t, action.Greet, act.Kind)
	require.Equal(t, w.bob, *act.TargetID)
}

func TestParseActionIsCaseInsensitiveAndTrimsCommentary(t *testing.T) {
	w := newTestWorld(t)
	agent, _ := w.store.Agent(w.agnes)
	p := perception.Perceive(w.agnes, w.store)
	opts := AvailableActions(agent, p, w.store)

	act := ParseAction("action: MOVE Town Square", agent, opts, w.store)
	require.Equal(t, action.Move, act.Kind)
}

func TestParseActionFallsBackToWaitOnMalformedReply(t *testing.T) {
	w := newTestWorld(t)
	agent, _ := w.store.Agent(w.agnes)
	p := perception.Perceive(w.agnes, w.store)
	opts := AvailableActions(agent, p, w.store)

	for _, text := range []string{"", "I have no idea what to do", "ACTION:", "ACTION: fly to the moon"} {
		act := ParseAction(text, agent, opts, w.store)
		require.Equal(t, action.Wait, act.Kind, "input %q should fall back to wait", text)
	}
}

func TestParseActionResolvesVerbsNeedingNoOptionMatch(t *testing.T) {
	w := newTestWorld(t)
	agent, _ := w.store.Agent(w.agnes)
	p := perception.Perceive(w.agnes, w.store)
	opts := AvailableActions(agent, p, w.store)

	act := ParseAction("ACTION: sleep", agent, opts, w.store)
	require.Equal(t, action.Sleep, act.Kind)

	act = ParseAction("ACTION: examine sword", agent, opts, w.store)
	require.Equal(t, action.Examine, act.Kind)
}

func TestDecideFallsBackToWaitWithNilClient(t *testing.T) {
	w := newTestWorld(t)
	agent, _ := w.store.Agent(w.agnes)
	memStore := memory.NewStore()
	goalMgr := goal.NewManager()

	act := Decide(context.Background(), agent, w.store, memStore, goalMgr, nil)
	require.Equal(t, action.Wait, act.Kind)
}

func TestDecideUsesClientAndParsesReply(t *testing.T) {
	w := newTestWorld(t)
	agent, _ := w.store.Agent(w.agnes)
	memStore := memory.NewStore()
	goalMgr := goal.NewManager()
	client := llmclient.NewMockClient("I'll say hi.\nACTION: greet Bob")

	act := Decide(context.Background(), agent, w.store, memStore, goalMgr, client)
	require.Equal(t, action.Greet, act.Kind)

	calls := client.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, "decide", calls[0].CallType)
	require.Equal(t, agent.ID.String(), calls[0].AgentID)
}
