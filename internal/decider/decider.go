// Package decider builds the per-agent decision prompt, calls the LLM
// client, and parses the reply back into an Action. It never fails;
// anything unusable becomes wait.
package decider

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/talgya/village-sim/internal/action"
	"github.com/talgya/village-sim/internal/goal"
	"github.com/talgya/village-sim/internal/llmclient"
	"github.com/talgya/village-sim/internal/memory"
	"github.com/talgya/village-sim/internal/perception"
	"github.com/talgya/village-sim/internal/world"
)

const systemPrompt = `You are an inhabitant of a small village, deciding what to do next.
Respond with a short first-person thought, then on its own line:
ACTION: <verb> [args]
Pick exactly one action from the "Available actions" list below, using the same target name shown there.`

// AvailableAction is one option offered to the agent this turn, paired
// with the canonical line format the parser expects back.
type AvailableAction struct {
	Line   string // e.g. "talk Mira" or "move Market Square"
	Action action.Action
}

// AvailableActions enumerates the minimum action set Perception implies:
// wait, move to each connected location, greet/talk each co-located
// agent, examine each local object, take/drop inventory-eligible items.
func AvailableActions(agent world.Agent, p perception.Perception, store *world.Store) []AvailableAction {
	var out []AvailableAction
	out = append(out, AvailableAction{Line: "wait", Action: action.NewWait(agent.ID)})

	if loc, ok := store.Location(agent.LocationID); ok {
		for _, destID := range loc.Connections {
			dest, ok := store.Location(destID)
			if !ok {
				continue
			}
			out = append(out, AvailableAction{
				Line:   fmt.Sprintf("move %s", dest.Name),
				Action: action.NewMove(agent.ID, destID),
			})
		}
		for _, obj := range loc.Objects {
			out = append(out, AvailableAction{
				Line:   fmt.Sprintf("examine %s", obj),
				Action: action.NewExamine(agent.ID, obj),
			})
			out = append(out, AvailableAction{
				Line:   fmt.Sprintf("take %s", obj),
				Action: action.NewTake(agent.ID, obj),
			})
		}
	}

	for _, item := range agent.Inventory {
		out = append(out, AvailableAction{
			Line:   fmt.Sprintf("drop %s", item),
			Action: action.NewDrop(agent.ID, item),
		})
	}

	for _, other := range p.CoLocatedAgents {
		out = append(out, AvailableAction{
			Line:   fmt.Sprintf("greet %s", other.Name),
			Action: action.NewGreet(agent.ID, other.ID),
		})
		out = append(out, AvailableAction{
			Line:   fmt.Sprintf("talk %s", other.Name),
			Action: action.NewTalk(agent.ID, other.ID, "the day"),
		})
	}

	return out
}

// BuildPrompt assembles the decision prompt: traits, mood, needs,
// location, recent memories, top goals, and the available-action list in
// a canonical line-oriented format.
func BuildPrompt(agent world.Agent, p perception.Perception, working, recent []world.Memory, goals []world.Goal, options []AvailableAction) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s.\n\n", agent.Name)

	fmt.Fprintf(&b, "Personality: openness=%d conscientiousness=%d extraversion=%d agreeableness=%d neuroticism=%d curiosity=%d ambition=%d empathy=%d\n",
		agent.Traits.Openness, agent.Traits.Conscientiousness, agent.Traits.Extraversion,
		agent.Traits.Agreeableness, agent.Traits.Neuroticism, agent.Traits.Curiosity,
		agent.Traits.Ambition, agent.Traits.Empathy)

	fmt.Fprintf(&b, "Mood: happiness=%d energy=%d\n", agent.Mood.Happiness, agent.Mood.Energy)
	fmt.Fprintf(&b, "Needs: hunger=%.1f energy=%.1f social=%.1f\n\n", agent.Needs.Hunger, agent.Needs.Energy, agent.Needs.Social)

	fmt.Fprintf(&b, "Location: %s\n", p.LocationName)
	if len(p.CoLocatedAgents) > 0 {
		names := make([]string, len(p.CoLocatedAgents))
		for i, a := range p.CoLocatedAgents {
			names[i] = a.Name
		}
		fmt.Fprintf(&b, "Here with you: %s\n", strings.Join(names, ", "))
	}
	if len(p.Objects) > 0 {
		fmt.Fprintf(&b, "Objects here: %s\n", strings.Join(p.Objects, ", "))
	}
	b.WriteString("\n")

	if len(recent) > 0 {
		b.WriteString("Recent memories:\n")
		for _, m := range recent {
			fmt.Fprintf(&b, "- %s\n", m.Content)
		}
	}
	if len(working) > 0 {
		b.WriteString("Fresh memories:\n")
		for _, m := range working {
			fmt.Fprintf(&b, "- %s\n", m.Content)
		}
	}
	b.WriteString("\n")

	if len(goals) > 0 {
		b.WriteString("Current goals (highest priority first):\n")
		top := goals
		if len(top) > 3 {
			top = top[:3]
		}
		for _, g := range top {
			fmt.Fprintf(&b, "- %s (priority %d)\n", g.Description, g.Priority)
		}
		b.WriteString("\n")
	}

	b.WriteString("Available actions:\n")
	for _, opt := range options {
		fmt.Fprintf(&b, "- %s\n", opt.Line)
	}

	return b.String()
}

// Decide runs the full cycle for one agent and never fails: it falls
// back to wait(actor_id) whenever options are empty, the client is nil,
// or the LLM reply fails to parse.
func Decide(ctx context.Context, agent world.Agent, store *world.Store, memStore *memory.Store, goalMgr *goal.Manager, client llmclient.Client) action.Action {
	p := perception.Perceive(agent.ID, store)
	options := AvailableActions(agent, p, store)
	if len(options) == 0 {
		return action.NewWait(agent.ID)
	}
	if client == nil {
		return action.NewWait(agent.ID)
	}

	working := memStore.GetWorking(agent.ID)
	recent := memStore.GetRecent(agent.ID)
	goals := goalMgr.Active(agent.ID)
	sort.SliceStable(goals, func(i, j int) bool { return goals[i].Priority > goals[j].Priority })

	prompt := BuildPrompt(agent, p, working, recent, goals, options)

	resp := client.Complete(ctx, llmclient.Request{
		System:      systemPrompt,
		Prompt:      prompt,
		MaxTokens:   100,
		Temperature: 0.7,
		UseCache:    false,
		AgentID:     agent.ID.String(),
		CallType:    "decide",
	})

	return ParseAction(resp.Content, agent, options, store)
}

// ParseAction scans text for a line matching "ACTION: <verb> [args]",
// ignoring any prefix commentary, and resolves it against options. Falls
// back to wait if no line matches or the target can't be resolved.
func ParseAction(text string, agent world.Agent, options []AvailableAction, store *world.Store) action.Action {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		upper := strings.ToUpper(line)
		if !strings.HasPrefix(upper, "ACTION:") {
			continue
		}
		rest := strings.TrimSpace(line[len("ACTION:"):])
		if rest == "" {
			continue
		}
		fields := strings.Fields(rest)
		verb := strings.ToLower(fields[0])
		args := strings.TrimSpace(strings.TrimPrefix(rest, fields[0]))

		if act, ok := resolve(verb, args, agent, options, store); ok {
			return act
		}
	}
	return action.NewWait(agent.ID)
}

// resolve maps a parsed verb+args onto one of the offered options by
// matching the option's canonical line, falling back to constructing the
// action directly for verbs that need no target list lookup.
func resolve(verb, args string, agent world.Agent, options []AvailableAction, store *world.Store) (action.Action, bool) {
	candidateLine := strings.TrimSpace(verb + " " + args)
	for _, opt := range options {
		if strings.EqualFold(opt.Line, candidateLine) {
			return opt.Action, true
		}
	}

	switch verb {
	case "wait":
		return action.NewWait(agent.ID), true
	case "sleep":
		return action.NewSleep(agent.ID), true
	case "examine":
		if args != "" {
			return action.NewExamine(agent.ID, args), true
		}
	case "take":
		if args != "" {
			return action.NewTake(agent.ID, args), true
		}
	case "drop":
		if args != "" {
			return action.NewDrop(agent.ID, args), true
		}
	case "work":
		return action.NewWork(agent.ID, args), true
	case "move", "greet", "talk", "ask", "tell", "give", "help", "confront", "avoid", "observe":
		if targetID, ok := resolveAgentName(args, agent, store); ok {
			switch verb {
			case "move":
				if locID, ok := resolveLocationName(args, agent, store); ok {
					return action.NewMove(agent.ID, locID), true
				}
			case "greet":
				return action.NewGreet(agent.ID, targetID), true
			case "talk":
				return action.NewTalk(agent.ID, targetID, "the day"), true
			case "ask":
				return action.NewAsk(agent.ID, targetID, args), true
			case "tell":
				return action.NewTell(agent.ID, targetID, args), true
			case "give":
				return action.Action{}, false // requires an item token the line-match above already covers
			case "help":
				return action.NewHelp(agent.ID, targetID, args), true
			case "confront":
				return action.NewConfront(agent.ID, targetID, args), true
			case "avoid":
				return action.NewAvoid(agent.ID, targetID), true
			case "observe":
				return action.NewObserve(agent.ID, targetID), true
			}
		}
		if verb == "move" {
			if locID, ok := resolveLocationName(args, agent, store); ok {
				return action.NewMove(agent.ID, locID), true
			}
		}
	}
	return action.Action{}, false
}

func resolveAgentName(name string, agent world.Agent, store *world.Store) (uuid.UUID, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return uuid.Nil, false
	}
	for _, id := range store.AgentsAt(agent.LocationID, agent.ID) {
		other, ok := store.Agent(id)
		if ok && strings.EqualFold(other.Name, name) {
			return other.ID, true
		}
	}
	return uuid.Nil, false
}

func resolveLocationName(name string, agent world.Agent, store *world.Store) (uuid.UUID, bool) {
	name = strings.TrimSpace(name)
	loc, ok := store.Location(agent.LocationID)
	if !ok {
		return uuid.Nil, false
	}
	for _, destID := range loc.Connections {
		dest, ok := store.Location(destID)
		if ok && strings.EqualFold(dest.Name, name) {
			return destID, true
		}
	}
	return uuid.Nil, false
}
