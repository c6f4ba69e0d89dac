// Package action defines the closed action catalog and its executor.
package action

import "github.com/google/uuid"

// Kind is the closed set of action verbs.
type Kind string

const (
	Move        Kind = "move"
	Examine     Kind = "examine"
	Take        Kind = "take"
	Drop        Kind = "drop"
	Use         Kind = "use"
	Wait        Kind = "wait"
	Sleep       Kind = "sleep"
	Work        Kind = "work"
	Greet       Kind = "greet"
	Talk        Kind = "talk"
	Ask         Kind = "ask"
	Tell        Kind = "tell"
	Give        Kind = "give"
	Help        Kind = "help"
	Confront    Kind = "confront"
	Avoid       Kind = "avoid"
	Investigate Kind = "investigate"
	Gossip      Kind = "gossip"
	Scheme      Kind = "scheme"
	Confess     Kind = "confess"
	Observe     Kind = "observe"
)

// Category is derived from Kind.
type Category string

const (
	CategorySolo    Category = "solo"
	CategorySocial  Category = "social"
	CategorySpecial Category = "special"
)

var categoryByKind = map[Kind]Category{
	Move: CategorySolo, Examine: CategorySolo, Take: CategorySolo, Drop: CategorySolo,
	Use: CategorySolo, Wait: CategorySolo, Sleep: CategorySolo, Work: CategorySolo,
	Greet: CategorySocial, Talk: CategorySocial, Ask: CategorySocial, Tell: CategorySocial,
	Give: CategorySocial, Help: CategorySocial, Confront: CategorySocial, Avoid: CategorySocial,
	Investigate: CategorySpecial, Gossip: CategorySpecial, Scheme: CategorySpecial,
	Confess: CategorySpecial, Observe: CategorySpecial,
}

// dialogueKinds produce a "dialogue" event rather than an "action" event.
var dialogueKinds = map[Kind]bool{
	Talk: true, Ask: true, Tell: true, Greet: true, Gossip: true,
}

// Action is a tagged variant over the closed Kind set.
type Action struct {
	Kind         Kind
	ActorID      uuid.UUID
	TargetID     *uuid.UUID
	TargetObject string
	Parameters   map[string]string
}

// Category returns the action's derived category.
func (a Action) Category() Category {
	return categoryByKind[a.Kind]
}

// IsDialogue reports whether this action produces a dialogue event.
func (a Action) IsDialogue() bool {
	return dialogueKinds[a.Kind]
}

// Result is the outcome of executing an Action.
type Result struct {
	Success bool
	Message string
	Reason  string
	Data    map[string]any
}

func param(a Action, key string) string {
	if a.Parameters == nil {
		return ""
	}
	return a.Parameters[key]
}

// Convenience constructors, one per verb.

func NewMove(actor, dest uuid.UUID) Action {
	return Action{Kind: Move, ActorID: actor, TargetID: &dest}
}

func NewExamine(actor uuid.UUID, obj string) Action {
	return Action{Kind: Examine, ActorID: actor, TargetObject: obj}
}

func NewTake(actor uuid.UUID, item string) Action {
	return Action{Kind: Take, ActorID: actor, TargetObject: item}
}

func NewDrop(actor uuid.UUID, item string) Action {
	return Action{Kind: Drop, ActorID: actor, TargetObject: item}
}

func NewWait(actor uuid.UUID) Action {
	return Action{Kind: Wait, ActorID: actor}
}

func NewSleep(actor uuid.UUID) Action {
	return Action{Kind: Sleep, ActorID: actor}
}

func NewWork(actor uuid.UUID, kind string) Action {
	return Action{Kind: Work, ActorID: actor, Parameters: map[string]string{"job_kind": kind}}
}

func NewGreet(actor, target uuid.UUID) Action {
	return Action{Kind: Greet, ActorID: actor, TargetID: &target}
}

func NewTalk(actor, target uuid.UUID, topic string) Action {
	return Action{Kind: Talk, ActorID: actor, TargetID: &target, Parameters: map[string]string{"topic": topic}}
}

func NewAsk(actor, target uuid.UUID, question string) Action {
	return Action{Kind: Ask, ActorID: actor, TargetID: &target, Parameters: map[string]string{"question": question}}
}

func NewTell(actor, target uuid.UUID, info string) Action {
	return Action{Kind: Tell, ActorID: actor, TargetID: &target, Parameters: map[string]string{"information": info}}
}

func NewGive(actor, target uuid.UUID, item string) Action {
	return Action{Kind: Give, ActorID: actor, TargetID: &target, TargetObject: item}
}

func NewHelp(actor, target uuid.UUID, task string) Action {
	return Action{Kind: Help, ActorID: actor, TargetID: &target, Parameters: map[string]string{"task": task}}
}

func NewConfront(actor, target uuid.UUID, accusation string) Action {
	return Action{Kind: Confront, ActorID: actor, TargetID: &target, Parameters: map[string]string{"accusation": accusation}}
}

func NewAvoid(actor, target uuid.UUID) Action {
	return Action{Kind: Avoid, ActorID: actor, TargetID: &target}
}

func NewGossip(actor, target, subject uuid.UUID, rumor string) Action {
	return Action{
		Kind: Gossip, ActorID: actor, TargetID: &target,
		Parameters: map[string]string{"subject_id": subject.String(), "rumor": rumor},
	}
}

func NewInvestigate(actor uuid.UUID, mystery string) Action {
	return Action{Kind: Investigate, ActorID: actor, Parameters: map[string]string{"mystery": mystery}}
}

func NewScheme(actor uuid.UUID, plan string) Action {
	return Action{Kind: Scheme, ActorID: actor, Parameters: map[string]string{"plan": plan}}
}

func NewConfess(actor, target uuid.UUID, secret string) Action {
	return Action{Kind: Confess, ActorID: actor, TargetID: &target, Parameters: map[string]string{"secret": secret}}
}

func NewObserve(actor, target uuid.UUID) Action {
	return Action{Kind: Observe, ActorID: actor, TargetID: &target}
}
