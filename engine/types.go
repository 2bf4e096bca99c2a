package engine

import "math"

// AgentID identifies an agent by its colour name (e.g. "Red").
type AgentID string

// Role is an agent's fixed role for the whole match.
type Role uint8

const (
	RoleCrew Role = iota
	RoleImposter
)

// String returns the canonical role name.
func (r Role) String() string {
	if r == RoleImposter {
		return "IMPOSTER"
	}
	return "CREW"
}

// Phase is the global match phase.
type Phase uint8

const (
	PhaseNormal Phase = iota
	PhaseMeeting
	PhaseEject
	PhaseEnded
)

// MeetingPhase is the sub-phase of an active meeting. MeetingNone means no
// meeting is in progress.
type MeetingPhase uint8

const (
	MeetingNone MeetingPhase = iota
	MeetingAlert
	MeetingDialogue
	MeetingVoting
)

// Direction is a movement axis request.
type Direction uint8

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
)

// ActionType tags the Action variant an agent returned.
type ActionType uint8

const (
	ActionNone ActionType = iota
	ActionMove
	ActionKill
	ActionVote
	ActionSpeak
)

// Action is the closed set of things an agent can do in one tick. Exactly one
// variant is meaningful per value, selected by Type; fields outside the
// variant are ignored. Malformed or out-of-phase actions are dropped silently.
type Action struct {
	Type   ActionType
	Dir    Direction // Move
	Target AgentID   // Kill, Vote
	Skip   bool      // Vote: explicit abstain
	Text   string    // Speak
}

// MoveAction requests movement along one axis at the fixed match speed.
func MoveAction(dir Direction) Action { return Action{Type: ActionMove, Dir: dir} }

// KillAction requests a kill on target. Only succeeds for an alive imposter
// with cooldown ready and the target in range.
func KillAction(target AgentID) Action { return Action{Type: ActionKill, Target: target} }

// VoteAction casts a vote for target during the voting sub-phase.
func VoteAction(target AgentID) Action { return Action{Type: ActionVote, Target: target} }

// SkipVoteAction casts an explicit abstain during the voting sub-phase.
func SkipVoteAction() Action { return Action{Type: ActionVote, Skip: true} }

// SpeakAction submits one dialogue line during the dialogue sub-phase.
func SpeakAction(text string) Action { return Action{Type: ActionSpeak, Text: text} }

// NoneAction does nothing this tick.
func NoneAction() Action { return Action{Type: ActionNone} }

// Winner is the terminal match outcome.
type Winner uint8

const (
	WinnerUndecided Winner = iota
	WinnerCrew
	WinnerImposter
)

// String returns the canonical winner name.
func (w Winner) String() string {
	switch w {
	case WinnerCrew:
		return "CREW"
	case WinnerImposter:
		return "IMPOSTER"
	}
	return "UNDECIDED"
}

// Vec2 is a 2-D position or velocity in world units.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dist returns the euclidean distance between two points.
func (v Vec2) Dist(o Vec2) float64 {
	return math.Hypot(v.X-o.X, v.Y-o.Y)
}

// Utterance is one recorded dialogue line.
type Utterance struct {
	Speaker AgentID `json:"speaker"`
	Text    string  `json:"text"`
}

// Vote is one recorded ballot. Skip marks an explicit abstain; otherwise
// Target names the accused agent.
type Vote struct {
	Target AgentID `json:"target,omitempty"`
	Skip   bool    `json:"skip,omitempty"`
}

// Controller is the single capability the engine requires from an agent
// implementation: given an observation, return one action. Implementations
// must not retain the observation's slices across calls.
type Controller interface {
	Decide(obs Observation) Action
}

// EventType identifies a match event.
type EventType string

const (
	EventGameStart    EventType = "GAME_START"
	EventKill         EventType = "KILL"
	EventMeetingStart EventType = "MEETING_START"
	EventSpeak        EventType = "SPEAK"
	EventVote         EventType = "VOTE"
	EventEject        EventType = "EJECT"
	EventGameEnd      EventType = "GAME_END"
)

// Event is one entry in the linear, tick-stamped match event sequence.
// Field usage by type:
//
//	GAME_START     AgentCount
//	KILL           Agent (killer), Target (victim)
//	MEETING_START  Agent (trigger)
//	SPEAK          Agent (speaker), Text
//	VOTE           Agent (voter), Target or Skip
//	EJECT          Agent (ejected), WasImposter
//	GAME_END       Winner, Imposter
type Event struct {
	Type        EventType `json:"type"`
	Tick        uint64    `json:"tick"`
	Agent       AgentID   `json:"agent,omitempty"`
	Target      AgentID   `json:"target,omitempty"`
	Skip        bool      `json:"skip,omitempty"`
	Text        string    `json:"text,omitempty"`
	WasImposter bool      `json:"wasImposter,omitempty"`
	Winner      Winner    `json:"winner,omitempty"`
	Imposter    AgentID   `json:"imposter,omitempty"`
	AgentCount  int       `json:"agentCount,omitempty"`
}

// EventSink receives events synchronously, in the exact order they occur in
// simulated time. The engine never reorders or batches emissions.
type EventSink func(Event)
