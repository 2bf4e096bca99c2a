package engine

import "fmt"

// Agent is one participant's entity record. Role never changes; Alive flips
// to false at most once and never back. Position is mutated only by action
// resolution, per-tick integration and meeting-end relocation.
type Agent struct {
	ID    AgentID
	Role  Role
	Alive bool
	Pos   Vec2
	Vel   Vec2
}

// DeadBody marks where a victim fell. Bodies accumulate until the next
// meeting ends, which clears all of them at once.
type DeadBody struct {
	Pos   Vec2    `json:"pos"`
	Agent AgentID `json:"agent"`
}

// MeetingState exists only while a meeting is active and is discarded when
// it ends. SpeakerOrder is a shuffle of the agents alive at meeting start and
// never changes afterwards.
type MeetingState struct {
	Phase        MeetingPhase
	PhaseTick    uint32
	Trigger      AgentID
	SpeakerOrder []AgentID
	Spoken       map[AgentID]bool
	Dialogue     []Utterance
	Votes        map[AgentID]Vote
}

// AgentSetup describes one agent at match creation.
type AgentSetup struct {
	ID         AgentID
	Role       Role
	Controller Controller
}

// Match is the authoritative state of one simulated match. It is not safe
// for concurrent use; the tick loop owns it exclusively.
type Match struct {
	rules Rules

	order       []AgentID // canonical deterministic agent order
	agents      map[AgentID]*Agent
	controllers map[AgentID]Controller

	bodies []DeadBody

	tick              uint64
	phase             Phase
	killCooldown      uint32
	meetingCooldown   uint32
	ticksSinceMeeting uint64

	meeting    *MeetingState
	ejectTick  uint32
	ejected    AgentID
	winner     Winner

	rng     uint64
	sink    EventSink
	started bool
}

// NewMatch builds a match from the given roster. The roster needs at least
// one imposter and one crew agent, unique IDs, and a controller per agent.
// Agents spawn round-robin over the rules' spawn points.
func NewMatch(seed uint64, rules Rules, roster []AgentSetup) (*Match, error) {
	if len(roster) < 2 {
		return nil, fmt.Errorf("roster needs at least 2 agents, got %d", len(roster))
	}
	if len(rules.SpawnPoints) == 0 {
		return nil, fmt.Errorf("rules define no spawn points")
	}

	m := &Match{
		rules:       rules,
		agents:      make(map[AgentID]*Agent, len(roster)),
		controllers: make(map[AgentID]Controller, len(roster)),
		rng:         seed,
		winner:      WinnerUndecided,
	}
	if m.rng == 0 {
		m.rng = 1 // xorshift can't start at 0
	}

	imposters, crew := 0, 0
	for i, a := range roster {
		if a.ID == "" {
			return nil, fmt.Errorf("roster[%d] has an empty agent id", i)
		}
		if _, dup := m.agents[a.ID]; dup {
			return nil, fmt.Errorf("duplicate agent id %q", a.ID)
		}
		if a.Controller == nil {
			return nil, fmt.Errorf("agent %q has no controller", a.ID)
		}
		if a.Role == RoleImposter {
			imposters++
		} else {
			crew++
		}
		m.order = append(m.order, a.ID)
		m.agents[a.ID] = &Agent{
			ID:    a.ID,
			Role:  a.Role,
			Alive: true,
			Pos:   rules.SpawnPoints[i%len(rules.SpawnPoints)],
		}
		m.controllers[a.ID] = a.Controller
	}
	if imposters == 0 {
		return nil, fmt.Errorf("roster has no imposter")
	}
	if crew == 0 {
		return nil, fmt.Errorf("roster has no crew")
	}

	return m, nil
}

// SetSink installs the event sink. Must be set before the first Step; events
// emitted with no sink installed are lost.
func (m *Match) SetSink(sink EventSink) { m.sink = sink }

// emit forwards one event to the sink, stamped with the current tick.
func (m *Match) emit(ev Event) {
	ev.Tick = m.tick
	if m.sink != nil {
		m.sink(ev)
	}
}

// ---------------------------------------------------------------------------
// xorshift64 RNG — inline, no interface
// ---------------------------------------------------------------------------

func (m *Match) nextRand() uint64 {
	x := m.rng
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	m.rng = x
	return x
}

// randN returns a random number in [0, n).
func (m *Match) randN(n uint64) uint64 {
	return m.nextRand() % n
}

// shuffleIDs permutes ids in place with a Fisher-Yates pass.
func (m *Match) shuffleIDs(ids []AgentID) {
	for i := len(ids) - 1; i > 0; i-- {
		j := int(m.randN(uint64(i + 1)))
		ids[i], ids[j] = ids[j], ids[i]
	}
}

// ---------------------------------------------------------------------------
// Query methods
// ---------------------------------------------------------------------------

// Tick returns the current tick counter.
func (m *Match) Tick() uint64 { return m.tick }

// Phase returns the global match phase.
func (m *Match) Phase() Phase { return m.phase }

// Winner returns the outcome; WinnerUndecided while the match is running.
func (m *Match) Winner() Winner { return m.winner }

// IsOver reports whether the match has ended.
func (m *Match) IsOver() bool { return m.phase == PhaseEnded }

// Rules returns a copy of the match parameters.
func (m *Match) Rules() Rules { return m.rules }

// MeetingPhase returns the active meeting sub-phase, or MeetingNone.
func (m *Match) MeetingPhase() MeetingPhase {
	if m.meeting == nil {
		return MeetingNone
	}
	return m.meeting.Phase
}

// aliveIDs returns the alive agents in canonical order.
func (m *Match) aliveIDs() []AgentID {
	out := make([]AgentID, 0, len(m.order))
	for _, id := range m.order {
		if m.agents[id].Alive {
			out = append(out, id)
		}
	}
	return out
}

// AliveIDs returns the alive agents in canonical order.
func (m *Match) AliveIDs() []AgentID { return m.aliveIDs() }

// imposterID returns the first imposter in canonical order. Used for the
// GAME_END reveal.
func (m *Match) imposterID() AgentID {
	for _, id := range m.order {
		if m.agents[id].Role == RoleImposter {
			return id
		}
	}
	return ""
}

// mustAgent returns the agent record for id or panics. Callers pass ids that
// came out of the engine's own bookkeeping; a miss is a programming error.
func (m *Match) mustAgent(id AgentID) *Agent {
	a, ok := m.agents[id]
	if !ok {
		panic(fmt.Sprintf("engine: unknown agent id %q", id))
	}
	return a
}

// ---------------------------------------------------------------------------
// Read-only snapshots for spectators
// ---------------------------------------------------------------------------

// AgentSnapshot is a spectator view of one agent. Spectators see roles; only
// agent observations conceal them.
type AgentSnapshot struct {
	ID    AgentID `json:"id"`
	Role  Role    `json:"role"`
	Alive bool    `json:"alive"`
	Pos   Vec2    `json:"pos"`
}

// Snapshot is a deep copy of the presentable match state. Mutating it has no
// effect on the engine.
type Snapshot struct {
	Tick            uint64          `json:"tick"`
	Phase           Phase           `json:"phase"`
	MeetingPhase    MeetingPhase    `json:"meetingPhase"`
	MeetingTrigger  AgentID         `json:"meetingTrigger,omitempty"`
	Ejected         AgentID         `json:"ejected,omitempty"`
	Agents          []AgentSnapshot `json:"agents"`
	Bodies          []DeadBody      `json:"bodies,omitempty"`
	Dialogue        []Utterance     `json:"dialogue,omitempty"`
	Votes           map[AgentID]Vote `json:"votes,omitempty"`
	KillCooldown    uint32          `json:"killCooldown"`
	MeetingCooldown uint32          `json:"meetingCooldown"`
	Winner          Winner          `json:"winner"`
}

// Snapshot returns the current read-only presentation state.
func (m *Match) Snapshot() Snapshot {
	snap := Snapshot{
		Tick:            m.tick,
		Phase:           m.phase,
		MeetingPhase:    m.MeetingPhase(),
		Ejected:         m.ejected,
		Agents:          make([]AgentSnapshot, 0, len(m.order)),
		Bodies:          append([]DeadBody(nil), m.bodies...),
		KillCooldown:    m.killCooldown,
		MeetingCooldown: m.meetingCooldown,
		Winner:          m.winner,
	}
	for _, id := range m.order {
		a := m.agents[id]
		snap.Agents = append(snap.Agents, AgentSnapshot{ID: a.ID, Role: a.Role, Alive: a.Alive, Pos: a.Pos})
	}
	if ms := m.meeting; ms != nil {
		snap.MeetingTrigger = ms.Trigger
		snap.Dialogue = append([]Utterance(nil), ms.Dialogue...)
		snap.Votes = make(map[AgentID]Vote, len(ms.Votes))
		for voter, v := range ms.Votes {
			snap.Votes[voter] = v
		}
	}
	return snap
}
