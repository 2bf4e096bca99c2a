package engine

// Shared test support: canned controllers and match builders.

// funcController adapts a plain function into a Controller.
type funcController func(Observation) Action

func (f funcController) Decide(obs Observation) Action { return f(obs) }

// idleController returns None forever.
func idleController() Controller {
	return funcController(func(Observation) Action { return NoneAction() })
}

// speakVoteController speaks a fixed line during dialogue and casts a fixed
// vote during voting; otherwise idles.
func speakVoteController(line string, vote Action) Controller {
	return funcController(func(obs Observation) Action {
		switch obs.MeetingPhase {
		case MeetingDialogue:
			return SpeakAction(line)
		case MeetingVoting:
			return vote
		}
		return NoneAction()
	})
}

// eventRecorder captures emitted events in order.
type eventRecorder struct {
	events []Event
}

func (r *eventRecorder) sink() EventSink {
	return func(ev Event) { r.events = append(r.events, ev) }
}

func (r *eventRecorder) byType(t EventType) []Event {
	var out []Event
	for _, ev := range r.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// testRules returns a compressed parameter set so phase transitions happen
// within a few ticks.
func testRules() Rules {
	r := DefaultRules()
	r.KillCooldownTicks = 10
	r.MeetingCooldownTicks = 8
	r.AlertTicks = 2
	r.DialogueTicks = 20
	r.VoteTicks = 20
	r.EjectTicks = 3
	r.MaxMatchTicks = 5000
	r.AutoMeetingTicks = 100
	return r
}

// newTestMatch builds a match of one imposter plus crew, all idle, and
// attaches an event recorder. The imposter is always the first id.
func newTestMatch(ids ...AgentID) (*Match, *eventRecorder) {
	roster := make([]AgentSetup, len(ids))
	for i, id := range ids {
		role := RoleCrew
		if i == 0 {
			role = RoleImposter
		}
		roster[i] = AgentSetup{ID: id, Role: role, Controller: idleController()}
	}
	m, err := NewMatch(42, testRules(), roster)
	if err != nil {
		panic(err)
	}
	rec := &eventRecorder{}
	m.SetSink(rec.sink())
	return m, rec
}

// setController swaps one agent's controller after construction.
func (m *Match) setController(id AgentID, c Controller) {
	m.controllers[id] = c
}

// place moves an agent to a fixed position with zero velocity.
func (m *Match) place(id AgentID, x, y float64) {
	a := m.mustAgent(id)
	a.Pos = Vec2{X: x, Y: y}
	a.Vel = Vec2{}
}
