package engine

// Observation is the immutable per-tick view handed to one agent's
// controller. It carries the requesting agent's own role and nothing about
// anyone else's: concealment of other roles is the core information-hiding
// invariant of the whole contract.
//
// Observations are built fresh every tick and never cached; cooldowns and
// positions change continuously.
type Observation struct {
	Self AgentID
	Pos  Vec2
	Role Role

	Nearby []AgentID // other alive agents within kill range
	Alive  []AgentID // all other alive agents
	Dead   []AgentID // all dead agents

	MeetingActive bool
	MeetingPhase  MeetingPhase
	Dialogue      []Utterance // public dialogue log; populated only during a meeting

	// CanKill is true iff the agent is an alive imposter with kill cooldown
	// ready and no meeting active.
	CanKill bool
}

// observe builds the observation for one agent. No side effects.
func (m *Match) observe(id AgentID) Observation {
	a := m.mustAgent(id)

	obs := Observation{
		Self:          id,
		Pos:           a.Pos,
		Role:          a.Role,
		MeetingActive: m.phase == PhaseMeeting,
		MeetingPhase:  m.MeetingPhase(),
		CanKill: a.Role == RoleImposter &&
			m.killCooldown == 0 &&
			m.phase != PhaseMeeting &&
			a.Alive,
	}

	for _, oid := range m.order {
		if oid == id {
			continue
		}
		o := m.agents[oid]
		if !o.Alive {
			obs.Dead = append(obs.Dead, oid)
			continue
		}
		obs.Alive = append(obs.Alive, oid)
		if a.Pos.Dist(o.Pos) <= m.rules.KillRange {
			obs.Nearby = append(obs.Nearby, oid)
		}
	}

	if ms := m.meeting; ms != nil {
		obs.Dialogue = append([]Utterance(nil), ms.Dialogue...)
	}

	return obs
}
