package engine

// Action resolution. One action per polled agent per tick. Every validity
// failure (wrong variant for the phase, invalid target, precondition not met)
// is a silent no-op: invalid actions are ignored safely, never raised.

// resolve applies one agent's action outside a meeting. Kill wins or is
// dropped; Move sets velocity; Vote/Speak are out of phase here and dropped.
func (m *Match) resolve(id AgentID, act Action) {
	a := m.mustAgent(id)
	if !a.Alive {
		// Actor died earlier in this tick's resolution order; the queued
		// action is void.
		return
	}

	switch act.Type {
	case ActionMove:
		m.applyMove(a, act.Dir)
	case ActionKill:
		m.tryKill(a, act.Target)
	default:
		a.Vel = Vec2{}
	}
}

// applyMove points the agent's velocity along one axis at the fixed speed.
// Always succeeds; wall collision belongs to the world layer, the engine
// only clamps to bounds during integration.
func (m *Match) applyMove(a *Agent, dir Direction) {
	a.Vel = Vec2{}
	switch dir {
	case DirUp:
		a.Vel.Y = -m.rules.MoveSpeed
	case DirDown:
		a.Vel.Y = m.rules.MoveSpeed
	case DirLeft:
		a.Vel.X = -m.rules.MoveSpeed
	case DirRight:
		a.Vel.X = m.rules.MoveSpeed
	}
}

// tryKill attempts a kill and reports whether it landed. Failure leaves all
// state untouched.
func (m *Match) tryKill(killer *Agent, targetID AgentID) bool {
	victim, ok := m.agents[targetID]
	if !ok {
		return false
	}
	if !killer.Alive || !victim.Alive || killer.ID == victim.ID {
		return false
	}
	if killer.Role != RoleImposter || m.killCooldown > 0 {
		return false
	}
	if killer.Pos.Dist(victim.Pos) > m.rules.KillRange {
		return false
	}

	victim.Alive = false
	victim.Vel = Vec2{}
	m.bodies = append(m.bodies, DeadBody{Pos: victim.Pos, Agent: victim.ID})
	m.killCooldown = m.rules.KillCooldownTicks

	m.emit(Event{Type: EventKill, Agent: killer.ID, Target: targetID})
	m.evaluateWin()
	return true
}

// integrate advances alive agents by their velocity and clamps to the world
// bounds. Bodies never move.
func (m *Match) integrate() {
	for _, id := range m.order {
		a := m.agents[id]
		if !a.Alive {
			continue
		}
		a.Pos.X += a.Vel.X
		a.Pos.Y += a.Vel.Y
		if m.rules.Width > 0 {
			a.Pos.X = clamp(a.Pos.X, 0, m.rules.Width)
		}
		if m.rules.Height > 0 {
			a.Pos.Y = clamp(a.Pos.Y, 0, m.rules.Height)
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
