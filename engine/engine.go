// Package engine implements the autonomous social-deduction match rules.
//
// The package is a pure, deterministic simulation core: a tick-driven rules
// authority that turns per-agent controller decisions into a consistent
// shared state: movement, kill resolution, body detection, the
// alert/dialogue/voting meeting machine, vote tallying and win evaluation.
// All randomness flows through an explicitly seeded PRNG carried in the
// match state, so the same seed, rules, roster and controllers replay the
// same match.
//
// The engine is single-threaded by contract: one goroutine owns a Match and
// calls Step. Controllers are invoked synchronously; wall-clock bounds on
// slow controllers belong to the caller (see internal/match).
package engine

// Step advances the match by exactly one tick. It is a no-op once the match
// has ended.
//
// Within a normal tick, observations are snapshotted before any controller
// runs: no action from tick N can observe another action from tick N
// (simultaneous-move semantics). Agents are polled strictly once, in the
// fixed roster order.
func (m *Match) Step() {
	if m.phase == PhaseEnded {
		return
	}
	if !m.started {
		m.started = true
		m.emit(Event{Type: EventGameStart, AgentCount: len(m.order)})
	}

	switch m.phase {
	case PhaseMeeting:
		m.stepMeeting()
	case PhaseEject:
		m.stepEject()
	case PhaseNormal:
		m.stepNormal()
	}

	m.tick++

	// Hard ceiling: crew wins by default if nobody forced an outcome in time.
	if m.phase != PhaseEnded && m.tick >= m.rules.MaxMatchTicks {
		m.finish(WinnerCrew)
	}
}

// stepNormal runs one tick of free play: cooldown bookkeeping, the
// poll/resolve cycle, movement integration, body detection, the fallback
// meeting timer.
func (m *Match) stepNormal() {
	if m.killCooldown > 0 {
		m.killCooldown--
	}
	if m.meetingCooldown > 0 {
		m.meetingCooldown--
	}
	m.ticksSinceMeeting++

	// Snapshot observations for every alive agent before anyone acts.
	alive := m.aliveIDs()
	actions := make(map[AgentID]Action, len(alive))
	for _, id := range alive {
		actions[id] = m.controllers[id].Decide(m.observe(id))
	}

	// Resolve in roster order. A kill mid-resolution can end the match;
	// remaining queued actions are then void.
	for _, id := range alive {
		if m.phase == PhaseEnded {
			return
		}
		m.resolve(id, actions[id])
	}
	if m.phase == PhaseEnded {
		return
	}

	m.integrate()

	if trigger, ok := m.detectBody(); ok {
		m.startMeeting(trigger)
		return
	}

	// Fallback: force a meeting if none has happened for too long.
	if m.ticksSinceMeeting >= m.rules.AutoMeetingTicks && m.meetingCooldown == 0 {
		if alive := m.aliveIDs(); len(alive) > 0 {
			m.startMeeting(alive[m.randN(uint64(len(alive)))])
		}
	}
}

// detectBody scans alive crew agents in roster order for an unreported body
// within detection range. The first qualifying agent becomes the meeting
// trigger; imposters never report.
func (m *Match) detectBody() (AgentID, bool) {
	if len(m.bodies) == 0 || m.meetingCooldown > 0 {
		return "", false
	}
	for _, id := range m.order {
		a := m.agents[id]
		if !a.Alive || a.Role == RoleImposter {
			continue
		}
		for _, b := range m.bodies {
			if a.Pos.Dist(b.Pos) <= m.rules.BodyDetectRange {
				return id, true
			}
		}
	}
	return "", false
}
