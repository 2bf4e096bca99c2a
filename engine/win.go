package engine

// evaluateWin checks the termination conditions and, when one holds, sets
// the terminal outcome and emits GAME_END. Called after every kill and every
// ejection; the first condition satisfied ends the match immediately.
//
// Crew wins when no imposter is left alive. Imposters win on parity: alive
// imposters >= alive crew. The parity rule fires even when no crew remain.
func (m *Match) evaluateWin() {
	if m.phase == PhaseEnded {
		return
	}

	imposters, crew := 0, 0
	for _, id := range m.order {
		a := m.agents[id]
		if !a.Alive {
			continue
		}
		if a.Role == RoleImposter {
			imposters++
		} else {
			crew++
		}
	}

	switch {
	case imposters == 0:
		m.finish(WinnerCrew)
	case imposters >= crew:
		m.finish(WinnerImposter)
	}
}

// finish records the terminal outcome. The outcome is set exactly once.
func (m *Match) finish(w Winner) {
	if m.phase == PhaseEnded {
		panic("engine: match already ended")
	}
	m.winner = w
	m.phase = PhaseEnded
	m.emit(Event{Type: EventGameEnd, Winner: w, Imposter: m.imposterID()})
}
