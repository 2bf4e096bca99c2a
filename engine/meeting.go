package engine

// Meeting sub-state-machine: ALERT → DIALOGUE → VOTING → end.

// startMeeting suspends gameplay and opens the alert window. The speaker
// order is fixed here by shuffling the agents alive right now; it never
// changes for the rest of the meeting.
func (m *Match) startMeeting(trigger AgentID) {
	if m.meeting != nil {
		panic("engine: meeting already active")
	}
	if m.meetingCooldown > 0 {
		return
	}

	order := m.aliveIDs()
	m.shuffleIDs(order)

	m.meeting = &MeetingState{
		Phase:        MeetingAlert,
		Trigger:      trigger,
		SpeakerOrder: order,
		Spoken:       make(map[AgentID]bool, len(order)),
		Votes:        make(map[AgentID]Vote, len(order)),
	}
	m.phase = PhaseMeeting

	// Everyone freezes for the meeting, dead or alive.
	for _, a := range m.agents {
		a.Vel = Vec2{}
	}

	m.emit(Event{Type: EventMeetingStart, Agent: trigger})
}

// stepMeeting advances the active meeting by one tick.
func (m *Match) stepMeeting() {
	ms := m.meeting
	if ms == nil {
		panic("engine: stepMeeting with no active meeting")
	}
	ms.PhaseTick++

	switch ms.Phase {
	case MeetingAlert:
		// Passive splash window; no actions accepted.
		if ms.PhaseTick >= m.rules.AlertTicks {
			ms.Phase = MeetingDialogue
			ms.PhaseTick = 0
		}

	case MeetingDialogue:
		m.stepDialogue(ms)

	case MeetingVoting:
		m.stepVoting(ms)

	default:
		panic("engine: meeting in invalid sub-phase")
	}
}

// stepDialogue runs strict turn-taking: the designated speaker this tick is
// the first agent in speaker order who is alive and has not spoken. Only that
// agent is polled, and only a Speak action is accepted; anything else leaves
// them unspoken and retried next tick.
func (m *Match) stepDialogue(ms *MeetingState) {
	if speaker := m.currentSpeaker(ms); speaker != "" {
		act := m.controllers[speaker].Decide(m.observe(speaker))
		if act.Type == ActionSpeak {
			ms.Dialogue = append(ms.Dialogue, Utterance{Speaker: speaker, Text: act.Text})
			ms.Spoken[speaker] = true
			m.emit(Event{Type: EventSpeak, Agent: speaker, Text: act.Text})
		}
	}

	if m.allAliveSpoke(ms) || ms.PhaseTick >= m.rules.DialogueTicks {
		ms.Phase = MeetingVoting
		ms.PhaseTick = 0
	}
}

// currentSpeaker returns the designated speaker for this tick, or "" when
// every alive agent in the order has already spoken.
func (m *Match) currentSpeaker(ms *MeetingState) AgentID {
	for _, id := range ms.SpeakerOrder {
		if m.agents[id].Alive && !ms.Spoken[id] {
			return id
		}
	}
	return ""
}

func (m *Match) allAliveSpoke(ms *MeetingState) bool {
	for _, id := range m.aliveIDs() {
		if !ms.Spoken[id] {
			return false
		}
	}
	return true
}

// stepVoting polls every alive agent that has not voted yet. A recorded vote
// is immutable: the voter is simply never polled for this meeting again. A
// vote for a dead or unknown agent is dropped and the voter is retried.
func (m *Match) stepVoting(ms *MeetingState) {
	for _, id := range m.aliveIDs() {
		if _, voted := ms.Votes[id]; voted {
			continue
		}
		act := m.controllers[id].Decide(m.observe(id))
		if act.Type != ActionVote {
			continue
		}
		if act.Skip {
			ms.Votes[id] = Vote{Skip: true}
			m.emit(Event{Type: EventVote, Agent: id, Skip: true})
			continue
		}
		target, ok := m.agents[act.Target]
		if !ok || !target.Alive {
			continue
		}
		ms.Votes[id] = Vote{Target: act.Target}
		m.emit(Event{Type: EventVote, Agent: id, Target: act.Target})
	}

	if m.allAliveVoted(ms) || ms.PhaseTick >= m.rules.VoteTicks {
		m.endMeeting()
	}
}

func (m *Match) allAliveVoted(ms *MeetingState) bool {
	for _, id := range m.aliveIDs() {
		if _, voted := ms.Votes[id]; !voted {
			return false
		}
	}
	return true
}

// tally computes the ejection target from the recorded votes, or "" for no
// ejection. Votes pointing at agents no longer alive are excluded first.
// Ejection requires a unique top target whose count strictly exceeds the
// skip count; ties, skip majorities and empty ballots all fall through to
// no ejection.
func (m *Match) tally(votes map[AgentID]Vote) AgentID {
	counts := make(map[AgentID]int)
	skips := 0
	for _, v := range votes {
		if v.Skip {
			skips++
			continue
		}
		if t, ok := m.agents[v.Target]; ok && t.Alive {
			counts[v.Target]++
		}
	}
	if len(counts) == 0 {
		return ""
	}

	max := 0
	for _, n := range counts {
		if n > max {
			max = n
		}
	}
	var top []AgentID
	for id, n := range counts {
		if n == max {
			top = append(top, id)
		}
	}
	if len(top) == 1 && max > skips {
		return top[0]
	}
	return ""
}

// endMeeting tallies, applies any ejection, clears every outstanding body,
// respawns survivors and re-arms the meeting cooldown. The meeting state is
// discarded whether or not anyone was ejected.
func (m *Match) endMeeting() {
	ms := m.meeting
	ejected := m.tally(ms.Votes)

	if ejected != "" {
		a := m.mustAgent(ejected)
		a.Alive = false
		a.Vel = Vec2{}
		m.emit(Event{Type: EventEject, Agent: ejected, WasImposter: a.Role == RoleImposter})
	}

	// The meeting resolves every pending report, examined or not.
	m.bodies = m.bodies[:0]

	for i, id := range m.aliveIDs() {
		m.agents[id].Pos = m.rules.SpawnPoints[i%len(m.rules.SpawnPoints)]
	}

	m.meeting = nil
	m.meetingCooldown = m.rules.MeetingCooldownTicks
	m.ticksSinceMeeting = 0

	if ejected != "" {
		m.evaluateWin()
		if m.phase == PhaseEnded {
			return
		}
		m.phase = PhaseEject
		m.ejectTick = 0
		m.ejected = ejected
		return
	}
	m.phase = PhaseNormal
}

// stepEject runs the post-ejection display window, then resumes play.
func (m *Match) stepEject() {
	m.ejectTick++
	if m.ejectTick >= m.rules.EjectTicks {
		m.phase = PhaseNormal
		m.ejected = ""
	}
}
