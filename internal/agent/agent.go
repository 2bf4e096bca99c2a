// Package agent provides reference controllers for autonomous matches.
package agent

import (
	"fmt"
	"math/rand"

	"github.com/rajarshidattapy/monaddotsus/engine"
)

var directions = []engine.Direction{engine.DirUp, engine.DirDown, engine.DirLeft, engine.DirRight}

// Canned dialogue lines. Entries with a %s verb are filled with a random
// alive agent.
var (
	plainLines = []string{
		"I don't know who it is...",
		"Not sure, maybe we should skip.",
		"I was doing tasks the whole time.",
		"Where did the body drop?",
	}
	accuseLines = []string{
		"I think %s is suspicious!",
		"I saw %s acting weird.",
		"%s was following me around.",
	}
)

// maxLineLen caps a dialogue line the same way the feed display does.
const maxLineLen = 200

// SimpleAgent is a heuristic controller: random walk with periodic direction
// changes, wall-stuck detection, opportunistic kills for imposters and random
// votes. All randomness comes from its own seeded source so a match replays
// identically.
type SimpleAgent struct {
	rng *rand.Rand

	dir        engine.Direction
	dirTicks   int // ticks remaining on the current direction
	lastPos    engine.Vec2
	seenPos    bool
	stuckTicks int
}

// NewSimpleAgent builds a heuristic controller with its own random source.
func NewSimpleAgent(seed int64) *SimpleAgent {
	rng := rand.New(rand.NewSource(seed))
	return &SimpleAgent{
		rng:      rng,
		dir:      directions[rng.Intn(len(directions))],
		dirTicks: 30 + rng.Intn(91),
	}
}

// Decide implements engine.Controller.
func (a *SimpleAgent) Decide(obs engine.Observation) engine.Action {
	if obs.MeetingActive {
		switch obs.MeetingPhase {
		case engine.MeetingDialogue:
			return engine.SpeakAction(a.line(obs))
		case engine.MeetingVoting:
			return a.ballot(obs)
		}
		return engine.NoneAction()
	}

	a.trackStuck(obs.Pos)

	if obs.CanKill && len(obs.Nearby) > 0 && a.rng.Intn(2) == 0 {
		return engine.KillAction(obs.Nearby[a.rng.Intn(len(obs.Nearby))])
	}

	a.dirTicks--
	if a.dirTicks <= 0 {
		a.dir = directions[a.rng.Intn(len(directions))]
		a.dirTicks = 30 + a.rng.Intn(91)
	}
	return engine.MoveAction(a.dir)
}

// trackStuck counts consecutive ticks without movement and forces a direction
// change after 10 of them, which unsticks the walk from world edges.
func (a *SimpleAgent) trackStuck(pos engine.Vec2) {
	if a.seenPos && pos.Dist(a.lastPos) < 1 {
		a.stuckTicks++
	} else {
		a.stuckTicks = 0
	}
	a.lastPos = pos
	a.seenPos = true

	if a.stuckTicks > 10 {
		a.stuckTicks = 0
		a.dir = directions[a.rng.Intn(len(directions))]
		a.dirTicks = 20 + a.rng.Intn(41)
	}
}

// line picks a canned dialogue line, accusing a random alive agent half the
// time when one exists.
func (a *SimpleAgent) line(obs engine.Observation) string {
	var text string
	if len(obs.Alive) > 0 && a.rng.Intn(2) == 0 {
		target := obs.Alive[a.rng.Intn(len(obs.Alive))]
		text = fmt.Sprintf(accuseLines[a.rng.Intn(len(accuseLines))], target)
	} else {
		text = plainLines[a.rng.Intn(len(plainLines))]
	}
	if len(text) > maxLineLen {
		text = text[:maxLineLen]
	}
	return text
}

// ballot votes for a random alive agent or skips, each outcome uniform over
// the candidates plus the skip option.
func (a *SimpleAgent) ballot(obs engine.Observation) engine.Action {
	n := a.rng.Intn(len(obs.Alive) + 1)
	if n == len(obs.Alive) {
		return engine.SkipVoteAction()
	}
	return engine.VoteAction(obs.Alive[n])
}

// Scripted replays a fixed action sequence and idles once it runs out. Useful
// for deterministic match setups and tests.
type Scripted struct {
	actions []engine.Action
	next    int
}

// NewScripted builds a controller that returns the given actions in order.
func NewScripted(actions ...engine.Action) *Scripted {
	return &Scripted{actions: actions}
}

// Decide implements engine.Controller.
func (s *Scripted) Decide(engine.Observation) engine.Action {
	if s.next >= len(s.actions) {
		return engine.NoneAction()
	}
	act := s.actions[s.next]
	s.next++
	return act
}
