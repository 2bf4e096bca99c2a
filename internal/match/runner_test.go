package match

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajarshidattapy/monaddotsus/engine"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// funcController adapts a plain function to engine.Controller.
type funcController func(engine.Observation) engine.Action

func (f funcController) Decide(obs engine.Observation) engine.Action { return f(obs) }

func idle() funcController {
	return func(engine.Observation) engine.Action { return engine.NoneAction() }
}

// talker speaks and votes so meetings resolve promptly.
func talker(vote engine.Action) funcController {
	return func(obs engine.Observation) engine.Action {
		switch obs.MeetingPhase {
		case engine.MeetingDialogue:
			return engine.SpeakAction("hmm")
		case engine.MeetingVoting:
			return vote
		}
		return engine.NoneAction()
	}
}

// shortRules compresses every timer so tests finish in a handful of ticks.
func shortRules() engine.Rules {
	r := engine.DefaultRules()
	r.KillCooldownTicks = 5
	r.MeetingCooldownTicks = 5
	r.AlertTicks = 2
	r.DialogueTicks = 15
	r.VoteTicks = 15
	r.EjectTicks = 2
	r.MaxMatchTicks = 2000
	r.AutoMeetingTicks = 40
	return r
}

func roster(imposter engine.Controller, crew ...engine.Controller) []engine.AgentSetup {
	out := []engine.AgentSetup{{ID: "Red", Role: engine.RoleImposter, Controller: imposter}}
	names := []engine.AgentID{"Blue", "Green", "Yellow", "Purple"}
	for i, c := range crew {
		out = append(out, engine.AgentSetup{ID: names[i], Role: engine.RoleCrew, Controller: c})
	}
	return out
}

func TestRunnerCompletesMatch(t *testing.T) {
	// Crew votes the imposter out at the first fallback meeting.
	r, err := New(Options{
		Seed:   42,
		Rules:  shortRules(),
		Roster: roster(talker(engine.SkipVoteAction()), talker(engine.VoteAction("Red")), talker(engine.VoteAction("Red")), talker(engine.VoteAction("Red"))),
		Log:    quietLogger(),
	})
	require.NoError(t, err)

	var mu sync.Mutex
	var events []engine.Event
	r.AddSink(func(ev engine.Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})

	winner, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, engine.WinnerCrew, winner)

	require.NotEmpty(t, events)
	assert.Equal(t, engine.EventGameStart, events[0].Type)
	assert.Equal(t, engine.EventGameEnd, events[len(events)-1].Type)
	for i := 1; i < len(events); i++ {
		assert.LessOrEqual(t, events[i-1].Tick, events[i].Tick, "events out of order at %d", i)
	}
}

func TestRunnerRejectsBadRoster(t *testing.T) {
	_, err := New(Options{
		Seed:   1,
		Rules:  shortRules(),
		Roster: []engine.AgentSetup{{ID: "Red", Role: engine.RoleImposter, Controller: idle()}},
		Log:    quietLogger(),
	})
	assert.Error(t, err)
}

func TestRunnerCancellation(t *testing.T) {
	r, err := New(Options{
		Seed:     7,
		Rules:    shortRules(),
		Roster:   roster(idle(), idle(), idle()),
		TickRate: 10, // paced so cancellation lands mid-loop
		Log:      quietLogger(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	winner, err := r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, engine.WinnerUndecided, winner)
}

func TestRunnerSinkPanicIsolated(t *testing.T) {
	r, err := New(Options{
		Seed:   9,
		Rules:  shortRules(),
		Roster: roster(talker(engine.SkipVoteAction()), talker(engine.VoteAction("Red")), talker(engine.VoteAction("Red")), talker(engine.VoteAction("Red"))),
		Log:    quietLogger(),
	})
	require.NoError(t, err)

	r.AddSink(func(engine.Event) { panic("bad sink") })
	var got []engine.Event
	r.AddSink(func(ev engine.Event) { got = append(got, ev) })

	winner, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, engine.WinnerCrew, winner)

	// The healthy sink saw the whole stream despite the panicking one.
	require.NotEmpty(t, got)
	assert.Equal(t, engine.EventGameEnd, got[len(got)-1].Type)
}

func TestGuardSubstitutesOnTimeout(t *testing.T) {
	g := &guard{
		id: "Red",
		inner: funcController(func(engine.Observation) engine.Action {
			time.Sleep(200 * time.Millisecond)
			return engine.KillAction("Blue")
		}),
		timeout: 10 * time.Millisecond,
		log:     quietLogger().WithField("match", "test"),
	}
	assert.Equal(t, engine.NoneAction(), g.Decide(engine.Observation{}))
}

func TestGuardSubstitutesOnPanic(t *testing.T) {
	g := &guard{
		id:      "Red",
		inner:   funcController(func(engine.Observation) engine.Action { panic("boom") }),
		timeout: time.Second,
		log:     quietLogger().WithField("match", "test"),
	}
	assert.Equal(t, engine.NoneAction(), g.Decide(engine.Observation{}))
}

func TestGuardPassesFastDecisions(t *testing.T) {
	g := &guard{
		id:      "Red",
		inner:   funcController(func(engine.Observation) engine.Action { return engine.MoveAction(engine.DirLeft) }),
		timeout: time.Second,
		log:     quietLogger().WithField("match", "test"),
	}
	assert.Equal(t, engine.MoveAction(engine.DirLeft), g.Decide(engine.Observation{}))
}

func TestRunnerGuardKeepsMatchMoving(t *testing.T) {
	// One controller always panics; the match must still reach a verdict.
	r, err := New(Options{
		Seed: 11,
		Rules: func() engine.Rules {
			ru := shortRules()
			ru.MaxMatchTicks = 200
			ru.AutoMeetingTicks = 5000 // meetings would just slow the test down
			return ru
		}(),
		Roster: roster(
			funcController(func(engine.Observation) engine.Action { panic("flaky agent") }),
			idle(), idle(),
		),
		ControllerTimeout: 50 * time.Millisecond,
		Log:               quietLogger(),
	})
	require.NoError(t, err)

	winner, err := r.Run(context.Background())
	require.NoError(t, err)
	// Nobody acts, so the tick ceiling decides for the crew.
	assert.Equal(t, engine.WinnerCrew, winner)
}
