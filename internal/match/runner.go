// Package match runs one autonomous match end to end: it wraps controllers
// in a safety guard, paces the tick loop and fans engine events out to sinks.
package match

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rajarshidattapy/monaddotsus/engine"
)

// Options configures a Runner.
type Options struct {
	Seed   uint64
	Rules  engine.Rules
	Roster []engine.AgentSetup

	// ControllerTimeout bounds one controller decision. A controller that
	// overruns it, or panics, contributes a None action for that tick.
	// 0 disables the guard.
	ControllerTimeout time.Duration

	// TickRate paces the loop in ticks per second. 0 runs unpaced.
	TickRate int

	Log *logrus.Logger
}

// Runner drives a single match. The engine itself is single-threaded; the
// runner's mutex lets other goroutines take snapshots between ticks. Sinks
// receive events synchronously, in simulated-time order.
type Runner struct {
	id    uuid.UUID
	mu    sync.Mutex
	m     *engine.Match
	log   *logrus.Entry
	sinks []engine.EventSink

	tickRate int
}

// New builds a runner. Every roster controller is wrapped in the decision
// guard when a timeout is configured.
func New(opts Options) (*Runner, error) {
	if opts.Log == nil {
		opts.Log = logrus.New()
	}
	id := uuid.New()
	log := opts.Log.WithField("match", id)

	roster := make([]engine.AgentSetup, len(opts.Roster))
	copy(roster, opts.Roster)
	if opts.ControllerTimeout > 0 {
		for i := range roster {
			roster[i].Controller = &guard{
				id:      roster[i].ID,
				inner:   roster[i].Controller,
				timeout: opts.ControllerTimeout,
				log:     log,
			}
		}
	}

	m, err := engine.NewMatch(opts.Seed, opts.Rules, roster)
	if err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}

	r := &Runner{
		id:       id,
		m:        m,
		log:      log,
		tickRate: opts.TickRate,
	}
	m.SetSink(r.dispatch)
	return r, nil
}

// ID returns the match instance identifier.
func (r *Runner) ID() uuid.UUID { return r.id }

// AddSink registers an event sink. Must be called before Run. Sinks are
// best-effort: a panicking sink is logged and skipped, never propagated.
func (r *Runner) AddSink(s engine.EventSink) {
	r.sinks = append(r.sinks, s)
}

// Snapshot returns the current read-only match state. Safe to call from any
// goroutine.
func (r *Runner) Snapshot() engine.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m.Snapshot()
}

// Run steps the match until it ends or ctx is cancelled. Returns the final
// winner, or WinnerUndecided with ctx's error on cancellation.
func (r *Runner) Run(ctx context.Context) (engine.Winner, error) {
	r.log.WithFields(logrus.Fields{
		"agents":   len(r.m.AliveIDs()),
		"tickRate": r.tickRate,
	}).Info("match starting")

	var pacer *time.Ticker
	if r.tickRate > 0 {
		pacer = time.NewTicker(time.Second / time.Duration(r.tickRate))
		defer pacer.Stop()
	}

	for !r.step() {
		if pacer != nil {
			select {
			case <-ctx.Done():
				r.log.WithError(ctx.Err()).Warn("match cancelled")
				return engine.WinnerUndecided, ctx.Err()
			case <-pacer.C:
			}
		} else if err := ctx.Err(); err != nil {
			r.log.WithError(err).Warn("match cancelled")
			return engine.WinnerUndecided, err
		}
	}

	r.mu.Lock()
	winner, ticks := r.m.Winner(), r.m.Tick()
	r.mu.Unlock()
	r.log.WithFields(logrus.Fields{
		"winner": winner,
		"ticks":  ticks,
	}).Info("match finished")
	return winner, nil
}

// step advances the match one tick and reports whether it has ended.
func (r *Runner) step() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m.Step()
	return r.m.IsOver()
}

// dispatch logs one event and forwards it to every sink in order.
func (r *Runner) dispatch(ev engine.Event) {
	r.logEvent(ev)
	for _, s := range r.sinks {
		r.safeEmit(s, ev)
	}
}

func (r *Runner) safeEmit(s engine.EventSink, ev engine.Event) {
	defer func() {
		if p := recover(); p != nil {
			r.log.WithFields(logrus.Fields{
				"type":  ev.Type,
				"panic": p,
			}).Error("event sink panicked")
		}
	}()
	s(ev)
}

// logEvent renders one event as a human line with a match-second timestamp.
func (r *Runner) logEvent(ev engine.Event) {
	rate := r.tickRate
	if rate <= 0 {
		rate = 30
	}
	sec := ev.Tick / uint64(rate)
	entry := r.log.WithFields(logrus.Fields{"tick": ev.Tick, "type": ev.Type})

	switch ev.Type {
	case engine.EventGameStart:
		entry.Infof("[%3ds] match started with %d agents", sec, ev.AgentCount)
	case engine.EventKill:
		entry.Infof("[%3ds] %s killed %s!", sec, ev.Agent, ev.Target)
	case engine.EventMeetingStart:
		entry.Infof("[%3ds] %s called a meeting", sec, ev.Agent)
	case engine.EventSpeak:
		entry.Infof("[%3ds] [%s]: %s", sec, ev.Agent, ev.Text)
	case engine.EventVote:
		if ev.Skip {
			entry.Infof("[%3ds] %s voted to skip", sec, ev.Agent)
		} else {
			entry.Infof("[%3ds] %s voted for %s", sec, ev.Agent, ev.Target)
		}
	case engine.EventEject:
		entry.Infof("[%3ds] %s was ejected (imposter: %v)", sec, ev.Agent, ev.WasImposter)
	case engine.EventGameEnd:
		entry.Infof("[%3ds] %s wins! The imposter was %s", sec, ev.Winner, ev.Imposter)
	default:
		entry.Infof("[%3ds] %s", sec, ev.Type)
	}
}
