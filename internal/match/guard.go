package match

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rajarshidattapy/monaddotsus/engine"
)

// guard wraps a controller with a wall-clock decision bound and panic
// isolation. A slow or panicking controller yields None for the tick; the
// match never stalls on a single agent.
type guard struct {
	id      engine.AgentID
	inner   engine.Controller
	timeout time.Duration
	log     *logrus.Entry
}

// Decide implements engine.Controller.
func (g *guard) Decide(obs engine.Observation) engine.Action {
	done := make(chan engine.Action, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				g.log.WithFields(logrus.Fields{
					"agent": g.id,
					"panic": p,
				}).Warn("controller panicked, substituting none")
				done <- engine.NoneAction()
			}
		}()
		done <- g.inner.Decide(obs)
	}()

	timer := time.NewTimer(g.timeout)
	defer timer.Stop()
	select {
	case act := <-done:
		return act
	case <-timer.C:
		g.log.WithField("agent", g.id).Warn("controller timed out, substituting none")
		return engine.NoneAction()
	}
}
