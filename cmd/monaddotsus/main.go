// Command monaddotsus runs one autonomous social-deduction match headless:
// heuristic agents play it out while events stream to the log and, when
// configured, to sqlite, redis and a spectator websocket feed.
package main

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/rajarshidattapy/monaddotsus/engine"
	"github.com/rajarshidattapy/monaddotsus/internal/agent"
	"github.com/rajarshidattapy/monaddotsus/internal/config"
	"github.com/rajarshidattapy/monaddotsus/internal/match"
	"github.com/rajarshidattapy/monaddotsus/internal/settle"
	"github.com/rajarshidattapy/monaddotsus/internal/spectator"
	"github.com/rajarshidattapy/monaddotsus/internal/store"
	"github.com/rajarshidattapy/monaddotsus/internal/stream"
)

// colours is the roster pool, in assignment order.
var colours = []engine.AgentID{
	"Red", "Blue", "Green", "Orange", "Yellow",
	"Black", "Brown", "Pink", "Purple", "White",
}

func main() {
	if err := run(); err != nil {
		logrus.WithError(err).Fatal("runner failed")
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	log.SetLevel(level)

	if cfg.AgentCount > len(colours) {
		return fmt.Errorf("agent count %d exceeds the %d available colours", cfg.AgentCount, len(colours))
	}

	seed := cfg.Seed
	if seed == 0 {
		if seed, err = randomSeed(); err != nil {
			return err
		}
	}
	log.WithField("seed", seed).Info("seeding match")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, err := match.New(match.Options{
		Seed:              seed,
		Rules:             engine.DefaultRules(),
		Roster:            buildRoster(seed, cfg.AgentCount),
		ControllerTimeout: time.Duration(cfg.ControllerTimeoutMS) * time.Millisecond,
		TickRate:          cfg.TickRate,
		Log:               log,
	})
	if err != nil {
		return err
	}

	// The in-memory log backs the post-match settlement hash.
	var mu sync.Mutex
	var events []engine.Event
	runner.AddSink(func(ev engine.Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})

	var db *store.Store
	if cfg.DatabasePath != "" {
		if db, err = store.Open(cfg.DatabasePath); err != nil {
			return err
		}
		defer db.Close()
		runner.AddSink(storeSink(db, runner.ID().String(), log))
	}

	if cfg.RedisAddr != "" {
		pub, err := stream.NewPublisher(cfg.RedisAddr, cfg.RedisChannel, log)
		if err != nil {
			return err
		}
		defer pub.Close()
		if err := pub.Ping(ctx); err != nil {
			return err
		}
		runner.AddSink(pub.Sink())
	}

	if cfg.ListenAddr != "" {
		hub := spectator.NewHub(log)
		runner.AddSink(hub.Sink())
		go serveSpectators(ctx, cfg.ListenAddr, hub, runner, log)
	}

	winner, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	return settleMatch(ctx, cfg, log, runner, db, winner, events)
}

// settleMatch persists the outcome and, when a key is configured, emits the
// signed settlement token.
func settleMatch(ctx context.Context, cfg config.Config, log *logrus.Logger,
	runner *match.Runner, db *store.Store, winner engine.Winner, events []engine.Event) error {

	hash, err := settle.HashEvents(events)
	if err != nil {
		return err
	}

	snap := runner.Snapshot()
	imposter := imposterOf(snap)

	if db != nil {
		outcome := store.Outcome{
			MatchID:    runner.ID().String(),
			Winner:     winner.String(),
			Imposter:   imposter,
			Ticks:      snap.Tick,
			EventHash:  hash,
			FinishedAt: time.Now().UnixMilli(),
		}
		if err := db.SaveOutcome(ctx, outcome); err != nil {
			return err
		}
	}

	if cfg.SettlementKey != "" {
		signer, err := settle.NewSigner(cfg.SettlementKey)
		if err != nil {
			return err
		}
		token, err := signer.Sign(settle.Record{
			MatchID:   runner.ID().String(),
			Winner:    winner.String(),
			Imposter:  imposter,
			Ticks:     snap.Tick,
			EventHash: hash,
		}, time.Now())
		if err != nil {
			return err
		}
		log.WithField("token", token).Info("settlement token issued")
	}
	return nil
}

// buildRoster assigns one imposter uniformly and heuristic controllers with
// per-agent seeds derived from the match seed.
func buildRoster(seed uint64, count int) []engine.AgentSetup {
	imposterIdx := int(splitmix(seed) % uint64(count))
	roster := make([]engine.AgentSetup, 0, count)
	for i := 0; i < count; i++ {
		role := engine.RoleCrew
		if i == imposterIdx {
			role = engine.RoleImposter
		}
		roster = append(roster, engine.AgentSetup{
			ID:         colours[i],
			Role:       role,
			Controller: agent.NewSimpleAgent(int64(splitmix(seed + uint64(i) + 1))),
		})
	}
	return roster
}

// splitmix is a single splitmix64 step, used to derive independent seeds.
func splitmix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// randomSeed draws a high-entropy seed from crypto/rand.
func randomSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// storeSink writes every event to sqlite with a monotonic sequence number.
func storeSink(db *store.Store, matchID string, log *logrus.Logger) engine.EventSink {
	var seq uint64
	return func(ev engine.Event) {
		if err := db.AppendEvent(context.Background(), matchID, seq, ev); err != nil {
			log.WithError(err).Error("persist event")
		}
		seq++
	}
}

// serveSpectators runs the read-only feed plus a periodic state broadcast.
func serveSpectators(ctx context.Context, addr string, hub *spectator.Hub, runner *match.Runner, log *logrus.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/watch", hub)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	// Snapshots at 4 Hz keep late joiners in sync between events.
	go func() {
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				hub.PublishState(runner.Snapshot())
			}
		}
	}()

	log.WithField("addr", addr).Info("spectator feed listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Error("spectator server failed")
	}
}

// imposterOf pulls the imposter's id out of a final snapshot.
func imposterOf(snap engine.Snapshot) engine.AgentID {
	for _, a := range snap.Agents {
		if a.Role == engine.RoleImposter {
			return a.ID
		}
	}
	return ""
}
