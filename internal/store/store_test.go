package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajarshidattapy/monaddotsus/engine"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestEventRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	events := []engine.Event{
		{Type: engine.EventGameStart, Tick: 0, AgentCount: 5},
		{Type: engine.EventKill, Tick: 42, Agent: "Red", Target: "Blue"},
		{Type: engine.EventVote, Tick: 99, Agent: "Green", Skip: true},
		{Type: engine.EventGameEnd, Tick: 120, Winner: engine.WinnerCrew, Imposter: "Red"},
	}
	for i, ev := range events {
		require.NoError(t, s.AppendEvent(ctx, "m1", uint64(i), ev))
	}
	// A second match's events must not bleed in.
	require.NoError(t, s.AppendEvent(ctx, "m2", 0, engine.Event{Type: engine.EventGameStart}))

	got, err := s.Events(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, events, got)
}

func TestAppendEventRejectsDuplicateSeq(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendEvent(ctx, "m1", 0, engine.Event{Type: engine.EventGameStart}))
	err := s.AppendEvent(ctx, "m1", 0, engine.Event{Type: engine.EventKill})
	assert.Error(t, err, "duplicate (match, seq) accepted")
}

func TestOutcomeRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Outcome(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	o := Outcome{
		MatchID:    "m1",
		Winner:     "CREW",
		Imposter:   "Red",
		Ticks:      1234,
		EventHash:  "abc123",
		FinishedAt: 1700000000000,
	}
	require.NoError(t, s.SaveOutcome(ctx, o))

	got, err := s.Outcome(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, o, got)

	// Upsert replaces the record.
	o.Winner = "IMPOSTER"
	require.NoError(t, s.SaveOutcome(ctx, o))
	got, err = s.Outcome(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "IMPOSTER", got.Winner)
}

func TestContextCancellation(t *testing.T) {
	s := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, s.AppendEvent(ctx, "m1", 0, engine.Event{}))
	_, err := s.Events(ctx, "m1")
	assert.Error(t, err)
}
