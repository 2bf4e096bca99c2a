// Package store persists match events and outcomes in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/rajarshidattapy/monaddotsus/engine"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

const schema = `
CREATE TABLE IF NOT EXISTS match_events (
  match_id TEXT    NOT NULL,
  seq      INTEGER NOT NULL,
  tick     INTEGER NOT NULL,
  type     TEXT    NOT NULL,
  payload  TEXT    NOT NULL,
  PRIMARY KEY (match_id, seq)
);

CREATE TABLE IF NOT EXISTS match_outcomes (
  match_id    TEXT PRIMARY KEY,
  winner      TEXT    NOT NULL,
  imposter    TEXT    NOT NULL,
  ticks       INTEGER NOT NULL,
  event_hash  TEXT    NOT NULL,
  finished_at INTEGER NOT NULL
);
`

// Outcome is the persisted terminal record of one match.
type Outcome struct {
	MatchID    string
	Winner     string
	Imposter   engine.AgentID
	Ticks      uint64
	EventHash  string
	FinishedAt int64 // unix millis
}

// Store is a SQLite-backed event and outcome log.
type Store struct {
	db *sql.DB
}

// Open opens the SQLite file at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// AppendEvent inserts one event under (matchID, seq). Sequence numbers must
// be assigned by a single writer in emission order; the primary key rejects
// duplicates.
func (s *Store) AppendEvent(ctx context.Context, matchID string, seq uint64, ev engine.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if matchID == "" {
		return fmt.Errorf("match id is required")
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO match_events (match_id, seq, tick, type, payload)
		 VALUES (?, ?, ?, ?, ?)`,
		matchID, seq, ev.Tick, string(ev.Type), string(payload),
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// Events returns every stored event of one match in sequence order.
func (s *Store) Events(ctx context.Context, matchID string) ([]engine.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT payload FROM match_events WHERE match_id = ? ORDER BY seq ASC`,
		matchID,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []engine.Event
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("list events: %w", err)
		}
		var ev engine.Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return out, nil
}

// SaveOutcome upserts the terminal record of one match.
func (s *Store) SaveOutcome(ctx context.Context, o Outcome) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if o.MatchID == "" {
		return fmt.Errorf("match id is required")
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO match_outcomes (match_id, winner, imposter, ticks, event_hash, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (match_id) DO UPDATE SET
		   winner = excluded.winner,
		   imposter = excluded.imposter,
		   ticks = excluded.ticks,
		   event_hash = excluded.event_hash,
		   finished_at = excluded.finished_at`,
		o.MatchID, o.Winner, string(o.Imposter), o.Ticks, o.EventHash, o.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("save outcome: %w", err)
	}
	return nil
}

// Outcome returns the terminal record of one match, or ErrNotFound.
func (s *Store) Outcome(ctx context.Context, matchID string) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	row := s.db.QueryRowContext(
		ctx,
		`SELECT match_id, winner, imposter, ticks, event_hash, finished_at
		   FROM match_outcomes
		  WHERE match_id = ?`,
		matchID,
	)

	var o Outcome
	var imposter string
	err := row.Scan(&o.MatchID, &o.Winner, &imposter, &o.Ticks, &o.EventHash, &o.FinishedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Outcome{}, ErrNotFound
		}
		return Outcome{}, fmt.Errorf("get outcome: %w", err)
	}
	o.Imposter = engine.AgentID(imposter)
	return o, nil
}
