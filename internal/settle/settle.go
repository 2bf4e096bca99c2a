// Package settle produces signed settlement records for finished matches.
// The record carries everything an external settlement collaborator needs to
// pay out a match: the outcome plus a hash chain over the full event log, so
// the log backing the outcome cannot be swapped after signing.
package settle

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rajarshidattapy/monaddotsus/engine"
)

// Record is the settlement payload for one finished match.
type Record struct {
	MatchID   string         `json:"matchId"`
	Winner    string         `json:"winner"`
	Imposter  engine.AgentID `json:"imposter"`
	Ticks     uint64         `json:"ticks"`
	EventHash string         `json:"eventHash"`
}

// HashEvents folds the event log into a hex sha256 chain. Each link hashes
// the previous digest together with the event's JSON encoding, so both
// content and order are covered.
func HashEvents(events []engine.Event) (string, error) {
	digest := make([]byte, 0, sha256.Size)
	for i, ev := range events {
		buf, err := json.Marshal(ev)
		if err != nil {
			return "", fmt.Errorf("marshal event %d: %w", i, err)
		}
		h := sha256.New()
		h.Write(digest)
		h.Write(buf)
		digest = h.Sum(digest[:0])
	}
	return hex.EncodeToString(digest), nil
}

type claims struct {
	Record Record `json:"record"`
	jwt.RegisteredClaims
}

// Signer signs and verifies settlement records with an HMAC key.
type Signer struct {
	key []byte
}

// NewSigner builds a signer from a non-empty shared key.
func NewSigner(key string) (*Signer, error) {
	if key == "" {
		return nil, errors.New("settlement key is required")
	}
	return &Signer{key: []byte(key)}, nil
}

// Sign wraps the record in an HS256 token issued at now.
func (s *Signer) Sign(rec Record, now time.Time) (string, error) {
	if rec.MatchID == "" {
		return "", errors.New("record has no match id")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Record: rec,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   "monaddotsus",
			Subject:  rec.MatchID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	})
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign settlement token: %w", err)
	}
	return signed, nil
}

// Verify checks the token signature and returns the embedded record.
func (s *Signer) Verify(token string) (Record, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.key, nil
	})
	if err != nil {
		return Record{}, fmt.Errorf("parse settlement token: %w", err)
	}
	if !parsed.Valid {
		return Record{}, errors.New("settlement token is invalid")
	}
	return c.Record, nil
}
