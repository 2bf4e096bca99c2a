package settle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajarshidattapy/monaddotsus/engine"
)

func sampleEvents() []engine.Event {
	return []engine.Event{
		{Type: engine.EventGameStart, Tick: 0, AgentCount: 5},
		{Type: engine.EventKill, Tick: 40, Agent: "Red", Target: "Blue"},
		{Type: engine.EventGameEnd, Tick: 90, Winner: engine.WinnerImposter, Imposter: "Red"},
	}
}

func TestHashEventsDeterministic(t *testing.T) {
	a, err := HashEvents(sampleEvents())
	require.NoError(t, err)
	b, err := HashEvents(sampleEvents())
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64) // hex sha256
}

func TestHashEventsSensitiveToContentAndOrder(t *testing.T) {
	base, err := HashEvents(sampleEvents())
	require.NoError(t, err)

	tampered := sampleEvents()
	tampered[1].Target = "Green"
	got, err := HashEvents(tampered)
	require.NoError(t, err)
	assert.NotEqual(t, base, got, "content change not reflected")

	swapped := sampleEvents()
	swapped[0], swapped[1] = swapped[1], swapped[0]
	got, err = HashEvents(swapped)
	require.NoError(t, err)
	assert.NotEqual(t, base, got, "order change not reflected")
}

func TestSignVerifyRoundTrip(t *testing.T) {
	signer, err := NewSigner("test-settlement-key")
	require.NoError(t, err)

	hash, err := HashEvents(sampleEvents())
	require.NoError(t, err)
	rec := Record{
		MatchID:   "4f2d7c3a",
		Winner:    "IMPOSTER",
		Imposter:  "Red",
		Ticks:     90,
		EventHash: hash,
	}

	token, err := signer.Sign(rec, time.Now())
	require.NoError(t, err)

	got, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	signer, err := NewSigner("key-one")
	require.NoError(t, err)
	other, err := NewSigner("key-two")
	require.NoError(t, err)

	token, err := signer.Sign(Record{MatchID: "m1"}, time.Now())
	require.NoError(t, err)

	_, err = other.Verify(token)
	assert.Error(t, err)
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	signer, err := NewSigner("key-one")
	require.NoError(t, err)

	token, err := signer.Sign(Record{MatchID: "m1", Winner: "CREW"}, time.Now())
	require.NoError(t, err)

	tampered := token[:len(token)-4] + "AAAA"
	_, err = signer.Verify(tampered)
	assert.Error(t, err)
}

func TestNewSignerRequiresKey(t *testing.T) {
	_, err := NewSigner("")
	assert.Error(t, err)
}

func TestSignRequiresMatchID(t *testing.T) {
	signer, err := NewSigner("key")
	require.NoError(t, err)

	_, err = signer.Sign(Record{}, time.Now())
	assert.Error(t, err)
}
