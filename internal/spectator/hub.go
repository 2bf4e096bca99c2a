// Package spectator serves a read-only live feed of match events and state
// snapshots over websockets. The feed can observe a match but never mutate
// it; inbound client messages are discarded.
package spectator

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/rajarshidattapy/monaddotsus/engine"
)

// subscriberBuffer is the per-client queue depth. A client that falls this
// far behind is dropped rather than allowed to stall the feed.
const subscriberBuffer = 256

// Frame is one feed message: either a match event or a full state snapshot.
type Frame struct {
	Kind  string           `json:"kind"` // "event" or "state"
	Event *engine.Event    `json:"event,omitempty"`
	State *engine.Snapshot `json:"state,omitempty"`
}

type subscriber struct {
	ch chan []byte
}

// Hub fans feed frames out to every connected spectator.
type Hub struct {
	log *logrus.Entry

	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

// NewHub builds an empty hub.
func NewHub(log *logrus.Logger) *Hub {
	if log == nil {
		log = logrus.New()
	}
	return &Hub{
		log:  log.WithField("component", "spectator"),
		subs: make(map[*subscriber]struct{}),
	}
}

// PublishEvent broadcasts one match event to all spectators.
func (h *Hub) PublishEvent(ev engine.Event) {
	h.broadcast(Frame{Kind: "event", Event: &ev})
}

// PublishState broadcasts a full state snapshot to all spectators.
func (h *Hub) PublishState(snap engine.Snapshot) {
	h.broadcast(Frame{Kind: "state", State: &snap})
}

// Sink adapts the hub to the engine's event sink signature.
func (h *Hub) Sink() engine.EventSink {
	return h.PublishEvent
}

// SubscriberCount returns the number of connected spectators.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// broadcast marshals the frame once and queues it on every subscriber,
// dropping any subscriber whose queue is full.
func (h *Hub) broadcast(f Frame) {
	buf, err := json.Marshal(f)
	if err != nil {
		h.log.WithError(err).Error("marshal feed frame")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		select {
		case s.ch <- buf:
		default:
			delete(h.subs, s)
			close(s.ch)
			h.log.Warn("dropping slow spectator")
		}
	}
}

func (h *Hub) subscribe() *subscriber {
	s := &subscriber{ch: make(chan []byte, subscriberBuffer)}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

func (h *Hub) unsubscribe(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s]; ok {
		delete(h.subs, s)
		close(s.ch)
	}
}

// ServeHTTP upgrades the request to a websocket and streams feed frames
// until the client disconnects or the hub drops it.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket accept failed")
		return
	}
	defer c.Close(websocket.StatusInternalError, "feed closed")

	// Read side only services control frames; spectators have no say.
	ctx := c.CloseRead(r.Context())

	s := h.subscribe()
	defer h.unsubscribe(s)
	h.log.Info("spectator connected")

	for {
		select {
		case <-ctx.Done():
			c.Close(websocket.StatusNormalClosure, "")
			return
		case buf, ok := <-s.ch:
			if !ok {
				c.Close(websocket.StatusPolicyViolation, "too slow")
				return
			}
			if err := c.Write(ctx, websocket.MessageText, buf); err != nil {
				h.log.WithError(err).Debug("spectator write failed")
				return
			}
		}
	}
}
