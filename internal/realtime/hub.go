// Package realtime fans session events out to WebSocket subscribers.
// Topics are scoped per session join code; the transport layer bridges
// subscriber channels onto websocket connections.
package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event types broadcast on a session topic.
const (
	EventParticipantUpdate = "participant_update"
	EventPhaseChange       = "phase_change"
	EventTimerStart        = "timer_start"
	EventCaseSelected      = "case_selected"
	EventSessionEnded      = "session_ended"
)

// Event is the wire format pushed to clients. ServerTime is the
// authoritative clock; clients reconcile local countdowns against it.
type Event struct {
	Type        string    `json:"type"`
	SessionCode string    `json:"session_code"`
	ServerTime  time.Time `json:"server_time"`
	Data        any       `json:"data,omitempty"`
}

const subscriberBuffer = 16

type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[string]chan Event
}

func NewHub() *Hub {
	return &Hub{
		topics: make(map[string]map[string]chan Event),
	}
}

// Subscribe registers a subscriber on the topic for code and returns
// its id plus the event channel. The caller must Unsubscribe when done.
func (h *Hub) Subscribe(code string) (string, <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := uuid.NewString()
	ch := make(chan Event, subscriberBuffer)

	subs, ok := h.topics[code]
	if !ok {
		subs = make(map[string]chan Event)
		h.topics[code] = subs
	}
	subs[id] = ch

	return id, ch
}

func (h *Hub) Unsubscribe(code, id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.topics[code]
	if !ok {
		return
	}
	if ch, ok := subs[id]; ok {
		close(ch)
		delete(subs, id)
	}
	if len(subs) == 0 {
		delete(h.topics, code)
	}
}

// Broadcast delivers ev to every subscriber on the topic. Slow
// subscribers with a full buffer are skipped rather than blocking the
// phase machinery.
func (h *Hub) Broadcast(code string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.topics[code] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// CloseTopic drops every subscriber on the topic, closing their
// channels. Used when a session ends.
func (h *Hub) CloseTopic(code string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.topics[code] {
		close(ch)
		delete(h.topics[code], id)
	}
	delete(h.topics, code)
}

// SubscriberCount returns the number of subscribers on the topic.
func (h *Hub) SubscriberCount(code string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.topics[code])
}
