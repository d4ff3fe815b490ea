// Package hub fans events out to every connected app window: reminders to
// show or close, navigation requests, and storage changes from other writers.
package hub

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/flarebyte/shiftlog/internal/kv"
	"github.com/flarebyte/shiftlog/internal/log"
	"github.com/flarebyte/shiftlog/internal/reminder"
)

const subscriberBuffer = 64

// Message types sent to subscribers.
const (
	TypeShow         = "notification.show"
	TypeClose        = "notification.close"
	TypeNavigate     = "navigate"
	TypeStoreChanged = "store.changed"
)

// ErrNoSubscribers is returned when a message had nobody to reach.
var ErrNoSubscribers = errors.New("hub: no subscribers")

// Message is one event on the wire.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Hub broadcasts messages to all subscribers. A subscriber whose buffer is
// full misses the message rather than blocking the others.
type Hub struct {
	mu          sync.RWMutex
	subscribers []chan Message
	dropped     atomic.Int64
}

// New returns an empty Hub.
func New() *Hub {
	return &Hub{}
}

// Subscribe returns a buffered channel receiving every broadcast.
func (h *Hub) Subscribe() <-chan Message {
	ch := make(chan Message, subscriberBuffer)
	h.mu.Lock()
	h.subscribers = append(h.subscribers, ch)
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes ch. Unknown channels are ignored.
func (h *Hub) Unsubscribe(ch <-chan Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, s := range h.subscribers {
		if s == ch {
			close(s)
			h.subscribers = append(h.subscribers[:i], h.subscribers[i+1:]...)
			return
		}
	}
}

// Subscribers is the number of live subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Dropped returns how many deliveries were skipped for slow consumers.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Broadcast sends m to every subscriber and returns how many received it.
func (h *Hub) Broadcast(m Message) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	sent := 0
	for _, ch := range h.subscribers {
		select {
		case ch <- m:
			sent++
		default:
			n := h.dropped.Add(1)
			log.GetLogger().WithField("type", m.Type).WithField("dropped", n).Warn("hub: dropped message for slow consumer")
		}
	}
	return sent
}

func (h *Hub) deliver(m Message) error {
	if h.Broadcast(m) == 0 {
		return ErrNoSubscribers
	}
	return nil
}

// Show implements reminder.Notifier.
func (h *Hub) Show(_ context.Context, n reminder.Notification) error {
	return h.deliver(Message{Type: TypeShow, Data: n})
}

// Close implements reminder.Notifier. Closing with nobody listening is fine.
func (h *Hub) Close(_ context.Context, id string) error {
	h.Broadcast(Message{Type: TypeClose, Data: map[string]string{"id": id}})
	return nil
}

// Open implements reminder.Opener.
func (h *Hub) Open(_ context.Context, path string) error {
	return h.deliver(Message{Type: TypeNavigate, Data: map[string]string{"path": path}})
}

// Start forwards storage changes until ctx is done or changes closes, then
// closes every subscriber.
func (h *Hub) Start(ctx context.Context, changes <-chan kv.Change) {
	defer h.closeAll()
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-changes:
			if !ok {
				return
			}
			h.Broadcast(Message{Type: TypeStoreChanged, Data: c})
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subscribers {
		close(ch)
	}
	h.subscribers = nil
}

var (
	_ reminder.Notifier = (*Hub)(nil)
	_ reminder.Opener   = (*Hub)(nil)
)
