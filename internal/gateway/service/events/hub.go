// Package events fans discovery events out to live subscribers.
package events

import (
	"context"
	"sync"

	"animaldex/internal/gateway/entity"
)

const subscriberBuffer = 16

// DiscoveryEvent announces that a player recorded a new species.
type DiscoveryEvent struct {
	Handle entity.Handle `json:"handle"`
	Label  string        `json:"label"`
	Level  int           `json:"level"`
	Badge  string        `json:"badge"`
}

// Hub routes events per player handle. Publish never blocks: slow
// subscribers miss events rather than stalling the orchestrator.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan DiscoveryEvent]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan DiscoveryEvent]struct{})}
}

// Subscribe returns a channel of events for the handle. The channel is
// closed and the subscription removed when ctx is done.
func (h *Hub) Subscribe(ctx context.Context, handle entity.Handle) <-chan DiscoveryEvent {
	ch := make(chan DiscoveryEvent, subscriberBuffer)
	key := handle.String()

	h.mu.Lock()
	if h.subs[key] == nil {
		h.subs[key] = make(map[chan DiscoveryEvent]struct{})
	}
	h.subs[key][ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		if set, ok := h.subs[key]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subs, key)
			}
		}
		h.mu.Unlock()
		close(ch)
	}()
	return ch
}

func (h *Hub) Publish(evt DiscoveryEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[evt.Handle.String()] {
		select {
		case ch <- evt:
		default:
		}
	}
}
