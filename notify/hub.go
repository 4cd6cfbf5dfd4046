package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/logging"
)

// Hub fans run lifecycle events out to channel subscribers. Each notification
// channel id (one per connected client) has its own subscriber set, so one
// user's event stream never reaches another user's subscribers.
//
// Slow subscribers that have a full buffer are skipped (their event is
// dropped) to prevent one slow client from blocking all others.
type Hub struct {
	logger logging.Logger
	buffer int

	mu          sync.RWMutex
	subscribers map[string]map[chan core.Event]struct{}
	closed      bool
}

// HubOptions configures a Hub.
type HubOptions struct {
	// Logger records dropped events and lifecycle diagnostics.
	Logger logging.Logger
	// SubscriberBuffer is the per-subscriber channel capacity.
	SubscriberBuffer int
}

// NewHub creates an event hub with a 64-event subscriber buffer by default.
func NewHub(optFns ...func(o *HubOptions)) *Hub {
	opts := HubOptions{Logger: logging.NoOpLogger{}, SubscriberBuffer: 64}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Hub{
		logger:      opts.Logger,
		buffer:      opts.SubscriberBuffer,
		subscribers: make(map[string]map[chan core.Event]struct{}),
	}
}

// Subscribe registers a new subscriber for the given channel id and returns
// the receive channel plus an unsubscribe function. The unsubscribe function
// is idempotent and closes the channel.
func (h *Hub) Subscribe(channelID string) (<-chan core.Event, func()) {
	ch := make(chan core.Event, h.buffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	set, ok := h.subscribers[channelID]
	if !ok {
		set = make(map[chan core.Event]struct{})
		h.subscribers[channelID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			h.mu.Lock()
			if set, ok := h.subscribers[channelID]; ok {
				delete(set, ch)
				if len(set) == 0 {
					delete(h.subscribers, channelID)
				}
			}
			closed := h.closed
			h.mu.Unlock()
			if !closed {
				close(ch)
			}
		})
	}
	return ch, unsubscribe
}

// Publish delivers an event to every subscriber of the channel id. A channel
// with no subscribers is not an error: events published before a client
// reconnects are simply not observable. Publishing on a closed hub fails.
func (h *Hub) Publish(ctx context.Context, channelID string, ev core.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return fmt.Errorf("notify: hub closed")
	}
	for ch := range h.subscribers[channelID] {
		select {
		case ch <- ev:
		default:
			// Subscriber buffer full, drop this event for them.
			h.logger.Warn("notify: dropping event for slow subscriber", "channel_id", channelID, "kind", ev.Kind, "run_id", ev.RunID)
		}
	}
	return nil
}

// SubscriberCount returns the number of active subscribers for a channel id.
func (h *Hub) SubscriberCount(channelID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[channelID])
}

// Close shuts the hub down, closing every subscriber channel. Subsequent
// Publish calls fail; Close is idempotent.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, set := range h.subscribers {
		for ch := range set {
			close(ch)
		}
	}
	h.subscribers = make(map[string]map[chan core.Event]struct{})
}
