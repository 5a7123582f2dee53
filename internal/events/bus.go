package events

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Type tags an event record on the wire.
type Type string

const (
	TypeConsentUpdate Type = "consent_update"
	TypeHeartbeat     Type = "heartbeat"
)

// Event is a consent-state-change notification. The stream is a convenience
// channel, not the source of truth: a subscriber that misses events
// re-fetches pending-request state on reconnect.
type Event struct {
	Type      Type   `json:"type"`
	RequestID string `json:"request_id,omitempty"`
	Status    string `json:"status,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

var eventsDropped = promauto.NewCounter(prometheus.CounterOpts{
	Name: "hearth_consent_events_dropped_total",
	Help: "Events dropped because a subscriber queue overflowed",
})

// defaultQueueDepth bounds each subscriber's queue. A slow subscriber loses
// its oldest events; it never back-pressures the publisher.
const defaultQueueDepth = 16

type subscriber struct {
	subjectID string
	ch        chan Event
}

// Bus fans consent events out to connected subscribers, keyed by subject.
// Delivery is at-most-once, best-effort. Publish never blocks.
type Bus struct {
	mu         sync.RWMutex
	subs       map[string]map[*subscriber]struct{}
	queueDepth int
	heartbeat  time.Duration
	clock      func() time.Time
}

// Option configures a Bus.
type Option func(*Bus)

// WithQueueDepth overrides the per-subscriber queue bound.
func WithQueueDepth(depth int) Option {
	return func(b *Bus) {
		if depth > 0 {
			b.queueDepth = depth
		}
	}
}

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) Option {
	return func(b *Bus) {
		if clock != nil {
			b.clock = clock
		}
	}
}

// NewBus constructs an event bus. heartbeat is the interval at which every
// subscriber receives a heartbeat event so it can tell "no news" from a
// silently dead connection.
func NewBus(heartbeat time.Duration, opts ...Option) *Bus {
	b := &Bus{
		subs:       make(map[string]map[*subscriber]struct{}),
		queueDepth: defaultQueueDepth,
		heartbeat:  heartbeat,
		clock:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Subscribe registers a new subscriber for the subject's events. The
// returned cancel function must be called when the connection goes away;
// after cancel the channel is closed.
func (b *Bus) Subscribe(subjectID string) (<-chan Event, func()) {
	sub := &subscriber{
		subjectID: subjectID,
		ch:        make(chan Event, b.queueDepth),
	}

	b.mu.Lock()
	set, ok := b.subs[subjectID]
	if !ok {
		set = make(map[*subscriber]struct{})
		b.subs[subjectID] = set
	}
	set[sub] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			if set, ok := b.subs[subjectID]; ok {
				delete(set, sub)
				if len(set) == 0 {
					delete(b.subs, subjectID)
				}
			}
			b.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Publish delivers an event to every subscriber of the subject. Fire and
// forget: a full queue drops its oldest event to make room rather than
// blocking the caller.
func (b *Bus) Publish(subjectID string, event Event) {
	if event.Timestamp == 0 {
		event.Timestamp = b.clock().UnixMilli()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs[subjectID] {
		b.offer(sub, event)
	}
}

// offer enqueues without blocking. Sends happen under the bus read lock;
// cancel removes the subscriber under the write lock before closing its
// channel, so a send can never race the close.
func (b *Bus) offer(sub *subscriber, event Event) {
	select {
	case sub.ch <- event:
		return
	default:
	}
	// Queue full: drop the oldest event, then try once more.
	select {
	case <-sub.ch:
		eventsDropped.Inc()
	default:
	}
	select {
	case sub.ch <- event:
	default:
		eventsDropped.Inc()
	}
}

// Run emits heartbeats to all subscribers on the configured interval until
// the context is cancelled.
func (b *Bus) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			b.broadcastHeartbeat()
		}
	}
}

func (b *Bus) broadcastHeartbeat() {
	event := Event{Type: TypeHeartbeat, Timestamp: b.clock().UnixMilli()}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, set := range b.subs {
		for sub := range set {
			b.offer(sub, event)
		}
	}
}
