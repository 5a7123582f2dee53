package audit

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/trace"
)

var auditDropped = promauto.NewCounter(prometheus.CounterOpts{
	Name: "hearth_audit_events_dropped_total",
	Help: "Audit events dropped because the inbox was full",
})

// defaultInboxDepth buffers bursts between request handling and the worker.
const defaultInboxDepth = 256

// Publisher accepts audit events from request paths without blocking them.
// Events flow through a bounded inbox to the Worker; under sustained
// overload the newest events are dropped and counted rather than stalling
// a consent decision.
type Publisher struct {
	inbox chan Event
	clock func() time.Time
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) PublisherOption {
	return func(p *Publisher) {
		if clock != nil {
			p.clock = clock
		}
	}
}

func NewPublisher(opts ...PublisherOption) *Publisher {
	p := &Publisher{
		inbox: make(chan Event, defaultInboxDepth),
		clock: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Emit stamps and enqueues an event. The current trace ID, when one is
// recording, is attached so audit lines correlate with traces.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = p.clock()
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		event.TraceID = sc.TraceID().String()
	}
	select {
	case p.inbox <- event:
	default:
		auditDropped.Inc()
	}
}

// Inbox exposes the event channel for the Worker.
func (p *Publisher) Inbox() <-chan Event {
	return p.inbox
}
