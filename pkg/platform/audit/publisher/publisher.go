// Package publisher provides the asynchronous, fire-and-forget entry point
// into the audit pipeline. Emission never blocks the caller's primary
// operation: a full buffer drops the event and increments a counter.
package publisher

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"gatekeeper/pkg/platform/audit"
)

var droppedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "gatekeeper_audit_events_dropped_total",
	Help: "Audit events dropped because the publisher buffer was full.",
}, []string{"kind"})

// Publisher buffers events on channels drained by the audit worker.
type Publisher struct {
	events   chan audit.Event
	security chan audit.SecurityEvent
	logger   *slog.Logger
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithLogger sets the structured logger used for drop warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

// New creates a publisher with the given buffer size per channel.
func New(buffer int, opts ...Option) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	p := &Publisher{
		events:   make(chan audit.Event, buffer),
		security: make(chan audit.SecurityEvent, buffer),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit enqueues an audit event. A zero timestamp is stamped with now.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	select {
	case p.events <- event:
	default:
		droppedEvents.WithLabelValues("audit").Inc()
		if p.logger != nil {
			p.logger.WarnContext(ctx, "audit buffer full, event dropped", "action", event.Action)
		}
	}
}

// EmitSecurity enqueues a security event.
func (p *Publisher) EmitSecurity(ctx context.Context, event audit.SecurityEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.Severity == "" {
		event.Severity = audit.SeverityWarning
	}
	select {
	case p.security <- event:
	default:
		droppedEvents.WithLabelValues("security").Inc()
		if p.logger != nil {
			p.logger.WarnContext(ctx, "security buffer full, event dropped", "action", event.Action)
		}
	}
}

// Events exposes the audit channel for the worker.
func (p *Publisher) Events() <-chan audit.Event { return p.events }

// SecurityEvents exposes the security channel for the worker.
func (p *Publisher) SecurityEvents() <-chan audit.SecurityEvent { return p.security }
