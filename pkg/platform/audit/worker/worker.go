// Package worker drains the audit publisher channels into a store. Store
// failures are logged and the event discarded; audit persistence must never
// take down the service.
package worker

import (
	"context"
	"log/slog"

	"gatekeeper/pkg/platform/audit"
	"gatekeeper/pkg/platform/audit/publisher"
)

// SecuritySink receives security events in addition to the primary store,
// e.g. a Kafka topic feeding a monitoring pipeline. Optional.
type SecuritySink interface {
	Publish(ctx context.Context, event audit.SecurityEvent) error
}

// Worker consumes events from a publisher and persists them.
type Worker struct {
	store  audit.Store
	pub    *publisher.Publisher
	sink   SecuritySink
	logger *slog.Logger
}

// Option configures a Worker.
type Option func(*Worker)

// WithSecuritySink forwards security events to an additional sink.
func WithSecuritySink(sink SecuritySink) Option {
	return func(w *Worker) { w.sink = sink }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) { w.logger = logger }
}

// New creates a worker draining pub into store.
func New(store audit.Store, pub *publisher.Publisher, opts ...Option) *Worker {
	w := &Worker{store: store, pub: pub}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run processes events until ctx is cancelled. It returns ctx.Err() on
// shutdown; persistence errors are logged, never returned.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.pub.Events():
			if err := w.store.Append(ctx, event); err != nil {
				w.warn(ctx, "audit append failed", event.Action, err)
			}
		case event := <-w.pub.SecurityEvents():
			if err := w.store.AppendSecurity(ctx, event); err != nil {
				w.warn(ctx, "security append failed", event.Action, err)
			}
			if w.sink != nil {
				if err := w.sink.Publish(ctx, event); err != nil {
					w.warn(ctx, "security sink publish failed", event.Action, err)
				}
			}
		}
	}
}

func (w *Worker) warn(ctx context.Context, msg, action string, err error) {
	if w.logger != nil {
		w.logger.WarnContext(ctx, msg, "action", action, "error", err)
	}
}
