// Package ratewindow implements a sliding-window rate limiter over a
// persisted request log. The window trails continuously: only entries with
// timestamps inside [now-window, now] count toward the limit.
//
// The limiter is advisory, not a hard cap. It holds no in-process state;
// concurrent checks for the same identity can both read a count below the
// threshold and both be admitted, overshooting the limit by at most the
// concurrency level minus one. The backing store needs read-committed
// isolation for the count-then-insert sequence to be meaningful.
package ratewindow

import (
	"context"
	"log/slog"
	"time"

	"gatekeeper/pkg/platform/audit"
	"gatekeeper/pkg/requestcontext"
)

// Defaults applied when no options override them.
const (
	DefaultWindow      = time.Hour
	DefaultMaxRequests = 100
)

// Entry is one persisted request-log row.
type Entry struct {
	IdentityID string
	RemoteAddr string
	Endpoint   string
	OccurredAt time.Time
}

// Result is the outcome of one rate-limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// FailedOpen marks results produced while the store was unavailable.
	// The request was admitted without charging the window.
	FailedOpen bool
}

// Store persists and counts request-log entries.
type Store interface {
	// CountSince returns how many entries for the identity have
	// timestamps at or after windowStart.
	CountSince(ctx context.Context, identityID string, windowStart time.Time) (int, error)

	// Insert appends one request-log entry.
	Insert(ctx context.Context, entry Entry) error
}

// SecurityPublisher receives rate_limit_exceeded events.
type SecurityPublisher interface {
	EmitSecurity(ctx context.Context, event audit.SecurityEvent)
}

// Service owns the count-then-insert sequence, the remaining-budget math,
// and the fail-open policy.
type Service struct {
	store     Store
	window    time.Duration
	limit     int
	logger    *slog.Logger
	publisher SecurityPublisher
	metrics   *Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithWindow overrides the trailing window length.
func WithWindow(window time.Duration) Option {
	return func(s *Service) {
		if window > 0 {
			s.window = window
		}
	}
}

// WithLimit overrides the maximum requests per window.
func WithLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.limit = limit
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithSecurityPublisher wires security-event emission for rejections.
func WithSecurityPublisher(p SecurityPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithMetrics wires prometheus counters.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New creates a limiter backed by store.
func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errStoreRequired
	}
	s := &Service{
		store:  store,
		window: DefaultWindow,
		limit:  DefaultMaxRequests,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Check applies the sliding-window limit for one request.
//
// Allowed requests are recorded as new window entries and the result carries
// the remaining budget (limit - count - 1). Rejected requests are NOT
// recorded — a caller at the limit does not extend its own lockout — and a
// rate_limit_exceeded security event is emitted with the remote address.
//
// If the count query fails the request is admitted without a new entry
// (fail-open): availability beats strictness for an advisory limiter.
func (s *Service) Check(ctx context.Context, identityID, remoteAddr, endpoint string) *Result {
	now := requestcontext.Now(ctx)
	windowStart := now.Add(-s.window)

	count, err := s.store.CountSince(ctx, identityID, windowStart)
	if err != nil {
		s.logError(ctx, "rate window count failed, failing open", identityID, err)
		s.observe("failed_open")
		return &Result{Allowed: true, Limit: s.limit, Remaining: s.limit - 1, ResetAt: now.Add(s.window), FailedOpen: true}
	}

	if count >= s.limit {
		s.observe("rejected")
		if s.publisher != nil {
			s.publisher.EmitSecurity(ctx, audit.SecurityEvent{
				Timestamp:  now,
				IdentityID: identityID,
				Action:     string(audit.ActionRateLimitExceeded),
				Reason:     "window budget exhausted",
				IP:         remoteAddr,
				RequestID:  requestcontext.RequestID(ctx),
				Severity:   audit.SeverityWarning,
			})
		}
		if s.logger != nil {
			s.logger.WarnContext(ctx, "rate limit exceeded",
				"identity_id", identityID,
				"remote_addr", remoteAddr,
				"count", count,
				"limit", s.limit,
			)
		}
		return &Result{Allowed: false, Limit: s.limit, Remaining: 0, ResetAt: now.Add(s.window)}
	}

	entry := Entry{
		IdentityID: identityID,
		RemoteAddr: remoteAddr,
		Endpoint:   endpoint,
		OccurredAt: now,
	}
	if err := s.store.Insert(ctx, entry); err != nil {
		// Insert failure follows the same availability-over-strictness
		// policy as the count: admit, log, skip the entry.
		s.logError(ctx, "rate window insert failed", identityID, err)
	}

	s.observe("allowed")
	return &Result{Allowed: true, Limit: s.limit, Remaining: s.limit - count - 1, ResetAt: now.Add(s.window)}
}

func (s *Service) observe(outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveCheck(outcome)
	}
}

func (s *Service) logError(ctx context.Context, msg, identityID string, err error) {
	if s.logger != nil {
		s.logger.ErrorContext(ctx, msg, "identity_id", identityID, "error", err)
	}
}
