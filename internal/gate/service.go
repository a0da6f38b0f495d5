// Package gate implements the access-control core: session validation,
// heuristic security checks, sliding-window rate limiting, role and
// ownership authorization, and audit emission.
//
// The gate holds no mutable state between calls; counters and facts live
// in the injected stores. Every call is a straight-line pipeline with four
// exit gates, in order: Unauthenticated, Forbidden, RateLimited,
// ProfileNotFound. There is no retry within one call.
package gate

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"gatekeeper/internal/gate/metrics"
	"gatekeeper/internal/gate/models"
	"gatekeeper/internal/gate/ports"
	"gatekeeper/internal/ratewindow"
	"gatekeeper/pkg/platform/audit"
	"gatekeeper/pkg/platform/sentinel"
	"gatekeeper/pkg/requestcontext"
)

// RateLimiter is the slice of the rate-window service the gate needs.
type RateLimiter interface {
	Check(ctx context.Context, identityID, remoteAddr, endpoint string) *ratewindow.Result
}

// Service is the access-control gate.
type Service struct {
	identity  ports.IdentityProvider
	profiles  ports.ProfileStore
	ownership ports.OwnershipStore
	limiter   RateLimiter

	publisher     ports.AuditPublisher
	reputation    ports.ReputationChecker
	agentPatterns []string
	logger        *slog.Logger
	metrics       *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAuditPublisher wires audit and security event emission.
func WithAuditPublisher(p ports.AuditPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithReputation injects a threat-intel origin check.
func WithReputation(r ports.ReputationChecker) Option {
	return func(s *Service) {
		if r != nil {
			s.reputation = r
		}
	}
}

// WithAgentPatterns overrides the automation signature list.
func WithAgentPatterns(patterns []string) Option {
	return func(s *Service) {
		if len(patterns) > 0 {
			s.agentPatterns = patterns
		}
	}
}

// WithMetrics wires prometheus counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// defaultAgentPatterns matches the config default; kept here so a gate
// constructed without options still filters the obvious scripted clients.
var defaultAgentPatterns = []string{"bot", "crawler", "spider", "scraper", "curl", "wget"}

// permissiveReputation never flags; deployments replace it via
// WithReputation.
var permissiveReputation = ports.ReputationFunc(func(context.Context, string) bool { return false })

// New creates a gate. All four collaborators are required.
func New(identity ports.IdentityProvider, profiles ports.ProfileStore, ownership ports.OwnershipStore, limiter RateLimiter, opts ...Option) (*Service, error) {
	if identity == nil {
		return nil, errors.New("identity provider is required")
	}
	if profiles == nil {
		return nil, errors.New("profile store is required")
	}
	if ownership == nil {
		return nil, errors.New("ownership store is required")
	}
	if limiter == nil {
		return nil, errors.New("rate limiter is required")
	}
	s := &Service{
		identity:      identity,
		profiles:      profiles,
		ownership:     ownership,
		limiter:       limiter,
		reputation:    permissiveReputation,
		agentPatterns: defaultAgentPatterns,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ValidateSession runs the validation pipeline for one request. The result
// is never partially valid: either Valid with a complete identity and
// session metadata, or invalid with exactly one reason.
func (s *Service) ValidateSession(ctx context.Context, req models.RequestDescriptor) models.SessionValidationResult {
	// Gate 1: credential presence. No external calls before this passes.
	credential := req.Credential()
	if credential == "" {
		s.observeValidation("unauthenticated")
		return models.Denied(models.DenyUnauthenticated)
	}

	identity, err := s.identity.ResolveCredential(ctx, credential)
	if err != nil || identity.ID == "" {
		if err != nil {
			s.logger.InfoContext(ctx, "credential resolution failed", "error", err)
		}
		s.observeValidation("unauthenticated")
		return models.Denied(models.DenyUnauthenticated)
	}

	remoteAddr := EffectiveRemoteAddr(req)
	agent := req.UserAgent()

	// Gate 2: heuristic security checks, both must pass. Rejection here
	// happens before the rate limiter so flagged traffic is not charged
	// window budget.
	if s.reputation.IsSuspicious(ctx, remoteAddr) {
		s.flagRequest(ctx, identity.ID, remoteAddr, audit.ActionOriginFlagged, "origin flagged by reputation check")
		return models.Denied(models.DenyForbidden)
	}
	if suspiciousAgent(agent, s.agentPatterns) {
		s.flagRequest(ctx, identity.ID, remoteAddr, audit.ActionAgentFlagged, "agent matches automation signature")
		return models.Denied(models.DenyForbidden)
	}

	// Gate 3: sliding-window rate limit. The limiter emits its own
	// security event on rejection and fails open on store errors.
	rate := s.limiter.Check(ctx, identity.ID, remoteAddr, req.Endpoint)
	if !rate.Allowed {
		s.observeValidation("rate_limited")
		return models.Denied(models.DenyRateLimited)
	}

	// Gate 4: profile resolution, fail-closed.
	profile, err := s.profiles.GetProfile(ctx, identity.ID)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.ErrorContext(ctx, "profile lookup failed, denying",
				"identity_id", identity.ID,
				"error", err,
			)
		}
		s.observeValidation("profile_not_found")
		return models.Denied(models.DenyProfileNotFound)
	}

	identity.Role = profile.Role
	identity.Permissions = profile.Permissions

	s.observeValidation("valid")
	return models.SessionValidationResult{
		Valid:    true,
		Identity: identity,
		Meta: models.SessionMeta{
			CorrelationID: uuid.NewString(),
			RemoteAddr:    remoteAddr,
			UserAgent:     agent,
			ValidatedAt:   requestcontext.Now(ctx),
			RateRemaining: rate.Remaining,
		},
	}
}

// RecordAudit appends an audit entry for a completed action. Fire and
// forget: emission cannot fail the caller, and a missing publisher only
// degrades to a log line.
func (s *Service) RecordAudit(ctx context.Context, identityID string, action audit.Action, resourceType models.ResourceType, resourceID string, metadata map[string]string) {
	event := audit.Event{
		Timestamp:    requestcontext.Now(ctx),
		IdentityID:   identityID,
		Action:       string(action),
		ResourceType: string(resourceType),
		ResourceID:   resourceID,
		Metadata:     metadata,
		RequestID:    requestcontext.RequestID(ctx),
	}
	if s.publisher == nil {
		s.logger.InfoContext(ctx, "audit event (no publisher configured)",
			"identity_id", identityID,
			"action", string(action),
			"resource_type", string(resourceType),
			"resource_id", resourceID,
		)
		return
	}
	s.publisher.Emit(ctx, event)
}

// flagRequest records a heuristic rejection: metric, operator log with the
// precise reason, and a security event naming the failed check.
func (s *Service) flagRequest(ctx context.Context, identityID, remoteAddr string, action audit.Action, reason string) {
	s.observeValidation("forbidden")
	s.logger.WarnContext(ctx, "security check failed",
		"identity_id", identityID,
		"remote_addr", remoteAddr,
		"check", string(action),
		"reason", reason,
	)
	if s.publisher != nil {
		s.publisher.EmitSecurity(ctx, audit.SecurityEvent{
			IdentityID: identityID,
			Action:     string(action),
			Reason:     reason,
			IP:         remoteAddr,
			RequestID:  requestcontext.RequestID(ctx),
			Severity:   audit.SeverityWarning,
		})
	}
}

func (s *Service) observeValidation(outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveValidation(outcome)
	}
}
