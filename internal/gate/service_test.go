package gate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"gatekeeper/internal/gate/models"
	"gatekeeper/internal/gate/ports"
	"gatekeeper/internal/ownership"
	"gatekeeper/internal/profile"
	"gatekeeper/internal/ratewindow"
	rwstore "gatekeeper/internal/ratewindow/store"
	dErrors "gatekeeper/pkg/domain-errors"
	"gatekeeper/pkg/platform/audit"
	"gatekeeper/pkg/requestcontext"
)

const (
	browserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	testToken    = "token-client"
	testIdentity = "identity-1"
)

// =============================================================================
// Test Fakes
// =============================================================================

type recordingPublisher struct {
	mu       sync.Mutex
	events   []audit.Event
	security []audit.SecurityEvent
}

func (p *recordingPublisher) Emit(_ context.Context, event audit.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) EmitSecurity(_ context.Context, event audit.SecurityEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.security = append(p.security, event)
}

func (p *recordingPublisher) Security() []audit.SecurityEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]audit.SecurityEvent, len(p.security))
	copy(out, p.security)
	return out
}

func (p *recordingPublisher) Events() []audit.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]audit.Event, len(p.events))
	copy(out, p.events)
	return out
}

type fakeIdentityProvider struct {
	identities map[string]models.Identity
	calls      int
}

func (f *fakeIdentityProvider) ResolveCredential(_ context.Context, credential string) (models.Identity, error) {
	f.calls++
	if identity, ok := f.identities[credential]; ok {
		return identity, nil
	}
	return models.Identity{}, dErrors.New(dErrors.CodeUnauthenticated, "invalid credential")
}

type failingProfileStore struct{}

func (failingProfileStore) GetProfile(context.Context, string) (models.Profile, error) {
	return models.Profile{}, errors.New("connection refused")
}

type failingWindowStore struct{}

func (failingWindowStore) CountSince(context.Context, string, time.Time) (int, error) {
	return 0, errors.New("connection refused")
}

func (failingWindowStore) Insert(context.Context, ratewindow.Entry) error {
	return errors.New("connection refused")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// =============================================================================
// Gate Service Test Suite
// =============================================================================

type GateServiceSuite struct {
	suite.Suite
	provider    *fakeIdentityProvider
	profiles    *profile.MemoryStore
	owners      *ownership.MemoryStore
	windowStore *rwstore.MemoryStore
	pub         *recordingPublisher
	service     *Service
}

func TestGateServiceSuite(t *testing.T) {
	suite.Run(t, new(GateServiceSuite))
}

func (s *GateServiceSuite) SetupTest() {
	s.provider = &fakeIdentityProvider{identities: map[string]models.Identity{
		testToken: {ID: testIdentity},
	}}
	s.profiles = profile.NewMemory()
	s.profiles.Put(models.Profile{
		IdentityID: testIdentity,
		Role:       models.RoleClient,
		Status:     "active",
	})
	s.owners = ownership.NewMemory()
	s.windowStore = rwstore.NewMemory()
	s.pub = &recordingPublisher{}
	s.service = s.newService(100)
}

func (s *GateServiceSuite) newService(limit int, opts ...Option) *Service {
	limiter, err := ratewindow.New(s.windowStore,
		ratewindow.WithLimit(limit),
		ratewindow.WithLogger(discardLogger()),
		ratewindow.WithSecurityPublisher(s.pub),
	)
	s.Require().NoError(err)

	opts = append([]Option{
		WithLogger(discardLogger()),
		WithAuditPublisher(s.pub),
	}, opts...)
	svc, err := New(s.provider, s.profiles, s.owners, limiter, opts...)
	s.Require().NoError(err)
	return svc
}

func descriptor(token, agent string, headers map[string]string) models.RequestDescriptor {
	desc := models.RequestDescriptor{
		BearerToken: token,
		Headers:     map[string]string{},
		Endpoint:    "GET /v1/profile",
	}
	if agent != "" {
		desc.Headers["User-Agent"] = agent
	}
	for k, v := range headers {
		desc.Headers[k] = v
	}
	return desc
}

func (s *GateServiceSuite) windowCount(identityID string) int {
	count, err := s.windowStore.CountSince(context.Background(), identityID, time.Now().Add(-time.Hour))
	s.Require().NoError(err)
	return count
}

// =============================================================================
// Constructor Tests
// =============================================================================

func (s *GateServiceSuite) TestNew() {
	limiter, err := ratewindow.New(s.windowStore)
	s.Require().NoError(err)

	s.Run("nil identity provider returns error", func() {
		_, err := New(nil, s.profiles, s.owners, limiter)
		s.ErrorContains(err, "identity provider is required")
	})

	s.Run("nil profile store returns error", func() {
		_, err := New(s.provider, nil, s.owners, limiter)
		s.ErrorContains(err, "profile store is required")
	})

	s.Run("nil ownership store returns error", func() {
		_, err := New(s.provider, s.profiles, nil, limiter)
		s.ErrorContains(err, "ownership store is required")
	})

	s.Run("nil limiter returns error", func() {
		_, err := New(s.provider, s.profiles, s.owners, nil)
		s.ErrorContains(err, "rate limiter is required")
	})
}

// =============================================================================
// Validation Pipeline Tests
// =============================================================================

func (s *GateServiceSuite) TestValidateSessionUnauthenticated() {
	ctx := context.Background()

	s.Run("missing credential rejects without collaborator calls", func() {
		result := s.service.ValidateSession(ctx, descriptor("", browserAgent, nil))
		s.False(result.Valid)
		s.Equal(models.DenyUnauthenticated, result.Reason)
		s.Zero(s.provider.calls)
		s.Zero(s.windowCount(testIdentity))
	})

	s.Run("cookie credential is accepted when bearer is absent", func() {
		desc := descriptor("", browserAgent, nil)
		desc.CookieToken = testToken
		result := s.service.ValidateSession(ctx, desc)
		s.True(result.Valid)
	})

	s.Run("unresolvable credential rejects", func() {
		result := s.service.ValidateSession(ctx, descriptor("garbage", browserAgent, nil))
		s.False(result.Valid)
		s.Equal(models.DenyUnauthenticated, result.Reason)
	})
}

func (s *GateServiceSuite) TestValidateSessionHeuristics() {
	ctx := context.Background()

	s.Run("empty agent is flagged", func() {
		result := s.service.ValidateSession(ctx, descriptor(testToken, "", nil))
		s.False(result.Valid)
		s.Equal(models.DenyForbidden, result.Reason)

		events := s.pub.Security()
		s.Require().Len(events, 1)
		s.Equal(string(audit.ActionAgentFlagged), events[0].Action)
	})

	s.Run("automation signature is flagged", func() {
		result := s.service.ValidateSession(ctx, descriptor(testToken, "curl/8.4.0", nil))
		s.False(result.Valid)
		s.Equal(models.DenyForbidden, result.Reason)
	})

	s.Run("flagged requests never charge window budget", func() {
		s.Zero(s.windowCount(testIdentity))
	})

	s.Run("origin check runs before agent check", func() {
		service := s.newService(100, WithReputation(ports.ReputationFunc(
			func(_ context.Context, addr string) bool { return addr == "203.0.113.9" },
		)))
		result := service.ValidateSession(ctx, descriptor(testToken, "curl/8.4.0", map[string]string{
			"CF-Connecting-IP": "203.0.113.9",
		}))
		s.False(result.Valid)
		s.Equal(models.DenyForbidden, result.Reason)

		events := s.pub.Security()
		last := events[len(events)-1]
		s.Equal(string(audit.ActionOriginFlagged), last.Action)
		s.Equal("203.0.113.9", last.IP)
	})
}

func (s *GateServiceSuite) TestValidateSessionRateLimit() {
	ctx := context.Background()
	service := s.newService(2)

	first := service.ValidateSession(ctx, descriptor(testToken, browserAgent, nil))
	s.Require().True(first.Valid)
	s.Equal(1, first.Meta.RateRemaining)

	second := service.ValidateSession(ctx, descriptor(testToken, browserAgent, nil))
	s.Require().True(second.Valid)
	s.Equal(0, second.Meta.RateRemaining)

	third := service.ValidateSession(ctx, descriptor(testToken, browserAgent, map[string]string{
		"X-Real-IP": "198.51.100.7",
	}))
	s.False(third.Valid)
	s.Equal(models.DenyRateLimited, third.Reason)

	s.Run("rejected attempt is not recorded as a window entry", func() {
		s.Equal(2, s.windowCount(testIdentity))
	})

	s.Run("rejection emits a security event with the remote address", func() {
		events := s.pub.Security()
		s.Require().NotEmpty(events)
		last := events[len(events)-1]
		s.Equal(string(audit.ActionRateLimitExceeded), last.Action)
		s.Equal(testIdentity, last.IdentityID)
		s.Equal("198.51.100.7", last.IP)
	})

	s.Run("window store outage fails open", func() {
		limiter, err := ratewindow.New(failingWindowStore{}, ratewindow.WithLogger(discardLogger()))
		s.Require().NoError(err)
		svc, err := New(s.provider, s.profiles, s.owners, limiter, WithLogger(discardLogger()))
		s.Require().NoError(err)

		result := svc.ValidateSession(ctx, descriptor(testToken, browserAgent, nil))
		s.True(result.Valid)
	})
}

func (s *GateServiceSuite) TestValidateSessionProfile() {
	ctx := context.Background()

	s.Run("identity without profile is rejected", func() {
		s.provider.identities["token-orphan"] = models.Identity{ID: "identity-orphan"}
		result := s.service.ValidateSession(ctx, descriptor("token-orphan", browserAgent, nil))
		s.False(result.Valid)
		s.Equal(models.DenyProfileNotFound, result.Reason)
	})

	s.Run("profile store outage fails closed", func() {
		limiter, err := ratewindow.New(s.windowStore, ratewindow.WithLogger(discardLogger()))
		s.Require().NoError(err)
		svc, err := New(s.provider, failingProfileStore{}, s.owners, limiter, WithLogger(discardLogger()))
		s.Require().NoError(err)

		result := svc.ValidateSession(ctx, descriptor(testToken, browserAgent, nil))
		s.False(result.Valid)
		s.Equal(models.DenyProfileNotFound, result.Reason)
	})
}

func (s *GateServiceSuite) TestValidateSessionSuccess() {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)

	result := s.service.ValidateSession(ctx, descriptor(testToken, browserAgent, map[string]string{
		"CF-Connecting-IP": "203.0.113.20",
	}))

	s.Require().True(result.Valid)
	s.Empty(result.Reason)
	s.Equal(testIdentity, result.Identity.ID)
	s.Equal(models.RoleClient, result.Identity.Role, "role comes from the profile record")

	s.Run("session metadata is fully populated", func() {
		s.NotEmpty(result.Meta.CorrelationID)
		s.Equal("203.0.113.20", result.Meta.RemoteAddr)
		s.Equal(browserAgent, result.Meta.UserAgent)
		s.Equal(now, result.Meta.ValidatedAt)
		s.Equal(99, result.Meta.RateRemaining)
	})

	s.Run("correlation IDs are unique per validation", func() {
		second := s.service.ValidateSession(ctx, descriptor(testToken, browserAgent, nil))
		s.Require().True(second.Valid)
		s.NotEqual(result.Meta.CorrelationID, second.Meta.CorrelationID)
	})
}

// =============================================================================
// Audit Recording Tests
// =============================================================================

func (s *GateServiceSuite) TestRecordAudit() {
	ctx := requestcontext.WithRequestID(context.Background(), "req-42")

	s.service.RecordAudit(ctx, testIdentity, audit.ActionDisputeCreated, models.ResourceDispute, "dispute-1", map[string]string{
		"report_id": "report-1",
	})

	events := s.pub.Events()
	s.Require().Len(events, 1)
	s.Equal(testIdentity, events[0].IdentityID)
	s.Equal(string(audit.ActionDisputeCreated), events[0].Action)
	s.Equal(string(models.ResourceDispute), events[0].ResourceType)
	s.Equal("dispute-1", events[0].ResourceID)
	s.Equal("req-42", events[0].RequestID)
	s.Equal("report-1", events[0].Metadata["report_id"])
	s.False(events[0].Timestamp.IsZero())
}
