package middleware_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	gatemw "gatekeeper/internal/gate/middleware"
	"gatekeeper/internal/gate/models"
	"gatekeeper/pkg/requestcontext"
	"gatekeeper/pkg/testutil"
)

// stubGate returns canned decisions and records what it was asked.
type stubGate struct {
	result        models.SessionValidationResult
	lastReq       models.RequestDescriptor
	authorized    bool
	lastOperation models.Operation
	lastResource  string
}

func (g *stubGate) ValidateSession(_ context.Context, req models.RequestDescriptor) models.SessionValidationResult {
	g.lastReq = req
	return g.result
}

func (g *stubGate) Authorize(_ context.Context, _ models.Identity, operation models.Operation, resourceID string) bool {
	g.lastOperation = operation
	g.lastResource = resourceID
	return g.authorized
}

func validResult() models.SessionValidationResult {
	return models.SessionValidationResult{
		Valid:    true,
		Identity: models.Identity{ID: "identity-1", Role: models.RoleClient},
		Meta: models.SessionMeta{
			CorrelationID: "corr-1",
			RemoteAddr:    "203.0.113.1",
			RateRemaining: 42,
		},
	}
}

// =============================================================================
// Gate Middleware Test Suite
// =============================================================================

type MiddlewareSuite struct {
	suite.Suite
	gate *stubGate
	mw   *gatemw.Middleware
}

func TestMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(MiddlewareSuite))
}

func (s *MiddlewareSuite) SetupTest() {
	s.gate = &stubGate{result: validResult(), authorized: true}
	s.mw = gatemw.New(s.gate, nil)
}

func (s *MiddlewareSuite) router() http.Handler {
	r := chi.NewRouter()
	r.Route("/v1", func(r chi.Router) {
		r.Use(s.mw.RequireSession)
		r.With(s.mw.RequireOperation(models.OpReadCreditReport, "reportID")).
			Get("/reports/{reportID}", func(w http.ResponseWriter, r *http.Request) {
				session, ok := gatemw.Session(r.Context())
				s.True(ok, "handler must see the validated session")
				s.Equal("identity-1", session.Identity.ID)
				s.Equal("identity-1", requestcontext.IdentityID(r.Context()))
				w.WriteHeader(http.StatusOK)
			})
	})
	return r
}

func (s *MiddlewareSuite) TestRequireSession() {
	s.Run("valid session reaches the handler with rate headers", func() {
		rr := testutil.DoRequest(s.router(), testutil.NewRequest(s.T(), http.MethodGet, "/v1/reports/r1"))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		s.Equal("corr-1", rr.Header().Get("X-Correlation-ID"))
		s.Equal("42", rr.Header().Get("X-RateLimit-Remaining"))
	})

	s.Run("request descriptor carries bearer token and headers", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/v1/reports/r1")
		testutil.WithBearer(req, "tok-1")
		req.Header.Set("User-Agent", "TestBrowser/1.0")
		testutil.DoRequest(s.router(), req)

		s.Equal("tok-1", s.gate.lastReq.BearerToken)
		s.Equal("TestBrowser/1.0", s.gate.lastReq.UserAgent())
		s.Equal("GET /v1/reports/r1", s.gate.lastReq.Endpoint)
	})

	s.Run("session cookie is forwarded when no bearer token", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/v1/reports/r1")
		req.AddCookie(&http.Cookie{Name: gatemw.SessionCookie, Value: "cookie-tok"})
		testutil.DoRequest(s.router(), req)

		s.Empty(s.gate.lastReq.BearerToken)
		s.Equal("cookie-tok", s.gate.lastReq.CookieToken)
	})
}

func (s *MiddlewareSuite) TestDenialMapping() {
	cases := []struct {
		name       string
		reason     models.DenyReason
		wantStatus int
		wantCode   string
	}{
		{"unauthenticated maps to 401", models.DenyUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
		{"missing profile maps to the same 401", models.DenyProfileNotFound, http.StatusUnauthorized, "unauthenticated"},
		{"forbidden maps to 403", models.DenyForbidden, http.StatusForbidden, "forbidden"},
		{"rate limited maps to 429", models.DenyRateLimited, http.StatusTooManyRequests, "rate_limited"},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.gate.result = models.Denied(tc.reason)
			rr := testutil.DoRequest(s.router(), testutil.NewRequest(s.T(), http.MethodGet, "/v1/reports/r1"))
			testutil.AssertStatus(s.T(), rr, tc.wantStatus)
			testutil.AssertErrorCode(s.T(), rr, tc.wantCode)
		})
	}

	s.Run("rate limited responses carry Retry-After", func() {
		s.gate.result = models.Denied(models.DenyRateLimited)
		rr := testutil.DoRequest(s.router(), testutil.NewRequest(s.T(), http.MethodGet, "/v1/reports/r1"))
		s.NotEmpty(rr.Header().Get("Retry-After"))
	})
}

func (s *MiddlewareSuite) TestRequireOperation() {
	s.Run("resource parameter is forwarded to the gate", func() {
		testutil.DoRequest(s.router(), testutil.NewRequest(s.T(), http.MethodGet, "/v1/reports/report-7"))
		s.Equal(models.OpReadCreditReport, s.gate.lastOperation)
		s.Equal("report-7", s.gate.lastResource)
	})

	s.Run("denied authorization maps to 403", func() {
		s.gate.authorized = false
		rr := testutil.DoRequest(s.router(), testutil.NewRequest(s.T(), http.MethodGet, "/v1/reports/r1"))
		testutil.AssertStatus(s.T(), rr, http.StatusForbidden)
	})

	s.Run("missing session in the chain fails closed", func() {
		r := chi.NewRouter()
		r.With(s.mw.RequireOperation(models.OpReadProfile, "")).
			Get("/naked", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
		rr := testutil.DoRequest(r, testutil.NewRequest(s.T(), http.MethodGet, "/naked"))
		testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
	})
}
