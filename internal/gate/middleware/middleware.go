// Package middleware adapts the gate to chi handler chains. RequireSession
// runs the validation pipeline ahead of handlers; RequireOperation enforces
// authorization for a specific operation. Denial responses are generic on
// purpose: which internal check rejected a request is recorded in logs and
// security events, never revealed to the caller.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"gatekeeper/internal/gate/models"
	dErrors "gatekeeper/pkg/domain-errors"
	"gatekeeper/pkg/platform/httputil"
	"gatekeeper/pkg/requestcontext"
)

// SessionCookie is the cookie consulted when no bearer token is present.
const SessionCookie = "session_token"

type sessionKey struct{}

// Gate is the slice of the gate service the middleware needs.
type Gate interface {
	ValidateSession(ctx context.Context, req models.RequestDescriptor) models.SessionValidationResult
	Authorize(ctx context.Context, identity models.Identity, operation models.Operation, resourceID string) bool
}

// Middleware wires gate decisions into HTTP handler chains.
type Middleware struct {
	gate   Gate
	logger *slog.Logger
}

// New creates the middleware. logger may be nil.
func New(gate Gate, logger *slog.Logger) *Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &Middleware{gate: gate, logger: logger}
}

// Session returns the validation result stashed by RequireSession.
func Session(ctx context.Context) (models.SessionValidationResult, bool) {
	result, ok := ctx.Value(sessionKey{}).(models.SessionValidationResult)
	return result, ok
}

// RequireSession validates the session and rejects the request if any gate
// fails. On success the result is stored in the context and the identity ID
// becomes available via requestcontext.
func (m *Middleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		result := m.gate.ValidateSession(ctx, DescribeRequest(r))
		if !result.Valid {
			writeDenial(w, result.Reason)
			return
		}

		w.Header().Set("X-Correlation-ID", result.Meta.CorrelationID)
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Meta.RateRemaining))

		ctx = requestcontext.WithIdentityID(ctx, result.Identity.ID)
		ctx = context.WithValue(ctx, sessionKey{}, result)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireOperation enforces authorization for one operation. resourceParam
// names the chi URL parameter carrying the resource ID; empty means the
// operation is not resource-scoped.
func (m *Middleware) RequireOperation(operation models.Operation, resourceParam string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			session, ok := Session(ctx)
			if !ok {
				// RequireSession was not in the chain; treat as a wiring bug
				// but still fail closed.
				m.logger.ErrorContext(ctx, "authorization attempted without validated session", "operation", string(operation))
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "authentication required"))
				return
			}

			resourceID := ""
			if resourceParam != "" {
				resourceID = chi.URLParam(r, resourceParam)
			}
			if !m.gate.Authorize(ctx, session.Identity, operation, resourceID) {
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "access denied"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// DescribeRequest builds the gate's view of an HTTP request. Bodies are
// never included.
func DescribeRequest(r *http.Request) models.RequestDescriptor {
	desc := models.RequestDescriptor{
		Headers:    make(map[string]string, len(r.Header)),
		Endpoint:   r.Method + " " + r.URL.Path,
		ReceivedAt: requestcontext.Now(r.Context()),
	}
	for name, values := range r.Header {
		if len(values) > 0 {
			desc.Headers[name] = values[0]
		}
	}
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			desc.BearerToken = strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		desc.CookieToken = cookie.Value
	}
	return desc
}

// writeDenial maps denial reasons to responses. Unauthenticated and
// profile-not-found collapse to the same 401 so callers cannot probe which
// stage rejected them; rate limiting is distinguishable because clients
// need to back off.
func writeDenial(w http.ResponseWriter, reason models.DenyReason) {
	switch reason {
	case models.DenyForbidden:
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "access denied"))
	case models.DenyRateLimited:
		w.Header().Set("Retry-After", "60")
		httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests"))
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "authentication required"))
	}
}
