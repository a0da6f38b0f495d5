// Package metadata extracts client network metadata from inbound requests
// and stores it in the request context for services to consume.
package metadata

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"gatekeeper/pkg/requestcontext"
)

// Header names checked when resolving the effective client address. The CDN
// header wins because it is set by the edge and cannot be spoofed by the
// client once traffic is forced through the CDN.
const (
	headerCDNClientIP   = "CF-Connecting-IP"
	headerRealIP        = "X-Real-IP"
	headerForwardedFor  = "X-Forwarded-For"
	headerUserAgent     = "User-Agent"
	headerRequestID     = "X-Request-ID"
	unknownClientOrigin = "unknown"
)

// ClientMetadata resolves the effective client IP and User-Agent and stamps
// the request context with them, plus a request correlation ID and a
// request-scoped timestamp. Apply early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = requestcontext.WithClientMetadata(ctx, ClientIPFromRequest(r), r.Header.Get(headerUserAgent))
		ctx = requestcontext.WithRequestID(ctx, requestID(r))
		ctx = requestcontext.WithTime(ctx, time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIPFromRequest resolves the effective remote address. Priority order:
// CDN forwarded-IP header, generic real-IP header, first entry of the
// standard forwarded-for header. Returns "unknown" when none is present so
// downstream checks and audit records always have a value.
func ClientIPFromRequest(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get(headerCDNClientIP)); ip != "" {
		return ip
	}
	if ip := strings.TrimSpace(r.Header.Get(headerRealIP)); ip != "" {
		return ip
	}
	if xff := r.Header.Get(headerForwardedFor); xff != "" {
		// X-Forwarded-For may hold "client, proxy1, proxy2"; the first
		// entry is the original client.
		if idx := strings.Index(xff, ","); idx != -1 {
			xff = xff[:idx]
		}
		if ip := strings.TrimSpace(xff); ip != "" {
			return ip
		}
	}
	return unknownClientOrigin
}

func requestID(r *http.Request) string {
	if rid := strings.TrimSpace(r.Header.Get(headerRequestID)); rid != "" {
		return rid
	}
	return uuid.NewString()
}
