package gate

import (
	"strings"

	"github.com/mssola/useragent"

	"gatekeeper/internal/gate/models"
)

// Header priority for resolving the effective remote address. The CDN
// header is set at the edge, so it wins over anything the client can set.
const (
	headerCDNClientIP  = "CF-Connecting-IP"
	headerRealIP       = "X-Real-IP"
	headerForwardedFor = "X-Forwarded-For"

	unknownOrigin = "unknown"
)

// EffectiveRemoteAddr resolves the client address from a request
// descriptor: CDN forwarded-IP header, then generic real-IP header, then
// the first entry of the standard forwarded-for header, defaulting to
// "unknown".
func EffectiveRemoteAddr(req models.RequestDescriptor) string {
	if ip := strings.TrimSpace(req.Header(headerCDNClientIP)); ip != "" {
		return ip
	}
	if ip := strings.TrimSpace(req.Header(headerRealIP)); ip != "" {
		return ip
	}
	if xff := req.Header(headerForwardedFor); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			xff = xff[:idx]
		}
		if ip := strings.TrimSpace(xff); ip != "" {
			return ip
		}
	}
	return unknownOrigin
}

// suspiciousAgent flags empty agent strings and known automation
// signatures. This is a coarse filter for interactive-only endpoints, not
// a proof: headless browsers with honest strings will pass, and unusual
// legitimate clients may not.
func suspiciousAgent(agent string, patterns []string) bool {
	agent = strings.TrimSpace(agent)
	if agent == "" {
		return true
	}
	lowered := strings.ToLower(agent)
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(pattern)) {
			return true
		}
	}
	// Catch self-identifying crawlers the fixed list misses.
	return useragent.New(agent).Bot()
}
