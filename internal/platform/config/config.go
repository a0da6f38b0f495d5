// Package config builds runtime configuration from environment variables so
// main stays lean. Every knob has a default suitable for local development.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults for the sliding-window rate limiter.
const (
	DefaultRateLimitWindow      = time.Hour
	DefaultRateLimitMaxRequests = 100
)

// DefaultSuspiciousAgentPatterns lists automation signatures matched
// case-insensitively against declared agent strings.
var DefaultSuspiciousAgentPatterns = []string{"bot", "crawler", "spider", "scraper", "curl", "wget"}

// Config captures everything the server needs at startup.
type Config struct {
	Addr     string
	LogLevel string

	// Gate settings
	RateLimitWindow         time.Duration
	RateLimitMaxRequests    int
	SuspiciousAgentPatterns []string
	AuthSecret              string

	// Backing services; empty means "use in-memory stores".
	DatabaseURL string
	RedisURL    string

	// Security event fan-out; empty brokers disables the Kafka sink.
	KafkaBrokers       []string
	KafkaSecurityTopic string

	AuditBuffer int
}

// FromEnv reads configuration from the environment.
func FromEnv() Config {
	cfg := Config{
		Addr:                    envOr("GATEKEEPER_ADDR", ":8080"),
		LogLevel:                envOr("GATEKEEPER_LOG_LEVEL", "info"),
		RateLimitWindow:         DefaultRateLimitWindow,
		RateLimitMaxRequests:    DefaultRateLimitMaxRequests,
		SuspiciousAgentPatterns: DefaultSuspiciousAgentPatterns,
		AuthSecret:              os.Getenv("GATEKEEPER_AUTH_SECRET"),
		DatabaseURL:             os.Getenv("DATABASE_URL"),
		RedisURL:                os.Getenv("REDIS_URL"),
		KafkaSecurityTopic:      envOr("KAFKA_SECURITY_TOPIC", "gatekeeper.security-events"),
		AuditBuffer:             256,
	}

	if v, err := strconv.Atoi(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); err == nil && v > 0 {
		cfg.RateLimitWindow = time.Duration(v) * time.Second
	}
	if v, err := strconv.Atoi(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); err == nil && v > 0 {
		cfg.RateLimitMaxRequests = v
	}
	if raw := os.Getenv("SUSPICIOUS_AGENT_PATTERNS"); raw != "" {
		cfg.SuspiciousAgentPatterns = splitList(raw)
	}
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		cfg.KafkaBrokers = splitList(raw)
	}
	if v, err := strconv.Atoi(os.Getenv("AUDIT_BUFFER")); err == nil && v > 0 {
		cfg.AuditBuffer = v
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
