package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gatekeeper/internal/gate/models"
)

func TestEffectiveRemoteAddr(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{
			name:    "no origin headers resolves to unknown",
			headers: nil,
			want:    "unknown",
		},
		{
			name:    "cdn header wins over everything",
			headers: map[string]string{"CF-Connecting-IP": "203.0.113.1", "X-Real-IP": "203.0.113.2", "X-Forwarded-For": "203.0.113.3"},
			want:    "203.0.113.1",
		},
		{
			name:    "real ip wins over forwarded-for",
			headers: map[string]string{"X-Real-IP": "203.0.113.2", "X-Forwarded-For": "203.0.113.3"},
			want:    "203.0.113.2",
		},
		{
			name:    "forwarded-for uses the first hop",
			headers: map[string]string{"X-Forwarded-For": "203.0.113.3, 10.0.0.1, 10.0.0.2"},
			want:    "203.0.113.3",
		},
		{
			name:    "forwarded-for entries are trimmed",
			headers: map[string]string{"X-Forwarded-For": "  203.0.113.3 , 10.0.0.1"},
			want:    "203.0.113.3",
		},
		{
			name:    "header lookup is case-insensitive",
			headers: map[string]string{"cf-connecting-ip": "203.0.113.1"},
			want:    "203.0.113.1",
		},
		{
			name:    "blank headers fall through to unknown",
			headers: map[string]string{"CF-Connecting-IP": "  ", "X-Forwarded-For": " , 10.0.0.1"},
			want:    "unknown",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := models.RequestDescriptor{Headers: tt.headers}
			assert.Equal(t, tt.want, EffectiveRemoteAddr(req))
		})
	}
}

func TestSuspiciousAgent(t *testing.T) {
	patterns := defaultAgentPatterns

	tests := []struct {
		name  string
		agent string
		want  bool
	}{
		{"empty agent", "", true},
		{"whitespace agent", "   ", true},
		{"curl", "curl/8.4.0", true},
		{"wget", "Wget/1.21.3", true},
		{"crawler signature", "Googlebot/2.1 (+http://www.google.com/bot.html)", true},
		{"case-insensitive match", "MyScraperTool/1.0", true},
		{"desktop browser passes", browserAgent, false},
		{"mobile browser passes", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, suspiciousAgent(tt.agent, patterns))
		})
	}

	t.Run("custom pattern list replaces the defaults", func(t *testing.T) {
		assert.True(t, suspiciousAgent("AcmeMonitor/2.0", []string{"acmemonitor"}))
		assert.False(t, suspiciousAgent("curl/8.4.0", []string{"acmemonitor"}))
	})
}
