// Package kafka publishes security events to a Kafka topic for SIEM
// consumption. Delivery is best-effort: the audit worker logs publish
// failures and moves on.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"gatekeeper/pkg/platform/audit"
)

// Sink produces security events onto a Kafka topic keyed by identity so a
// single principal's events stay ordered within a partition.
type Sink struct {
	client *kgo.Client
	topic  string
}

// New creates a sink connected to the given seed brokers.
func New(brokers []string, topic string) (*Sink, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic is required")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Sink{client: client, topic: topic}, nil
}

type payload struct {
	Timestamp  string `json:"timestamp"`
	IdentityID string `json:"identity_id,omitempty"`
	Action     string `json:"action"`
	Reason     string `json:"reason,omitempty"`
	RemoteAddr string `json:"remote_addr,omitempty"`
	Severity   string `json:"severity"`
	RequestID  string `json:"request_id,omitempty"`
}

// Publish produces a single security event and waits for the broker ack.
func (s *Sink) Publish(ctx context.Context, event audit.SecurityEvent) error {
	value, err := json.Marshal(payload{
		Timestamp:  event.Timestamp.UTC().Format(time.RFC3339Nano),
		IdentityID: event.IdentityID,
		Action:     event.Action,
		Reason:     event.Reason,
		RemoteAddr: event.IP,
		Severity:   string(event.Severity),
		RequestID:  event.RequestID,
	})
	if err != nil {
		return fmt.Errorf("marshal security event: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.IdentityID),
		Value: value,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce security event: %w", err)
	}
	return nil
}

// Close flushes pending records and releases the client.
func (s *Sink) Close() {
	s.client.Close()
}
