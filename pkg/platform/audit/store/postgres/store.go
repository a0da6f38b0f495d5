// Package postgres persists audit and security events in PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"gatekeeper/pkg/platform/audit"
)

// Store writes append-only rows to audit_events and security_events.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a PostgreSQL-backed audit store.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Schema is the DDL for the audit tables, applied by migrations and by
// integration tests.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id UUID PRIMARY KEY,
	identity_id TEXT NOT NULL,
	action TEXT NOT NULL,
	category TEXT NOT NULL,
	resource_type TEXT NOT NULL DEFAULT '',
	resource_id TEXT NOT NULL DEFAULT '',
	metadata JSONB NOT NULL DEFAULT '{}',
	request_id TEXT NOT NULL DEFAULT '',
	occurred_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS audit_events_identity ON audit_events (identity_id, occurred_at);

CREATE TABLE IF NOT EXISTS security_events (
	id UUID PRIMARY KEY,
	identity_id TEXT NOT NULL DEFAULT '',
	action TEXT NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	remote_addr TEXT NOT NULL DEFAULT '',
	severity TEXT NOT NULL,
	request_id TEXT NOT NULL DEFAULT '',
	occurred_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS security_events_identity ON security_events (identity_id, occurred_at);
`

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	metadata, err := json.Marshal(event.Metadata)
	if err != nil {
		return fmt.Errorf("marshal audit metadata: %w", err)
	}
	query := `
		INSERT INTO audit_events (id, identity_id, action, category, resource_type, resource_id, metadata, request_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = s.pool.Exec(ctx, query,
		uuid.New(),
		event.IdentityID,
		event.Action,
		string(audit.Action(event.Action).Category()),
		event.ResourceType,
		event.ResourceID,
		metadata,
		event.RequestID,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *Store) AppendSecurity(ctx context.Context, event audit.SecurityEvent) error {
	query := `
		INSERT INTO security_events (id, identity_id, action, reason, remote_addr, severity, request_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.pool.Exec(ctx, query,
		uuid.New(),
		event.IdentityID,
		event.Action,
		event.Reason,
		event.IP,
		string(event.Severity),
		event.RequestID,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert security event: %w", err)
	}
	return nil
}
