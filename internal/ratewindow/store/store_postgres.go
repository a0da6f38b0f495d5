package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"gatekeeper/internal/ratewindow"
)

// PostgresStore persists request-log rows. This is the canonical backend:
// the request log doubles as forensic data, so rows are kept beyond the
// window and pruned by a retention job outside this module.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed window store.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Schema is the DDL for the request-log table, applied by migrations and
// by integration tests.
const Schema = `
CREATE TABLE IF NOT EXISTS request_log (
	id UUID PRIMARY KEY,
	identity_id TEXT NOT NULL,
	remote_addr TEXT NOT NULL DEFAULT '',
	endpoint TEXT NOT NULL DEFAULT '',
	occurred_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS request_log_identity_window
	ON request_log (identity_id, occurred_at);
`

func (s *PostgresStore) CountSince(ctx context.Context, identityID string, windowStart time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM request_log
		WHERE identity_id = $1 AND occurred_at >= $2
	`
	var count int
	if err := s.pool.QueryRow(ctx, query, identityID, windowStart).Scan(&count); err != nil {
		return 0, fmt.Errorf("count request log: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) Insert(ctx context.Context, entry ratewindow.Entry) error {
	query := `
		INSERT INTO request_log (id, identity_id, remote_addr, endpoint, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.pool.Exec(ctx, query,
		uuid.New(),
		entry.IdentityID,
		entry.RemoteAddr,
		entry.Endpoint,
		entry.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert request log: %w", err)
	}
	return nil
}
