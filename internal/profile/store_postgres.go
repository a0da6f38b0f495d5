package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gatekeeper/internal/gate/models"
	"gatekeeper/pkg/platform/sentinel"
)

// PostgresStore reads profile records from the hosted backend's users
// table. The gate never writes profiles; account management owns them.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed profile store.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) GetProfile(ctx context.Context, identityID string) (models.Profile, error) {
	query := `
		SELECT identity_id, role, permissions, status, created_at
		FROM profiles
		WHERE identity_id = $1
	`
	var p models.Profile
	err := s.pool.QueryRow(ctx, query, identityID).Scan(
		&p.IdentityID,
		&p.Role,
		&p.Permissions,
		&p.Status,
		&p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Profile{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}
