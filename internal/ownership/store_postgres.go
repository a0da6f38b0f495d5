package ownership

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gatekeeper/internal/gate/models"
	"gatekeeper/pkg/platform/sentinel"
)

// ownerQueries maps each resource type to its owner lookup. A closed map
// keeps user-controlled resource types out of SQL identifiers.
var ownerQueries = map[models.ResourceType]string{
	models.ResourceCreditReport: `SELECT identity_id FROM credit_reports WHERE id = $1`,
	models.ResourceDispute:      `SELECT identity_id FROM disputes WHERE id = $1`,
}

// PostgresStore resolves resource owners from the hosted backend's tables.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed ownership store.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) ResourceOwner(ctx context.Context, resourceType models.ResourceType, resourceID string) (string, error) {
	query, ok := ownerQueries[resourceType]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	var owner string
	err := s.pool.QueryRow(ctx, query, resourceID).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resource owner lookup: %w", err)
	}
	return owner, nil
}
