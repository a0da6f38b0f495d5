package records

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gatekeeper/pkg/platform/sentinel"
)

// PostgresStore reads and writes the hosted backend's record tables. The
// same tables back the ownership store's owner lookups.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed record store.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) GetCreditReport(ctx context.Context, id string) (CreditReport, error) {
	const query = `
		SELECT id, identity_id, bureau, score, retrieved_at
		FROM credit_reports
		WHERE id = $1`

	var report CreditReport
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&report.ID, &report.IdentityID, &report.Bureau, &report.Score, &report.RetrievedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return CreditReport{}, sentinel.ErrNotFound
	}
	if err != nil {
		return CreditReport{}, fmt.Errorf("get credit report: %w", err)
	}
	return report, nil
}

func (s *PostgresStore) GetDispute(ctx context.Context, id string) (Dispute, error) {
	const query = `
		SELECT id, identity_id, report_id, item, reason, status, created_at
		FROM disputes
		WHERE id = $1`

	var dispute Dispute
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&dispute.ID, &dispute.IdentityID, &dispute.ReportID, &dispute.Item,
		&dispute.Reason, &dispute.Status, &dispute.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Dispute{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Dispute{}, fmt.Errorf("get dispute: %w", err)
	}
	return dispute, nil
}

func (s *PostgresStore) CreateDispute(ctx context.Context, dispute Dispute) error {
	const query = `
		INSERT INTO disputes (id, identity_id, report_id, item, reason, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.pool.Exec(ctx, query,
		dispute.ID, dispute.IdentityID, dispute.ReportID, dispute.Item,
		dispute.Reason, dispute.Status, dispute.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create dispute: %w", err)
	}
	return nil
}
