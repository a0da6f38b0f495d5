//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"gatekeeper/internal/ratewindow"
	"gatekeeper/internal/ratewindow/store"
	"gatekeeper/pkg/testutil/containers"
)

type PostgresWindowSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresWindowSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresWindowSuite))
}

func (s *PostgresWindowSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.Require().NoError(s.postgres.Exec(context.Background(), store.Schema))
	s.store = store.NewPostgres(s.postgres.Pool)
}

func (s *PostgresWindowSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "request_log"))
}

func (s *PostgresWindowSuite) TestCountSince() {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	insert := func(id string, at time.Time) {
		s.Require().NoError(s.store.Insert(ctx, ratewindow.Entry{
			IdentityID: id,
			RemoteAddr: "203.0.113.1",
			Endpoint:   "GET /v1/profile",
			OccurredAt: at,
		}))
	}

	insert("id-1", base.Add(-90*time.Minute))
	insert("id-1", base.Add(-30*time.Minute))
	insert("id-1", base)
	insert("id-2", base)

	s.Run("counts only the identity's entries inside the window", func() {
		count, err := s.store.CountSince(ctx, "id-1", base.Add(-time.Hour))
		s.Require().NoError(err)
		s.Equal(2, count)
	})

	s.Run("boundary timestamp is included", func() {
		count, err := s.store.CountSince(ctx, "id-2", base)
		s.Require().NoError(err)
		s.Equal(1, count)
	})

	s.Run("unknown identity counts zero", func() {
		count, err := s.store.CountSince(ctx, "ghost", base.Add(-time.Hour))
		s.Require().NoError(err)
		s.Zero(count)
	})
}

func (s *PostgresWindowSuite) TestLimiterEndToEnd() {
	ctx := context.Background()

	limiter, err := ratewindow.New(s.store, ratewindow.WithLimit(2), ratewindow.WithWindow(time.Hour))
	s.Require().NoError(err)

	s.True(limiter.Check(ctx, "id-1", "ip", "ep").Allowed)
	s.True(limiter.Check(ctx, "id-1", "ip", "ep").Allowed)

	third := limiter.Check(ctx, "id-1", "ip", "ep")
	s.False(third.Allowed)

	count, err := s.store.CountSince(ctx, "id-1", time.Now().Add(-time.Hour))
	s.Require().NoError(err)
	s.Equal(2, count, "rejected attempt must not be recorded")
}
