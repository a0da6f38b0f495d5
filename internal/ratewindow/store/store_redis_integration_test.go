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

type RedisWindowSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *store.RedisStore
}

func TestRedisWindowSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisWindowSuite))
}

func (s *RedisWindowSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = store.NewRedis(s.redis.Client, 2*time.Hour)
}

func (s *RedisWindowSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisWindowSuite) TestCountSince() {
	ctx := context.Background()
	base := time.Now().UTC()

	insert := func(id string, at time.Time) {
		s.Require().NoError(s.store.Insert(ctx, ratewindow.Entry{
			IdentityID: id,
			OccurredAt: at,
		}))
	}

	insert("id-1", base.Add(-90*time.Minute))
	insert("id-1", base.Add(-30*time.Minute))
	insert("id-1", base)
	insert("id-2", base)

	s.Run("expired members are dropped from the count", func() {
		count, err := s.store.CountSince(ctx, "id-1", base.Add(-time.Hour))
		s.Require().NoError(err)
		s.Equal(2, count)
	})

	s.Run("identities use separate keys", func() {
		count, err := s.store.CountSince(ctx, "id-2", base.Add(-time.Hour))
		s.Require().NoError(err)
		s.Equal(1, count)
	})

	s.Run("missing key counts zero", func() {
		count, err := s.store.CountSince(ctx, "ghost", base)
		s.Require().NoError(err)
		s.Zero(count)
	})
}

func (s *RedisWindowSuite) TestLimiterEndToEnd() {
	ctx := context.Background()

	limiter, err := ratewindow.New(s.store, ratewindow.WithLimit(3), ratewindow.WithWindow(time.Minute))
	s.Require().NoError(err)

	for i := 0; i < 3; i++ {
		s.Require().True(limiter.Check(ctx, "id-1", "ip", "ep").Allowed)
	}
	s.False(limiter.Check(ctx, "id-1", "ip", "ep").Allowed)
}
