package records

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatekeeper/pkg/platform/sentinel"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("seeded report round-trips", func(t *testing.T) {
		s := NewMemory()
		s.PutCreditReport(CreditReport{ID: "r1", IdentityID: "id-1", Bureau: "equifax", Score: 640})

		got, err := s.GetCreditReport(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, "id-1", got.IdentityID)
	})

	t.Run("unknown ids return not found", func(t *testing.T) {
		s := NewMemory()
		_, err := s.GetCreditReport(ctx, "ghost")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		_, err = s.GetDispute(ctx, "ghost")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("created dispute round-trips", func(t *testing.T) {
		s := NewMemory()
		dispute := Dispute{ID: "d1", IdentityID: "id-1", ReportID: "r1", Status: DisputeStatusSubmitted, CreatedAt: time.Now()}
		require.NoError(t, s.CreateDispute(ctx, dispute))

		got, err := s.GetDispute(ctx, "d1")
		require.NoError(t, err)
		assert.Equal(t, DisputeStatusSubmitted, got.Status)
	})

	t.Run("duplicate dispute ids conflict", func(t *testing.T) {
		s := NewMemory()
		require.NoError(t, s.CreateDispute(ctx, Dispute{ID: "d1"}))
		assert.ErrorIs(t, s.CreateDispute(ctx, Dispute{ID: "d1"}), sentinel.ErrConflict)
	})
}
