package orbit

import (
	"context"
	"testing"
	"time"

	"github.com/gaze-network/uint128"
	"github.com/ramaorbit/orbit-engine/modules/orbit/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// completeFirstOrbit registers a root and a child, then pays enough through
// the child to complete the root's first orbit, returning the cascade id.
func completeFirstOrbit(t *testing.T, p *Processor) int64 {
	t.Helper()
	users := registerLine(t, p, 2)
	receipt, err := p.Distribute(context.Background(), users[1].UserID, 100_000_000, uint128.From64(100_000_000))
	require.NoError(t, err)
	require.Len(t, receipt.CascadeIDs, 1)
	return receipt.CascadeIDs[0]
}

func TestDistributeCascade(t *testing.T) {
	ctx := context.Background()

	t.Run("settles a pending payment", func(t *testing.T) {
		p, repo := newTestProcessor(t)
		cascadeID := completeFirstOrbit(t, p)

		before, err := repo.GetContractState(ctx)
		require.NoError(t, err)

		require.NoError(t, p.DistributeCascade(ctx, cascadeID))

		payment, err := repo.GetCascadePayment(ctx, cascadeID)
		require.NoError(t, err)
		assert.Equal(t, entity.CascadeStatusDone, payment.Status)
		require.NotNil(t, payment.CompletedAt)

		// the root has no upline, so the repurchase lands in the treasury
		after, err := repo.GetContractState(ctx)
		require.NoError(t, err)
		assert.Equal(t, before.TotalVolumeUSD+DefaultJoinAmountUSD, after.TotalVolumeUSD)
		assert.Equal(t, before.TreasuryUSD+DefaultJoinAmountUSD, after.TreasuryUSD)
	})

	t.Run("skips an already settled payment", func(t *testing.T) {
		p, repo := newTestProcessor(t)
		cascadeID := completeFirstOrbit(t, p)
		require.NoError(t, p.DistributeCascade(ctx, cascadeID))

		settled, err := repo.GetContractState(ctx)
		require.NoError(t, err)

		// redelivery must be a no-op
		require.NoError(t, p.DistributeCascade(ctx, cascadeID))

		after, err := repo.GetContractState(ctx)
		require.NoError(t, err)
		assert.Equal(t, settled.TotalVolumeUSD, after.TotalVolumeUSD)
	})

	t.Run("unknown payment", func(t *testing.T) {
		p, _ := newTestProcessor(t)
		assert.Error(t, p.DistributeCascade(ctx, 999))
	})
}

func TestCascadeWorker(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults", func(t *testing.T) {
		p, _ := newTestProcessor(t)
		worker := NewCascadeWorker(p, 0, 0)
		assert.Equal(t, int32(defaultCascadeMaxAttempts), worker.maxAttempts)
		assert.Equal(t, defaultCascadeRetryBackoff, worker.retryBackoff)
	})

	t.Run("polls due pending payments", func(t *testing.T) {
		p, _ := newTestProcessor(t)
		cascadeID := completeFirstOrbit(t, p)
		worker := NewCascadeWorker(p, 3, time.Minute)

		due, err := worker.PollDue(ctx, 10)
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, cascadeID, due[0].ID)

		require.NoError(t, worker.Process(ctx, due[0]))
		due, err = worker.PollDue(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, due)
	})

	t.Run("failed distribution backs off and eventually parks", func(t *testing.T) {
		p, repo := newTestProcessor(t)
		registerLine(t, p, 1)
		worker := NewCascadeWorker(p, 2, time.Minute)

		// a payment whose payer does not exist can never distribute
		now := time.Now()
		cascadeID, err := repo.CreateCascadePayment(ctx, &entity.CascadePayment{
			PayerID:       42,
			PaymentUSD:    DefaultJoinAmountUSD,
			PaymentRAMA:   testJoinRAMA,
			Status:        entity.CascadeStatusPending,
			CreatedAt:     now,
			NextAttemptAt: now,
		})
		require.NoError(t, err)

		payment, err := repo.GetCascadePayment(ctx, cascadeID)
		require.NoError(t, err)

		// a failing item never bubbles an error: the batch keeps going
		require.NoError(t, worker.Process(ctx, payment))

		payment, err = repo.GetCascadePayment(ctx, cascadeID)
		require.NoError(t, err)
		assert.Equal(t, entity.CascadeStatusPending, payment.Status)
		assert.Equal(t, int32(1), payment.Attempts)
		assert.NotEmpty(t, payment.LastError)
		assert.True(t, payment.NextAttemptAt.After(now))

		// backed off: not due right now
		due, err := worker.PollDue(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, due)

		// second failure reaches the cap and parks the payment
		require.NoError(t, worker.Process(ctx, payment))
		payment, err = repo.GetCascadePayment(ctx, cascadeID)
		require.NoError(t, err)
		assert.Equal(t, entity.CascadeStatusFailed, payment.Status)
		assert.Equal(t, int32(2), payment.Attempts)
	})

	t.Run("cascade chains when the replacement orbit fills", func(t *testing.T) {
		p, repo := newTestProcessor(t)
		users := registerLine(t, p, 2)

		// complete the root's orbit twice over: the second completion happens
		// inside the carried leftover, so two cascades are pending afterwards
		receipt, err := p.Distribute(context.Background(), users[1].UserID, 200_000_000, uint128.From64(200_000_000))
		require.NoError(t, err)
		require.Len(t, receipt.CascadeIDs, 2)

		root, err := repo.GetUserByID(ctx, users[0].UserID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), root.OrbitCount)
		assert.Equal(t, int64(2), root.RepurchaseCount)
	})
}
