package orbit

import (
	"context"
	"testing"
	"time"

	"github.com/gaze-network/uint128"
	"github.com/ramaorbit/orbit-engine/common/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteOrbitIdempotent(t *testing.T) {
	ctx := context.Background()
	p, repo := newTestProcessor(t)
	users := registerLine(t, p, 2)
	root := users[0]

	// $100 from the direct child credits root $50, exactly ten slots
	receipt, err := p.Distribute(ctx, users[1].UserID, 100_000_000, uint128.From64(100_000))
	require.NoError(t, err)
	require.Len(t, receipt.CascadeIDs, 1)

	before, err := repo.GetUserByID(ctx, root.UserID)
	require.NoError(t, err)
	require.Equal(t, int64(2), before.OrbitCount)
	require.Equal(t, int64(1), before.RepurchaseCount)
	require.Equal(t, int32(0), before.CurrentOrbitX)
	stateBefore, err := repo.GetContractState(ctx)
	require.NoError(t, err)

	recomplete := func(t *testing.T, orbitID int64) {
		dgTx, err := repo.BeginOrbitTx(ctx)
		require.NoError(t, err)
		defer func() { require.NoError(t, dgTx.Rollback(ctx)) }()

		user, err := dgTx.GetUserByID(ctx, root.UserID)
		require.NoError(t, err)
		state, err := dgTx.GetContractState(ctx)
		require.NoError(t, err)

		_, _, err = p.completeOrbit(ctx, dgTx, user, state, orbitID)
		assert.ErrorIs(t, err, ErrAlreadyCompleted)
		assert.ErrorIs(t, err, errs.InvariantViolation)
	}

	t.Run("terminal orbit cannot complete again", func(t *testing.T) {
		recomplete(t, 0)
	})

	t.Run("unfilled replacement orbit cannot complete", func(t *testing.T) {
		recomplete(t, 1)
	})

	// no counter moved and no second cascade was queued
	after, err := repo.GetUserByID(ctx, root.UserID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	stateAfter, err := repo.GetContractState(ctx)
	require.NoError(t, err)
	assert.Equal(t, stateBefore, stateAfter)

	due, err := repo.GetDueCascadePayments(ctx, time.Now(), 10)
	require.NoError(t, err)
	assert.Len(t, due, 1)
}
