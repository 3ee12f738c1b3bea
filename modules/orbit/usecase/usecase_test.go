package usecase_test

import (
	"context"
	"testing"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/gaze-network/uint128"
	"github.com/ramaorbit/orbit-engine/common/errs"
	"github.com/ramaorbit/orbit-engine/modules/orbit"
	"github.com/ramaorbit/orbit-engine/modules/orbit/repository/memory"
	"github.com/ramaorbit/orbit-engine/modules/orbit/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUsecase(t *testing.T) *usecase.Usecase {
	t.Helper()
	repo := memory.New()
	joinRAMA := utils.Must(uint128.FromString(orbit.DefaultJoinAmountRAMA))
	processor := orbit.NewProcessor(repo, orbit.DefaultJoinAmountUSD, joinRAMA, nil)
	require.NoError(t, processor.VerifyStates(context.Background()))
	return usecase.New(repo, processor)
}

func TestGetUser(t *testing.T) {
	ctx := context.Background()
	u := newTestUsecase(t)
	registered, err := u.RegisterUser(ctx, "0xroot", "")
	require.NoError(t, err)

	byID, err := u.GetUser(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, registered.UserID, byID.UserID)

	byAddr, err := u.GetUser(ctx, "0xroot")
	require.NoError(t, err)
	assert.Equal(t, registered.UserID, byAddr.UserID)

	_, err = u.GetUser(ctx, "0xnobody")
	assert.ErrorIs(t, err, errs.NotFound)
	_, err = u.GetUser(ctx, "99")
	assert.ErrorIs(t, err, errs.NotFound)
}

func TestGetTeamAtLevel(t *testing.T) {
	ctx := context.Background()
	u := newTestUsecase(t)
	_, err := u.RegisterUser(ctx, "0xroot", "")
	require.NoError(t, err)
	_, err = u.RegisterUser(ctx, "0xalice", "0xroot")
	require.NoError(t, err)

	members, err := u.GetTeamAtLevel(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "0xalice", members[0].Wallet)

	_, err = u.GetTeamAtLevel(ctx, 1, 0)
	assert.ErrorIs(t, err, errs.InvalidArgument)
	_, err = u.GetTeamAtLevel(ctx, 1, 10)
	assert.ErrorIs(t, err, errs.InvalidArgument)
	_, err = u.GetTeamAtLevel(ctx, 42, 1)
	assert.ErrorIs(t, err, errs.NotFound)
}

func TestGetIncomeHistory(t *testing.T) {
	ctx := context.Background()
	u := newTestUsecase(t)
	_, err := u.RegisterUser(ctx, "0xroot", "")
	require.NoError(t, err)
	_, err = u.RegisterUser(ctx, "0xalice", "0xroot")
	require.NoError(t, err)
	_, err = u.Distribute(ctx, 2, 3_000_000, uint128.From64(3_000))
	require.NoError(t, err)

	records, err := u.GetIncomeHistory(ctx, 1, nil, 0, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(1_500_000), records[0].USD)

	_, err = u.GetIncomeHistory(ctx, 42, nil, 0, 0)
	assert.ErrorIs(t, err, errs.NotFound)
}

func TestGetLevelIncomeSummary(t *testing.T) {
	ctx := context.Background()
	u := newTestUsecase(t)
	_, err := u.RegisterUser(ctx, "0xroot", "")
	require.NoError(t, err)
	_, err = u.RegisterUser(ctx, "0xalice", "0xroot")
	require.NoError(t, err)
	_, err = u.RegisterUser(ctx, "0xbob", "0xalice")
	require.NoError(t, err)

	// root collects a level-1 share from alice and a level-2 share from bob
	_, err = u.Distribute(ctx, 2, 10_000_000, uint128.From64(10_000))
	require.NoError(t, err)
	_, err = u.Distribute(ctx, 3, 10_000_000, uint128.From64(10_000))
	require.NoError(t, err)

	summaries, err := u.GetLevelIncomeSummary(ctx, 1)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, int32(1), summaries[0].Level)
	assert.Equal(t, int64(5_000_000), summaries[0].USD)
	assert.Equal(t, "90.91", summaries[0].Percentage.StringFixed(2))
	assert.Equal(t, int32(2), summaries[1].Level)
	assert.Equal(t, int64(500_000), summaries[1].USD)
	assert.Equal(t, "9.09", summaries[1].Percentage.StringFixed(2))

	// a user with no income has an empty summary
	empty, err := u.GetLevelIncomeSummary(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGetOrbits(t *testing.T) {
	ctx := context.Background()
	u := newTestUsecase(t)
	_, err := u.RegisterUser(ctx, "0xroot", "")
	require.NoError(t, err)

	orbits, err := u.GetOrbits(ctx, 1)
	require.NoError(t, err)
	require.Len(t, orbits, 1)
	assert.Equal(t, int64(0), orbits[0].OrbitID)

	active, err := u.GetActiveOrbit(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), active.OrbitID)

	_, err = u.GetOrbits(ctx, 42)
	assert.ErrorIs(t, err, errs.NotFound)
}
