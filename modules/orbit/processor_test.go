package orbit

import (
	"context"
	"fmt"
	"testing"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/gaze-network/uint128"
	"github.com/ramaorbit/orbit-engine/common/errs"
	"github.com/ramaorbit/orbit-engine/modules/orbit/datagateway"
	"github.com/ramaorbit/orbit-engine/modules/orbit/internal/entity"
	"github.com/ramaorbit/orbit-engine/modules/orbit/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testJoinRAMA = utils.Must(uint128.FromString(DefaultJoinAmountRAMA))

func newTestProcessor(t *testing.T) (*Processor, *memory.Repository) {
	t.Helper()
	repo := memory.New()
	p := NewProcessor(repo, DefaultJoinAmountUSD, testJoinRAMA, nil)
	require.NoError(t, p.VerifyStates(context.Background()))
	return p, repo
}

// registerLine registers a root plus n-1 descendants in a single line:
// user 1 sponsors user 2 sponsors user 3 and so on.
func registerLine(t *testing.T, p *Processor, n int) []*entity.User {
	t.Helper()
	ctx := context.Background()
	users := make([]*entity.User, 0, n)
	root, err := p.RegisterUser(ctx, "0xuser1", "")
	require.NoError(t, err)
	users = append(users, root)
	for i := 2; i <= n; i++ {
		user, err := p.RegisterUser(ctx, fmt.Sprintf("0xuser%d", i), fmt.Sprintf("%d", i-1))
		require.NoError(t, err)
		users = append(users, user)
	}
	return users
}

func TestRegisterUser(t *testing.T) {
	ctx := context.Background()

	t.Run("root user", func(t *testing.T) {
		p, repo := newTestProcessor(t)
		root, err := p.RegisterUser(ctx, "0xroot", "")
		require.NoError(t, err)
		assert.Equal(t, int64(1), root.UserID)
		assert.Equal(t, "0xroot", root.Address)
		assert.True(t, root.IsRoot())
		assert.Equal(t, int64(1), root.OrbitCount)

		orbit, err := repo.GetActiveOrbit(ctx, root.UserID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), orbit.OrbitID)
		assert.Equal(t, int32(0), orbit.CompletedX)

		state, err := repo.GetContractState(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), state.TotalUsers)
	})

	t.Run("sponsor by id and by address", func(t *testing.T) {
		p, _ := newTestProcessor(t)
		root, err := p.RegisterUser(ctx, "0xroot", "")
		require.NoError(t, err)

		byID, err := p.RegisterUser(ctx, "0xalice", "1")
		require.NoError(t, err)
		assert.Equal(t, root.UserID, byID.SponsorID)
		assert.Equal(t, root.Address, byID.SponsorAddress)

		byAddr, err := p.RegisterUser(ctx, "0xbob", "0xalice")
		require.NoError(t, err)
		assert.Equal(t, byID.UserID, byAddr.SponsorID)
	})

	t.Run("address required", func(t *testing.T) {
		p, _ := newTestProcessor(t)
		_, err := p.RegisterUser(ctx, "  ", "")
		assert.ErrorIs(t, err, errs.InvalidArgument)
	})

	t.Run("duplicate address", func(t *testing.T) {
		p, _ := newTestProcessor(t)
		_, err := p.RegisterUser(ctx, "0xroot", "")
		require.NoError(t, err)
		_, err = p.RegisterUser(ctx, "0xroot", "1")
		assert.ErrorIs(t, err, ErrDuplicateUser)
		assert.ErrorIs(t, err, errs.Duplicate)
	})

	t.Run("sponsor required after genesis", func(t *testing.T) {
		p, _ := newTestProcessor(t)
		_, err := p.RegisterUser(ctx, "0xroot", "")
		require.NoError(t, err)
		_, err = p.RegisterUser(ctx, "0xalice", "")
		assert.ErrorIs(t, err, ErrUnknownSponsor)
	})

	t.Run("unknown sponsor", func(t *testing.T) {
		p, _ := newTestProcessor(t)
		_, err := p.RegisterUser(ctx, "0xroot", "")
		require.NoError(t, err)
		_, err = p.RegisterUser(ctx, "0xalice", "0xnobody")
		assert.ErrorIs(t, err, ErrUnknownSponsor)
		_, err = p.RegisterUser(ctx, "0xalice", "42")
		assert.ErrorIs(t, err, ErrUnknownSponsor)
	})

	t.Run("failed registration does not leak state", func(t *testing.T) {
		p, repo := newTestProcessor(t)
		_, err := p.RegisterUser(ctx, "0xroot", "")
		require.NoError(t, err)
		_, err = p.RegisterUser(ctx, "0xalice", "0xnobody")
		require.Error(t, err)

		state, err := repo.GetContractState(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), state.TotalUsers)
		_, err = repo.GetUserByAddress(ctx, "0xalice")
		assert.ErrorIs(t, err, errs.NotFound)
	})
}

func TestVerifyStates(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	p := NewProcessor(repo, DefaultJoinAmountUSD, testJoinRAMA, nil)
	require.NoError(t, p.VerifyStates(ctx))

	state, err := repo.GetContractState(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(DefaultJoinAmountUSD), state.JoinAmountUSD)
	assert.Equal(t, testJoinRAMA, state.JoinAmountRAMA)

	// same amounts verify cleanly against the seeded ledger
	require.NoError(t, NewProcessor(repo, DefaultJoinAmountUSD, testJoinRAMA, nil).VerifyStates(ctx))

	// changing the join amount against an existing ledger is rejected
	err = NewProcessor(repo, 10_000_000, testJoinRAMA, nil).VerifyStates(ctx)
	assert.ErrorIs(t, err, errs.Conflict)
}

func TestDistribute(t *testing.T) {
	ctx := context.Background()

	t.Run("direct sponsor share", func(t *testing.T) {
		p, repo := newTestProcessor(t)
		users := registerLine(t, p, 2)

		receipt, err := p.Distribute(ctx, users[1].UserID, 3_000_000, uint128.From64(3_000))
		require.NoError(t, err)

		require.Len(t, receipt.Entries, 1)
		entry := receipt.Entries[0]
		assert.Equal(t, int32(1), entry.Level)
		assert.Equal(t, users[0].UserID, entry.RecipientID)
		assert.Equal(t, int64(1_500_000), entry.ShareUSD)
		assert.Equal(t, uint128.From64(1_500), entry.ShareRAMA)
		assert.Equal(t, int32(0), entry.SlotsCompleted)
		assert.False(t, entry.OrbitCompleted)
		assert.Equal(t, int64(1_500_000), receipt.TreasuryUSD)
		assert.Empty(t, receipt.CascadeIDs)

		root, err := repo.GetUserByID(ctx, users[0].UserID)
		require.NoError(t, err)
		assert.Equal(t, int64(1_500_000), root.TotalEarningsUSD)
		assert.Equal(t, uint128.From64(1_500), root.TotalEarningsRAMA)
		assert.Equal(t, int32(0), root.CurrentOrbitX)

		orbit, err := repo.GetActiveOrbit(ctx, root.UserID)
		require.NoError(t, err)
		require.Len(t, orbit.XSlots, 1)
		slot := orbit.XSlots[0]
		assert.Equal(t, int32(0), slot.SlotIndex)
		assert.Equal(t, int64(1_500_000), slot.TotalUSD)
		require.Len(t, slot.Parts, 1)
		assert.Equal(t, users[1].UserID, slot.Parts[0].DonorID)
		assert.Equal(t, users[1].Address, slot.Parts[0].From)
		assert.Equal(t, int32(1), slot.Parts[0].Level)

		state, err := repo.GetContractState(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3_000_000), state.TotalVolumeUSD)
		assert.Equal(t, int64(1_500_000), state.TreasuryUSD)
	})

	t.Run("slot overflow splits the fragment", func(t *testing.T) {
		p, repo := newTestProcessor(t)
		users := registerLine(t, p, 2)

		_, err := p.Distribute(ctx, users[1].UserID, 3_000_000, uint128.From64(3_000))
		require.NoError(t, err)

		// $4 share against $3.50 of room: the slot completes with a $3.50
		// fragment and $0.50 carries into the next slot
		receipt, err := p.Distribute(ctx, users[1].UserID, 8_000_000, uint128.From64(8_000))
		require.NoError(t, err)
		require.Len(t, receipt.Entries, 1)
		assert.Equal(t, int32(1), receipt.Entries[0].SlotsCompleted)

		orbit, err := repo.GetActiveOrbit(ctx, users[0].UserID)
		require.NoError(t, err)
		assert.Equal(t, int32(1), orbit.CompletedX)
		require.Len(t, orbit.XSlots, 2)
		assert.Equal(t, int64(5_000_000), orbit.XSlots[0].TotalUSD)
		require.Len(t, orbit.XSlots[0].Parts, 2)
		assert.Equal(t, int64(3_500_000), orbit.XSlots[0].Parts[1].USDValue)
		assert.Equal(t, uint128.From64(3_500), orbit.XSlots[0].Parts[1].RAMAAmount)
		assert.Equal(t, int64(500_000), orbit.XSlots[1].TotalUSD)
		assert.Equal(t, uint128.From64(500), orbit.XSlots[1].Parts[0].RAMAAmount)

		root, err := repo.GetUserByID(ctx, users[0].UserID)
		require.NoError(t, err)
		assert.Equal(t, int32(1), root.CurrentOrbitX)
	})

	t.Run("chain shares and conservation", func(t *testing.T) {
		p, repo := newTestProcessor(t)
		users := registerLine(t, p, 5)
		payer := users[4]

		receipt, err := p.Distribute(ctx, payer.UserID, 10_000_000, uint128.From64(10_000_000))
		require.NoError(t, err)

		require.Len(t, receipt.Entries, 4)
		wantUSD := map[int32]int64{1: 5_000_000, 2: 500_000, 3: 500_000, 4: 500_000}
		for _, entry := range receipt.Entries {
			assert.Equal(t, wantUSD[entry.Level], entry.ShareUSD)
			// the chain is a straight line: level n is user n levels up
			assert.Equal(t, payer.UserID-int64(entry.Level), entry.RecipientID)
		}
		assert.Equal(t, int64(3_500_000), receipt.TreasuryUSD)

		state, err := repo.GetContractState(ctx)
		require.NoError(t, err)
		var earned int64
		for _, user := range users {
			stored, err := repo.GetUserByID(ctx, user.UserID)
			require.NoError(t, err)
			earned += stored.TotalEarningsUSD
		}
		assert.Equal(t, state.TotalVolumeUSD, earned+state.TreasuryUSD)
	})

	t.Run("orbit completion spawns a cascade", func(t *testing.T) {
		p, repo := newTestProcessor(t)
		users := registerLine(t, p, 2)

		// a $100 payment yields a $50 level-1 share: exactly ten slots
		receipt, err := p.Distribute(ctx, users[1].UserID, 100_000_000, uint128.From64(100_000_000))
		require.NoError(t, err)

		require.Len(t, receipt.Entries, 1)
		entry := receipt.Entries[0]
		assert.Equal(t, int32(10), entry.SlotsCompleted)
		assert.True(t, entry.OrbitCompleted)
		assert.Equal(t, int64(1), entry.NewOrbitID)
		require.Len(t, receipt.CascadeIDs, 1)

		root, err := repo.GetUserByID(ctx, users[0].UserID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), root.OrbitCount)
		assert.Equal(t, int64(1), root.RepurchaseCount)
		assert.Equal(t, int32(0), root.CurrentOrbitX)

		orbits, err := repo.GetOrbitsByUserID(ctx, root.UserID)
		require.NoError(t, err)
		require.Len(t, orbits, 2)
		assert.True(t, orbits[0].Terminal())
		assert.Equal(t, int32(10), orbits[0].CompletedX)
		assert.Equal(t, int32(0), orbits[1].CompletedX)

		payment, err := repo.GetCascadePayment(ctx, receipt.CascadeIDs[0])
		require.NoError(t, err)
		assert.Equal(t, root.UserID, payment.PayerID)
		assert.Equal(t, int64(0), payment.TriggerOrbit)
		assert.Equal(t, int64(DefaultJoinAmountUSD), payment.PaymentUSD)
		assert.Equal(t, testJoinRAMA, payment.PaymentRAMA)
		assert.Equal(t, entity.CascadeStatusPending, payment.Status)
		assert.Equal(t, int32(0), payment.Attempts)

		state, err := repo.GetContractState(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), state.TotalRepurchases)
	})

	t.Run("leftover carries into the replacement orbit", func(t *testing.T) {
		p, repo := newTestProcessor(t)
		users := registerLine(t, p, 2)

		// $60 share: ten slots complete orbit 0, $10 spills into orbit 1
		receipt, err := p.Distribute(ctx, users[1].UserID, 120_000_000, uint128.From64(120_000_000))
		require.NoError(t, err)

		require.Len(t, receipt.Entries, 1)
		entry := receipt.Entries[0]
		assert.Equal(t, int32(12), entry.SlotsCompleted)
		assert.True(t, entry.OrbitCompleted)
		assert.Equal(t, int64(1), entry.NewOrbitID)

		root, err := repo.GetUserByID(ctx, users[0].UserID)
		require.NoError(t, err)
		assert.Equal(t, int64(60_000_000), root.TotalEarningsUSD)
		assert.Equal(t, int32(2), root.CurrentOrbitX)

		orbit, err := repo.GetActiveOrbit(ctx, root.UserID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), orbit.OrbitID)
		assert.Equal(t, int32(2), orbit.CompletedX)
	})

	t.Run("income records are written per earning part", func(t *testing.T) {
		p, repo := newTestProcessor(t)
		users := registerLine(t, p, 3)

		_, err := p.Distribute(ctx, users[2].UserID, 10_000_000, uint128.From64(10_000_000))
		require.NoError(t, err)

		records, err := repo.GetIncomeRecords(ctx, users[1].UserID, nil, 0, 0)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "RAMA", records[0].Coin)
		assert.Equal(t, int64(5_000_000), records[0].USD)
		assert.Equal(t, users[2].UserID, records[0].DonorID)
		assert.Equal(t, int32(1), records[0].Level)

		incomes, err := repo.GetLevelIncomes(ctx, users[0].UserID)
		require.NoError(t, err)
		require.Len(t, incomes, 1)
		assert.Equal(t, int32(2), incomes[0].Level)
		assert.Equal(t, int64(500_000), incomes[0].USD)
	})

	t.Run("unknown payer", func(t *testing.T) {
		p, _ := newTestProcessor(t)
		registerLine(t, p, 1)
		_, err := p.Distribute(ctx, 42, 3_000_000, uint128.From64(3_000))
		assert.ErrorIs(t, err, ErrUnknownPayer)
		assert.ErrorIs(t, err, errs.InvalidArgument)
	})

	t.Run("invalid payment", func(t *testing.T) {
		p, _ := newTestProcessor(t)
		users := registerLine(t, p, 1)
		_, err := p.Distribute(ctx, users[0].UserID, 0, uint128.From64(3_000))
		assert.ErrorIs(t, err, ErrInvalidPayment)
		_, err = p.Distribute(ctx, users[0].UserID, 3_000_000, uint128.Zero)
		assert.ErrorIs(t, err, ErrInvalidPayment)
	})

	t.Run("root payer pays everything to treasury", func(t *testing.T) {
		p, repo := newTestProcessor(t)
		users := registerLine(t, p, 1)

		receipt, err := p.Distribute(ctx, users[0].UserID, 5_000_000, uint128.From64(5_000))
		require.NoError(t, err)
		assert.Empty(t, receipt.Entries)
		assert.Equal(t, int64(5_000_000), receipt.TreasuryUSD)

		state, err := repo.GetContractState(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(5_000_000), state.TreasuryUSD)
	})
}

// lockRecordingGateway records the order of contract state calls inside a
// transaction. The postgres gateway runs disjoint upline distributions
// concurrently, so reading the singleton without locking it first loses
// increments on write-back.
type lockRecordingGateway struct {
	datagateway.OrbitDataGateway
	calls []string
}

func (g *lockRecordingGateway) BeginOrbitTx(ctx context.Context) (datagateway.OrbitDataGatewayWithTx, error) {
	dgTx, err := g.OrbitDataGateway.BeginOrbitTx(ctx)
	if err != nil {
		return nil, err
	}
	return &lockRecordingTx{OrbitDataGatewayWithTx: dgTx, gateway: g}, nil
}

type lockRecordingTx struct {
	datagateway.OrbitDataGatewayWithTx
	gateway *lockRecordingGateway
}

func (t *lockRecordingTx) LockContractState(ctx context.Context) error {
	t.gateway.calls = append(t.gateway.calls, "LockContractState")
	return t.OrbitDataGatewayWithTx.LockContractState(ctx)
}

func (t *lockRecordingTx) GetContractState(ctx context.Context) (*entity.ContractState, error) {
	t.gateway.calls = append(t.gateway.calls, "GetContractState")
	return t.OrbitDataGatewayWithTx.GetContractState(ctx)
}

func TestContractStateLockedBeforeRead(t *testing.T) {
	ctx := context.Background()
	gateway := &lockRecordingGateway{OrbitDataGateway: memory.New()}
	p := NewProcessor(gateway, DefaultJoinAmountUSD, testJoinRAMA, nil)
	require.NoError(t, p.VerifyStates(ctx))

	t.Run("register", func(t *testing.T) {
		gateway.calls = nil
		_, err := p.RegisterUser(ctx, "0xroot", "")
		require.NoError(t, err)
		assert.Equal(t, []string{"LockContractState", "GetContractState"}, gateway.calls)
	})

	t.Run("distribute", func(t *testing.T) {
		_, err := p.RegisterUser(ctx, "0xalice", "1")
		require.NoError(t, err)

		gateway.calls = nil
		_, err = p.Distribute(ctx, 2, 3_000_000, uint128.From64(3_000))
		require.NoError(t, err)
		assert.Equal(t, []string{"LockContractState", "GetContractState"}, gateway.calls)
	})
}
