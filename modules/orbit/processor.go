package orbit

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/ramaorbit/orbit-engine/common/errs"
	"github.com/ramaorbit/orbit-engine/modules/orbit/datagateway"
	"github.com/ramaorbit/orbit-engine/modules/orbit/internal/entity"
	"github.com/ramaorbit/orbit-engine/pkg/logger"
	"github.com/ramaorbit/orbit-engine/pkg/logger/slogx"
)

// Processor is the distribution engine: the sole writer of ledger state.
// Every public method executes as one transaction against the data gateway.
type Processor struct {
	orbitDg datagateway.OrbitDataGateway

	joinAmountUSD  int64
	joinAmountRAMA uint128.Uint128

	cleanupFuncs []func(context.Context) error
}

func NewProcessor(orbitDg datagateway.OrbitDataGateway, joinAmountUSD int64, joinAmountRAMA uint128.Uint128, cleanupFuncs []func(context.Context) error) *Processor {
	return &Processor{
		orbitDg:        orbitDg,
		joinAmountUSD:  joinAmountUSD,
		joinAmountRAMA: joinAmountRAMA,
		cleanupFuncs:   cleanupFuncs,
	}
}

func (p *Processor) Name() string {
	return "orbit"
}

func (p *Processor) Shutdown(ctx context.Context) error {
	for _, cleanupFunc := range p.cleanupFuncs {
		if err := cleanupFunc(ctx); err != nil {
			return errors.Wrap(err, "cleanup function error")
		}
	}
	return nil
}

// VerifyStates seeds the contract state singleton on first start and rejects
// a join-amount change against an existing ledger: slot capacity is baked
// into every persisted orbit, so it can only change with a fresh database.
func (p *Processor) VerifyStates(ctx context.Context) error {
	state, err := p.orbitDg.GetContractState(ctx)
	if err != nil && !errors.Is(err, errs.NotFound) {
		return errors.Wrap(err, "failed to get contract state")
	}
	if errors.Is(err, errs.NotFound) {
		dgTx, err := p.orbitDg.BeginOrbitTx(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to begin transaction")
		}
		defer func() {
			if err := dgTx.Rollback(ctx); err != nil {
				logger.ErrorContext(ctx, "failed to rollback transaction", slogx.Error(err))
			}
		}()
		if err := dgTx.UpdateContractState(ctx, &entity.ContractState{
			JoinAmountUSD:  p.joinAmountUSD,
			JoinAmountRAMA: p.joinAmountRAMA,
		}); err != nil {
			return errors.Wrap(err, "failed to seed contract state")
		}
		if err := dgTx.Commit(ctx); err != nil {
			return errors.Wrap(err, "failed to commit transaction")
		}
		return nil
	}
	if state.JoinAmountUSD != p.joinAmountUSD || !state.JoinAmountRAMA.Equals(p.joinAmountRAMA) {
		return errors.Wrapf(errs.Conflict, "join amount mismatch: ledger uses %d micro-USD, configured %d micro-USD. Reset the database to change the join amount", state.JoinAmountUSD, p.joinAmountUSD)
	}
	return nil
}

// RegisterUser creates a participant and their first orbit. sponsorRef is a
// wallet address or a decimal user id; it may be empty only for the very
// first (root) user.
func (p *Processor) RegisterUser(ctx context.Context, address string, sponsorRef string) (*entity.User, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, errors.Wrap(errs.InvalidArgument, "address is required")
	}

	dgTx, err := p.orbitDg.BeginOrbitTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if err := dgTx.Rollback(ctx); err != nil {
			logger.ErrorContext(ctx, "failed to rollback transaction", slogx.Error(err))
		}
	}()

	if _, err := dgTx.GetUserByAddress(ctx, address); err == nil {
		return nil, errors.Wrapf(ErrDuplicateUser, "address %s", address)
	} else if !errors.Is(err, errs.NotFound) {
		return nil, errors.Wrap(err, "failed to check existing user")
	}

	// the singleton lock serializes user id allocation across registrations
	if err := dgTx.LockContractState(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to lock contract state")
	}
	state, err := dgTx.GetContractState(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get contract state")
	}

	var sponsor *entity.User
	if sponsorRef == "" {
		// only the genesis user may be self-rooted
		if state.TotalUsers > 0 {
			return nil, errors.Wrap(ErrUnknownSponsor, "sponsor is required")
		}
	} else {
		sponsor, err = p.resolveUser(ctx, dgTx, sponsorRef)
		if err != nil {
			if errors.Is(err, errs.NotFound) {
				return nil, errors.Wrapf(ErrUnknownSponsor, "sponsor %q", sponsorRef)
			}
			return nil, errors.Wrap(err, "failed to resolve sponsor")
		}
	}

	user := &entity.User{
		UserID:           state.TotalUsers + 1,
		Address:          address,
		RegistrationTime: time.Now(),
		OrbitCount:       1,
	}
	if sponsor != nil {
		user.SponsorID = sponsor.UserID
		user.SponsorAddress = sponsor.Address
	}

	if err := dgTx.CreateUser(ctx, user); err != nil {
		return nil, errors.Wrap(err, "failed to create user")
	}
	if err := dgTx.CreateOrbit(ctx, &entity.Orbit{UserID: user.UserID, OrbitID: 0}); err != nil {
		return nil, errors.Wrap(err, "failed to create first orbit")
	}

	state.TotalUsers++
	if err := dgTx.UpdateContractState(ctx, state); err != nil {
		return nil, errors.Wrap(err, "failed to update contract state")
	}

	if err := dgTx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to commit transaction")
	}

	logger.InfoContext(ctx, "Registered user",
		slogx.Int64("userId", user.UserID),
		slogx.String("address", user.Address),
		slogx.Int64("sponsorId", user.SponsorID),
	)
	return user, nil
}

// Distribute applies one payment: slices it into upline shares, credits each
// recipient's active orbit and finalizes any orbit that completes. The whole
// call is one transaction; cascades spawned by completions are persisted as
// pending payments and executed later by the cascade scheduler.
func (p *Processor) Distribute(ctx context.Context, payerID int64, paymentUSD int64, paymentRAMA uint128.Uint128) (*entity.DistributionReceipt, error) {
	dgTx, err := p.orbitDg.BeginOrbitTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if err := dgTx.Rollback(ctx); err != nil {
			logger.ErrorContext(ctx, "failed to rollback transaction", slogx.Error(err))
		}
	}()

	receipt, err := p.distributeTx(ctx, dgTx, payerID, paymentUSD, paymentRAMA)
	if err != nil {
		return nil, err
	}

	if err := dgTx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to commit transaction")
	}

	logger.InfoContext(ctx, "Distributed payment",
		slogx.Int64("payerId", payerID),
		slogx.Int64("paymentUSD", paymentUSD),
		slogx.Int("levels", len(receipt.Entries)),
		slogx.Int("cascades", len(receipt.CascadeIDs)),
	)
	return receipt, nil
}

// distributeTx runs the distribution state machine inside an open
// transaction: SPLIT, then CREDIT in ascending level order, completing
// orbits as they fill.
func (p *Processor) distributeTx(ctx context.Context, dgTx datagateway.OrbitDataGatewayWithTx, payerID int64, paymentUSD int64, paymentRAMA uint128.Uint128) (*entity.DistributionReceipt, error) {
	if paymentUSD <= 0 || paymentRAMA.IsZero() {
		return nil, errors.Wrapf(ErrInvalidPayment, "usd=%d rama=%s", paymentUSD, paymentRAMA)
	}

	payer, err := dgTx.GetUserByID(ctx, payerID)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return nil, errors.Wrapf(ErrUnknownPayer, "user id %d", payerID)
		}
		return nil, errors.Wrap(err, "failed to get payer")
	}

	chain, err := dgTx.GetSponsorChain(ctx, payer.UserID, Levels)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get sponsor chain")
	}

	// Lock the payer's full upline set in ascending id order so concurrent
	// distributions over overlapping chains serialize instead of deadlocking.
	lockIDs := make([]int64, 0, len(chain)+1)
	lockIDs = append(lockIDs, payer.UserID)
	for _, ancestor := range chain {
		lockIDs = append(lockIDs, ancestor.UserID)
	}
	slices.Sort(lockIDs)
	if err := dgTx.LockUsers(ctx, lockIDs); err != nil {
		return nil, errors.Wrap(err, "failed to lock upline users")
	}

	// re-read the chain now that the rows are locked: sponsor links are
	// immutable but the aggregates credited below are not
	chain, err = dgTx.GetSponsorChain(ctx, payer.UserID, Levels)
	if err != nil {
		return nil, errors.Wrap(err, "failed to reload sponsor chain")
	}

	split, err := splitPayment(payer, chain, paymentUSD, paymentRAMA)
	if err != nil {
		return nil, errors.Wrap(err, "failed to split payment")
	}

	// lock the singleton before reading it: distributions over disjoint
	// upline chains run concurrently, and the aggregates written below are
	// absolute values, not deltas
	if err := dgTx.LockContractState(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to lock contract state")
	}
	state, err := dgTx.GetContractState(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get contract state")
	}

	receipt := &entity.DistributionReceipt{
		PayerID:      payer.UserID,
		PaymentUSD:   paymentUSD,
		PaymentRAMA:  paymentRAMA,
		TreasuryUSD:  split.TreasuryUSD,
		TreasuryRAMA: split.TreasuryRAMA,
		Timestamp:    time.Now(),
	}

	for _, share := range split.Shares {
		entry, cascadeIDs, err := p.credit(ctx, dgTx, state, share)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to credit level %d recipient %d", share.Level, share.Recipient.UserID)
		}
		receipt.Entries = append(receipt.Entries, entry)
		receipt.CascadeIDs = append(receipt.CascadeIDs, cascadeIDs...)
	}

	state.TotalVolumeUSD += paymentUSD
	state.TreasuryUSD += split.TreasuryUSD
	state.TreasuryRAMA = state.TreasuryRAMA.Add(split.TreasuryRAMA)
	if err := dgTx.UpdateContractState(ctx, state); err != nil {
		return nil, errors.Wrap(err, "failed to update contract state")
	}

	return receipt, nil
}

// resolveUser looks a user up by decimal id or wallet address.
func (p *Processor) resolveUser(ctx context.Context, dgTx datagateway.OrbitDataGateway, ref string) (*entity.User, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil && !strings.HasPrefix(ref, "0x") {
		user, err := dgTx.GetUserByID(ctx, id)
		if err != nil {
			return nil, errors.Wrapf(err, "by id %d", id)
		}
		return user, nil
	}
	user, err := dgTx.GetUserByAddress(ctx, ref)
	if err != nil {
		return nil, errors.Wrapf(err, "by address %q", ref)
	}
	return user, nil
}
