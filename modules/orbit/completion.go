package orbit

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ramaorbit/orbit-engine/modules/orbit/datagateway"
	"github.com/ramaorbit/orbit-engine/modules/orbit/internal/entity"
	"github.com/ramaorbit/orbit-engine/pkg/logger"
	"github.com/ramaorbit/orbit-engine/pkg/logger/slogx"
)

// completeOrbit finalizes a just-filled orbit and opens the next one: the
// terminal orbit becomes immutable, repurchase and orbit counters advance,
// and a join payment of exactly the join amount is synthesized with the
// completing user as payer. The payment is persisted as a pending cascade
// and executed by the scheduler after this transaction commits.
//
// Completion is triggered at most once per orbit: a second invocation on the
// same orbit fails with ErrAlreadyCompleted and performs no mutation.
func (p *Processor) completeOrbit(ctx context.Context, dgTx datagateway.OrbitDataGatewayWithTx, user *entity.User, state *entity.ContractState, orbitID int64) (newOrbitID int64, cascadeID int64, err error) {
	// the completable orbit is always the user's latest
	if orbitID != user.OrbitCount-1 {
		return 0, 0, errors.Wrapf(ErrAlreadyCompleted, "orbit %d of user %d", orbitID, user.UserID)
	}
	if user.CurrentOrbitX < SlotsPerOrbit {
		return 0, 0, errors.Wrapf(ErrAlreadyCompleted, "orbit %d of user %d has only %d completed slots", orbitID, user.UserID, user.CurrentOrbitX)
	}

	newOrbitID = user.OrbitCount
	user.RepurchaseCount++
	user.OrbitCount++
	user.CurrentOrbitX = 0
	state.TotalRepurchases++

	if err := dgTx.CreateOrbit(ctx, &entity.Orbit{UserID: user.UserID, OrbitID: newOrbitID}); err != nil {
		return 0, 0, errors.Wrap(err, "failed to create replacement orbit")
	}

	now := time.Now()
	cascadeID, err = dgTx.CreateCascadePayment(ctx, &entity.CascadePayment{
		PayerID:       user.UserID,
		TriggerOrbit:  orbitID,
		PaymentUSD:    state.JoinAmountUSD,
		PaymentRAMA:   state.JoinAmountRAMA,
		Status:        entity.CascadeStatusPending,
		CreatedAt:     now,
		NextAttemptAt: now,
	})
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to create cascade payment")
	}

	logger.InfoContext(ctx, "Orbit completed, repurchase queued",
		slogx.Int64("userId", user.UserID),
		slogx.Int64("orbitId", orbitID),
		slogx.Int64("newOrbitId", newOrbitID),
		slogx.Int64("cascadeId", cascadeID),
	)
	return newOrbitID, cascadeID, nil
}
