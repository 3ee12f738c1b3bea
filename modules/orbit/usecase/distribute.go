package usecase

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/ramaorbit/orbit-engine/modules/orbit/internal/entity"
)

func (u *Usecase) Distribute(ctx context.Context, payerID int64, paymentUSD int64, paymentRAMA uint128.Uint128) (*entity.DistributionReceipt, error) {
	receipt, err := u.engine.Distribute(ctx, payerID, paymentUSD, paymentRAMA)
	if err != nil {
		return nil, errors.Wrap(err, "failed to distribute payment")
	}
	return receipt, nil
}
