package usecase

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/ramaorbit/orbit-engine/modules/orbit/internal/entity"
)

func (u *Usecase) GetContractState(ctx context.Context) (*entity.ContractState, error) {
	state, err := u.orbitDg.GetContractState(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get contract state")
	}
	return state, nil
}
