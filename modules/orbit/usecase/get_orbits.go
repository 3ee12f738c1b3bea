package usecase

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/ramaorbit/orbit-engine/modules/orbit/internal/entity"
)

func (u *Usecase) GetOrbits(ctx context.Context, userID int64) ([]*entity.Orbit, error) {
	if _, err := u.orbitDg.GetUserByID(ctx, userID); err != nil {
		return nil, errors.Wrap(err, "failed to get user")
	}
	orbits, err := u.orbitDg.GetOrbitsByUserID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get orbits")
	}
	return orbits, nil
}

func (u *Usecase) GetActiveOrbit(ctx context.Context, userID int64) (*entity.Orbit, error) {
	orbit, err := u.orbitDg.GetActiveOrbit(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get active orbit")
	}
	return orbit, nil
}
