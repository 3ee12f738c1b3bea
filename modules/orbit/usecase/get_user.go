package usecase

import (
	"context"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/ramaorbit/orbit-engine/modules/orbit/internal/entity"
)

// GetUser resolves a user by numeric id or wallet address.
func (u *Usecase) GetUser(ctx context.Context, ref string) (*entity.User, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		user, err := u.orbitDg.GetUserByID(ctx, id)
		if err != nil {
			return nil, errors.Wrap(err, "failed to get user by id")
		}
		return user, nil
	}
	user, err := u.orbitDg.GetUserByAddress(ctx, ref)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user by address")
	}
	return user, nil
}
