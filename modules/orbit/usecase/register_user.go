package usecase

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/ramaorbit/orbit-engine/modules/orbit/internal/entity"
)

func (u *Usecase) RegisterUser(ctx context.Context, address string, sponsorRef string) (*entity.User, error) {
	user, err := u.engine.RegisterUser(ctx, address, sponsorRef)
	if err != nil {
		return nil, errors.Wrap(err, "failed to register user")
	}
	return user, nil
}
