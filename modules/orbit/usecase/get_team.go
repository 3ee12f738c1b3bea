package usecase

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/ramaorbit/orbit-engine/common/errs"
	"github.com/ramaorbit/orbit-engine/modules/orbit/internal/entity"
)

const maxTeamLevel = 9

func (u *Usecase) GetTeamAtLevel(ctx context.Context, userID int64, level int32) ([]*entity.TeamMember, error) {
	if level < 1 || level > maxTeamLevel {
		return nil, errors.Wrapf(errs.InvalidArgument, "level must be between 1 and %d", maxTeamLevel)
	}
	members, err := u.orbitDg.GetTeamAtLevel(ctx, userID, level)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get team members")
	}
	return members, nil
}
