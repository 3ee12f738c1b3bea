package usecase

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/ramaorbit/orbit-engine/modules/orbit/internal/entity"
)

const (
	defaultIncomeHistoryLimit = 100
	maxIncomeHistoryLimit     = 1000
)

func (u *Usecase) GetIncomeHistory(ctx context.Context, userID int64, orbitID *int64, limit int32, offset int32) ([]*entity.OrbitIncomeRecord, error) {
	if limit <= 0 {
		limit = defaultIncomeHistoryLimit
	}
	if limit > maxIncomeHistoryLimit {
		limit = maxIncomeHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}
	if _, err := u.orbitDg.GetUserByID(ctx, userID); err != nil {
		return nil, errors.Wrap(err, "failed to get user")
	}
	records, err := u.orbitDg.GetIncomeRecords(ctx, userID, orbitID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get income records")
	}
	return records, nil
}
