package usecase

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/ramaorbit/orbit-engine/modules/orbit/internal/entity"
	"github.com/shopspring/decimal"
)

// LevelIncomeSummary is a LevelIncome plus its percentage of the user's
// total earnings.
type LevelIncomeSummary struct {
	entity.LevelIncome
	Percentage decimal.Decimal
}

// GetLevelIncomeSummary returns the user's per-level income with each
// level's share of the total earnings, rounded to two decimal places.
func (u *Usecase) GetLevelIncomeSummary(ctx context.Context, userID int64) ([]LevelIncomeSummary, error) {
	if _, err := u.orbitDg.GetUserByID(ctx, userID); err != nil {
		return nil, errors.Wrap(err, "failed to get user")
	}
	incomes, err := u.orbitDg.GetLevelIncomes(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get level incomes")
	}

	var totalUSD int64
	for _, income := range incomes {
		totalUSD += income.USD
	}

	summaries := make([]LevelIncomeSummary, 0, len(incomes))
	for _, income := range incomes {
		percentage := decimal.Zero
		if totalUSD > 0 {
			percentage = decimal.NewFromInt(income.USD).
				Div(decimal.NewFromInt(totalUSD)).
				Mul(decimal.NewFromInt(100)).
				Round(2)
		}
		summaries = append(summaries, LevelIncomeSummary{
			LevelIncome: *income,
			Percentage:  percentage,
		})
	}
	return summaries, nil
}
