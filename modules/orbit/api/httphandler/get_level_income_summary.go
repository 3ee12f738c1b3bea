package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/gofiber/fiber/v2"
	"github.com/ramaorbit/orbit-engine/common/errs"
	"github.com/ramaorbit/orbit-engine/pkg/ramacurrency"
	"github.com/shopspring/decimal"
)

type getLevelIncomeSummaryRequest struct {
	UserID int64 `params:"id"`
}

func (r getLevelIncomeSummaryRequest) Validate() error {
	if r.UserID <= 0 {
		return errs.NewPublicError("'id' must be a positive integer")
	}
	return nil
}

type levelIncomeResult struct {
	Level      int32           `json:"level"`
	USD        decimal.Decimal `json:"usd"`
	RAMAAmount uint128.Uint128 `json:"ramaAmount"`
	Percentage decimal.Decimal `json:"percentage"`
}

type getLevelIncomeSummaryResult struct {
	UserID int64               `json:"userId"`
	List   []levelIncomeResult `json:"list"`
}

type getLevelIncomeSummaryResponse = HttpResponse[getLevelIncomeSummaryResult]

func (h *HttpHandler) GetLevelIncomeSummary(ctx *fiber.Ctx) (err error) {
	var req getLevelIncomeSummaryRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	if err := req.Validate(); err != nil {
		return errors.WithStack(err)
	}

	summaries, err := h.usecase.GetLevelIncomeSummary(ctx.UserContext(), req.UserID)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return errs.NewPublicError("user not found")
		}
		return errors.Wrap(err, "error during GetLevelIncomeSummary")
	}

	list := make([]levelIncomeResult, 0, len(summaries))
	for _, summary := range summaries {
		list = append(list, levelIncomeResult{
			Level:      summary.Level,
			USD:        ramacurrency.USDToDecimal(summary.USD),
			RAMAAmount: summary.RAMAAmount,
			Percentage: summary.Percentage,
		})
	}

	resp := getLevelIncomeSummaryResponse{
		Result: &getLevelIncomeSummaryResult{
			UserID: req.UserID,
			List:   list,
		},
	}
	return errors.WithStack(ctx.JSON(resp))
}
