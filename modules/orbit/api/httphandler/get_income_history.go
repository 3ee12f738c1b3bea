package httphandler

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/gofiber/fiber/v2"
	"github.com/ramaorbit/orbit-engine/common/errs"
	"github.com/ramaorbit/orbit-engine/pkg/ramacurrency"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type getIncomeHistoryRequest struct {
	paginationRequest
	UserID  int64 `params:"id"`
	OrbitID int64 `query:"orbitId"`
	// HasOrbitID distinguishes orbitId=0 from an absent filter.
	HasOrbitID bool `query:"-"`
}

func (r getIncomeHistoryRequest) Validate() error {
	var errList []error
	if err := r.paginationRequest.Validate(); err != nil {
		errList = append(errList, err)
	}
	if r.UserID <= 0 {
		errList = append(errList, errors.New("'id' must be a positive integer"))
	}
	if r.HasOrbitID && r.OrbitID < 0 {
		errList = append(errList, errors.New("'orbitId' must be non-negative"))
	}
	return errs.WithPublicMessage(errors.Join(errList...), "validation error")
}

type incomeRecordResult struct {
	OrbitID   int64           `json:"orbitId"`
	Coin      string          `json:"coin"`
	Amount    uint128.Uint128 `json:"amount"`
	USD       decimal.Decimal `json:"usd"`
	Timestamp time.Time       `json:"timestamp"`
	DonorID   int64           `json:"donorId"`
	Level     int32           `json:"level"`
}

type getIncomeHistoryResult struct {
	UserID int64                `json:"userId"`
	List   []incomeRecordResult `json:"list"`
}

type getIncomeHistoryResponse = HttpResponse[getIncomeHistoryResult]

func (h *HttpHandler) GetIncomeHistory(ctx *fiber.Ctx) (err error) {
	var req getIncomeHistoryRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	if err := ctx.QueryParser(&req); err != nil {
		return errors.WithStack(err)
	}
	req.HasOrbitID = ctx.Query("orbitId") != ""
	if err := req.Validate(); err != nil {
		return errors.WithStack(err)
	}

	var orbitID *int64
	if req.HasOrbitID {
		orbitID = lo.ToPtr(req.OrbitID)
	}
	records, err := h.usecase.GetIncomeHistory(ctx.UserContext(), req.UserID, orbitID, req.Limit, req.Offset)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return errs.NewPublicError("user not found")
		}
		return errors.Wrap(err, "error during GetIncomeHistory")
	}

	list := make([]incomeRecordResult, 0, len(records))
	for _, record := range records {
		list = append(list, incomeRecordResult{
			OrbitID:   record.OrbitID,
			Coin:      record.Coin,
			Amount:    record.Amount,
			USD:       ramacurrency.USDToDecimal(record.USD),
			Timestamp: record.Timestamp,
			DonorID:   record.DonorID,
			Level:     record.Level,
		})
	}

	resp := getIncomeHistoryResponse{
		Result: &getIncomeHistoryResult{
			UserID: req.UserID,
			List:   list,
		},
	}
	return errors.WithStack(ctx.JSON(resp))
}
