package httphandler

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/gofiber/fiber/v2"
	"github.com/ramaorbit/orbit-engine/common/errs"
	"github.com/ramaorbit/orbit-engine/pkg/ramacurrency"
	"github.com/shopspring/decimal"
)

type getTeamAtLevelRequest struct {
	UserID int64 `params:"id"`
	Level  int32 `params:"level"`
}

func (r getTeamAtLevelRequest) Validate() error {
	var errList []error
	if r.UserID <= 0 {
		errList = append(errList, errors.New("'id' must be a positive integer"))
	}
	if r.Level < 1 || r.Level > 9 {
		errList = append(errList, errors.New("'level' must be between 1 and 9"))
	}
	return errs.WithPublicMessage(errors.Join(errList...), "validation error")
}

type teamMemberResult struct {
	UserID           int64           `json:"userId"`
	Wallet           string          `json:"wallet"`
	IncomeEarnedUSD  decimal.Decimal `json:"incomeEarnedUSD"`
	IncomeEarnedRAMA uint128.Uint128 `json:"incomeEarnedRAMA"`
	RegistrationTime time.Time       `json:"registrationTime"`
	Sponsor          string          `json:"sponsor"`
}

type getTeamAtLevelResult struct {
	UserID int64              `json:"userId"`
	Level  int32              `json:"level"`
	Count  int                `json:"count"`
	List   []teamMemberResult `json:"list"`
}

type getTeamAtLevelResponse = HttpResponse[getTeamAtLevelResult]

func (h *HttpHandler) GetTeamAtLevel(ctx *fiber.Ctx) (err error) {
	var req getTeamAtLevelRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	if err := req.Validate(); err != nil {
		return errors.WithStack(err)
	}

	members, err := h.usecase.GetTeamAtLevel(ctx.UserContext(), req.UserID, req.Level)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return errs.NewPublicError("user not found")
		}
		if errors.Is(err, errs.InvalidArgument) {
			return errs.WithPublicMessage(err, "validation error")
		}
		return errors.Wrap(err, "error during GetTeamAtLevel")
	}

	list := make([]teamMemberResult, 0, len(members))
	for _, member := range members {
		list = append(list, teamMemberResult{
			UserID:           member.UserID,
			Wallet:           member.Wallet,
			IncomeEarnedUSD:  ramacurrency.USDToDecimal(member.IncomeEarnedUSD),
			IncomeEarnedRAMA: member.IncomeEarnedRAMA,
			RegistrationTime: member.RegistrationTime,
			Sponsor:          member.Sponsor,
		})
	}

	resp := getTeamAtLevelResponse{
		Result: &getTeamAtLevelResult{
			UserID: req.UserID,
			Level:  req.Level,
			Count:  len(list),
			List:   list,
		},
	}
	return errors.WithStack(ctx.JSON(resp))
}
