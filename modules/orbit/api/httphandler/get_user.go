package httphandler

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/gofiber/fiber/v2"
	"github.com/ramaorbit/orbit-engine/common/errs"
	"github.com/ramaorbit/orbit-engine/modules/orbit/internal/entity"
	"github.com/ramaorbit/orbit-engine/pkg/ramacurrency"
	"github.com/shopspring/decimal"
)

type getUserRequest struct {
	Ref string `params:"ref"`
}

func (r getUserRequest) Validate() error {
	if r.Ref == "" {
		return errs.NewPublicError("'ref' is required")
	}
	return nil
}

type userResult struct {
	UserID            int64           `json:"userId"`
	Address           string          `json:"address"`
	SponsorID         int64           `json:"sponsorId"`
	SponsorAddress    string          `json:"sponsorAddress"`
	RegistrationTime  time.Time       `json:"registrationTime"`
	TotalEarningsUSD  decimal.Decimal `json:"totalEarningsUSD"`
	TotalEarningsRAMA uint128.Uint128 `json:"totalEarningsRAMA"`
	RepurchaseCount   int64           `json:"repurchaseCount"`
	CurrentOrbitX     int32           `json:"currentOrbitX"`
	OrbitCount        int64           `json:"orbitCount"`
}

func mapUserToResult(user *entity.User) userResult {
	return userResult{
		UserID:            user.UserID,
		Address:           user.Address,
		SponsorID:         user.SponsorID,
		SponsorAddress:    user.SponsorAddress,
		RegistrationTime:  user.RegistrationTime,
		TotalEarningsUSD:  ramacurrency.USDToDecimal(user.TotalEarningsUSD),
		TotalEarningsRAMA: user.TotalEarningsRAMA,
		RepurchaseCount:   user.RepurchaseCount,
		CurrentOrbitX:     user.CurrentOrbitX,
		OrbitCount:        user.OrbitCount,
	}
}

type getUserResponse = HttpResponse[userResult]

func (h *HttpHandler) GetUser(ctx *fiber.Ctx) (err error) {
	var req getUserRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	if err := req.Validate(); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.usecase.GetUser(ctx.UserContext(), req.Ref)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return errs.NewPublicError("user not found")
		}
		return errors.Wrap(err, "error during GetUser")
	}

	result := mapUserToResult(user)
	resp := getUserResponse{
		Result: &result,
	}
	return errors.WithStack(ctx.JSON(resp))
}
