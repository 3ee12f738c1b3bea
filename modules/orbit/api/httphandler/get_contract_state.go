package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/gofiber/fiber/v2"
	"github.com/ramaorbit/orbit-engine/common/errs"
	"github.com/ramaorbit/orbit-engine/pkg/ramacurrency"
	"github.com/shopspring/decimal"
)

type getContractStateResult struct {
	TotalUsers       int64           `json:"totalUsers"`
	TotalRepurchases int64           `json:"totalRepurchases"`
	TotalVolumeUSD   decimal.Decimal `json:"totalVolumeUSD"`
	JoinAmountUSD    decimal.Decimal `json:"joinAmountUSD"`
	JoinAmountRAMA   uint128.Uint128 `json:"joinAmountRAMA"`
	TreasuryUSD      decimal.Decimal `json:"treasuryUSD"`
	TreasuryRAMA     uint128.Uint128 `json:"treasuryRAMA"`
}

type getContractStateResponse = HttpResponse[getContractStateResult]

func (h *HttpHandler) GetContractState(ctx *fiber.Ctx) (err error) {
	state, err := h.usecase.GetContractState(ctx.UserContext())
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return errs.NewPublicError("contract state not initialized")
		}
		return errors.Wrap(err, "error during GetContractState")
	}

	resp := getContractStateResponse{
		Result: &getContractStateResult{
			TotalUsers:       state.TotalUsers,
			TotalRepurchases: state.TotalRepurchases,
			TotalVolumeUSD:   ramacurrency.USDToDecimal(state.TotalVolumeUSD),
			JoinAmountUSD:    ramacurrency.USDToDecimal(state.JoinAmountUSD),
			JoinAmountRAMA:   state.JoinAmountRAMA,
			TreasuryUSD:      ramacurrency.USDToDecimal(state.TreasuryUSD),
			TreasuryRAMA:     state.TreasuryRAMA,
		},
	}
	return errors.WithStack(ctx.JSON(resp))
}
