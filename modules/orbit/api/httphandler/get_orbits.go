package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/gofiber/fiber/v2"
	"github.com/ramaorbit/orbit-engine/common/errs"
	"github.com/ramaorbit/orbit-engine/modules/orbit/internal/entity"
	"github.com/ramaorbit/orbit-engine/pkg/ramacurrency"
	"github.com/shopspring/decimal"
)

type getOrbitsRequest struct {
	UserID int64 `params:"id"`
}

func (r getOrbitsRequest) Validate() error {
	if r.UserID <= 0 {
		return errs.NewPublicError("'id' must be a positive integer")
	}
	return nil
}

type earningPartResult struct {
	USDValue   decimal.Decimal `json:"usdValue"`
	RAMAAmount uint128.Uint128 `json:"ramaAmount"`
	From       string          `json:"from"`
	DonorID    int64           `json:"donorId"`
	Level      int32           `json:"level"`
}

type xSlotResult struct {
	SlotIndex int32               `json:"slotIndex"`
	TotalUSD  decimal.Decimal     `json:"totalUSD"`
	Parts     []earningPartResult `json:"parts"`
}

type orbitResult struct {
	OrbitID    int64         `json:"orbitId"`
	CompletedX int32         `json:"completedX"`
	XSlots     []xSlotResult `json:"xSlots"`
}

func mapOrbitToResult(orbit *entity.Orbit) orbitResult {
	slots := make([]xSlotResult, 0, len(orbit.XSlots))
	for _, slot := range orbit.XSlots {
		parts := make([]earningPartResult, 0, len(slot.Parts))
		for _, part := range slot.Parts {
			parts = append(parts, earningPartResult{
				USDValue:   ramacurrency.USDToDecimal(part.USDValue),
				RAMAAmount: part.RAMAAmount,
				From:       part.From,
				DonorID:    part.DonorID,
				Level:      part.Level,
			})
		}
		slots = append(slots, xSlotResult{
			SlotIndex: slot.SlotIndex,
			TotalUSD:  ramacurrency.USDToDecimal(slot.TotalUSD),
			Parts:     parts,
		})
	}
	return orbitResult{
		OrbitID:    orbit.OrbitID,
		CompletedX: orbit.CompletedX,
		XSlots:     slots,
	}
}

type getOrbitsResult struct {
	UserID int64         `json:"userId"`
	List   []orbitResult `json:"list"`
}

type getOrbitsResponse = HttpResponse[getOrbitsResult]

func (h *HttpHandler) GetOrbits(ctx *fiber.Ctx) (err error) {
	var req getOrbitsRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	if err := req.Validate(); err != nil {
		return errors.WithStack(err)
	}

	orbits, err := h.usecase.GetOrbits(ctx.UserContext(), req.UserID)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return errs.NewPublicError("user not found")
		}
		return errors.Wrap(err, "error during GetOrbits")
	}

	list := make([]orbitResult, 0, len(orbits))
	for _, orbit := range orbits {
		list = append(list, mapOrbitToResult(orbit))
	}

	resp := getOrbitsResponse{
		Result: &getOrbitsResult{
			UserID: req.UserID,
			List:   list,
		},
	}
	return errors.WithStack(ctx.JSON(resp))
}
