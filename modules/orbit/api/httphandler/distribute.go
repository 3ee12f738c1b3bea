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

type distributeRequest struct {
	PayerID int64 `json:"payerId"`
	// PaymentUSD and PaymentRAMA are decimal strings ("5.00", "2.45").
	// Both default to the configured join amounts when omitted.
	PaymentUSD  string `json:"paymentUSD"`
	PaymentRAMA string `json:"paymentRAMA"`
}

func (r distributeRequest) Validate() error {
	var errList []error
	if r.PayerID <= 0 {
		errList = append(errList, errors.New("'payerId' must be a positive integer"))
	}
	if (r.PaymentUSD == "") != (r.PaymentRAMA == "") {
		errList = append(errList, errors.New("'paymentUSD' and 'paymentRAMA' must be provided together"))
	}
	return errs.WithPublicMessage(errors.Join(errList...), "validation error")
}

type receiptEntryResult struct {
	Level          int32           `json:"level"`
	RecipientID    int64           `json:"recipientId"`
	ShareUSD       decimal.Decimal `json:"shareUSD"`
	ShareRAMA      uint128.Uint128 `json:"shareRAMA"`
	SlotsCompleted int32           `json:"slotsCompleted"`
	OrbitCompleted bool            `json:"orbitCompleted"`
	NewOrbitID     *int64          `json:"newOrbitId,omitempty"`
}

type distributeResult struct {
	PayerID      int64                `json:"payerId"`
	PaymentUSD   decimal.Decimal      `json:"paymentUSD"`
	PaymentRAMA  uint128.Uint128      `json:"paymentRAMA"`
	Entries      []receiptEntryResult `json:"entries"`
	TreasuryUSD  decimal.Decimal      `json:"treasuryUSD"`
	TreasuryRAMA uint128.Uint128      `json:"treasuryRAMA"`
	CascadeIDs   []int64              `json:"cascadeIds"`
	Timestamp    time.Time            `json:"timestamp"`
}

type distributeResponse = HttpResponse[distributeResult]

func (h *HttpHandler) Distribute(ctx *fiber.Ctx) (err error) {
	var req distributeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errs.WithPublicMessage(err, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return errors.WithStack(err)
	}

	var paymentUSD int64
	var paymentRAMA uint128.Uint128
	if req.PaymentUSD != "" {
		paymentUSD, err = ramacurrency.USDFromString(req.PaymentUSD)
		if err != nil {
			return errs.WithPublicMessage(err, "invalid 'paymentUSD'")
		}
		paymentRAMA, err = ramacurrency.RAMAFromString(req.PaymentRAMA)
		if err != nil {
			return errs.WithPublicMessage(err, "invalid 'paymentRAMA'")
		}
	} else {
		state, err := h.usecase.GetContractState(ctx.UserContext())
		if err != nil {
			return errors.Wrap(err, "error during GetContractState")
		}
		paymentUSD = state.JoinAmountUSD
		paymentRAMA = state.JoinAmountRAMA
	}

	receipt, err := h.usecase.Distribute(ctx.UserContext(), req.PayerID, paymentUSD, paymentRAMA)
	if err != nil {
		if errors.Is(err, errs.InvalidArgument) {
			return errs.WithPublicMessage(err, "")
		}
		return errors.Wrap(err, "error during Distribute")
	}

	entries := make([]receiptEntryResult, 0, len(receipt.Entries))
	for _, entry := range receipt.Entries {
		result := receiptEntryResult{
			Level:          entry.Level,
			RecipientID:    entry.RecipientID,
			ShareUSD:       ramacurrency.USDToDecimal(entry.ShareUSD),
			ShareRAMA:      entry.ShareRAMA,
			SlotsCompleted: entry.SlotsCompleted,
			OrbitCompleted: entry.OrbitCompleted,
		}
		if entry.OrbitCompleted {
			newOrbitID := entry.NewOrbitID
			result.NewOrbitID = &newOrbitID
		}
		entries = append(entries, result)
	}

	resp := distributeResponse{
		Result: &distributeResult{
			PayerID:      receipt.PayerID,
			PaymentUSD:   ramacurrency.USDToDecimal(receipt.PaymentUSD),
			PaymentRAMA:  receipt.PaymentRAMA,
			Entries:      entries,
			TreasuryUSD:  ramacurrency.USDToDecimal(receipt.TreasuryUSD),
			TreasuryRAMA: receipt.TreasuryRAMA,
			CascadeIDs:   receipt.CascadeIDs,
			Timestamp:    receipt.Timestamp,
		},
	}
	return errors.WithStack(ctx.JSON(resp))
}
