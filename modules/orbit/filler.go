package orbit

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/ramaorbit/orbit-engine/common/errs"
	"github.com/ramaorbit/orbit-engine/modules/orbit/datagateway"
	"github.com/ramaorbit/orbit-engine/modules/orbit/internal/entity"
)

// fillResult reports the effect of one pass over a recipient's active orbit.
type fillResult struct {
	orbitID        int64
	slotsCompleted int32
	orbitCompleted bool

	// leftover is the part of the contribution that did not fit because the
	// orbit completed mid-fill. It carries into the recipient's next orbit.
	leftoverUSD  int64
	leftoverRAMA uint128.Uint128
}

// credit applies one level share to its recipient. A share larger than the
// room left in the active orbit completes that orbit and continues into the
// replacement orbit created by the completion handler, so nothing is dropped.
func (p *Processor) credit(ctx context.Context, dgTx datagateway.OrbitDataGatewayWithTx, state *entity.ContractState, share Share) (entity.ReceiptEntry, []int64, error) {
	entry := entity.ReceiptEntry{
		Level:       share.Level,
		RecipientID: share.Recipient.UserID,
		ShareUSD:    share.ShareUSD,
		ShareRAMA:   share.ShareRAMA,
	}

	var cascadeIDs []int64
	usd, rama := share.ShareUSD, share.ShareRAMA
	for usd > 0 {
		res, err := p.fillActiveOrbit(ctx, dgTx, share.Recipient, state, usd, rama, share)
		if err != nil {
			return entity.ReceiptEntry{}, nil, err
		}
		entry.SlotsCompleted += res.slotsCompleted
		usd, rama = res.leftoverUSD, res.leftoverRAMA

		if res.orbitCompleted {
			entry.OrbitCompleted = true
			newOrbitID, cascadeID, err := p.completeOrbit(ctx, dgTx, share.Recipient, state, res.orbitID)
			if err != nil {
				return entity.ReceiptEntry{}, nil, err
			}
			entry.NewOrbitID = newOrbitID
			cascadeIDs = append(cascadeIDs, cascadeID)
		}
	}

	if err := dgTx.UpdateUser(ctx, share.Recipient); err != nil {
		return entity.ReceiptEntry{}, nil, errors.Wrap(err, "failed to update recipient")
	}

	return entry, cascadeIDs, nil
}

// fillActiveOrbit pours a contribution into the recipient's active orbit
// slot by slot. A contribution bigger than the current slot's room splits:
// the room-sized fragment completes the slot and the rest carries forward.
// RAMA splits proportionally to USD with truncating division, the remainder
// riding with the carry so the final fragment reconciles exactly.
func (p *Processor) fillActiveOrbit(ctx context.Context, dgTx datagateway.OrbitDataGatewayWithTx, user *entity.User, state *entity.ContractState, usd int64, rama uint128.Uint128, share Share) (*fillResult, error) {
	activeOrbit, err := dgTx.GetActiveOrbit(ctx, user.UserID)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			// fatal: the orbit lifecycle guarantees an active orbit exists
			return nil, errors.Wrapf(ErrNoActiveOrbit, "user %d", user.UserID)
		}
		return nil, errors.Wrap(err, "failed to get active orbit")
	}

	capacity := state.JoinAmountUSD
	slotTotals := make(map[int32]int64, len(activeOrbit.XSlots))
	for _, slot := range activeOrbit.XSlots {
		slotTotals[slot.SlotIndex] = slot.TotalUSD
	}

	res := &fillResult{orbitID: activeOrbit.OrbitID}
	now := time.Now()
	var appendParams []datagateway.AppendEarningPartParams
	var records []*entity.OrbitIncomeRecord

	slotIndex := activeOrbit.CompletedX
	for usd > 0 && slotIndex < SlotsPerOrbit {
		room := capacity - slotTotals[slotIndex]
		if room <= 0 {
			return nil, errors.Wrapf(errs.InvariantViolation, "slot %d of orbit %d for user %d is over capacity", slotIndex, activeOrbit.OrbitID, user.UserID)
		}

		fillUSD := usd
		fillRAMA := rama
		if usd > room {
			fillUSD = room
			fillRAMA = rama.Mul64(uint64(fillUSD)).Div64(uint64(usd))
		}

		part := entity.EarningPart{
			USDValue:   fillUSD,
			RAMAAmount: fillRAMA,
			From:       share.DonorsFrom,
			DonorID:    share.DonorID,
			Level:      share.Level,
		}
		appendParams = append(appendParams, datagateway.AppendEarningPartParams{
			UserID:    user.UserID,
			OrbitID:   activeOrbit.OrbitID,
			SlotIndex: slotIndex,
			Part:      part,
		})
		records = append(records, &entity.OrbitIncomeRecord{
			UserID:    user.UserID,
			OrbitID:   activeOrbit.OrbitID,
			Coin:      "RAMA",
			Amount:    fillRAMA,
			USD:       fillUSD,
			Timestamp: now,
			DonorID:   share.DonorID,
			Level:     share.Level,
		})

		user.TotalEarningsUSD += fillUSD
		user.TotalEarningsRAMA = user.TotalEarningsRAMA.Add(fillRAMA)
		slotTotals[slotIndex] += fillUSD
		usd -= fillUSD
		rama = rama.Sub(fillRAMA)

		if slotTotals[slotIndex] == capacity {
			activeOrbit.CompletedX++
			res.slotsCompleted++
			slotIndex++
		}
	}

	if err := dgTx.AppendEarningParts(ctx, appendParams); err != nil {
		return nil, errors.Wrap(err, "failed to append earning parts")
	}
	if err := dgTx.CreateIncomeRecords(ctx, records); err != nil {
		return nil, errors.Wrap(err, "failed to create income records")
	}
	if err := dgTx.UpdateOrbitProgress(ctx, user.UserID, activeOrbit.OrbitID, activeOrbit.CompletedX); err != nil {
		return nil, errors.Wrap(err, "failed to update orbit progress")
	}

	user.CurrentOrbitX = activeOrbit.CompletedX
	res.orbitCompleted = activeOrbit.CompletedX >= SlotsPerOrbit
	res.leftoverUSD = usd
	res.leftoverRAMA = rama
	return res, nil
}
