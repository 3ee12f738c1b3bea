package orbit

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/ramaorbit/orbit-engine/modules/orbit/internal/entity"
)

// Share is one level's slice of a payment, destined for a single recipient.
type Share struct {
	Level      int32
	Recipient  *entity.User
	ShareUSD   int64
	ShareRAMA  uint128.Uint128
	DonorID    int64
	DonorsFrom string // payer wallet address
}

// SplitResult is the outcome of slicing one payment across the upline chain.
// Conservation holds exactly: the sum of all shares plus the treasury
// remainder equals the payment, for both USD and RAMA.
type SplitResult struct {
	Shares       []Share
	TreasuryUSD  int64
	TreasuryRAMA uint128.Uint128
}

// splitPayment slices a payment into per-level shares for the given sponsor
// chain. chain[0] is the payer's direct sponsor (level 1). Level 1 receives
// 50%, levels 2-9 receive 5% each; shares are truncated fixed-point, and the
// unassigned 10%, truncation dust and any shares of missing levels all land
// in the treasury remainder. Pure computation, no side effects.
func splitPayment(payer *entity.User, chain []*entity.User, paymentUSD int64, paymentRAMA uint128.Uint128) (*SplitResult, error) {
	if paymentUSD <= 0 {
		return nil, errors.WithStack(ErrInvalidPayment)
	}

	shares := make([]Share, 0, len(chain))
	allocatedUSD := int64(0)
	allocatedRAMA := uint128.Zero
	for i, recipient := range chain {
		if i >= Levels {
			break
		}
		level := int32(i + 1)
		bp := levelShareBasisPoints(level)

		shareUSD := paymentUSD * bp / bpDenominator
		shareRAMA := paymentRAMA.Mul64(uint64(bp)).Div64(bpDenominator)
		// slot filling is USD-driven, so a USD-less share cannot be
		// credited; its RAMA fraction stays in the treasury remainder
		if shareUSD == 0 {
			continue
		}

		shares = append(shares, Share{
			Level:      level,
			Recipient:  recipient,
			ShareUSD:   shareUSD,
			ShareRAMA:  shareRAMA,
			DonorID:    payer.UserID,
			DonorsFrom: payer.Address,
		})
		allocatedUSD += shareUSD
		allocatedRAMA = allocatedRAMA.Add(shareRAMA)
	}

	return &SplitResult{
		Shares:       shares,
		TreasuryUSD:  paymentUSD - allocatedUSD,
		TreasuryRAMA: paymentRAMA.Sub(allocatedRAMA),
	}, nil
}
