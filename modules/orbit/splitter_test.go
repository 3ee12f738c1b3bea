package orbit

import (
	"fmt"
	"testing"

	"github.com/gaze-network/uint128"
	"github.com/ramaorbit/orbit-engine/modules/orbit/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testChain builds a sponsor chain of n users: chain[0] is the direct
// sponsor, ids counting down from 100 so they never collide with the payer.
func testChain(n int) []*entity.User {
	chain := make([]*entity.User, 0, n)
	for i := 0; i < n; i++ {
		chain = append(chain, &entity.User{
			UserID:  int64(100 - i),
			Address: fmt.Sprintf("0xancestor%d", i+1),
		})
	}
	return chain
}

func TestSplitPayment(t *testing.T) {
	payer := &entity.User{UserID: 7, Address: "0xpayer"}

	t.Run("full chain", func(t *testing.T) {
		result, err := splitPayment(payer, testChain(Levels), 10_000_000, uint128.From64(4_900_000_000_000_000_000))
		require.NoError(t, err)
		require.Len(t, result.Shares, Levels)

		assert.Equal(t, int32(1), result.Shares[0].Level)
		assert.Equal(t, int64(5_000_000), result.Shares[0].ShareUSD)
		assert.Equal(t, uint128.From64(2_450_000_000_000_000_000), result.Shares[0].ShareRAMA)
		for i := 1; i < Levels; i++ {
			assert.Equal(t, int32(i+1), result.Shares[i].Level)
			assert.Equal(t, int64(500_000), result.Shares[i].ShareUSD)
			assert.Equal(t, uint128.From64(245_000_000_000_000_000), result.Shares[i].ShareRAMA)
		}
		// 10% stays unallocated
		assert.Equal(t, int64(1_000_000), result.TreasuryUSD)
		assert.Equal(t, uint128.From64(490_000_000_000_000_000), result.TreasuryRAMA)

		for _, share := range result.Shares {
			assert.Equal(t, payer.UserID, share.DonorID)
			assert.Equal(t, payer.Address, share.DonorsFrom)
		}
	})

	t.Run("short chain routes missing levels to treasury", func(t *testing.T) {
		result, err := splitPayment(payer, testChain(2), 10_000_000, uint128.From64(10_000_000))
		require.NoError(t, err)
		require.Len(t, result.Shares, 2)
		assert.Equal(t, int64(5_000_000), result.Shares[0].ShareUSD)
		assert.Equal(t, int64(500_000), result.Shares[1].ShareUSD)
		assert.Equal(t, int64(4_500_000), result.TreasuryUSD)
		assert.Equal(t, uint128.From64(4_500_000), result.TreasuryRAMA)
	})

	t.Run("chain longer than nine levels is capped", func(t *testing.T) {
		result, err := splitPayment(payer, testChain(12), 10_000_000, uint128.From64(10_000_000))
		require.NoError(t, err)
		assert.Len(t, result.Shares, Levels)
		assert.Equal(t, int64(1_000_000), result.TreasuryUSD)
	})

	t.Run("truncation dust lands in treasury", func(t *testing.T) {
		// 3 micro-USD: level 1 gets 1, level 2 truncates to zero and is dropped
		result, err := splitPayment(payer, testChain(2), 3, uint128.From64(1_000))
		require.NoError(t, err)
		require.Len(t, result.Shares, 1)
		assert.Equal(t, int64(1), result.Shares[0].ShareUSD)
		assert.Equal(t, uint128.From64(500), result.Shares[0].ShareRAMA)
		assert.Equal(t, int64(2), result.TreasuryUSD)
		assert.Equal(t, uint128.From64(500), result.TreasuryRAMA)
	})

	t.Run("usd-less share keeps its rama in treasury", func(t *testing.T) {
		result, err := splitPayment(payer, testChain(1), 1, uint128.From64(10_000))
		require.NoError(t, err)
		assert.Empty(t, result.Shares)
		assert.Equal(t, int64(1), result.TreasuryUSD)
		assert.Equal(t, uint128.From64(10_000), result.TreasuryRAMA)
	})

	t.Run("empty chain", func(t *testing.T) {
		result, err := splitPayment(payer, nil, 5_000_000, uint128.From64(5_000_000))
		require.NoError(t, err)
		assert.Empty(t, result.Shares)
		assert.Equal(t, int64(5_000_000), result.TreasuryUSD)
		assert.Equal(t, uint128.From64(5_000_000), result.TreasuryRAMA)
	})

	t.Run("non-positive payment", func(t *testing.T) {
		_, err := splitPayment(payer, testChain(1), 0, uint128.From64(1))
		assert.ErrorIs(t, err, ErrInvalidPayment)
		_, err = splitPayment(payer, testChain(1), -5, uint128.From64(1))
		assert.ErrorIs(t, err, ErrInvalidPayment)
	})
}

func TestSplitPaymentConservation(t *testing.T) {
	payer := &entity.User{UserID: 7, Address: "0xpayer"}
	payments := []int64{1, 3, 7, 999, 5_000_000, 123_456_789}
	ramas := []uint128.Uint128{uint128.From64(1), uint128.From64(997), uint128.From64(2_450_000_000_000_000_000)}

	for _, usd := range payments {
		for _, rama := range ramas {
			for chainLen := 0; chainLen <= Levels+1; chainLen++ {
				result, err := splitPayment(payer, testChain(chainLen), usd, rama)
				require.NoError(t, err)

				sumUSD := result.TreasuryUSD
				sumRAMA := result.TreasuryRAMA
				for _, share := range result.Shares {
					sumUSD += share.ShareUSD
					sumRAMA = sumRAMA.Add(share.ShareRAMA)
				}
				assert.Equal(t, usd, sumUSD, "usd not conserved for payment %d chain %d", usd, chainLen)
				assert.Equal(t, rama, sumRAMA, "rama not conserved for payment %d chain %d", usd, chainLen)
			}
		}
	}
}

func TestLevelShareBasisPoints(t *testing.T) {
	assert.Equal(t, int64(5_000), levelShareBasisPoints(1))
	for level := int32(2); level <= Levels; level++ {
		assert.Equal(t, int64(500), levelShareBasisPoints(level))
	}
	assert.Equal(t, int64(0), levelShareBasisPoints(0))
	assert.Equal(t, int64(0), levelShareBasisPoints(10))
}
