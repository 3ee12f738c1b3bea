package ramacurrency

import (
	"math/big"
	"testing"

	"github.com/gaze-network/uint128"
	"github.com/ramaorbit/orbit-engine/common/errs"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUSDConversions(t *testing.T) {
	t.Run("to decimal", func(t *testing.T) {
		assert.Equal(t, "5", USDToDecimal(5_000_000).String())
		assert.Equal(t, "0.000001", USDToDecimal(1).String())
		assert.Equal(t, "-2.5", USDToDecimal(-2_500_000).String())
	})

	t.Run("from string", func(t *testing.T) {
		got, err := USDFromString("5.00")
		require.NoError(t, err)
		assert.Equal(t, int64(5_000_000), got)

		got, err = USDFromString("0.000001")
		require.NoError(t, err)
		assert.Equal(t, int64(1), got)

		// sub-micro precision truncates
		got, err = USDFromString("1.0000019")
		require.NoError(t, err)
		assert.Equal(t, int64(1_000_001), got)

		_, err = USDFromString("not a number")
		assert.ErrorIs(t, err, errs.InvalidArgument)
	})

	t.Run("overflow", func(t *testing.T) {
		_, err := USDFromDecimal(decimal.New(1, 30))
		assert.ErrorIs(t, err, errs.Overflow)
	})
}

func TestRAMAConversions(t *testing.T) {
	t.Run("to decimal", func(t *testing.T) {
		assert.Equal(t, "2.45", RAMAToDecimal(uint128.From64(2_450_000_000_000_000_000)).String())
		assert.Equal(t, "0.000000000000000001", RAMAToDecimal(uint128.From64(1)).String())
	})

	t.Run("from string", func(t *testing.T) {
		got, err := RAMAFromString("2.45")
		require.NoError(t, err)
		assert.Equal(t, uint128.From64(2_450_000_000_000_000_000), got)

		_, err = RAMAFromString("-1")
		assert.ErrorIs(t, err, errs.InvalidArgument)
		_, err = RAMAFromString("abc")
		assert.ErrorIs(t, err, errs.InvalidArgument)
	})

	t.Run("from big int", func(t *testing.T) {
		got, err := RAMAFromBigInt(big.NewInt(42))
		require.NoError(t, err)
		assert.Equal(t, uint128.From64(42), got)

		_, err = RAMAFromBigInt(big.NewInt(-1))
		assert.ErrorIs(t, err, errs.InvalidArgument)

		tooBig := new(big.Int).Lsh(big.NewInt(1), 129)
		_, err = RAMAFromBigInt(tooBig)
		assert.ErrorIs(t, err, errs.Overflow)
	})

	t.Run("round trip beyond uint64", func(t *testing.T) {
		wei, err := uint128.FromString("340282366920938463463374607431768211455")
		require.NoError(t, err)
		back, err := RAMAFromDecimal(RAMAToDecimal(wei))
		require.NoError(t, err)
		assert.Equal(t, wei, back)
	})
}
