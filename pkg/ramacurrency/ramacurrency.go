// Package ramacurrency converts between the engine's fixed-point ledger
// amounts and human-readable decimal strings.
//
// The ledger never stores floating point: USD is an int64 in micro-USD
// (6 decimals) and RAMA is a uint128 in wei (18 decimals). Decimals are
// only used at the boundary (config parsing, API responses).
package ramacurrency

import (
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/ramaorbit/orbit-engine/common/errs"
	"github.com/shopspring/decimal"
)

const (
	// USDDecimals is the fixed-point precision of USD amounts (micro-USD).
	USDDecimals = 6

	// RAMADecimals is the fixed-point precision of RAMA amounts (wei).
	RAMADecimals = 18
)

// USDToDecimal converts micro-USD to a decimal USD value.
func USDToDecimal(microUSD int64) decimal.Decimal {
	return decimal.New(microUSD, -USDDecimals)
}

// USDFromDecimal converts a decimal USD value to micro-USD,
// truncating sub-micro precision.
func USDFromDecimal(d decimal.Decimal) (int64, error) {
	shifted := d.Shift(USDDecimals).Truncate(0)
	if !shifted.BigInt().IsInt64() {
		return 0, errors.Wrapf(errs.Overflow, "usd amount %s does not fit in micro-USD", d)
	}
	return shifted.BigInt().Int64(), nil
}

// USDFromString parses a decimal USD string (e.g. "5.00") to micro-USD.
func USDFromString(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, errors.Wrapf(errs.InvalidArgument, "invalid usd amount %q", s)
	}
	return USDFromDecimal(d)
}

// RAMAToDecimal converts RAMA wei to a decimal RAMA value.
func RAMAToDecimal(wei uint128.Uint128) decimal.Decimal {
	return decimal.NewFromBigInt(wei.Big(), -RAMADecimals)
}

// RAMAFromDecimal converts a decimal RAMA value to wei,
// truncating sub-wei precision.
func RAMAFromDecimal(d decimal.Decimal) (uint128.Uint128, error) {
	shifted := d.Shift(RAMADecimals).Truncate(0)
	bi := shifted.BigInt()
	if bi.Sign() < 0 {
		return uint128.Zero, errors.Wrapf(errs.InvalidArgument, "rama amount %s is negative", d)
	}
	wei, err := uint128.FromBig(bi)
	if err != nil {
		return uint128.Zero, errors.Wrapf(errs.Overflow, "rama amount %s does not fit in uint128 wei", d)
	}
	return wei, nil
}

// RAMAFromString parses a decimal RAMA string (e.g. "2.45") to wei.
func RAMAFromString(s string) (uint128.Uint128, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return uint128.Zero, errors.Wrapf(errs.InvalidArgument, "invalid rama amount %q", s)
	}
	return RAMAFromDecimal(d)
}

// RAMAFromBigInt converts a big.Int wei amount to uint128.
func RAMAFromBigInt(bi *big.Int) (uint128.Uint128, error) {
	if bi.Sign() < 0 {
		return uint128.Zero, errors.Wrapf(errs.InvalidArgument, "wei amount %s is negative", bi)
	}
	wei, err := uint128.FromBig(bi)
	if err != nil {
		return uint128.Zero, errors.Wrapf(errs.Overflow, "wei amount %s does not fit in uint128", bi)
	}
	return wei, nil
}
