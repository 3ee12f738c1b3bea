package orbit

const Version = "v0.1.0"

const (
	// Levels is the maximum upline distance that receives a commission share.
	Levels = 9

	// SlotsPerOrbit is the number of X-slots an orbit must fill to complete.
	SlotsPerOrbit = 10

	// bpDenominator is the basis-point denominator for share percentages.
	bpDenominator = 10_000

	// level1ShareBP is the direct sponsor's share: 50%.
	level1ShareBP = 5_000

	// upperLevelShareBP is the share for each of levels 2-9: 5%.
	upperLevelShareBP = 500
)

const (
	// DefaultJoinAmountUSD is the default join/repurchase fee: $5.00 in micro-USD.
	DefaultJoinAmountUSD = 5_000_000

	// DefaultJoinAmountRAMA is the default join/repurchase fee in RAMA wei: 2.45 RAMA.
	DefaultJoinAmountRAMA = "2450000000000000000"
)

// levelShareBasisPoints returns the commission share of the given level in
// basis points. Levels outside 1..Levels have no share.
func levelShareBasisPoints(level int32) int64 {
	switch {
	case level == 1:
		return level1ShareBP
	case level >= 2 && level <= Levels:
		return upperLevelShareBP
	default:
		return 0
	}
}
