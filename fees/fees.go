package fees

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
)

const (
	SecondsPerHour = 3_600
	SecondsPerDay  = 24 * SecondsPerHour
	SecondsPerYear = 365 * SecondsPerDay

	// BasisPoints is the denominator for every bps rate.
	BasisPoints = 10_000
)

// yearBps is BasisPoints * SecondsPerYear, the denominator of an annualised bps rate applied per second.
var yearBps = sdkmath.NewInt(BasisPoints * SecondsPerYear)

// CalculateServiceFee returns the fee owed on base for the elapsed period at an
// annualised rate of rateBps:
//
//	fee = floor(base * rateBps * seconds / (BasisPoints * SecondsPerYear))
//
// The computation is pure integer arithmetic so identical inputs always yield
// identical fees. A non-positive period or a zero base or rate yields zero.
func CalculateServiceFee(base sdkmath.Int, rateBps uint32, seconds int64) (sdkmath.Int, error) {
	if base.IsNil() || base.IsNegative() {
		return sdkmath.Int{}, fmt.Errorf("fee base must be non-negative")
	}
	if rateBps > BasisPoints {
		return sdkmath.Int{}, fmt.Errorf("fee rate %d bps exceeds %d", rateBps, BasisPoints)
	}
	if seconds <= 0 || rateBps == 0 || base.IsZero() {
		return sdkmath.ZeroInt(), nil
	}

	return base.
		Mul(sdkmath.NewIntFromUint64(uint64(rateBps))).
		Mul(sdkmath.NewInt(seconds)).
		Quo(yearBps), nil
}

// CalculateTransactionFee returns the instant fee charged on amount:
//
//	fee = min(amount, max(floor(amount * feeBps / BasisPoints), minFee))
func CalculateTransactionFee(amount sdkmath.Int, feeBps uint32, minFee sdkmath.Int) (sdkmath.Int, error) {
	if amount.IsNil() || amount.IsNegative() {
		return sdkmath.Int{}, fmt.Errorf("amount must be non-negative")
	}
	if feeBps > BasisPoints {
		return sdkmath.Int{}, fmt.Errorf("fee rate %d bps exceeds %d", feeBps, BasisPoints)
	}
	if amount.IsZero() {
		return sdkmath.ZeroInt(), nil
	}

	fee := amount.Mul(sdkmath.NewIntFromUint64(uint64(feeBps))).QuoRaw(BasisPoints)
	if !minFee.IsNil() && fee.LT(minFee) {
		fee = minFee
	}
	return sdkmath.MinInt(fee, amount), nil
}

// AnnualRate returns rateBps as a decimal fraction, e.g. 50 bps -> 0.005.
func AnnualRate(rateBps uint32) sdkmath.LegacyDec {
	return sdkmath.LegacyNewDec(int64(rateBps)).QuoInt64(BasisPoints)
}
