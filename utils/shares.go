package utils

import (
	"fmt"

	"cosmossdk.io/math"
)

// Shares and assets share the same 6 decimal precision, so the first deposit
// into an empty vault mints shares 1:1 with the net assets deposited. After
// that every conversion is pro rata against the combined net assets and the
// total outstanding shares, rounded in the vault's favour.

// CalculateSharesFromAssets returns the shares minted for a deposit of assets.
//
// Formula (integer, floor):
//
//	if totalShares == 0:
//	    shares = assets
//	else:
//	    shares = floor( assets * totalShares / totalAssets )
//
// Errors if any input is negative, or if shares are outstanding while the vault
// holds no net assets (every new share would be free).
func CalculateSharesFromAssets(assets, totalAssets, totalShares math.Int) (math.Int, error) {
	if assets.IsNegative() || totalAssets.IsNegative() || totalShares.IsNegative() {
		return math.Int{}, fmt.Errorf("invalid input: negative values not allowed")
	}
	if assets.IsZero() {
		return math.ZeroInt(), nil
	}
	if totalShares.IsZero() {
		return assets, nil
	}
	if totalAssets.IsZero() {
		return math.Int{}, fmt.Errorf("vault has outstanding shares but no net assets")
	}
	return MulDivFloor(assets, totalShares, totalAssets)
}

// CalculateSharesForWithdraw returns the shares that must be burned to withdraw
// exactly assets. It rounds up so a withdrawal never burns fewer shares than the
// assets it takes out are worth.
//
//	shares = ceil( assets * totalShares / totalAssets )
func CalculateSharesForWithdraw(assets, totalAssets, totalShares math.Int) (math.Int, error) {
	if assets.IsNegative() || totalAssets.IsNegative() || totalShares.IsNegative() {
		return math.Int{}, fmt.Errorf("invalid input: negative values not allowed")
	}
	if assets.IsZero() {
		return math.ZeroInt(), nil
	}
	if totalShares.IsZero() {
		return assets, nil
	}
	if totalAssets.IsZero() {
		return math.Int{}, fmt.Errorf("vault has outstanding shares but no net assets")
	}
	return MulDivCeil(assets, totalShares, totalAssets)
}

// CalculateAssetsFromShares returns the assets paid for redeeming shares.
//
// Formula (integer, floor):
//
//	if totalShares == 0:
//	    assets = 0
//	else:
//	    assets = floor( shares * totalAssets / totalShares )
func CalculateAssetsFromShares(shares, totalShares, totalAssets math.Int) (math.Int, error) {
	if shares.IsNegative() || totalShares.IsNegative() || totalAssets.IsNegative() {
		return math.Int{}, fmt.Errorf("invalid input: negative values not allowed")
	}
	if shares.IsZero() || totalShares.IsZero() {
		return math.ZeroInt(), nil
	}
	if shares.GT(totalShares) {
		return math.Int{}, fmt.Errorf("cannot redeem %s shares of %s outstanding", shares, totalShares)
	}
	return MulDivFloor(shares, totalAssets, totalShares)
}

// CalculatePricePerShare returns totalAssets / totalShares as a decimal.
// An empty vault is priced at exactly one.
func CalculatePricePerShare(totalAssets, totalShares math.Int) math.LegacyDec {
	if totalShares.IsZero() {
		return math.LegacyOneDec()
	}
	return math.LegacyNewDecFromInt(totalAssets).QuoInt(totalShares)
}
