package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/provlabs/navvault/types"
	"github.com/provlabs/navvault/utils"
)

// Valuation is a snapshot of the figures every share conversion is priced from.
type Valuation struct {
	// OnchainReserve is the vault's balance of the underlying asset.
	OnchainReserve math.Int
	// OffchainNAV is the latest NAV reported by the oracle.
	OffchainNAV math.Int
	// FeesAccrued is the unclaimed on-chain plus off-chain service fee.
	FeesAccrued math.Int
	// NetAssets is reserve + NAV - fees, floored at zero.
	NetAssets math.Int
	// TotalShares is the share supply plus shares still owed by the redemption queue.
	TotalShares math.Int
}

// AvailableLiquidity is the part of the reserve that can be paid out without
// touching accrued fees.
func (v Valuation) AvailableLiquidity() math.Int {
	return utils.SaturatingSub(v.OnchainReserve, v.FeesAccrued)
}

// PricePerShare returns NetAssets / TotalShares, or one for an empty vault.
func (v Valuation) PricePerShare() math.LegacyDec {
	return utils.CalculatePricePerShare(v.NetAssets, v.TotalShares)
}

// SharesForDeposit returns the shares minted for assets, rounded down.
func (v Valuation) SharesForDeposit(assets math.Int) (math.Int, error) {
	return utils.CalculateSharesFromAssets(assets, v.NetAssets, v.TotalShares)
}

// SharesForWithdraw returns the shares burned to take out assets, rounded up.
func (v Valuation) SharesForWithdraw(assets math.Int) (math.Int, error) {
	return utils.CalculateSharesForWithdraw(assets, v.NetAssets, v.TotalShares)
}

// AssetsForShares returns the assets paid for shares, rounded down.
func (v Valuation) AssetsForShares(shares math.Int) (math.Int, error) {
	return utils.CalculateAssetsFromShares(shares, v.TotalShares, v.NetAssets)
}

// SharesPayableFrom returns the largest number of shares whose redemption is
// covered by liquidity, rounded down.
func (v Valuation) SharesPayableFrom(liquidity math.Int) (math.Int, error) {
	if v.NetAssets.IsZero() {
		return math.ZeroInt(), nil
	}
	return utils.MulDivFloor(liquidity, v.TotalShares, v.NetAssets)
}

// OnchainReserve returns the vault's balance of the underlying asset.
func (k Keeper) OnchainReserve(ctx sdk.Context) (math.Int, error) {
	return k.AssetKeeper.BalanceOf(ctx, types.GetVaultAddress())
}

// valuation prices the vault against the given (possibly not yet persisted) state.
func (k Keeper) valuation(ctx sdk.Context, state types.VaultState) (Valuation, error) {
	reserve, err := k.OnchainReserve(ctx)
	if err != nil {
		return Valuation{}, err
	}
	supply, err := k.Shares.TotalSupply(ctx)
	if err != nil {
		return Valuation{}, err
	}
	fees := state.TotalFeesAccrued()
	return Valuation{
		OnchainReserve: reserve,
		OffchainNAV:    state.LatestOffchainNAV,
		FeesAccrued:    fees,
		NetAssets:      utils.SaturatingSub(reserve.Add(state.LatestOffchainNAV), fees),
		TotalShares:    supply.Add(state.QueuedShares),
	}, nil
}

// GetValuation returns the current valuation snapshot.
func (k Keeper) GetValuation(ctx sdk.Context) (Valuation, error) {
	state, err := k.GetVaultState(ctx)
	if err != nil {
		return Valuation{}, err
	}
	return k.valuation(ctx, state)
}

// CombinedNetAssets returns reserve + off-chain NAV - accrued fees, never negative.
func (k Keeper) CombinedNetAssets(ctx sdk.Context) (math.Int, error) {
	v, err := k.GetValuation(ctx)
	return v.NetAssets, err
}

// TotalShares returns the share supply plus queued shares.
func (k Keeper) TotalShares(ctx sdk.Context) (math.Int, error) {
	v, err := k.GetValuation(ctx)
	return v.TotalShares, err
}

// AvailableLiquidity returns the reserve not earmarked for accrued fees.
func (k Keeper) AvailableLiquidity(ctx sdk.Context) (math.Int, error) {
	v, err := k.GetValuation(ctx)
	return v.AvailableLiquidity(), err
}

// PricePerShare returns the current net assets per share.
func (k Keeper) PricePerShare(ctx sdk.Context) (math.LegacyDec, error) {
	v, err := k.GetValuation(ctx)
	if err != nil {
		return math.LegacyDec{}, err
	}
	return v.PricePerShare(), nil
}

// PreviewDeposit returns the shares minted for depositing assets (after fees), rounded down.
func (k Keeper) PreviewDeposit(ctx sdk.Context, assets math.Int) (math.Int, error) {
	v, err := k.GetValuation(ctx)
	if err != nil {
		return math.Int{}, err
	}
	return v.SharesForDeposit(assets)
}

// PreviewWithdraw returns the shares that must be burned to withdraw assets, rounded up.
func (k Keeper) PreviewWithdraw(ctx sdk.Context, assets math.Int) (math.Int, error) {
	v, err := k.GetValuation(ctx)
	if err != nil {
		return math.Int{}, err
	}
	return v.SharesForWithdraw(assets)
}

// PreviewRedeem returns the assets paid for redeeming shares, rounded down.
func (k Keeper) PreviewRedeem(ctx sdk.Context, shares math.Int) (math.Int, error) {
	v, err := k.GetValuation(ctx)
	if err != nil {
		return math.Int{}, err
	}
	return v.AssetsForShares(shares)
}
