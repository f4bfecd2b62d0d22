package keeper

import (
	"errors"

	"cosmossdk.io/collections"
	sdkerrors "cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/provlabs/navvault/types"
)

// GetUserEpochInfo returns holder's flows for epoch, zero when none were recorded.
func (k Keeper) GetUserEpochInfo(ctx sdk.Context, epoch uint64, holder sdk.AccAddress) (types.UserEpochInfo, error) {
	info, err := k.UserEpochInfo.Get(ctx, collections.Join(epoch, holder))
	if errors.Is(err, collections.ErrNotFound) {
		return types.NewUserEpochInfo(), nil
	}
	return info, err
}

// checkDepositLimit fails when amount would push holder's net deposit for the
// epoch above limit. A zero limit disables the check.
func checkDepositLimit(info types.UserEpochInfo, amount, limit math.Int) error {
	if limit.IsNil() || limit.IsZero() {
		return nil
	}
	if next := info.NetDeposited().Add(amount); next.GT(limit) {
		return sdkerrors.Wrapf(types.ErrLimitExceeded, "maximum deposit exceeded: net %s would exceed %s", next, limit)
	}
	return nil
}

// checkWithdrawLimit is the withdrawal counterpart of checkDepositLimit.
func checkWithdrawLimit(info types.UserEpochInfo, amount, limit math.Int) error {
	if limit.IsNil() || limit.IsZero() {
		return nil
	}
	if next := info.NetWithdrawn().Add(amount); next.GT(limit) {
		return sdkerrors.Wrapf(types.ErrLimitExceeded, "maximum withdraw exceeded: net %s would exceed %s", next, limit)
	}
	return nil
}

// recordDeposit checks and records a deposit of assets for holder in the current epoch.
func (k Keeper) recordDeposit(ctx sdk.Context, params types.Params, epoch uint64, holder sdk.AccAddress, assets math.Int) error {
	info, err := k.GetUserEpochInfo(ctx, epoch, holder)
	if err != nil {
		return err
	}
	if err := checkDepositLimit(info, assets, params.MaxDeposit); err != nil {
		return err
	}
	info.DepositAmount = info.DepositAmount.Add(assets)
	return k.UserEpochInfo.Set(ctx, collections.Join(epoch, holder), info)
}

// recordWithdraw checks and records a withdrawal worth assets for holder in the current epoch.
func (k Keeper) recordWithdraw(ctx sdk.Context, params types.Params, epoch uint64, holder sdk.AccAddress, assets math.Int) error {
	info, err := k.GetUserEpochInfo(ctx, epoch, holder)
	if err != nil {
		return err
	}
	if err := checkWithdrawLimit(info, assets, params.MaxWithdraw); err != nil {
		return err
	}
	info.WithdrawAmount = info.WithdrawAmount.Add(assets)
	return k.UserEpochInfo.Set(ctx, collections.Join(epoch, holder), info)
}
