package keeper

import (
	"fmt"

	sdkerrors "cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/provlabs/navvault/types"
)

// TransferToTreasury moves on-chain liquidity to the treasury, where it joins
// the off-chain side of the fund. Accrued fees cannot be moved. Operator only.
func (k *Keeper) TransferToTreasury(ctx sdk.Context, caller sdk.AccAddress, amount math.Int) error {
	params, err := k.requireOperator(ctx, caller)
	if err != nil {
		return err
	}
	if !isPositive(amount) {
		return sdkerrors.Wrapf(types.ErrInvalidRequest, "amount must be positive, got %v", amount)
	}
	treasury, err := k.parseAddress(params.Treasury)
	if err != nil {
		return err
	}

	available, err := k.AvailableLiquidity(ctx)
	if err != nil {
		return err
	}
	if amount.GT(available) {
		return sdkerrors.Wrapf(types.ErrInsufficientBalance, "available liquidity %s is below %s", available, amount)
	}

	if err := k.AssetKeeper.Transfer(ctx, types.GetVaultAddress(), treasury, amount); err != nil {
		return fmt.Errorf("failed to transfer to treasury: %w", err)
	}
	k.emitEvent(ctx, types.NewEventTransferToTreasury(params.Treasury, amount))
	return nil
}
