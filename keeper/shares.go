package keeper

import (
	"context"

	sdkerrors "cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/provlabs/navvault/types"
)

// checkShareTransfer is the share ledger hook. It rejects movements the
// compliance keeper does not allow.
func (k *Keeper) checkShareTransfer(ctx context.Context, from, to sdk.AccAddress, amount math.Int) error {
	if k.ComplianceKeeper == nil {
		return nil
	}
	code, err := k.ComplianceKeeper.CanTransfer(ctx, from, to, amount)
	if err != nil {
		return err
	}
	if code != 0 {
		return sdkerrors.Wrapf(types.ErrTransferRestricted, "code %d: %s", code, k.ComplianceKeeper.MessageForTransferRestriction(code))
	}
	return nil
}

// checkShareRecipient screens the receiver of a future mint. The share amount
// is only known at fulfillment, where Mint runs checkShareTransfer again.
func (k *Keeper) checkShareRecipient(ctx context.Context, to sdk.AccAddress) error {
	return k.checkShareTransfer(ctx, nil, to, math.ZeroInt())
}

// TransferShares moves vault shares between holders.
func (k *Keeper) TransferShares(ctx sdk.Context, from, to sdk.AccAddress, amount math.Int) error {
	if !isPositive(amount) {
		return sdkerrors.Wrapf(types.ErrInvalidRequest, "share amount must be positive, got %v", amount)
	}
	bal, err := k.Shares.BalanceOf(ctx, from)
	if err != nil {
		return err
	}
	if bal.LT(amount) {
		return sdkerrors.Wrapf(types.ErrInsufficientBalance, "share balance %s is below %s", bal, amount)
	}
	return k.Shares.Transfer(ctx, from, to, amount)
}

// ShareBalance returns holder's share balance.
func (k *Keeper) ShareBalance(ctx sdk.Context, holder sdk.AccAddress) (math.Int, error) {
	return k.Shares.BalanceOf(ctx, holder)
}
