package keeper

import (
	"encoding/json"
	"fmt"

	sdkerrors "cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/provlabs/navvault/types"
)

// RequestDeposit asks the oracle to settle a deposit of amount underlying
// assets from caller. Shares are minted to onBehalfOf, or to caller when it is
// empty. Floors, balance, allowance and the receiver's epoch limit are checked
// now and the limit usage is recorded; balance and allowance are checked again
// at fulfillment.
func (k *Keeper) RequestDeposit(ctx sdk.Context, caller sdk.AccAddress, amount math.Int, onBehalfOf sdk.AccAddress) (string, error) {
	params, state, err := k.loadForRequest(ctx)
	if err != nil {
		return "", err
	}
	if !isPositive(amount) {
		return "", sdkerrors.Wrapf(types.ErrInvalidRequest, "deposit amount must be positive, got %v", amount)
	}
	if caller.Empty() {
		return "", sdkerrors.Wrap(types.ErrInvalidRequest, "caller is required")
	}
	receiver := onBehalfOf
	if receiver.Empty() {
		receiver = caller
	}

	if amount.LT(params.MinDeposit) {
		return "", sdkerrors.Wrapf(types.ErrBelowMinimum, "minimum deposit is %s, got %s", params.MinDeposit, amount)
	}
	done, err := k.InitialDeposit.Has(ctx, receiver)
	if err != nil {
		return "", err
	}
	if !done && amount.LT(params.MinInitialDeposit) {
		return "", sdkerrors.Wrapf(types.ErrBelowMinimum, "minimum initial deposit is %s, got %s", params.MinInitialDeposit, amount)
	}

	if err := k.checkDepositFunds(ctx, caller, amount); err != nil {
		return "", err
	}
	if err := k.checkShareRecipient(ctx, receiver); err != nil {
		return "", err
	}
	if err := k.recordDeposit(ctx, params, state.CurrentEpoch, receiver, amount); err != nil {
		return "", err
	}

	id, err := k.submitRequest(ctx, types.PendingRequest{
		Kind:      types.RequestKindDeposit,
		Requester: k.addressString(caller),
		Receiver:  k.addressString(receiver),
		Amount:    amount,
		Epoch:     state.CurrentEpoch,
		CreatedAt: ctx.BlockTime().Unix(),
	})
	if err != nil {
		return "", err
	}

	k.emitEvent(ctx, types.NewEventDepositRequested(id, k.addressString(caller), k.addressString(receiver), amount))
	return id, nil
}

// RequestRedemption asks the oracle to settle a redemption of shares owned by
// owner, paying receiver (owner when empty). Only the owner may redeem.
func (k *Keeper) RequestRedemption(ctx sdk.Context, caller sdk.AccAddress, shares math.Int, owner, receiver sdk.AccAddress) (string, error) {
	params, state, err := k.loadForRequest(ctx)
	if err != nil {
		return "", err
	}
	if !isPositive(shares) {
		return "", sdkerrors.Wrapf(types.ErrInvalidRequest, "redemption shares must be positive, got %v", shares)
	}
	if owner.Empty() || !caller.Equals(owner) {
		return "", sdkerrors.Wrapf(types.ErrUnauthorized, "caller %s is not the share owner %s", caller, owner)
	}
	if receiver.Empty() {
		receiver = owner
	}

	if err := k.checkShareBalance(ctx, owner, shares); err != nil {
		return "", err
	}

	v, err := k.valuation(ctx, state)
	if err != nil {
		return "", err
	}
	value, err := v.AssetsForShares(shares)
	if err != nil {
		return "", err
	}
	if value.LT(params.MinWithdraw) {
		return "", sdkerrors.Wrapf(types.ErrBelowMinimum, "minimum withdraw is %s, shares are worth %s", params.MinWithdraw, value)
	}
	if err := k.recordWithdraw(ctx, params, state.CurrentEpoch, owner, value); err != nil {
		return "", err
	}

	id, err := k.submitRequest(ctx, types.PendingRequest{
		Kind:      types.RequestKindRedemption,
		Requester: k.addressString(owner),
		Receiver:  k.addressString(receiver),
		Amount:    shares,
		Epoch:     state.CurrentEpoch,
		CreatedAt: ctx.BlockTime().Unix(),
	})
	if err != nil {
		return "", err
	}

	k.emitEvent(ctx, types.NewEventRedemptionRequested(id, k.addressString(owner), k.addressString(receiver), shares))
	return id, nil
}

// RequestRedemptionQueueDrain asks the oracle for a fresh NAV so queued
// redemptions can be paid from available liquidity. Operator only.
func (k *Keeper) RequestRedemptionQueueDrain(ctx sdk.Context, caller sdk.AccAddress) (string, error) {
	if _, err := k.requireOperator(ctx, caller); err != nil {
		return "", err
	}
	_, state, err := k.loadForRequest(ctx)
	if err != nil {
		return "", err
	}
	empty, err := k.RedemptionQueue.IsEmpty(ctx)
	if err != nil {
		return "", err
	}
	if empty {
		return "", sdkerrors.Wrap(types.ErrEmptyQueue, "redemption queue is empty")
	}

	id, err := k.submitRequest(ctx, types.PendingRequest{
		Kind:      types.RequestKindRedemptionQueueDrain,
		Requester: k.addressString(caller),
		Epoch:     state.CurrentEpoch,
		CreatedAt: ctx.BlockTime().Unix(),
	})
	if err != nil {
		return "", err
	}

	k.emitEvent(ctx, types.NewEventRedemptionQueueDrainRequested(id, k.addressString(caller)))
	return id, nil
}

// RequestAdvanceEpoch asks the oracle for the NAV that closes the current epoch. Operator only.
func (k *Keeper) RequestAdvanceEpoch(ctx sdk.Context, caller sdk.AccAddress) (string, error) {
	if _, err := k.requireOperator(ctx, caller); err != nil {
		return "", err
	}
	_, state, err := k.loadForRequest(ctx)
	if err != nil {
		return "", err
	}

	id, err := k.submitRequest(ctx, types.PendingRequest{
		Kind:      types.RequestKindEpochAdvance,
		Requester: k.addressString(caller),
		Epoch:     state.CurrentEpoch,
		CreatedAt: ctx.BlockTime().Unix(),
	})
	if err != nil {
		return "", err
	}

	k.emitEvent(ctx, types.NewEventEpochAdvanceRequested(id, k.addressString(caller), state.CurrentEpoch))
	return id, nil
}

// loadForRequest returns params and state, failing while the vault is paused.
func (k *Keeper) loadForRequest(ctx sdk.Context) (types.Params, types.VaultState, error) {
	params, err := k.GetParams(ctx)
	if err != nil {
		return types.Params{}, types.VaultState{}, err
	}
	state, err := k.GetVaultState(ctx)
	if err != nil {
		return types.Params{}, types.VaultState{}, err
	}
	if err := k.requireUnpaused(state); err != nil {
		return types.Params{}, types.VaultState{}, err
	}
	return params, state, nil
}

// submitRequest obtains an id from the oracle transport and stores the pending request under it.
func (k *Keeper) submitRequest(ctx sdk.Context, req types.PendingRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", sdkerrors.Wrap(types.ErrInvalidRequest, err.Error())
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s request: %w", req.Kind, err)
	}
	id, err := k.OracleTransport.SubmitRequest(ctx, req.Kind.String(), payload)
	if err != nil {
		return "", fmt.Errorf("failed to submit %s request to oracle: %w", req.Kind, err)
	}

	if used, err := k.FulfilledRequests.Has(ctx, id); err != nil {
		return "", err
	} else if used {
		return "", sdkerrors.Wrapf(types.ErrInvalidRequest, "request id %s was already used", id)
	}
	if pending, err := k.PendingRequests.Has(ctx, id); err != nil {
		return "", err
	} else if pending {
		return "", sdkerrors.Wrapf(types.ErrInvalidRequest, "request id %s is already pending", id)
	}

	if err := k.PendingRequests.Set(ctx, id, req); err != nil {
		return "", err
	}
	k.getLogger(ctx).Debug("oracle request submitted", "request_id", id, "kind", req.Kind.String())
	return id, nil
}

// checkDepositFunds verifies that payer holds and has approved amount.
func (k *Keeper) checkDepositFunds(ctx sdk.Context, payer sdk.AccAddress, amount math.Int) error {
	bal, err := k.AssetKeeper.BalanceOf(ctx, payer)
	if err != nil {
		return err
	}
	if bal.LT(amount) {
		return sdkerrors.Wrapf(types.ErrInsufficientBalance, "asset balance %s is below deposit %s", bal, amount)
	}
	allowance, err := k.AssetKeeper.Allowance(ctx, payer, types.GetVaultAddress())
	if err != nil {
		return err
	}
	if allowance.LT(amount) {
		return sdkerrors.Wrapf(types.ErrInsufficientAllowance, "allowance %s is below deposit %s", allowance, amount)
	}
	return nil
}

// checkShareBalance verifies that owner holds at least shares.
func (k *Keeper) checkShareBalance(ctx sdk.Context, owner sdk.AccAddress, shares math.Int) error {
	bal, err := k.Shares.BalanceOf(ctx, owner)
	if err != nil {
		return err
	}
	if bal.LT(shares) {
		return sdkerrors.Wrapf(types.ErrInsufficientBalance, "share balance %s is below %s", bal, shares)
	}
	return nil
}
