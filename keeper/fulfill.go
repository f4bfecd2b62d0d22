package keeper

import (
	"errors"
	"fmt"

	"cosmossdk.io/collections"
	sdkerrors "cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/provlabs/navvault/fees"
	"github.com/provlabs/navvault/types"
)

// Fulfill settles the pending request requestID with the NAV the oracle
// reports for it. Only the oracle may call it and each request can be
// fulfilled once.
//
// Settlement runs in a cached context: if any step fails nothing is written,
// the request stays pending, and the oracle may fulfill it again later.
func (k *Keeper) Fulfill(ctx sdk.Context, caller sdk.AccAddress, requestID string, reportedNAV math.Int) error {
	params, err := k.GetParams(ctx)
	if err != nil {
		return err
	}
	if err := k.requireRole(caller, "oracle", params.Oracle); err != nil {
		return err
	}
	state, err := k.GetVaultState(ctx)
	if err != nil {
		return err
	}
	if err := k.requireUnpaused(state); err != nil {
		return err
	}
	if reportedNAV.IsNil() || reportedNAV.IsNegative() {
		return sdkerrors.Wrapf(types.ErrInvalidRequest, "reported nav must be non-negative, got %v", reportedNAV)
	}

	req, err := k.PendingRequests.Get(ctx, requestID)
	if errors.Is(err, collections.ErrNotFound) {
		done, err := k.FulfilledRequests.Has(ctx, requestID)
		if err != nil {
			return err
		}
		if done {
			return sdkerrors.Wrapf(types.ErrUnknownRequest, "request %s was already fulfilled", requestID)
		}
		return sdkerrors.Wrapf(types.ErrUnknownRequest, "request %s is not pending", requestID)
	}
	if err != nil {
		return err
	}

	cacheCtx, write := ctx.CacheContext()
	if err := k.fulfill(cacheCtx, params, requestID, req, reportedNAV); err != nil {
		k.getLogger(ctx).Info("fulfillment reverted, request stays pending",
			"request_id", requestID, "kind", req.Kind.String(), "error", err)
		return err
	}
	write()

	k.getLogger(ctx).Info("request fulfilled", "request_id", requestID, "kind", req.Kind.String(), "nav", reportedNAV.String())
	return nil
}

// fulfill consumes the request and dispatches on its kind.
func (k *Keeper) fulfill(ctx sdk.Context, params types.Params, id string, req types.PendingRequest, nav math.Int) error {
	if err := k.PendingRequests.Remove(ctx, id); err != nil {
		return err
	}
	if err := k.FulfilledRequests.Set(ctx, id); err != nil {
		return err
	}
	if err := k.OracleTransport.Acknowledge(ctx, id); err != nil {
		// Requests imported at genesis have no outbox entry on a fresh transport.
		k.getLogger(ctx).Error("failed to acknowledge oracle request", "request_id", id, "error", err)
	}

	switch req.Kind {
	case types.RequestKindDeposit:
		return k.fulfillDeposit(ctx, params, id, req, nav)
	case types.RequestKindRedemption:
		return k.fulfillRedemption(ctx, params, id, req, nav)
	case types.RequestKindRedemptionQueueDrain:
		return k.fulfillRedemptionQueueDrain(ctx, params, nav)
	case types.RequestKindEpochAdvance:
		return k.fulfillEpochAdvance(ctx, params, id, nav)
	default:
		return sdkerrors.Wrapf(types.ErrInvalidRequest, "unknown request kind %d", req.Kind)
	}
}

// applyNAV accrues the on-chain fee up to now and records the reported NAV.
func (k *Keeper) applyNAV(ctx sdk.Context, params types.Params, nav math.Int) (types.VaultState, math.Int, error) {
	state, err := k.GetVaultState(ctx)
	if err != nil {
		return state, math.Int{}, err
	}
	onchainFee, err := k.accrueOnchainFee(ctx, params, &state)
	if err != nil {
		return state, math.Int{}, err
	}
	state.LatestOffchainNAV = nav
	return state, onchainFee, k.SetVaultState(ctx, state)
}

// fulfillDeposit pulls the deposit, forwards the transaction fee to the
// treasury and mints shares for the net amount to the receiver.
func (k *Keeper) fulfillDeposit(ctx sdk.Context, params types.Params, id string, req types.PendingRequest, nav math.Int) error {
	requester, err := k.parseAddress(req.Requester)
	if err != nil {
		return err
	}
	receiver, err := k.parseAddress(req.Receiver)
	if err != nil {
		return err
	}
	treasury, err := k.parseAddress(params.Treasury)
	if err != nil {
		return err
	}

	// The requester may have moved funds since the request; revert rather than clamp.
	if err := k.checkDepositFunds(ctx, requester, req.Amount); err != nil {
		return err
	}

	state, _, err := k.applyNAV(ctx, params, nav)
	if err != nil {
		return err
	}

	fee, err := fees.CalculateTransactionFee(req.Amount, params.TransactionFeeBps, params.MinTxFee)
	if err != nil {
		return fmt.Errorf("failed to calculate transaction fee: %w", err)
	}
	net := req.Amount.Sub(fee)

	v, err := k.valuation(ctx, state)
	if err != nil {
		return err
	}
	shares, err := v.SharesForDeposit(net)
	if err != nil {
		return fmt.Errorf("failed to calculate shares for deposit: %w", err)
	}
	if !shares.IsPositive() {
		return sdkerrors.Wrapf(types.ErrBelowMinimum, "deposit of %s mints no shares", req.Amount)
	}

	vaultAddr := types.GetVaultAddress()
	if err := k.AssetKeeper.TransferFrom(ctx, vaultAddr, requester, vaultAddr, req.Amount); err != nil {
		return fmt.Errorf("failed to pull deposit: %w", err)
	}
	if fee.IsPositive() {
		if err := k.AssetKeeper.Transfer(ctx, vaultAddr, treasury, fee); err != nil {
			return fmt.Errorf("failed to forward transaction fee: %w", err)
		}
		k.emitEvent(ctx, types.NewEventTransferToTreasury(params.Treasury, fee))
	}
	if err := k.Shares.Mint(ctx, receiver, shares); err != nil {
		return err
	}

	if req.Amount.GTE(params.MinInitialDeposit) {
		if err := k.InitialDeposit.Set(ctx, receiver); err != nil {
			return err
		}
	}

	k.emitEvent(ctx, types.NewEventDepositFulfilled(id, req.Receiver, req.Amount, fee, shares))
	return nil
}

// fulfillRedemption burns the owner's shares and pays what available
// liquidity covers once the queue ahead of it is settled. The unpaid
// remainder joins the redemption queue.
func (k *Keeper) fulfillRedemption(ctx sdk.Context, params types.Params, id string, req types.PendingRequest, nav math.Int) error {
	owner, err := k.parseAddress(req.Requester)
	if err != nil {
		return err
	}
	receiver, err := k.parseAddress(req.Receiver)
	if err != nil {
		return err
	}

	if err := k.checkShareBalance(ctx, owner, req.Amount); err != nil {
		return err
	}

	state, _, err := k.applyNAV(ctx, params, nav)
	if err != nil {
		return err
	}

	// Earlier queue entries are paid first. The new redemption only sees
	// what liquidity is left, and queues whole behind any unpaid entry.
	empty, err := k.RedemptionQueue.IsEmpty(ctx)
	if err != nil {
		return err
	}
	if !empty {
		if _, err := k.drainRedemptionQueue(ctx, &state); err != nil {
			return err
		}
		if empty, err = k.RedemptionQueue.IsEmpty(ctx); err != nil {
			return err
		}
	}

	paidShares, paidAssets := math.ZeroInt(), math.ZeroInt()
	if empty {
		v, err := k.valuation(ctx, state)
		if err != nil {
			return err
		}
		if paidShares, paidAssets, err = payableRedemption(v, req.Amount); err != nil {
			return err
		}
	}
	queued := req.Amount.Sub(paidShares)

	if err := k.Shares.Burn(ctx, owner, req.Amount); err != nil {
		return err
	}
	if paidAssets.IsPositive() {
		if err := k.AssetKeeper.Transfer(ctx, types.GetVaultAddress(), receiver, paidAssets); err != nil {
			return fmt.Errorf("failed to pay redemption: %w", err)
		}
	}
	if queued.IsPositive() {
		if err := k.enqueueRedemption(ctx, &state, req, queued); err != nil {
			return err
		}
	}

	k.emitEvent(ctx, types.NewEventRedemptionFulfilled(id, req.Requester, req.Receiver, req.Amount, paidAssets, queued))
	return nil
}

// payableRedemption splits a redemption of shares into the part liquidity pays
// now. Both figures round down.
func payableRedemption(v Valuation, shares math.Int) (paidShares, paidAssets math.Int, err error) {
	assets, err := v.AssetsForShares(shares)
	if err != nil {
		return math.Int{}, math.Int{}, err
	}
	available := v.AvailableLiquidity()
	if assets.LTE(available) {
		return shares, assets, nil
	}

	paidShares, err = v.SharesPayableFrom(available)
	if err != nil {
		return math.Int{}, math.Int{}, err
	}
	paidShares = math.MinInt(paidShares, shares)
	paidAssets, err = v.AssetsForShares(paidShares)
	if err != nil {
		return math.Int{}, math.Int{}, err
	}
	return paidShares, paidAssets, nil
}
