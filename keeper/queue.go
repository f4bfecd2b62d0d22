package keeper

import (
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/provlabs/navvault/types"
)

// enqueueRedemption appends the unpaid shares of a redemption to the tail of
// the queue and counts them as outstanding.
func (k *Keeper) enqueueRedemption(ctx sdk.Context, state *types.VaultState, req types.PendingRequest, shares math.Int) error {
	id, err := k.RedemptionQueue.Enqueue(ctx, types.RedemptionQueueEntry{
		Holder: req.Receiver,
		Owner:  req.Requester,
		Shares: shares,
		Epoch:  state.CurrentEpoch,
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue redemption: %w", err)
	}
	state.QueuedShares = state.QueuedShares.Add(shares)
	if err := k.SetVaultState(ctx, *state); err != nil {
		return err
	}
	k.emitEvent(ctx, types.NewEventRedemptionQueued(id, req.Receiver, shares))
	return nil
}

// fulfillRedemptionQueueDrain pays queued redemptions strictly in order from
// the head. The price is recomputed before every entry. An entry that cannot
// be paid in full is paid in part, keeps its place with the remaining shares,
// and ends the walk.
func (k *Keeper) fulfillRedemptionQueueDrain(ctx sdk.Context, params types.Params, nav math.Int) error {
	state, _, err := k.applyNAV(ctx, params, nav)
	if err != nil {
		return err
	}
	_, err = k.drainRedemptionQueue(ctx, &state)
	return err
}

// drainRedemptionQueue pays the queue from available liquidity and returns the number of entries fully paid.
func (k *Keeper) drainRedemptionQueue(ctx sdk.Context, state *types.VaultState) (int, error) {
	vaultAddr := types.GetVaultAddress()
	paidEntries := 0

	for {
		id, entry, found, err := k.RedemptionQueue.Head(ctx)
		if err != nil {
			return paidEntries, err
		}
		if !found {
			return paidEntries, nil
		}

		v, err := k.valuation(ctx, *state)
		if err != nil {
			return paidEntries, err
		}
		if v.NetAssets.IsZero() || v.AvailableLiquidity().IsZero() {
			return paidEntries, nil
		}

		paidShares, paidAssets, err := payableRedemption(v, entry.Shares)
		if err != nil {
			return paidEntries, err
		}
		if !paidShares.IsPositive() {
			return paidEntries, nil
		}

		holder, err := k.parseAddress(entry.Holder)
		if err != nil {
			return paidEntries, err
		}
		if paidAssets.IsPositive() {
			if err := k.AssetKeeper.Transfer(ctx, vaultAddr, holder, paidAssets); err != nil {
				return paidEntries, fmt.Errorf("failed to pay queued redemption %d: %w", id, err)
			}
		}

		remaining := entry.Shares.Sub(paidShares)
		if remaining.IsZero() {
			if err := k.RedemptionQueue.Dequeue(ctx, id); err != nil {
				return paidEntries, err
			}
			paidEntries++
		} else {
			entry.Shares = remaining
			if err := k.RedemptionQueue.Update(ctx, id, entry); err != nil {
				return paidEntries, err
			}
		}

		state.QueuedShares = state.QueuedShares.Sub(paidShares)
		if err := k.SetVaultState(ctx, *state); err != nil {
			return paidEntries, err
		}
		k.emitEvent(ctx, types.NewEventRedemptionQueuePaid(id, entry.Holder, paidShares, paidAssets, remaining))

		if remaining.IsPositive() {
			return paidEntries, nil
		}
	}
}

// GetRedemptionQueue returns every queued entry from head to tail.
func (k Keeper) GetRedemptionQueue(ctx sdk.Context) ([]types.GenesisRedemptionEntry, error) {
	entries := []types.GenesisRedemptionEntry{}
	err := k.RedemptionQueue.Walk(ctx, func(id uint64, entry types.RedemptionQueueEntry) (bool, error) {
		entries = append(entries, types.GenesisRedemptionEntry{ID: id, Entry: entry})
		return false, nil
	})
	return entries, err
}

// RedemptionQueueLength returns the number of queued entries.
func (k Keeper) RedemptionQueueLength(ctx sdk.Context) (uint64, error) {
	return k.RedemptionQueue.Len(ctx)
}
