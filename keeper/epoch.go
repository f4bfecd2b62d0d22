package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/provlabs/navvault/types"
)

// CurrentEpoch returns the epoch deposits and redemptions are currently counted against.
func (k Keeper) CurrentEpoch(ctx sdk.Context) (uint64, error) {
	state, err := k.GetVaultState(ctx)
	return state.CurrentEpoch, err
}

// fulfillEpochAdvance accrues both service fees on the reported NAV and moves to the next epoch.
func (k *Keeper) fulfillEpochAdvance(ctx sdk.Context, params types.Params, id string, nav math.Int) error {
	state, onchainFee, err := k.applyNAV(ctx, params, nav)
	if err != nil {
		return err
	}
	offchainFee, err := k.accrueOffchainFee(ctx, params, &state, nav)
	if err != nil {
		return err
	}
	state.CurrentEpoch++
	state.LastEpochTime = ctx.BlockTime().Unix()
	if err := k.SetVaultState(ctx, state); err != nil {
		return err
	}

	k.emitEvent(ctx, types.NewEventEpochAdvanced(id, state.CurrentEpoch, nav, onchainFee, offchainFee))
	return nil
}
