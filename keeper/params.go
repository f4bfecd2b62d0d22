package keeper

import (
	sdkerrors "cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/provlabs/navvault/types"
)

// UpdateParams replaces the params wholesale. Authority only. The on-chain fee
// is accrued at the old rate first.
func (k *Keeper) UpdateParams(ctx sdk.Context, caller sdk.AccAddress, params types.Params) error {
	return k.setParams(ctx, caller, "params", func(p *types.Params) error {
		*p = params
		return nil
	})
}

// SetMaxDeposit sets the per holder, per epoch net deposit cap. Zero disables it.
func (k *Keeper) SetMaxDeposit(ctx sdk.Context, caller sdk.AccAddress, amount math.Int) error {
	return k.setParams(ctx, caller, "max_deposit", func(p *types.Params) error {
		p.MaxDeposit = amount
		return nil
	})
}

// SetMaxWithdraw sets the per holder, per epoch net withdrawal cap. Zero disables it.
func (k *Keeper) SetMaxWithdraw(ctx sdk.Context, caller sdk.AccAddress, amount math.Int) error {
	return k.setParams(ctx, caller, "max_withdraw", func(p *types.Params) error {
		p.MaxWithdraw = amount
		return nil
	})
}

// SetMinimums sets the deposit and withdrawal floors.
func (k *Keeper) SetMinimums(ctx sdk.Context, caller sdk.AccAddress, minDeposit, minInitialDeposit, minWithdraw math.Int) error {
	return k.setParams(ctx, caller, "minimums", func(p *types.Params) error {
		p.MinDeposit = minDeposit
		p.MinInitialDeposit = minInitialDeposit
		p.MinWithdraw = minWithdraw
		return nil
	})
}

// SetTransactionFee sets the instant deposit fee and its floor.
func (k *Keeper) SetTransactionFee(ctx sdk.Context, caller sdk.AccAddress, feeBps uint32, minFee math.Int) error {
	return k.setParams(ctx, caller, "transaction_fee", func(p *types.Params) error {
		p.TransactionFeeBps = feeBps
		p.MinTxFee = minFee
		return nil
	})
}

// SetServiceFeeRates sets the annualised on-chain and off-chain service fee rates.
func (k *Keeper) SetServiceFeeRates(ctx sdk.Context, caller sdk.AccAddress, onchainBps, offchainBps uint32) error {
	return k.setParams(ctx, caller, "service_fee_rates", func(p *types.Params) error {
		p.OnchainServiceFeeBps = onchainBps
		p.OffchainServiceFeeBps = offchainBps
		return nil
	})
}

// SetPaused pauses or resumes requests and fulfillments. Authority only.
func (k *Keeper) SetPaused(ctx sdk.Context, caller sdk.AccAddress, paused bool) error {
	if _, err := k.requireAuthority(ctx, caller); err != nil {
		return err
	}
	state, err := k.GetVaultState(ctx)
	if err != nil {
		return err
	}
	state.Paused = paused
	if err := k.SetVaultState(ctx, state); err != nil {
		return err
	}
	k.emitEvent(ctx, types.NewEventVaultPaused(k.addressString(caller), paused))
	return nil
}

// setParams applies update to a copy of the params, validates and stores it.
func (k *Keeper) setParams(ctx sdk.Context, caller sdk.AccAddress, field string, update func(*types.Params) error) error {
	current, err := k.requireAuthority(ctx, caller)
	if err != nil {
		return err
	}

	next := current
	if err := update(&next); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return sdkerrors.Wrap(types.ErrInvalidRequest, err.Error())
	}

	// Accrue at the outgoing rate before it changes.
	state, err := k.GetVaultState(ctx)
	if err != nil {
		return err
	}
	if _, err := k.accrueOnchainFee(ctx, current, &state); err != nil {
		return err
	}
	if err := k.SetVaultState(ctx, state); err != nil {
		return err
	}

	if err := k.Params.Set(ctx, next); err != nil {
		return err
	}
	k.emitEvent(ctx, types.NewEventParamsUpdated(k.addressString(caller), field))
	return nil
}
