package keeper

import (
	"fmt"

	sdkerrors "cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/provlabs/navvault/fees"
	"github.com/provlabs/navvault/types"
	"github.com/provlabs/navvault/utils"
)

// accrueOnchainFee adds the on-chain service fee earned since the last accrual
// to state and moves the accrual clock to the block time. The fee base is the
// reserve net of fees already accrued. It returns the newly accrued amount.
func (k Keeper) accrueOnchainFee(ctx sdk.Context, params types.Params, state *types.VaultState) (math.Int, error) {
	now := ctx.BlockTime().Unix()
	elapsed := now - state.LastOnchainAccrual
	if elapsed <= 0 {
		return math.ZeroInt(), nil
	}

	reserve, err := k.OnchainReserve(ctx)
	if err != nil {
		return math.Int{}, fmt.Errorf("failed to get onchain reserve: %w", err)
	}
	base := utils.SaturatingSub(reserve, state.TotalFeesAccrued())

	fee, err := fees.CalculateServiceFee(base, params.OnchainServiceFeeBps, elapsed)
	if err != nil {
		return math.Int{}, fmt.Errorf("failed to calculate onchain service fee: %w", err)
	}

	state.OnchainFeeAccrued = state.OnchainFeeAccrued.Add(fee)
	state.LastOnchainAccrual = now
	return fee, nil
}

// accrueOffchainFee adds the off-chain service fee on nav for the time since
// the last epoch transition. The epoch clock is moved by the caller.
func (k Keeper) accrueOffchainFee(ctx sdk.Context, params types.Params, state *types.VaultState, nav math.Int) (math.Int, error) {
	elapsed := ctx.BlockTime().Unix() - state.LastEpochTime
	fee, err := fees.CalculateServiceFee(nav, params.OffchainServiceFeeBps, elapsed)
	if err != nil {
		return math.Int{}, fmt.Errorf("failed to calculate offchain service fee: %w", err)
	}
	state.OffchainFeeAccrued = state.OffchainFeeAccrued.Add(fee)
	return fee, nil
}

// ClaimOnchainServiceFee pays up to amount of the accrued on-chain fee to the
// fee receiver. Pass types.MaxAmount to claim everything. It returns the amount paid.
func (k *Keeper) ClaimOnchainServiceFee(ctx sdk.Context, caller sdk.AccAddress, amount math.Int) (math.Int, error) {
	return k.claimServiceFee(ctx, caller, amount, types.FeeKindOnchain)
}

// ClaimOffchainServiceFee pays up to amount of the accrued off-chain fee to the
// fee receiver. Pass types.MaxAmount to claim everything. It returns the amount paid.
func (k *Keeper) ClaimOffchainServiceFee(ctx sdk.Context, caller sdk.AccAddress, amount math.Int) (math.Int, error) {
	return k.claimServiceFee(ctx, caller, amount, types.FeeKindOffchain)
}

func (k *Keeper) claimServiceFee(ctx sdk.Context, caller sdk.AccAddress, amount math.Int, kind string) (math.Int, error) {
	params, err := k.requireOperator(ctx, caller)
	if err != nil {
		return math.Int{}, err
	}
	if !isPositive(amount) {
		return math.Int{}, sdkerrors.Wrapf(types.ErrInvalidRequest, "claim amount must be positive, got %v", amount)
	}
	receiver, err := k.parseAddress(params.FeeReceiver)
	if err != nil {
		return math.Int{}, err
	}

	state, err := k.GetVaultState(ctx)
	if err != nil {
		return math.Int{}, err
	}
	accrued := state.OnchainFeeAccrued
	if kind == types.FeeKindOffchain {
		accrued = state.OffchainFeeAccrued
	}

	reserve, err := k.OnchainReserve(ctx)
	if err != nil {
		return math.Int{}, err
	}
	paid := math.MinInt(math.MinInt(amount, accrued), reserve)
	if paid.IsZero() {
		return paid, nil
	}

	if kind == types.FeeKindOffchain {
		state.OffchainFeeAccrued = state.OffchainFeeAccrued.Sub(paid)
	} else {
		state.OnchainFeeAccrued = state.OnchainFeeAccrued.Sub(paid)
	}
	if err := k.AssetKeeper.Transfer(ctx, types.GetVaultAddress(), receiver, paid); err != nil {
		return math.Int{}, fmt.Errorf("failed to pay %s service fee: %w", kind, err)
	}
	if err := k.SetVaultState(ctx, state); err != nil {
		return math.Int{}, err
	}

	k.emitEvent(ctx, types.NewEventServiceFeeClaimed(kind, params.FeeReceiver, paid))
	return paid, nil
}
