package keeper

import (
	"fmt"

	"cosmossdk.io/collections"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/provlabs/navvault/types"
)

// InitGenesis initializes the vault module state from genesis.
// Zero accrual timestamps are anchored at the genesis block time.
func (k Keeper) InitGenesis(ctx sdk.Context, genState *types.GenesisState) {
	if genState == nil {
		return
	}

	if err := genState.Validate(); err != nil {
		panic(fmt.Errorf("invalid vault genesis state: %w", err))
	}

	if err := k.Params.Set(ctx, genState.Params); err != nil {
		panic(err)
	}

	state := genState.Vault
	now := ctx.BlockTime().Unix()
	if state.LastOnchainAccrual == 0 {
		state.LastOnchainAccrual = now
	}
	if state.LastEpochTime == 0 {
		state.LastEpochTime = now
	}
	if state.QueuedShares.IsNil() {
		state.QueuedShares = math.ZeroInt()
	}
	if err := k.SetVaultState(ctx, state); err != nil {
		panic(fmt.Errorf("failed to store vault state: %w", err))
	}

	for _, r := range genState.PendingRequests {
		if err := k.PendingRequests.Set(ctx, r.ID, r.Request); err != nil {
			panic(fmt.Errorf("failed to store pending request %s: %w", r.ID, err))
		}
	}
	for _, id := range genState.FulfilledRequests {
		if err := k.FulfilledRequests.Set(ctx, id); err != nil {
			panic(fmt.Errorf("failed to store fulfilled request %s: %w", id, err))
		}
	}

	for _, u := range genState.UserEpochInfos {
		holder := sdk.MustAccAddressFromBech32(u.Holder)
		if err := k.UserEpochInfo.Set(ctx, collections.Join(u.Epoch, holder), u.Info); err != nil {
			panic(fmt.Errorf("failed to store epoch info for %s: %w", u.Holder, err))
		}
	}
	for _, h := range genState.InitialDepositors {
		if err := k.InitialDeposit.Set(ctx, sdk.MustAccAddressFromBech32(h)); err != nil {
			panic(fmt.Errorf("failed to store initial depositor %s: %w", h, err))
		}
	}

	if err := k.RedemptionQueue.Import(ctx, genState.RedemptionQueue); err != nil {
		panic(err)
	}

	supply := math.ZeroInt()
	for _, b := range genState.ShareBalances {
		if b.Amount.IsZero() {
			continue
		}
		if err := k.Shares.Balances.Set(ctx, sdk.MustAccAddressFromBech32(b.Address), b.Amount); err != nil {
			panic(fmt.Errorf("failed to store share balance for %s: %w", b.Address, err))
		}
		supply = supply.Add(b.Amount)
	}
	if err := k.Shares.Supply.Set(ctx, supply); err != nil {
		panic(fmt.Errorf("failed to store share supply: %w", err))
	}
}

// ExportGenesis exports the current state of the vault module.
func (k Keeper) ExportGenesis(ctx sdk.Context) *types.GenesisState {
	params, err := k.Params.Get(ctx)
	if err != nil {
		panic(fmt.Errorf("failed to get vault module params: %w", err))
	}
	state, err := k.GetVaultState(ctx)
	if err != nil {
		panic(fmt.Errorf("failed to get vault state: %w", err))
	}

	gen := &types.GenesisState{
		Params: params,
		Vault:  state,
	}

	err = k.PendingRequests.Walk(ctx, nil, func(id string, req types.PendingRequest) (bool, error) {
		gen.PendingRequests = append(gen.PendingRequests, types.GenesisRequest{ID: id, Request: req})
		return false, nil
	})
	if err != nil {
		panic(fmt.Errorf("failed to export pending requests: %w", err))
	}

	err = k.FulfilledRequests.Walk(ctx, nil, func(id string) (bool, error) {
		gen.FulfilledRequests = append(gen.FulfilledRequests, id)
		return false, nil
	})
	if err != nil {
		panic(fmt.Errorf("failed to export fulfilled requests: %w", err))
	}

	err = k.UserEpochInfo.Walk(ctx, nil, func(key collections.Pair[uint64, sdk.AccAddress], info types.UserEpochInfo) (bool, error) {
		gen.UserEpochInfos = append(gen.UserEpochInfos, types.GenesisUserEpochInfo{
			Epoch:  key.K1(),
			Holder: key.K2().String(),
			Info:   info,
		})
		return false, nil
	})
	if err != nil {
		panic(fmt.Errorf("failed to export user epoch info: %w", err))
	}

	err = k.InitialDeposit.Walk(ctx, nil, func(holder sdk.AccAddress) (bool, error) {
		gen.InitialDepositors = append(gen.InitialDepositors, holder.String())
		return false, nil
	})
	if err != nil {
		panic(fmt.Errorf("failed to export initial depositors: %w", err))
	}

	gen.RedemptionQueue, err = k.RedemptionQueue.Export(ctx)
	if err != nil {
		panic(err)
	}

	err = k.Shares.WalkBalances(ctx, func(addr sdk.AccAddress, amount math.Int) (bool, error) {
		gen.ShareBalances = append(gen.ShareBalances, types.GenesisBalance{Address: addr.String(), Amount: amount})
		return false, nil
	})
	if err != nil {
		panic(fmt.Errorf("failed to export share balances: %w", err))
	}

	return gen
}
