package navvault

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/provlabs/navvault/keeper"
	"github.com/provlabs/navvault/types"
)

// InitGenesis initializes the module's state from a provided genesis state.
// A nil genesis loads the defaults. Failures while loading are returned as errors.
func InitGenesis(ctx sdk.Context, k *keeper.Keeper, genState *types.GenesisState) (err error) {
	if genState == nil {
		genState = types.DefaultGenesisState()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s genesis: %v", types.ModuleName, r)
		}
	}()
	k.InitGenesis(ctx, genState)
	return nil
}

// ExportGenesis returns the module's exported genesis.
func ExportGenesis(ctx sdk.Context, k *keeper.Keeper) (genState *types.GenesisState, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s genesis export: %v", types.ModuleName, r)
		}
	}()
	return k.ExportGenesis(ctx), nil
}
