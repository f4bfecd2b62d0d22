package simapp

import (
	"testing"

	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	dbm "github.com/cosmos/cosmos-db"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/provlabs/navvault/types"
	"github.com/provlabs/navvault/utils"
)

// Roles are the privileged accounts of a simulated vault.
type Roles struct {
	Authority   sdk.AccAddress
	Operator    sdk.AccAddress
	Oracle      sdk.AccAddress
	FeeReceiver sdk.AccAddress
	Treasury    sdk.AccAddress
}

// NewRoles generates a fresh account for every role. The bech32 config is
// sealed first so role addresses never render with the default prefix.
func NewRoles() Roles {
	SetConfig()
	addrs := utils.TestAddresses(5)
	return Roles{
		Authority:   addrs[0].Acc(),
		Operator:    addrs[1].Acc(),
		Oracle:      addrs[2].Acc(),
		FeeReceiver: addrs[3].Acc(),
		Treasury:    addrs[4].Acc(),
	}
}

// Params returns the default params with the roles filled in.
func (r Roles) Params() types.Params {
	SetConfig()
	params := types.DefaultParams()
	params.Authority = r.Authority.String()
	params.Operator = r.Operator.String()
	params.Oracle = r.Oracle.String()
	params.FeeReceiver = r.FeeReceiver.String()
	params.Treasury = r.Treasury.String()
	return params
}

// Setup initializes a new SimApp with a Nop logger, fresh roles and default params.
func Setup(t testing.TB) (*SimApp, Roles) {
	t.Helper()
	roles := NewRoles()
	gen := DefaultGenesis()
	gen.Vault.Params = roles.Params()
	return SetupWithGenesis(t, roles, gen), roles
}

// SetupWithGenesis initializes a new SimApp from gen.
func SetupWithGenesis(t testing.TB, roles Roles, gen GenesisState) *SimApp {
	t.Helper()
	SetConfig()

	app, err := NewSimApp(log.NewNopLogger(), dbm.NewMemDB(), roles.Authority)
	require.NoError(t, err, "NewSimApp")
	require.NoError(t, app.InitChain(gen), "InitChain")
	return app
}

// FundAccount mints amount of the underlying asset to addr.
func FundAccount(ctx sdk.Context, app *SimApp, addr sdk.AccAddress, amount sdkmath.Int) error {
	return app.AssetKeeper.Mint(ctx, addr, amount)
}

// FundAndApprove mints amount to addr and approves the vault to pull it.
func FundAndApprove(ctx sdk.Context, app *SimApp, addr sdk.AccAddress, amount sdkmath.Int) error {
	if err := FundAccount(ctx, app, addr, amount); err != nil {
		return err
	}
	allowance, err := app.AssetKeeper.Allowance(ctx, addr, types.GetVaultAddress())
	if err != nil {
		return err
	}
	return app.AssetKeeper.Approve(ctx, addr, types.GetVaultAddress(), allowance.Add(amount))
}
