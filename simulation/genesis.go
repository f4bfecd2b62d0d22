package simulation

import (
	"math/rand"

	sdkmath "cosmossdk.io/math"

	simtypes "github.com/cosmos/cosmos-sdk/types/simulation"

	"github.com/provlabs/navvault/simapp"
	"github.com/provlabs/navvault/types"
)

// ChanceOf values are 1 in X.
const (
	MaxTransactionFeeBps     = 100
	MaxServiceFeeBps         = 500
	ChanceOfMinTxFee         = 4
	MaxMinTxFee              = 500
	ChanceOfDepositCap       = 3
	ChanceOfWithdrawCap      = 3
	MinEpochCap              = 250_000
	MaxEpochCap              = 5_000_000
	ChanceOfMinimums         = 3
	MaxMinDeposit            = 1_000
	MinInitialFunds          = 10_000
	MaxInitialFunds          = 2_000_000
	ChanceOfSeededVault      = 2
	MaxSeedDeposit           = 1_000_000
	ChanceOfStrictCompliance = 4
)

// RandomizedParams returns params for roles with random fee rates, floors and epoch caps.
func RandomizedParams(r *rand.Rand, roles simapp.Roles) types.Params {
	params := roles.Params()
	params.TransactionFeeBps = uint32(r.Intn(MaxTransactionFeeBps + 1))
	if r.Intn(ChanceOfMinTxFee) == 0 {
		params.MinTxFee = sdkmath.NewInt(r.Int63n(MaxMinTxFee) + 1)
	}
	params.OnchainServiceFeeBps = uint32(r.Intn(MaxServiceFeeBps + 1))
	params.OffchainServiceFeeBps = uint32(r.Intn(MaxServiceFeeBps + 1))

	if r.Intn(ChanceOfDepositCap) == 0 {
		params.MaxDeposit = sdkmath.NewInt(MinEpochCap + r.Int63n(MaxEpochCap-MinEpochCap))
	}
	if r.Intn(ChanceOfWithdrawCap) == 0 {
		params.MaxWithdraw = sdkmath.NewInt(MinEpochCap + r.Int63n(MaxEpochCap-MinEpochCap))
	}
	if r.Intn(ChanceOfMinimums) == 0 {
		params.MinDeposit = sdkmath.NewInt(r.Int63n(MaxMinDeposit) + 1)
		params.MinInitialDeposit = params.MinDeposit.MulRaw(2)
		params.MinWithdraw = sdkmath.NewInt(r.Int63n(MaxMinDeposit) + 1)
	}
	return params
}

// RandomizedGenState builds an app genesis for roles and accs. Every account is
// funded and approves the vault for its whole balance. Sometimes the vault
// starts out seeded by the first account, and sometimes compliance runs in
// strict mode with every simulated account verified.
func RandomizedGenState(r *rand.Rand, roles simapp.Roles, accs []simtypes.Account) simapp.GenesisState {
	if len(accs) == 0 {
		panic("simulation needs at least one account")
	}

	gen := simapp.DefaultGenesis()
	gen.Vault.Params = RandomizedParams(r, roles)

	for _, acc := range accs {
		funds := sdkmath.NewInt(MinInitialFunds + r.Int63n(MaxInitialFunds-MinInitialFunds))
		gen.Assets = append(gen.Assets, types.GenesisBalance{Address: acc.Address.String(), Amount: funds})
		gen.Allowances = append(gen.Allowances, types.GenesisBalance{Address: acc.Address.String(), Amount: funds})
	}

	if r.Intn(ChanceOfSeededVault) == 0 {
		seed := sdkmath.NewInt(r.Int63n(MaxSeedDeposit) + 1)
		seeder := accs[0].Address.String()
		gen.Assets = append(gen.Assets, types.GenesisBalance{Address: types.GetVaultAddress().String(), Amount: seed})
		gen.Vault.ShareBalances = []types.GenesisBalance{{Address: seeder, Amount: seed}}
		gen.Vault.InitialDepositors = []string{seeder}
	}

	if r.Intn(ChanceOfStrictCompliance) == 0 {
		gen.Strict = true
		for _, acc := range accs {
			gen.Verified = append(gen.Verified, acc.Address.String())
		}
	}
	return gen
}

// RolesFromAccounts assigns the first five accounts to the privileged roles
// and returns them with the remaining accounts.
func RolesFromAccounts(accs []simtypes.Account) (simapp.Roles, []simtypes.Account) {
	if len(accs) < 6 {
		panic("simulation needs five role accounts and at least one holder")
	}
	roles := simapp.Roles{
		Authority:   accs[0].Address,
		Operator:    accs[1].Address,
		Oracle:      accs[2].Address,
		FeeReceiver: accs[3].Address,
		Treasury:    accs[4].Address,
	}
	return roles, accs[5:]
}
