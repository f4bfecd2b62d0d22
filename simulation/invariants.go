package simulation

import (
	"fmt"

	"cosmossdk.io/collections"
	sdkmath "cosmossdk.io/math"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/provlabs/navvault/keeper"
	"github.com/provlabs/navvault/types"
)

// RoundTripProbe is the asset amount used to check that a deposit followed by
// a redemption never returns more than was put in.
var RoundTripProbe = sdkmath.NewInt(1_000_003)

// AllInvariants runs every vault invariant and reports the first one broken.
func AllInvariants(k *keeper.Keeper) sdk.Invariant {
	invariants := []sdk.Invariant{
		ShareSupplyInvariant(k),
		QueuedSharesInvariant(k),
		RequestIDsInvariant(k),
		EpochLimitsInvariant(k),
		RoundingFavoursVaultInvariant(k),
	}
	return func(ctx sdk.Context) (string, bool) {
		for _, inv := range invariants {
			if msg, broken := inv(ctx); broken {
				return msg, true
			}
		}
		return "", false
	}
}

// ShareSupplyInvariant checks that the share supply equals the sum of balances.
func ShareSupplyInvariant(k *keeper.Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		sum := sdkmath.ZeroInt()
		err := k.Shares.WalkBalances(ctx, func(_ sdk.AccAddress, amount sdkmath.Int) (bool, error) {
			sum = sum.Add(amount)
			return false, nil
		})
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "share-supply", err.Error()), true
		}
		supply, err := k.Shares.TotalSupply(ctx)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "share-supply", err.Error()), true
		}
		broken := !supply.Equal(sum)
		return sdk.FormatInvariant(types.ModuleName, "share-supply",
			fmt.Sprintf("supply %s, sum of balances %s", supply, sum)), broken
	}
}

// QueuedSharesInvariant checks that the vault's queued share total matches the
// redemption queue and that every entry still owes shares.
func QueuedSharesInvariant(k *keeper.Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		state, err := k.GetVaultState(ctx)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "queued-shares", err.Error()), true
		}
		sum := sdkmath.ZeroInt()
		var bad []uint64
		err = k.RedemptionQueue.Walk(ctx, func(id uint64, entry types.RedemptionQueueEntry) (bool, error) {
			if !entry.Shares.IsPositive() {
				bad = append(bad, id)
			}
			sum = sum.Add(entry.Shares)
			return false, nil
		})
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "queued-shares", err.Error()), true
		}
		broken := !sum.Equal(state.QueuedShares) || len(bad) > 0
		return sdk.FormatInvariant(types.ModuleName, "queued-shares",
			fmt.Sprintf("queued %s, queue total %s, empty entries %v", state.QueuedShares, sum, bad)), broken
	}
}

// RequestIDsInvariant checks that no id is both pending and fulfilled.
func RequestIDsInvariant(k *keeper.Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		var reused []string
		err := k.PendingRequests.Walk(ctx, nil, func(id string, _ types.PendingRequest) (bool, error) {
			done, err := k.FulfilledRequests.Has(ctx, id)
			if done {
				reused = append(reused, id)
			}
			return false, err
		})
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "request-ids", err.Error()), true
		}
		return sdk.FormatInvariant(types.ModuleName, "request-ids",
			fmt.Sprintf("pending ids already fulfilled: %v", reused)), len(reused) > 0
	}
}

// EpochLimitsInvariant checks the recorded flows of the current epoch against
// the net deposit and withdrawal caps.
func EpochLimitsInvariant(k *keeper.Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		params, err := k.GetParams(ctx)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "epoch-limits", err.Error()), true
		}
		epoch, err := k.CurrentEpoch(ctx)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "epoch-limits", err.Error()), true
		}

		var over []string
		rng := collections.NewPrefixedPairRange[uint64, sdk.AccAddress](epoch)
		err = k.UserEpochInfo.Walk(ctx, rng, func(key collections.Pair[uint64, sdk.AccAddress], info types.UserEpochInfo) (bool, error) {
			if params.MaxDeposit.IsPositive() && info.NetDeposited().GT(params.MaxDeposit) {
				over = append(over, fmt.Sprintf("%s deposited %s", key.K2(), info.NetDeposited()))
			}
			if params.MaxWithdraw.IsPositive() && info.NetWithdrawn().GT(params.MaxWithdraw) {
				over = append(over, fmt.Sprintf("%s withdrew %s", key.K2(), info.NetWithdrawn()))
			}
			return false, nil
		})
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "epoch-limits", err.Error()), true
		}
		return sdk.FormatInvariant(types.ModuleName, "epoch-limits",
			fmt.Sprintf("holders over the cap: %v", over)), len(over) > 0
	}
}

// RoundingFavoursVaultInvariant checks that depositing RoundTripProbe and
// redeeming the resulting shares at the current price never returns more
// than the deposit.
func RoundingFavoursVaultInvariant(k *keeper.Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		v, err := k.GetValuation(ctx)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "rounding", err.Error()), true
		}
		if !v.TotalShares.IsPositive() || !v.NetAssets.IsPositive() {
			return sdk.FormatInvariant(types.ModuleName, "rounding", "vault is empty"), false
		}
		shares, err := v.SharesForDeposit(RoundTripProbe)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "rounding", err.Error()), true
		}
		after := v
		after.NetAssets = v.NetAssets.Add(RoundTripProbe)
		after.TotalShares = v.TotalShares.Add(shares)
		assets, err := after.AssetsForShares(shares)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "rounding", err.Error()), true
		}
		return sdk.FormatInvariant(types.ModuleName, "rounding",
			fmt.Sprintf("deposit %s minted %s shares worth %s", RoundTripProbe, shares, assets)), assets.GT(RoundTripProbe)
	}
}
