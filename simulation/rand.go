package simulation

import (
	"math/rand"

	sdkmath "cosmossdk.io/math"

	sdk "github.com/cosmos/cosmos-sdk/types"
	simtypes "github.com/cosmos/cosmos-sdk/types/simulation"

	"github.com/provlabs/navvault/keeper"
	"github.com/provlabs/navvault/types"
)

// MaxNAVDriftBps bounds how far a simulated oracle moves the off-chain NAV per report.
const MaxNAVDriftBps = 300

// randomPositiveAmount returns an amount in [1, maxVal], or zero when maxVal is not positive.
func randomPositiveAmount(r *rand.Rand, maxVal sdkmath.Int) sdkmath.Int {
	if !maxVal.IsPositive() {
		return sdkmath.ZeroInt()
	}
	amt := simtypes.RandomAmount(r, maxVal)
	if amt.IsZero() {
		return sdkmath.OneInt()
	}
	return amt
}

// getRandomHolder selects a random account holding shares.
func getRandomHolder(r *rand.Rand, k *keeper.Keeper, ctx sdk.Context, accs []simtypes.Account) (simtypes.Account, sdkmath.Int, bool) {
	return getRandomAccountWithCondition(r, accs, func(acc simtypes.Account) (sdkmath.Int, bool) {
		bal, err := k.Shares.BalanceOf(ctx, acc.Address)
		return bal, err == nil && bal.IsPositive()
	})
}

// getRandomFundedAccount selects a random account able to pay for a deposit.
func getRandomFundedAccount(r *rand.Rand, k *keeper.Keeper, ctx sdk.Context, accs []simtypes.Account) (simtypes.Account, sdkmath.Int, bool) {
	vaultAddr := types.GetVaultAddress()
	return getRandomAccountWithCondition(r, accs, func(acc simtypes.Account) (sdkmath.Int, bool) {
		bal, err := k.AssetKeeper.BalanceOf(ctx, acc.Address)
		if err != nil {
			return sdkmath.Int{}, false
		}
		allowance, err := k.AssetKeeper.Allowance(ctx, acc.Address, vaultAddr)
		if err != nil {
			return sdkmath.Int{}, false
		}
		spendable := sdkmath.MinInt(bal, allowance)
		return spendable, spendable.IsPositive()
	})
}

// getRandomAccountWithCondition returns a random account for which condition
// holds, together with the amount the condition reported for it.
func getRandomAccountWithCondition(r *rand.Rand, accs []simtypes.Account, condition func(acc simtypes.Account) (sdkmath.Int, bool)) (simtypes.Account, sdkmath.Int, bool) {
	type match struct {
		acc simtypes.Account
		amt sdkmath.Int
	}
	var matches []match
	for _, acc := range accs {
		if amt, ok := condition(acc); ok {
			matches = append(matches, match{acc: acc, amt: amt})
		}
	}
	if len(matches) == 0 {
		return simtypes.Account{}, sdkmath.Int{}, false
	}
	m := matches[r.Intn(len(matches))]
	return m.acc, m.amt, true
}

// getRandomPendingRequest selects a random request waiting for the oracle.
func getRandomPendingRequest(r *rand.Rand, k *keeper.Keeper, ctx sdk.Context) (string, types.PendingRequest, bool, error) {
	var ids []string
	var reqs []types.PendingRequest
	err := k.PendingRequests.Walk(ctx, nil, func(id string, req types.PendingRequest) (bool, error) {
		ids = append(ids, id)
		reqs = append(reqs, req)
		return false, nil
	})
	if err != nil || len(ids) == 0 {
		return "", types.PendingRequest{}, false, err
	}
	i := r.Intn(len(ids))
	return ids[i], reqs[i], true, nil
}

// driftNAV moves nav up or down by at most MaxNAVDriftBps.
func driftNAV(r *rand.Rand, nav sdkmath.Int) sdkmath.Int {
	if !nav.IsPositive() {
		return sdkmath.ZeroInt()
	}
	drift := int64(r.Intn(2*MaxNAVDriftBps+1) - MaxNAVDriftBps)
	return nav.MulRaw(types.BasisPoints + drift).QuoRaw(types.BasisPoints)
}
