package simulation

import (
	"fmt"
	"math/rand"

	sdkmath "cosmossdk.io/math"

	sdk "github.com/cosmos/cosmos-sdk/types"
	simtypes "github.com/cosmos/cosmos-sdk/types/simulation"

	"github.com/provlabs/navvault/simapp"
	"github.com/provlabs/navvault/types"
)

const (
	OpWeightRequestDeposit     = "op_weight_request_deposit"
	OpWeightRequestRedemption  = "op_weight_request_redemption"
	OpWeightRequestQueueDrain  = "op_weight_request_queue_drain"
	OpWeightRequestEpoch       = "op_weight_request_advance_epoch"
	OpWeightFulfill            = "op_weight_fulfill"
	OpWeightTransferShares     = "op_weight_transfer_shares"
	OpWeightClaimServiceFee    = "op_weight_claim_service_fee"
	OpWeightTransferToTreasury = "op_weight_transfer_to_treasury"
	OpWeightReturnFromTreasury = "op_weight_return_from_treasury"
	OpWeightPauseVault         = "op_weight_pause_vault"
	OpWeightUnpauseVault       = "op_weight_unpause_vault"
)

const (
	DefaultWeightRequestDeposit     = 30
	DefaultWeightRequestRedemption  = 20
	DefaultWeightRequestQueueDrain  = 5
	DefaultWeightRequestEpoch       = 5
	DefaultWeightFulfill            = 40
	DefaultWeightTransferShares     = 10
	DefaultWeightClaimServiceFee    = 5
	DefaultWeightTransferToTreasury = 5
	DefaultWeightReturnFromTreasury = 5
	DefaultWeightPauseVault         = 1
	DefaultWeightUnpauseVault       = 5
)

const (
	OpRequestDeposit     = "request_deposit"
	OpRequestRedemption  = "request_redemption"
	OpRequestQueueDrain  = "request_redemption_queue_drain"
	OpRequestEpoch       = "request_advance_epoch"
	OpFulfill            = "fulfill"
	OpTransferShares     = "transfer_shares"
	OpClaimServiceFee    = "claim_service_fee"
	OpTransferToTreasury = "transfer_to_treasury"
	OpReturnFromTreasury = "return_from_treasury"
	OpPauseVault         = "pause_vault"
	OpUnpauseVault       = "unpause_vault"
)

// Env is what a simulation carries from one operation to the next.
type Env struct {
	App      *simapp.SimApp
	Roles    simapp.Roles
	Accounts []simtypes.Account
	// OffchainNAV is the value the simulated oracle believes sits off chain.
	OffchainNAV sdkmath.Int
}

// Operation performs one random action against the vault. Rejections by the
// vault are reported through a no-op message; only unexpected failures are
// returned as errors.
type Operation func(r *rand.Rand, ctx sdk.Context, env *Env) (simtypes.OperationMsg, error)

// WeightedOperation is an operation together with its selection weight.
type WeightedOperation struct {
	Name   string
	Weight int
	Op     Operation
}

// WeightedOperations returns every vault operation, with weights taken from
// appParams when present.
func WeightedOperations(appParams simtypes.AppParams, r *rand.Rand) []WeightedOperation {
	var (
		wDeposit            int
		wRedemption         int
		wQueueDrain         int
		wEpoch              int
		wFulfill            int
		wTransferShares     int
		wClaimServiceFee    int
		wTransferToTreasury int
		wReturnFromTreasury int
		wPauseVault         int
		wUnpauseVault       int
	)

	appParams.GetOrGenerate(OpWeightRequestDeposit, &wDeposit, r, func(r *rand.Rand) { wDeposit = DefaultWeightRequestDeposit })
	appParams.GetOrGenerate(OpWeightRequestRedemption, &wRedemption, r, func(r *rand.Rand) { wRedemption = DefaultWeightRequestRedemption })
	appParams.GetOrGenerate(OpWeightRequestQueueDrain, &wQueueDrain, r, func(r *rand.Rand) { wQueueDrain = DefaultWeightRequestQueueDrain })
	appParams.GetOrGenerate(OpWeightRequestEpoch, &wEpoch, r, func(r *rand.Rand) { wEpoch = DefaultWeightRequestEpoch })
	appParams.GetOrGenerate(OpWeightFulfill, &wFulfill, r, func(r *rand.Rand) { wFulfill = DefaultWeightFulfill })
	appParams.GetOrGenerate(OpWeightTransferShares, &wTransferShares, r, func(r *rand.Rand) { wTransferShares = DefaultWeightTransferShares })
	appParams.GetOrGenerate(OpWeightClaimServiceFee, &wClaimServiceFee, r, func(r *rand.Rand) { wClaimServiceFee = DefaultWeightClaimServiceFee })
	appParams.GetOrGenerate(OpWeightTransferToTreasury, &wTransferToTreasury, r, func(r *rand.Rand) { wTransferToTreasury = DefaultWeightTransferToTreasury })
	appParams.GetOrGenerate(OpWeightReturnFromTreasury, &wReturnFromTreasury, r, func(r *rand.Rand) { wReturnFromTreasury = DefaultWeightReturnFromTreasury })
	appParams.GetOrGenerate(OpWeightPauseVault, &wPauseVault, r, func(r *rand.Rand) { wPauseVault = DefaultWeightPauseVault })
	appParams.GetOrGenerate(OpWeightUnpauseVault, &wUnpauseVault, r, func(r *rand.Rand) { wUnpauseVault = DefaultWeightUnpauseVault })

	return []WeightedOperation{
		{Name: OpRequestDeposit, Weight: wDeposit, Op: SimulateRequestDeposit()},
		{Name: OpRequestRedemption, Weight: wRedemption, Op: SimulateRequestRedemption()},
		{Name: OpRequestQueueDrain, Weight: wQueueDrain, Op: SimulateRequestRedemptionQueueDrain()},
		{Name: OpRequestEpoch, Weight: wEpoch, Op: SimulateRequestAdvanceEpoch()},
		{Name: OpFulfill, Weight: wFulfill, Op: SimulateFulfill()},
		{Name: OpTransferShares, Weight: wTransferShares, Op: SimulateTransferShares()},
		{Name: OpClaimServiceFee, Weight: wClaimServiceFee, Op: SimulateClaimServiceFee()},
		{Name: OpTransferToTreasury, Weight: wTransferToTreasury, Op: SimulateTransferToTreasury()},
		{Name: OpReturnFromTreasury, Weight: wReturnFromTreasury, Op: SimulateReturnFromTreasury()},
		{Name: OpPauseVault, Weight: wPauseVault, Op: SimulateSetPaused(true)},
		{Name: OpUnpauseVault, Weight: wUnpauseVault, Op: SimulateSetPaused(false)},
	}
}

// selectOperation picks an operation with probability proportional to its weight.
func selectOperation(r *rand.Rand, ops []WeightedOperation) (WeightedOperation, bool) {
	total := 0
	for _, op := range ops {
		total += op.Weight
	}
	if total <= 0 {
		return WeightedOperation{}, false
	}
	n := r.Intn(total)
	for _, op := range ops {
		if n < op.Weight {
			return op, true
		}
		n -= op.Weight
	}
	return WeightedOperation{}, false
}

func okMsg(name, comment string) simtypes.OperationMsg {
	return simtypes.OperationMsg{Route: types.ModuleName, Name: name, Comment: comment, OK: true}
}

func SimulateRequestDeposit() Operation {
	return func(r *rand.Rand, ctx sdk.Context, env *Env) (simtypes.OperationMsg, error) {
		k := env.App.VaultKeeper
		depositor, spendable, found := getRandomFundedAccount(r, k, ctx, env.Accounts)
		if !found {
			return simtypes.NoOpMsg(types.ModuleName, OpRequestDeposit, "no funded account"), nil
		}
		amount := randomPositiveAmount(r, spendable)

		var receiver sdk.AccAddress
		if r.Intn(4) == 0 {
			other, _ := simtypes.RandomAcc(r, env.Accounts)
			receiver = other.Address
		}

		id, err := k.RequestDeposit(ctx, depositor.Address, amount, receiver)
		if err != nil {
			return simtypes.NoOpMsg(types.ModuleName, OpRequestDeposit, err.Error()), nil
		}
		return okMsg(OpRequestDeposit, fmt.Sprintf("requested deposit %s of %s", id, amount)), nil
	}
}

func SimulateRequestRedemption() Operation {
	return func(r *rand.Rand, ctx sdk.Context, env *Env) (simtypes.OperationMsg, error) {
		k := env.App.VaultKeeper
		owner, balance, found := getRandomHolder(r, k, ctx, env.Accounts)
		if !found {
			return simtypes.NoOpMsg(types.ModuleName, OpRequestRedemption, "no share holder"), nil
		}
		shares := randomPositiveAmount(r, balance)

		id, err := k.RequestRedemption(ctx, owner.Address, shares, owner.Address, nil)
		if err != nil {
			return simtypes.NoOpMsg(types.ModuleName, OpRequestRedemption, err.Error()), nil
		}
		return okMsg(OpRequestRedemption, fmt.Sprintf("requested redemption %s of %s shares", id, shares)), nil
	}
}

func SimulateRequestRedemptionQueueDrain() Operation {
	return func(r *rand.Rand, ctx sdk.Context, env *Env) (simtypes.OperationMsg, error) {
		id, err := env.App.VaultKeeper.RequestRedemptionQueueDrain(ctx, env.Roles.Operator)
		if err != nil {
			return simtypes.NoOpMsg(types.ModuleName, OpRequestQueueDrain, err.Error()), nil
		}
		return okMsg(OpRequestQueueDrain, "requested queue drain "+id), nil
	}
}

func SimulateRequestAdvanceEpoch() Operation {
	return func(r *rand.Rand, ctx sdk.Context, env *Env) (simtypes.OperationMsg, error) {
		id, err := env.App.VaultKeeper.RequestAdvanceEpoch(ctx, env.Roles.Operator)
		if err != nil {
			return simtypes.NoOpMsg(types.ModuleName, OpRequestEpoch, err.Error()), nil
		}
		return okMsg(OpRequestEpoch, "requested epoch advance "+id), nil
	}
}

// SimulateFulfill answers a random pending request with a NAV drifted from the last report.
func SimulateFulfill() Operation {
	return func(r *rand.Rand, ctx sdk.Context, env *Env) (simtypes.OperationMsg, error) {
		k := env.App.VaultKeeper
		id, req, found, err := getRandomPendingRequest(r, k, ctx)
		if err != nil {
			return simtypes.NoOpMsg(types.ModuleName, OpFulfill, "unable to walk pending requests"), err
		}
		if !found {
			return simtypes.NoOpMsg(types.ModuleName, OpFulfill, "no pending request"), nil
		}

		nav := driftNAV(r, env.OffchainNAV)
		if err := k.Fulfill(ctx, env.Roles.Oracle, id, nav); err != nil {
			return simtypes.NoOpMsg(types.ModuleName, OpFulfill, err.Error()), nil
		}
		env.OffchainNAV = nav
		return okMsg(OpFulfill, fmt.Sprintf("fulfilled %s request %s at nav %s", req.Kind, id, nav)), nil
	}
}

func SimulateTransferShares() Operation {
	return func(r *rand.Rand, ctx sdk.Context, env *Env) (simtypes.OperationMsg, error) {
		k := env.App.VaultKeeper
		from, balance, found := getRandomHolder(r, k, ctx, env.Accounts)
		if !found {
			return simtypes.NoOpMsg(types.ModuleName, OpTransferShares, "no share holder"), nil
		}
		to, _ := simtypes.RandomAcc(r, env.Accounts)
		amount := randomPositiveAmount(r, balance)

		if err := k.TransferShares(ctx, from.Address, to.Address, amount); err != nil {
			return simtypes.NoOpMsg(types.ModuleName, OpTransferShares, err.Error()), nil
		}
		return okMsg(OpTransferShares, fmt.Sprintf("moved %s shares", amount)), nil
	}
}

// SimulateClaimServiceFee claims part or all of one of the fee buckets.
func SimulateClaimServiceFee() Operation {
	return func(r *rand.Rand, ctx sdk.Context, env *Env) (simtypes.OperationMsg, error) {
		k := env.App.VaultKeeper
		state, err := k.GetVaultState(ctx)
		if err != nil {
			return simtypes.NoOpMsg(types.ModuleName, OpClaimServiceFee, "unable to get vault state"), err
		}

		claim := k.ClaimOnchainServiceFee
		accrued := state.OnchainFeeAccrued
		if r.Intn(2) == 0 {
			claim = k.ClaimOffchainServiceFee
			accrued = state.OffchainFeeAccrued
		}
		if !accrued.IsPositive() {
			return simtypes.NoOpMsg(types.ModuleName, OpClaimServiceFee, "nothing accrued"), nil
		}
		amount := types.MaxAmount
		if r.Intn(2) == 0 {
			amount = randomPositiveAmount(r, accrued)
		}

		paid, err := claim(ctx, env.Roles.Operator, amount)
		if err != nil {
			return simtypes.NoOpMsg(types.ModuleName, OpClaimServiceFee, err.Error()), nil
		}
		return okMsg(OpClaimServiceFee, fmt.Sprintf("claimed %s", paid)), nil
	}
}

func SimulateTransferToTreasury() Operation {
	return func(r *rand.Rand, ctx sdk.Context, env *Env) (simtypes.OperationMsg, error) {
		k := env.App.VaultKeeper
		available, err := k.AvailableLiquidity(ctx)
		if err != nil {
			return simtypes.NoOpMsg(types.ModuleName, OpTransferToTreasury, "unable to get liquidity"), err
		}
		if !available.IsPositive() {
			return simtypes.NoOpMsg(types.ModuleName, OpTransferToTreasury, "no available liquidity"), nil
		}
		amount := randomPositiveAmount(r, available)

		if err := k.TransferToTreasury(ctx, env.Roles.Operator, amount); err != nil {
			return simtypes.NoOpMsg(types.ModuleName, OpTransferToTreasury, err.Error()), nil
		}
		env.OffchainNAV = env.OffchainNAV.Add(amount)
		return okMsg(OpTransferToTreasury, fmt.Sprintf("moved %s off chain", amount)), nil
	}
}

// SimulateReturnFromTreasury sends treasury assets back to the vault reserve,
// the way an off-chain manager tops up liquidity for queued redemptions.
func SimulateReturnFromTreasury() Operation {
	return func(r *rand.Rand, ctx sdk.Context, env *Env) (simtypes.OperationMsg, error) {
		assets := env.App.AssetKeeper
		balance, err := assets.BalanceOf(ctx, env.Roles.Treasury)
		if err != nil {
			return simtypes.NoOpMsg(types.ModuleName, OpReturnFromTreasury, "unable to get treasury balance"), err
		}
		amount := randomPositiveAmount(r, sdkmath.MinInt(balance, env.OffchainNAV))
		if amount.IsZero() {
			return simtypes.NoOpMsg(types.ModuleName, OpReturnFromTreasury, "treasury is empty"), nil
		}

		if err := assets.Transfer(ctx, env.Roles.Treasury, types.GetVaultAddress(), amount); err != nil {
			return simtypes.NoOpMsg(types.ModuleName, OpReturnFromTreasury, err.Error()), nil
		}
		env.OffchainNAV = env.OffchainNAV.Sub(amount)
		return okMsg(OpReturnFromTreasury, fmt.Sprintf("returned %s on chain", amount)), nil
	}
}

func SimulateSetPaused(paused bool) Operation {
	name := OpUnpauseVault
	if paused {
		name = OpPauseVault
	}
	return func(r *rand.Rand, ctx sdk.Context, env *Env) (simtypes.OperationMsg, error) {
		k := env.App.VaultKeeper
		state, err := k.GetVaultState(ctx)
		if err != nil {
			return simtypes.NoOpMsg(types.ModuleName, name, "unable to get vault state"), err
		}
		if state.Paused == paused {
			return simtypes.NoOpMsg(types.ModuleName, name, "already in that state"), nil
		}
		if err := k.SetPaused(ctx, env.Roles.Authority, paused); err != nil {
			return simtypes.NoOpMsg(types.ModuleName, name, err.Error()), nil
		}
		return okMsg(name, fmt.Sprintf("paused set to %t", paused)), nil
	}
}
