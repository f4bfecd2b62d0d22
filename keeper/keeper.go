package keeper

import (
	"bytes"
	"errors"
	"fmt"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/address"
	"cosmossdk.io/core/store"
	sdkerrors "cosmossdk.io/errors"
	"cosmossdk.io/log"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/provlabs/navvault/queue"
	"github.com/provlabs/navvault/token"
	"github.com/provlabs/navvault/types"
)

type Keeper struct {
	schema       collections.Schema
	addressCodec address.Codec

	AssetKeeper      types.AssetKeeper
	ComplianceKeeper types.ComplianceKeeper
	OracleTransport  types.OracleTransport

	Params            collections.Item[types.Params]
	VaultState        collections.Item[types.VaultState]
	PendingRequests   collections.Map[string, types.PendingRequest]
	FulfilledRequests collections.KeySet[string]
	UserEpochInfo     collections.Map[collections.Pair[uint64, sdk.AccAddress], types.UserEpochInfo]
	InitialDeposit    collections.KeySet[sdk.AccAddress]
	RedemptionQueue   *queue.RedemptionQueue

	// Shares is the vault share token. Mints and transfers are gated by the compliance keeper.
	Shares *token.Ledger
}

func NewKeeper(
	storeService store.KVStoreService,
	addressCodec address.Codec,
	assetKeeper types.AssetKeeper,
	complianceKeeper types.ComplianceKeeper,
	oracleTransport types.OracleTransport,
) *Keeper {
	builder := collections.NewSchemaBuilder(storeService)

	keeper := &Keeper{
		addressCodec:     addressCodec,
		AssetKeeper:      assetKeeper,
		ComplianceKeeper: complianceKeeper,
		OracleTransport:  oracleTransport,
		Params:           collections.NewItem(builder, types.ParamsKeyPrefix, types.ParamsName, types.JSONValue[types.Params]()),
		VaultState:       collections.NewItem(builder, types.VaultStateKeyPrefix, types.VaultStateName, types.JSONValue[types.VaultState]()),
		PendingRequests: collections.NewMap(builder, types.PendingRequestsKeyPrefix, types.PendingRequestsName,
			collections.StringKey, types.JSONValue[types.PendingRequest]()),
		FulfilledRequests: collections.NewKeySet(builder, types.FulfilledRequestsKeyPrefix, types.FulfilledRequestsName, collections.StringKey),
		UserEpochInfo: collections.NewMap(builder, types.UserEpochInfoKeyPrefix, types.UserEpochInfoName,
			collections.PairKeyCodec(collections.Uint64Key, sdk.AccAddressKey), types.JSONValue[types.UserEpochInfo]()),
		InitialDeposit:  collections.NewKeySet(builder, types.InitialDepositKeyPrefix, types.InitialDepositName, sdk.AccAddressKey),
		RedemptionQueue: queue.NewRedemptionQueue(builder),
		Shares: token.NewLedger(builder, types.ShareDenom, token.Prefixes{
			Balances:   types.ShareBalancesPrefix,
			Allowances: types.ShareAllowancesPrefix,
			Supply:     types.ShareSupplyPrefix,
		}),
	}
	keeper.Shares.SetTransferHook(keeper.checkShareTransfer)

	schema, err := builder.Build()
	if err != nil {
		panic(err)
	}

	keeper.schema = schema
	return keeper
}

// getLogger returns a logger with vault module context.
func (k Keeper) getLogger(ctx sdk.Context) log.Logger {
	return ctx.Logger().With("module", "x/"+types.ModuleName)
}

func (k Keeper) emitEvent(ctx sdk.Context, event sdk.Event) {
	ctx.EventManager().EmitEvent(event)
}

// GetParams returns the module params. They must have been set at genesis.
func (k Keeper) GetParams(ctx sdk.Context) (types.Params, error) {
	params, err := k.Params.Get(ctx)
	if errors.Is(err, collections.ErrNotFound) {
		return types.Params{}, fmt.Errorf("vault params are not initialized")
	}
	return params, err
}

// GetVaultState returns the vault state, or a fresh one anchored at the block time.
func (k Keeper) GetVaultState(ctx sdk.Context) (types.VaultState, error) {
	state, err := k.VaultState.Get(ctx)
	if errors.Is(err, collections.ErrNotFound) {
		return types.NewVaultState(ctx.BlockTime().Unix()), nil
	}
	return state, err
}

// SetVaultState validates and stores the vault state.
func (k Keeper) SetVaultState(ctx sdk.Context, state types.VaultState) error {
	if err := state.Validate(); err != nil {
		return err
	}
	return k.VaultState.Set(ctx, state)
}

func (k Keeper) requireUnpaused(state types.VaultState) error {
	if state.Paused {
		return sdkerrors.Wrap(types.ErrPaused, "vault is paused")
	}
	return nil
}

// requireRole checks that caller is the address configured for role.
func (k Keeper) requireRole(caller sdk.AccAddress, role, expected string) error {
	bz, err := k.addressCodec.StringToBytes(expected)
	if err != nil {
		return fmt.Errorf("invalid %s address %q: %w", role, expected, err)
	}
	if !bytes.Equal(caller, bz) {
		return sdkerrors.Wrapf(types.ErrUnauthorized, "caller %s is not the %s", caller, role)
	}
	return nil
}

func (k Keeper) requireAuthority(ctx sdk.Context, caller sdk.AccAddress) (types.Params, error) {
	params, err := k.GetParams(ctx)
	if err != nil {
		return params, err
	}
	return params, k.requireRole(caller, "authority", params.Authority)
}

func (k Keeper) requireOperator(ctx sdk.Context, caller sdk.AccAddress) (types.Params, error) {
	params, err := k.GetParams(ctx)
	if err != nil {
		return params, err
	}
	return params, k.requireRole(caller, "operator", params.Operator)
}

// parseAddress parses a bech32 address held in state.
func (k Keeper) parseAddress(bech32 string) (sdk.AccAddress, error) {
	bz, err := k.addressCodec.StringToBytes(bech32)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", bech32, err)
	}
	return bz, nil
}

func (k Keeper) addressString(addr sdk.AccAddress) string {
	s, err := k.addressCodec.BytesToString(addr)
	if err != nil {
		return addr.String()
	}
	return s
}

// isPositive reports whether amount is set and greater than zero.
func isPositive(amount math.Int) bool {
	return !amount.IsNil() && amount.IsPositive()
}
