package types

import (
	"cosmossdk.io/collections"
	"github.com/cometbft/cometbft/crypto"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

const (
	// ModuleName defines the module name
	ModuleName = "navvault"

	// StoreKey defines the primary module store key
	StoreKey = ModuleName

	// ShareDenom is the denom of the vault share token.
	ShareDenom = "navshare"
)

var (
	// ParamsKeyPrefix is the prefix to retrieve the module Params
	ParamsKeyPrefix = collections.NewPrefix(0)
	// ParamsName is a human-readable name for the params collection.
	ParamsName = "params"

	// VaultStateKeyPrefix is the prefix to retrieve the singleton vault state.
	VaultStateKeyPrefix = collections.NewPrefix(1)
	// VaultStateName is a human-readable name for the vault state collection.
	VaultStateName = "vault_state"

	// PendingRequestsKeyPrefix is the prefix for pending oracle requests keyed by request id.
	PendingRequestsKeyPrefix = collections.NewPrefix(2)
	// PendingRequestsName is a human-readable name for the pending requests collection.
	PendingRequestsName = "pending_requests"

	// FulfilledRequestsKeyPrefix is the prefix for consumed request ids.
	FulfilledRequestsKeyPrefix = collections.NewPrefix(3)
	// FulfilledRequestsName is a human-readable name for the fulfilled request set.
	FulfilledRequestsName = "fulfilled_requests"

	// UserEpochInfoKeyPrefix is the prefix for per (epoch, holder) flow records.
	UserEpochInfoKeyPrefix = collections.NewPrefix(4)
	// UserEpochInfoName is a human-readable name for the user epoch info collection.
	UserEpochInfoName = "user_epoch_info"

	// InitialDepositKeyPrefix is the prefix for holders that satisfied the initial deposit floor.
	InitialDepositKeyPrefix = collections.NewPrefix(5)
	// InitialDepositName is a human-readable name for the initial deposit set.
	InitialDepositName = "initial_deposit_done"

	// RedemptionQueuePrefix is the prefix for redemption queue entries.
	RedemptionQueuePrefix = collections.NewPrefix(6)
	// RedemptionQueueName is a human-readable name for the redemption queue.
	RedemptionQueueName = "redemption_queue"
	// RedemptionQueueSeqPrefix is the prefix for the redemption queue tail sequence.
	RedemptionQueueSeqPrefix = collections.NewPrefix(7)
	// RedemptionQueueSeqName is a human-readable name for the redemption queue sequence.
	RedemptionQueueSeqName = "redemption_queue_seq"
	// RedemptionQueueByHolderIndexPrefix is the prefix for the by-holder queue index.
	RedemptionQueueByHolderIndexPrefix = collections.NewPrefix(8)
	// RedemptionQueueByHolderIndexName is a human-readable name for the by-holder queue index.
	RedemptionQueueByHolderIndexName = "redemption_queue_by_holder"

	// ShareBalancesPrefix is the prefix for share token balances.
	ShareBalancesPrefix = collections.NewPrefix(9)
	// ShareAllowancesPrefix is the prefix for share token allowances.
	ShareAllowancesPrefix = collections.NewPrefix(10)
	// ShareSupplyPrefix is the prefix for the share token supply.
	ShareSupplyPrefix = collections.NewPrefix(11)
)

// GetVaultAddress returns the custody address for the vault module.
func GetVaultAddress() sdk.AccAddress {
	return sdk.AccAddress(crypto.AddressHash([]byte(ModuleName)))
}
