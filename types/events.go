package types

import (
	"strconv"

	sdkmath "cosmossdk.io/math"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

const (
	EventTypeDepositRequested              = "deposit_requested"
	EventTypeRedemptionRequested           = "redemption_requested"
	EventTypeRedemptionQueueDrainRequested = "redemption_queue_drain_requested"
	EventTypeEpochAdvanceRequested         = "epoch_advance_requested"
	EventTypeDepositFulfilled              = "deposit_fulfilled"
	EventTypeRedemptionFulfilled           = "redemption_fulfilled"
	EventTypeRedemptionQueued              = "redemption_queued"
	EventTypeRedemptionQueuePaid           = "redemption_queue_paid"
	EventTypeEpochAdvanced                 = "epoch_advanced"
	EventTypeTransferToTreasury            = "transfer_to_treasury"
	EventTypeServiceFeeClaimed             = "service_fee_claimed"
	EventTypeParamsUpdated                 = "params_updated"
	EventTypeVaultPaused                   = "vault_paused"

	AttributeKeyRequestID   = "request_id"
	AttributeKeyRequester   = "requester"
	AttributeKeyReceiver    = "receiver"
	AttributeKeyOwner       = "owner"
	AttributeKeyHolder      = "holder"
	AttributeKeyAssets      = "assets"
	AttributeKeyShares      = "shares"
	AttributeKeyFee         = "fee"
	AttributeKeyEpoch       = "epoch"
	AttributeKeyNAV         = "nav"
	AttributeKeyOnchainFee  = "onchain_fee"
	AttributeKeyOffchainFee = "offchain_fee"
	AttributeKeyFeeKind     = "fee_kind"
	AttributeKeyQueueID     = "queue_id"
	AttributeKeyRemaining   = "remaining_shares"
	AttributeKeyAuthority   = "authority"
	AttributeKeyPaused      = "paused"
	AttributeKeyField       = "field"

	FeeKindOnchain  = "onchain"
	FeeKindOffchain = "offchain"
)

// NewEventDepositRequested creates a new deposit_requested event.
func NewEventDepositRequested(requestID, requester, receiver string, assets sdkmath.Int) sdk.Event {
	return sdk.NewEvent(EventTypeDepositRequested,
		sdk.NewAttribute(AttributeKeyRequestID, requestID),
		sdk.NewAttribute(AttributeKeyRequester, requester),
		sdk.NewAttribute(AttributeKeyReceiver, receiver),
		sdk.NewAttribute(AttributeKeyAssets, assets.String()),
	)
}

// NewEventRedemptionRequested creates a new redemption_requested event.
func NewEventRedemptionRequested(requestID, owner, receiver string, shares sdkmath.Int) sdk.Event {
	return sdk.NewEvent(EventTypeRedemptionRequested,
		sdk.NewAttribute(AttributeKeyRequestID, requestID),
		sdk.NewAttribute(AttributeKeyOwner, owner),
		sdk.NewAttribute(AttributeKeyReceiver, receiver),
		sdk.NewAttribute(AttributeKeyShares, shares.String()),
	)
}

// NewEventRedemptionQueueDrainRequested creates a new redemption_queue_drain_requested event.
func NewEventRedemptionQueueDrainRequested(requestID, requester string) sdk.Event {
	return sdk.NewEvent(EventTypeRedemptionQueueDrainRequested,
		sdk.NewAttribute(AttributeKeyRequestID, requestID),
		sdk.NewAttribute(AttributeKeyRequester, requester),
	)
}

// NewEventEpochAdvanceRequested creates a new epoch_advance_requested event.
func NewEventEpochAdvanceRequested(requestID, requester string, epoch uint64) sdk.Event {
	return sdk.NewEvent(EventTypeEpochAdvanceRequested,
		sdk.NewAttribute(AttributeKeyRequestID, requestID),
		sdk.NewAttribute(AttributeKeyRequester, requester),
		sdk.NewAttribute(AttributeKeyEpoch, strconv.FormatUint(epoch, 10)),
	)
}

// NewEventDepositFulfilled creates a new deposit_fulfilled event.
func NewEventDepositFulfilled(requestID, receiver string, assets, fee, shares sdkmath.Int) sdk.Event {
	return sdk.NewEvent(EventTypeDepositFulfilled,
		sdk.NewAttribute(AttributeKeyRequestID, requestID),
		sdk.NewAttribute(AttributeKeyReceiver, receiver),
		sdk.NewAttribute(AttributeKeyAssets, assets.String()),
		sdk.NewAttribute(AttributeKeyFee, fee.String()),
		sdk.NewAttribute(AttributeKeyShares, shares.String()),
	)
}

// NewEventRedemptionFulfilled creates a new redemption_fulfilled event.
func NewEventRedemptionFulfilled(requestID, owner, receiver string, sharesBurned, assetsPaid, sharesQueued sdkmath.Int) sdk.Event {
	return sdk.NewEvent(EventTypeRedemptionFulfilled,
		sdk.NewAttribute(AttributeKeyRequestID, requestID),
		sdk.NewAttribute(AttributeKeyOwner, owner),
		sdk.NewAttribute(AttributeKeyReceiver, receiver),
		sdk.NewAttribute(AttributeKeyShares, sharesBurned.String()),
		sdk.NewAttribute(AttributeKeyAssets, assetsPaid.String()),
		sdk.NewAttribute(AttributeKeyRemaining, sharesQueued.String()),
	)
}

// NewEventRedemptionQueued creates a new redemption_queued event.
func NewEventRedemptionQueued(queueID uint64, holder string, shares sdkmath.Int) sdk.Event {
	return sdk.NewEvent(EventTypeRedemptionQueued,
		sdk.NewAttribute(AttributeKeyQueueID, strconv.FormatUint(queueID, 10)),
		sdk.NewAttribute(AttributeKeyHolder, holder),
		sdk.NewAttribute(AttributeKeyShares, shares.String()),
	)
}

// NewEventRedemptionQueuePaid creates a new redemption_queue_paid event.
func NewEventRedemptionQueuePaid(queueID uint64, holder string, sharesPaid, assetsPaid, remaining sdkmath.Int) sdk.Event {
	return sdk.NewEvent(EventTypeRedemptionQueuePaid,
		sdk.NewAttribute(AttributeKeyQueueID, strconv.FormatUint(queueID, 10)),
		sdk.NewAttribute(AttributeKeyHolder, holder),
		sdk.NewAttribute(AttributeKeyShares, sharesPaid.String()),
		sdk.NewAttribute(AttributeKeyAssets, assetsPaid.String()),
		sdk.NewAttribute(AttributeKeyRemaining, remaining.String()),
	)
}

// NewEventEpochAdvanced creates a new epoch_advanced event.
func NewEventEpochAdvanced(requestID string, epoch uint64, nav, onchainFee, offchainFee sdkmath.Int) sdk.Event {
	return sdk.NewEvent(EventTypeEpochAdvanced,
		sdk.NewAttribute(AttributeKeyRequestID, requestID),
		sdk.NewAttribute(AttributeKeyEpoch, strconv.FormatUint(epoch, 10)),
		sdk.NewAttribute(AttributeKeyNAV, nav.String()),
		sdk.NewAttribute(AttributeKeyOnchainFee, onchainFee.String()),
		sdk.NewAttribute(AttributeKeyOffchainFee, offchainFee.String()),
	)
}

// NewEventTransferToTreasury creates a new transfer_to_treasury event.
func NewEventTransferToTreasury(treasury string, assets sdkmath.Int) sdk.Event {
	return sdk.NewEvent(EventTypeTransferToTreasury,
		sdk.NewAttribute(AttributeKeyReceiver, treasury),
		sdk.NewAttribute(AttributeKeyAssets, assets.String()),
	)
}

// NewEventServiceFeeClaimed creates a new service_fee_claimed event.
func NewEventServiceFeeClaimed(kind, receiver string, assets sdkmath.Int) sdk.Event {
	return sdk.NewEvent(EventTypeServiceFeeClaimed,
		sdk.NewAttribute(AttributeKeyFeeKind, kind),
		sdk.NewAttribute(AttributeKeyReceiver, receiver),
		sdk.NewAttribute(AttributeKeyAssets, assets.String()),
	)
}

// NewEventParamsUpdated creates a new params_updated event.
func NewEventParamsUpdated(authority, field string) sdk.Event {
	return sdk.NewEvent(EventTypeParamsUpdated,
		sdk.NewAttribute(AttributeKeyAuthority, authority),
		sdk.NewAttribute(AttributeKeyField, field),
	)
}

// NewEventVaultPaused creates a new vault_paused event.
func NewEventVaultPaused(authority string, paused bool) sdk.Event {
	return sdk.NewEvent(EventTypeVaultPaused,
		sdk.NewAttribute(AttributeKeyAuthority, authority),
		sdk.NewAttribute(AttributeKeyPaused, strconv.FormatBool(paused)),
	)
}
