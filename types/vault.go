package types

import (
	"fmt"
	"math/big"

	sdkmath "cosmossdk.io/math"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// MaxAmount is the largest representable amount. Passing it to a claim means "everything accrued".
var MaxAmount = sdkmath.NewIntFromBigInt(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), sdkmath.MaxBitLen), big.NewInt(1)))

// VaultState is the singleton accounting state of the vault.
type VaultState struct {
	CurrentEpoch       uint64      `json:"current_epoch"`
	LatestOffchainNAV  sdkmath.Int `json:"latest_offchain_nav"`
	OnchainFeeAccrued  sdkmath.Int `json:"onchain_fee_accrued"`
	OffchainFeeAccrued sdkmath.Int `json:"offchain_fee_accrued"`
	// LastOnchainAccrual is the unix time of the last on-chain fee accrual.
	LastOnchainAccrual int64 `json:"last_onchain_accrual"`
	// LastEpochTime is the unix time of the last epoch transition.
	LastEpochTime int64 `json:"last_epoch_time"`
	// QueuedShares is the sum of shares still owed by the redemption queue.
	QueuedShares sdkmath.Int `json:"queued_shares"`
	Paused       bool        `json:"paused"`
}

// NewVaultState returns an empty vault state anchored at the given time.
func NewVaultState(now int64) VaultState {
	return VaultState{
		LatestOffchainNAV:  sdkmath.ZeroInt(),
		OnchainFeeAccrued:  sdkmath.ZeroInt(),
		OffchainFeeAccrued: sdkmath.ZeroInt(),
		LastOnchainAccrual: now,
		LastEpochTime:      now,
		QueuedShares:       sdkmath.ZeroInt(),
	}
}

// TotalFeesAccrued returns the sum of both unclaimed fee buckets.
func (v VaultState) TotalFeesAccrued() sdkmath.Int {
	return v.OnchainFeeAccrued.Add(v.OffchainFeeAccrued)
}

// Validate performs basic validation on the vault state.
func (v VaultState) Validate() error {
	amounts := []struct {
		name string
		amt  sdkmath.Int
	}{
		{"latest offchain nav", v.LatestOffchainNAV},
		{"onchain fee accrued", v.OnchainFeeAccrued},
		{"offchain fee accrued", v.OffchainFeeAccrued},
		{"queued shares", v.QueuedShares},
	}
	for _, a := range amounts {
		if a.amt.IsNil() || a.amt.IsNegative() {
			return fmt.Errorf("invalid %s: %v", a.name, a.amt)
		}
	}
	if v.LastOnchainAccrual < 0 || v.LastEpochTime < 0 {
		return fmt.Errorf("accrual timestamps cannot be negative")
	}
	return nil
}

// RequestKind identifies the pending operation behind a request id.
type RequestKind uint8

const (
	RequestKindUnspecified RequestKind = iota
	RequestKindDeposit
	RequestKindRedemption
	RequestKindRedemptionQueueDrain
	RequestKindEpochAdvance
)

// String returns the event friendly name of the kind.
func (k RequestKind) String() string {
	switch k {
	case RequestKindDeposit:
		return "deposit"
	case RequestKindRedemption:
		return "redemption"
	case RequestKindRedemptionQueueDrain:
		return "redemption_queue_drain"
	case RequestKindEpochAdvance:
		return "epoch_advance"
	default:
		return "unspecified"
	}
}

// PendingRequest is an operation waiting for an oracle fulfillment.
type PendingRequest struct {
	Kind RequestKind `json:"kind"`
	// Requester initiated the request. For deposits it is the payer, for redemptions the share owner.
	Requester string `json:"requester,omitempty"`
	// Receiver gets the minted shares (deposit) or the paid out assets (redemption).
	Receiver string `json:"receiver,omitempty"`
	// Amount is assets for a deposit and shares for a redemption.
	Amount    sdkmath.Int `json:"amount"`
	Epoch     uint64      `json:"epoch"`
	CreatedAt int64       `json:"created_at"`
}

// Validate performs basic validation of a pending request.
func (r PendingRequest) Validate() error {
	switch r.Kind {
	case RequestKindDeposit, RequestKindRedemption:
		if _, err := sdk.AccAddressFromBech32(r.Requester); err != nil {
			return fmt.Errorf("invalid requester %q: %w", r.Requester, err)
		}
		if _, err := sdk.AccAddressFromBech32(r.Receiver); err != nil {
			return fmt.Errorf("invalid receiver %q: %w", r.Receiver, err)
		}
		if r.Amount.IsNil() || !r.Amount.IsPositive() {
			return fmt.Errorf("%s amount must be positive", r.Kind)
		}
	case RequestKindRedemptionQueueDrain, RequestKindEpochAdvance:
	default:
		return fmt.Errorf("unknown request kind %d", r.Kind)
	}
	return nil
}

// UserEpochInfo tracks a holder's gross flows during one epoch.
type UserEpochInfo struct {
	DepositAmount  sdkmath.Int `json:"deposit_amount"`
	WithdrawAmount sdkmath.Int `json:"withdraw_amount"`
}

// NewUserEpochInfo returns an empty record.
func NewUserEpochInfo() UserEpochInfo {
	return UserEpochInfo{DepositAmount: sdkmath.ZeroInt(), WithdrawAmount: sdkmath.ZeroInt()}
}

// NetDeposited returns deposits minus withdrawals. It can be negative.
func (u UserEpochInfo) NetDeposited() sdkmath.Int {
	return u.DepositAmount.Sub(u.WithdrawAmount)
}

// NetWithdrawn returns withdrawals minus deposits. It can be negative.
func (u UserEpochInfo) NetWithdrawn() sdkmath.Int {
	return u.WithdrawAmount.Sub(u.DepositAmount)
}

// RedemptionQueueEntry is an unpaid redemption waiting for liquidity.
type RedemptionQueueEntry struct {
	// Holder receives the assets once liquidity is available.
	Holder string `json:"holder"`
	// Owner is the address whose shares were burned.
	Owner  string      `json:"owner"`
	Shares sdkmath.Int `json:"shares"`
	Epoch  uint64      `json:"epoch"`
}

// Validate performs basic validation of a queue entry.
func (e RedemptionQueueEntry) Validate() error {
	if _, err := sdk.AccAddressFromBech32(e.Holder); err != nil {
		return fmt.Errorf("invalid holder %q: %w", e.Holder, err)
	}
	if _, err := sdk.AccAddressFromBech32(e.Owner); err != nil {
		return fmt.Errorf("invalid owner %q: %w", e.Owner, err)
	}
	if e.Shares.IsNil() || !e.Shares.IsPositive() {
		return fmt.Errorf("queued shares must be positive")
	}
	return nil
}
