package types

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// GenesisState is the full exported state of the vault module.
type GenesisState struct {
	Params            Params                 `json:"params"`
	Vault             VaultState             `json:"vault"`
	PendingRequests   []GenesisRequest       `json:"pending_requests"`
	FulfilledRequests []string               `json:"fulfilled_requests"`
	UserEpochInfos    []GenesisUserEpochInfo `json:"user_epoch_infos"`
	InitialDepositors []string               `json:"initial_depositors"`
	RedemptionQueue   GenesisRedemptionQueue `json:"redemption_queue"`
	ShareBalances     []GenesisBalance       `json:"share_balances"`
}

// GenesisRequest is a pending request together with its id.
type GenesisRequest struct {
	ID      string         `json:"id"`
	Request PendingRequest `json:"request"`
}

// GenesisUserEpochInfo is a UserEpochInfo together with its key.
type GenesisUserEpochInfo struct {
	Epoch  uint64        `json:"epoch"`
	Holder string        `json:"holder"`
	Info   UserEpochInfo `json:"info"`
}

// GenesisRedemptionQueue is the ordered redemption queue.
type GenesisRedemptionQueue struct {
	LatestSequenceNumber uint64                    `json:"latest_sequence_number"`
	Entries              []GenesisRedemptionEntry `json:"entries"`
}

// GenesisRedemptionEntry is a queue entry together with its position.
type GenesisRedemptionEntry struct {
	ID    uint64               `json:"id"`
	Entry RedemptionQueueEntry `json:"entry"`
}

// GenesisBalance is a share token balance.
type GenesisBalance struct {
	Address string      `json:"address"`
	Amount  sdkmath.Int `json:"amount"`
}

// DefaultGenesisState returns the default genesis state
func DefaultGenesisState() *GenesisState {
	return &GenesisState{
		Params: DefaultParams(),
		Vault:  NewVaultState(0),
	}
}

// Validate performs basic genesis state validation returning an error upon any
// failure. Params are only validated once roles are set, so the default genesis
// stays usable as a template.
func (gs GenesisState) Validate() error {
	if gs.Params.Authority != "" {
		if err := gs.Params.Validate(); err != nil {
			return fmt.Errorf("invalid params: %w", err)
		}
	}
	if err := gs.Vault.Validate(); err != nil {
		return fmt.Errorf("invalid vault state: %w", err)
	}

	seen := make(map[string]bool, len(gs.PendingRequests)+len(gs.FulfilledRequests))
	for _, r := range gs.PendingRequests {
		if r.ID == "" {
			return fmt.Errorf("pending request id cannot be empty")
		}
		if seen[r.ID] {
			return fmt.Errorf("duplicate request id %q", r.ID)
		}
		seen[r.ID] = true
		if err := r.Request.Validate(); err != nil {
			return fmt.Errorf("invalid pending request %q: %w", r.ID, err)
		}
	}
	for _, id := range gs.FulfilledRequests {
		if seen[id] {
			return fmt.Errorf("duplicate request id %q", id)
		}
		seen[id] = true
	}

	for _, u := range gs.UserEpochInfos {
		if _, err := sdk.AccAddressFromBech32(u.Holder); err != nil {
			return fmt.Errorf("invalid epoch info holder %q: %w", u.Holder, err)
		}
	}
	for _, h := range gs.InitialDepositors {
		if _, err := sdk.AccAddressFromBech32(h); err != nil {
			return fmt.Errorf("invalid initial depositor %q: %w", h, err)
		}
	}

	queued := sdkmath.ZeroInt()
	var lastID uint64
	for i, e := range gs.RedemptionQueue.Entries {
		if err := e.Entry.Validate(); err != nil {
			return fmt.Errorf("invalid redemption queue entry %d: %w", e.ID, err)
		}
		if i > 0 && e.ID <= lastID {
			return fmt.Errorf("redemption queue entries must be strictly ordered, got %d after %d", e.ID, lastID)
		}
		if e.ID >= gs.RedemptionQueue.LatestSequenceNumber {
			return fmt.Errorf("redemption queue entry %d is not below the latest sequence %d", e.ID, gs.RedemptionQueue.LatestSequenceNumber)
		}
		lastID = e.ID
		queued = queued.Add(e.Entry.Shares)
	}
	if !gs.Vault.QueuedShares.IsNil() && !queued.Equal(gs.Vault.QueuedShares) {
		return fmt.Errorf("queued shares %s do not match redemption queue total %s", gs.Vault.QueuedShares, queued)
	}

	for _, b := range gs.ShareBalances {
		if _, err := sdk.AccAddressFromBech32(b.Address); err != nil {
			return fmt.Errorf("invalid share holder %q: %w", b.Address, err)
		}
		if b.Amount.IsNil() || b.Amount.IsNegative() {
			return fmt.Errorf("invalid share balance for %s", b.Address)
		}
	}
	return nil
}
