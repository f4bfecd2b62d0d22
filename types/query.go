package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/types/query"
)

// QueryParamsRequest is the request type for the Query/Params endpoint.
type QueryParamsRequest struct{}

// QueryParamsResponse is the response type for the Query/Params endpoint.
type QueryParamsResponse struct {
	Params Params `json:"params"`
}

// QueryVaultRequest is the request type for the Query/Vault endpoint.
type QueryVaultRequest struct{}

// QueryVaultResponse carries the stored vault state and the derived figures.
type QueryVaultResponse struct {
	Vault              VaultState        `json:"vault"`
	VaultAddress       string            `json:"vault_address"`
	OnchainReserve     sdkmath.Int       `json:"onchain_reserve"`
	NetAssets          sdkmath.Int       `json:"net_assets"`
	TotalShares        sdkmath.Int       `json:"total_shares"`
	AvailableLiquidity sdkmath.Int       `json:"available_liquidity"`
	PricePerShare      sdkmath.LegacyDec `json:"price_per_share"`
	QueueLength        uint64            `json:"queue_length"`
}

// QueryPendingRequestRequest is the request type for the Query/PendingRequest endpoint.
type QueryPendingRequestRequest struct {
	ID string `json:"id"`
}

// QueryPendingRequestResponse is the response type for the Query/PendingRequest endpoint.
type QueryPendingRequestResponse struct {
	Request PendingRequest `json:"request"`
}

// QueryPendingRequestsRequest is the request type for the Query/PendingRequests endpoint.
type QueryPendingRequestsRequest struct {
	Pagination *query.PageRequest `json:"pagination,omitempty"`
}

// QueryPendingRequestsResponse is the response type for the Query/PendingRequests endpoint.
type QueryPendingRequestsResponse struct {
	Requests   []GenesisRequest    `json:"requests"`
	Pagination *query.PageResponse `json:"pagination,omitempty"`
}

// QueryRedemptionQueueRequest is the request type for the Query/RedemptionQueue endpoint.
type QueryRedemptionQueueRequest struct {
	// Holder optionally restricts the result to one payout recipient.
	Holder string `json:"holder,omitempty"`
}

// QueryRedemptionQueueResponse lists queue entries from head to tail.
type QueryRedemptionQueueResponse struct {
	Entries []GenesisRedemptionEntry `json:"entries"`
}

// QueryUserEpochInfoRequest is the request type for the Query/UserEpochInfo endpoint.
type QueryUserEpochInfoRequest struct {
	Holder string `json:"holder"`
	// Epoch defaults to the current epoch when nil.
	Epoch *uint64 `json:"epoch,omitempty"`
}

// QueryUserEpochInfoResponse is the response type for the Query/UserEpochInfo endpoint.
type QueryUserEpochInfoResponse struct {
	Epoch            uint64        `json:"epoch"`
	Info             UserEpochInfo `json:"info"`
	InitialDepositOK bool          `json:"initial_deposit_done"`
}

// QueryShareBalanceRequest is the request type for the Query/ShareBalance endpoint.
type QueryShareBalanceRequest struct {
	Address string `json:"address"`
}

// QueryShareBalanceResponse is the response type for the Query/ShareBalance endpoint.
type QueryShareBalanceResponse struct {
	Balance sdkmath.Int `json:"balance"`
}

// QueryEstimateDepositRequest is the request type for the Query/EstimateDeposit endpoint.
type QueryEstimateDepositRequest struct {
	Assets sdkmath.Int `json:"assets"`
}

// QueryEstimateDepositResponse estimates a deposit at the last reported NAV.
type QueryEstimateDepositResponse struct {
	Fee    sdkmath.Int `json:"fee"`
	Shares sdkmath.Int `json:"shares"`
	Height int64       `json:"height"`
	Time   time.Time   `json:"time"`
}

// QueryEstimateRedeemRequest is the request type for the Query/EstimateRedeem endpoint.
type QueryEstimateRedeemRequest struct {
	Shares sdkmath.Int `json:"shares"`
}

// QueryEstimateRedeemResponse estimates a redemption at the last reported NAV.
type QueryEstimateRedeemResponse struct {
	Assets sdkmath.Int `json:"assets"`
	// PaidNow is the part available liquidity would cover immediately.
	PaidNow sdkmath.Int `json:"paid_now"`
	Height  int64       `json:"height"`
	Time    time.Time   `json:"time"`
}
