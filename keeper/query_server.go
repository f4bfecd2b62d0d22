package keeper

import (
	"context"
	"errors"

	"cosmossdk.io/collections"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/query"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/provlabs/navvault/fees"
	"github.com/provlabs/navvault/types"
)

// QueryServer is the read-only surface of the vault.
type QueryServer struct {
	*Keeper
}

// NewQueryServer creates a new QueryServer for the module.
func NewQueryServer(keeper *Keeper) *QueryServer {
	return &QueryServer{Keeper: keeper}
}

// Params returns the module params.
func (k QueryServer) Params(goCtx context.Context, req *types.QueryParamsRequest) (*types.QueryParamsResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "invalid request")
	}
	ctx := sdk.UnwrapSDKContext(goCtx)

	params, err := k.GetParams(ctx)
	if err != nil {
		return nil, status.Error(codes.NotFound, err.Error())
	}
	return &types.QueryParamsResponse{Params: params}, nil
}

// Vault returns the stored vault state together with the derived valuation.
func (k QueryServer) Vault(goCtx context.Context, req *types.QueryVaultRequest) (*types.QueryVaultResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "invalid request")
	}
	ctx := sdk.UnwrapSDKContext(goCtx)

	state, err := k.GetVaultState(ctx)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to get vault state: %v", err)
	}
	v, err := k.valuation(ctx, state)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to value vault: %v", err)
	}
	length, err := k.Keeper.RedemptionQueue.Len(ctx)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to count redemption queue: %v", err)
	}

	return &types.QueryVaultResponse{
		Vault:              state,
		VaultAddress:       types.GetVaultAddress().String(),
		OnchainReserve:     v.OnchainReserve,
		NetAssets:          v.NetAssets,
		TotalShares:        v.TotalShares,
		AvailableLiquidity: v.AvailableLiquidity(),
		PricePerShare:      v.PricePerShare(),
		QueueLength:        length,
	}, nil
}

// PendingRequest returns a single pending request by id.
func (k QueryServer) PendingRequest(goCtx context.Context, req *types.QueryPendingRequestRequest) (*types.QueryPendingRequestResponse, error) {
	if req == nil || req.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "id must be provided")
	}
	ctx := sdk.UnwrapSDKContext(goCtx)

	pending, err := k.Keeper.PendingRequests.Get(ctx, req.ID)
	if errors.Is(err, collections.ErrNotFound) {
		return nil, status.Errorf(codes.NotFound, "request %q is not pending", req.ID)
	}
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &types.QueryPendingRequestResponse{Request: pending}, nil
}

// PendingRequests returns a paginated list of pending requests ordered by id.
func (k QueryServer) PendingRequests(goCtx context.Context, req *types.QueryPendingRequestsRequest) (*types.QueryPendingRequestsResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "invalid request")
	}
	ctx := sdk.UnwrapSDKContext(goCtx)

	requests, pageRes, err := query.CollectionPaginate(
		ctx,
		k.Keeper.PendingRequests,
		req.Pagination,
		func(id string, pending types.PendingRequest) (types.GenesisRequest, error) {
			return types.GenesisRequest{ID: id, Request: pending}, nil
		},
	)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &types.QueryPendingRequestsResponse{Requests: requests, Pagination: pageRes}, nil
}

// RedemptionQueue returns the queue from head to tail, optionally for one holder.
func (k QueryServer) RedemptionQueue(goCtx context.Context, req *types.QueryRedemptionQueueRequest) (*types.QueryRedemptionQueueResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "invalid request")
	}
	ctx := sdk.UnwrapSDKContext(goCtx)

	if req.Holder == "" {
		entries, err := k.GetRedemptionQueue(ctx)
		if err != nil {
			return nil, status.Error(codes.Internal, err.Error())
		}
		return &types.QueryRedemptionQueueResponse{Entries: entries}, nil
	}

	holder, err := sdk.AccAddressFromBech32(req.Holder)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid holder: %v", err)
	}
	entries := []types.GenesisRedemptionEntry{}
	err = k.Keeper.RedemptionQueue.WalkByHolder(ctx, holder, func(id uint64, entry types.RedemptionQueueEntry) (bool, error) {
		entries = append(entries, types.GenesisRedemptionEntry{ID: id, Entry: entry})
		return false, nil
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &types.QueryRedemptionQueueResponse{Entries: entries}, nil
}

// UserEpochInfo returns a holder's flows for an epoch.
func (k QueryServer) UserEpochInfo(goCtx context.Context, req *types.QueryUserEpochInfoRequest) (*types.QueryUserEpochInfoResponse, error) {
	if req == nil || req.Holder == "" {
		return nil, status.Error(codes.InvalidArgument, "holder must be provided")
	}
	ctx := sdk.UnwrapSDKContext(goCtx)

	holder, err := sdk.AccAddressFromBech32(req.Holder)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid holder: %v", err)
	}

	var epoch uint64
	if req.Epoch != nil {
		epoch = *req.Epoch
	} else if epoch, err = k.CurrentEpoch(ctx); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	info, err := k.GetUserEpochInfo(ctx, epoch, holder)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	done, err := k.InitialDeposit.Has(ctx, holder)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &types.QueryUserEpochInfoResponse{Epoch: epoch, Info: info, InitialDepositOK: done}, nil
}

// ShareBalance returns an address's vault share balance.
func (k QueryServer) ShareBalance(goCtx context.Context, req *types.QueryShareBalanceRequest) (*types.QueryShareBalanceResponse, error) {
	if req == nil || req.Address == "" {
		return nil, status.Error(codes.InvalidArgument, "address must be provided")
	}
	ctx := sdk.UnwrapSDKContext(goCtx)

	addr, err := sdk.AccAddressFromBech32(req.Address)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid address: %v", err)
	}
	bal, err := k.Keeper.ShareBalance(ctx, addr)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &types.QueryShareBalanceResponse{Balance: bal}, nil
}

// EstimateDeposit estimates the fee and shares for a deposit of assets at the last reported NAV.
func (k QueryServer) EstimateDeposit(goCtx context.Context, req *types.QueryEstimateDepositRequest) (*types.QueryEstimateDepositResponse, error) {
	if req == nil || !isPositive(req.Assets) {
		return nil, status.Error(codes.InvalidArgument, "assets must be positive")
	}
	ctx := sdk.UnwrapSDKContext(goCtx)

	params, err := k.GetParams(ctx)
	if err != nil {
		return nil, status.Error(codes.NotFound, err.Error())
	}
	fee, err := fees.CalculateTransactionFee(req.Assets, params.TransactionFeeBps, params.MinTxFee)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to calculate transaction fee: %v", err)
	}
	shares, err := k.PreviewDeposit(ctx, req.Assets.Sub(fee))
	if err != nil {
		return nil, status.Errorf(codes.FailedPrecondition, "failed to estimate shares: %v", err)
	}

	return &types.QueryEstimateDepositResponse{
		Fee:    fee,
		Shares: shares,
		Height: ctx.BlockHeight(),
		Time:   ctx.BlockTime().UTC(),
	}, nil
}

// EstimateRedeem estimates the assets for redeeming shares at the last reported NAV.
func (k QueryServer) EstimateRedeem(goCtx context.Context, req *types.QueryEstimateRedeemRequest) (*types.QueryEstimateRedeemResponse, error) {
	if req == nil || !isPositive(req.Shares) {
		return nil, status.Error(codes.InvalidArgument, "shares must be positive")
	}
	ctx := sdk.UnwrapSDKContext(goCtx)

	v, err := k.GetValuation(ctx)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to value vault: %v", err)
	}
	assets, err := v.AssetsForShares(req.Shares)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "failed to estimate assets: %v", err)
	}
	_, paidNow, err := payableRedemption(v, req.Shares)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to estimate payout: %v", err)
	}

	return &types.QueryEstimateRedeemResponse{
		Assets:  assets,
		PaidNow: paidNow,
		Height:  ctx.BlockHeight(),
		Time:    ctx.BlockTime().UTC(),
	}, nil
}
