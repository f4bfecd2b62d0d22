package types

import (
	"context"

	sdkmath "cosmossdk.io/math"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// AssetKeeper is the underlying asset token the vault custodies.
type AssetKeeper interface {
	BalanceOf(ctx context.Context, addr sdk.AccAddress) (sdkmath.Int, error)
	Allowance(ctx context.Context, owner, spender sdk.AccAddress) (sdkmath.Int, error)
	Transfer(ctx context.Context, from, to sdk.AccAddress, amount sdkmath.Int) error
	TransferFrom(ctx context.Context, spender, from, to sdk.AccAddress, amount sdkmath.Int) error
}

// ComplianceKeeper gates share token movements.
// CanTransfer returns a zero code when the transfer is allowed.
type ComplianceKeeper interface {
	CanTransfer(ctx context.Context, from, to sdk.AccAddress, amount sdkmath.Int) (uint8, error)
	MessageForTransferRestriction(code uint8) string
}

// OracleTransport issues request ids for work the oracle will later fulfill.
type OracleTransport interface {
	SubmitRequest(ctx context.Context, kind string, payload []byte) (string, error)
	Acknowledge(ctx context.Context, requestID string) error
}
