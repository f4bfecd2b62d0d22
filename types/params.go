package types

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// BasisPoints is the denominator for all bps denominated rates.
const BasisPoints = 10_000

// Params holds the operator controlled configuration of the vault.
type Params struct {
	// Authority may update params and roles.
	Authority string `json:"authority"`
	// Operator may advance epochs, drain the queue, claim fees and move liquidity to the treasury.
	Operator string `json:"operator"`
	// Oracle is the only address allowed to fulfill pending requests.
	Oracle string `json:"oracle"`
	// FeeReceiver receives claimed service fees.
	FeeReceiver string `json:"fee_receiver"`
	// Treasury receives instant transaction fees and liquidity moved off chain.
	Treasury string `json:"treasury"`

	// MaxDeposit is the per holder, per epoch net deposit cap. Zero disables the cap.
	MaxDeposit sdkmath.Int `json:"max_deposit"`
	// MaxWithdraw is the per holder, per epoch net withdrawal cap. Zero disables the cap.
	MaxWithdraw sdkmath.Int `json:"max_withdraw"`

	MinDeposit        sdkmath.Int `json:"min_deposit"`
	MinInitialDeposit sdkmath.Int `json:"min_initial_deposit"`
	MinWithdraw       sdkmath.Int `json:"min_withdraw"`

	// TransactionFeeBps is the instant fee charged on deposits.
	TransactionFeeBps uint32 `json:"transaction_fee_bps"`
	// MinTxFee is the lower bound of the instant fee.
	MinTxFee sdkmath.Int `json:"min_tx_fee"`

	// OnchainServiceFeeBps is the annualised fee rate on on-chain reserves.
	OnchainServiceFeeBps uint32 `json:"onchain_service_fee_bps"`
	// OffchainServiceFeeBps is the annualised fee rate on the reported off-chain NAV.
	OffchainServiceFeeBps uint32 `json:"offchain_service_fee_bps"`
}

// DefaultParams returns params with every floor and cap disabled and a 5 bps instant fee.
// Role addresses are left empty and must be set at genesis.
func DefaultParams() Params {
	return Params{
		MaxDeposit:        sdkmath.ZeroInt(),
		MaxWithdraw:       sdkmath.ZeroInt(),
		MinDeposit:        sdkmath.ZeroInt(),
		MinInitialDeposit: sdkmath.ZeroInt(),
		MinWithdraw:       sdkmath.ZeroInt(),
		TransactionFeeBps: 5,
		MinTxFee:          sdkmath.ZeroInt(),
	}
}

// Validate performs basic validation on the params.
func (p Params) Validate() error {
	roles := []struct {
		name string
		addr string
	}{
		{"authority", p.Authority},
		{"operator", p.Operator},
		{"oracle", p.Oracle},
		{"fee receiver", p.FeeReceiver},
		{"treasury", p.Treasury},
	}
	for _, r := range roles {
		if _, err := sdk.AccAddressFromBech32(r.addr); err != nil {
			return fmt.Errorf("invalid %s address %q: %w", r.name, r.addr, err)
		}
	}

	amounts := []struct {
		name string
		amt  sdkmath.Int
	}{
		{"max deposit", p.MaxDeposit},
		{"max withdraw", p.MaxWithdraw},
		{"min deposit", p.MinDeposit},
		{"min initial deposit", p.MinInitialDeposit},
		{"min withdraw", p.MinWithdraw},
		{"min tx fee", p.MinTxFee},
	}
	for _, a := range amounts {
		if a.amt.IsNil() {
			return fmt.Errorf("%s must be set", a.name)
		}
		if a.amt.IsNegative() {
			return fmt.Errorf("%s cannot be negative: %s", a.name, a.amt)
		}
	}

	if p.TransactionFeeBps > BasisPoints {
		return fmt.Errorf("transaction fee %d bps exceeds %d", p.TransactionFeeBps, BasisPoints)
	}
	if p.OnchainServiceFeeBps > BasisPoints {
		return fmt.Errorf("onchain service fee %d bps exceeds %d", p.OnchainServiceFeeBps, BasisPoints)
	}
	if p.OffchainServiceFeeBps > BasisPoints {
		return fmt.Errorf("offchain service fee %d bps exceeds %d", p.OffchainServiceFeeBps, BasisPoints)
	}
	return nil
}
