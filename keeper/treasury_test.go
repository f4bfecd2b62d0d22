package keeper_test

import (
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/provlabs/navvault/types"
)

func (s *TestSuite) TestKeeper_TransferToTreasury() {
	s.updateParams(func(p *types.Params) { p.TransactionFeeBps = 0 })
	holder := s.newFundedAccount(10_000)
	s.deposit(holder, 10_000, 0)

	tests := []keeperTestCase{
		{
			name: "move liquidity off chain",
			run: func() error {
				return s.k.TransferToTreasury(s.ctx, s.roles.Operator, sdkmath.NewInt(6_000))
			},
			expectedEvents: sdk.Events{types.NewEventTransferToTreasury(s.roles.Treasury.String(), sdkmath.NewInt(6_000))},
			postCheck: func() {
				s.assertAssetBalance(types.GetVaultAddress(), sdkmath.NewInt(4_000))
				s.assertAssetBalance(s.roles.Treasury, sdkmath.NewInt(6_000))
			},
		},
		{
			name: "accrued fees stay on chain",
			setup: func() {
				state := s.vaultState()
				state.OnchainFeeAccrued = sdkmath.NewInt(2_500)
				s.Require().NoError(s.k.SetVaultState(s.ctx, state))
			},
			run: func() error {
				return s.k.TransferToTreasury(s.ctx, s.roles.Operator, sdkmath.NewInt(7_501))
			},
			expectedErrSubstrs: []string{"available liquidity 7500 is below 7501"},
		},
		{
			name: "everything available",
			run: func() error {
				return s.k.TransferToTreasury(s.ctx, s.roles.Operator, sdkmath.NewInt(10_000))
			},
			postCheck: func() {
				s.assertAssetBalance(types.GetVaultAddress(), sdkmath.ZeroInt())
			},
		},
		{
			name: "not the operator",
			run: func() error {
				return s.k.TransferToTreasury(s.ctx, holder, sdkmath.NewInt(1))
			},
			expectedErrSubstrs: []string{"is not the operator"},
		},
		{
			name: "zero amount",
			run: func() error {
				return s.k.TransferToTreasury(s.ctx, s.roles.Operator, sdkmath.ZeroInt())
			},
			expectedErrSubstrs: []string{"amount must be positive"},
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			runKeeperTestCase(s, tc)
		})
	}
}
