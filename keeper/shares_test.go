package keeper_test

import (
	sdkmath "cosmossdk.io/math"

	"github.com/provlabs/navvault/utils"
)

func (s *TestSuite) TestKeeper_TransferShares() {
	holder := s.newFundedAccount(10_000)
	s.deposit(holder, 10_000, 0)
	// 9_995 shares after the 5 bps fee.
	friend := utils.TestAddress().Acc()
	authority := s.roles.Authority

	tests := []keeperTestCase{
		{
			name: "plain transfer",
			run: func() error {
				return s.k.TransferShares(s.ctx, holder, friend, sdkmath.NewInt(995))
			},
			postCheck: func() {
				s.assertShareBalance(holder, sdkmath.NewInt(9_000))
				s.assertShareBalance(friend, sdkmath.NewInt(995))
			},
		},
		{
			name: "more than the balance",
			run: func() error {
				return s.k.TransferShares(s.ctx, holder, friend, sdkmath.NewInt(9_996))
			},
			expectedErrSubstrs: []string{"share balance 9995 is below 9996"},
		},
		{
			name: "banned receiver",
			setup: func() {
				s.Require().NoError(s.simApp.ComplianceKeeper.Ban(s.ctx, authority, friend))
			},
			run: func() error {
				return s.k.TransferShares(s.ctx, holder, friend, sdkmath.NewInt(1))
			},
			expectedErrSubstrs: []string{"receiver is banned", "transfer restricted"},
			postCheck: func() {
				s.assertShareBalance(holder, sdkmath.NewInt(9_995))
			},
		},
		{
			name: "banned sender",
			setup: func() {
				s.Require().NoError(s.simApp.ComplianceKeeper.Ban(s.ctx, authority, holder))
			},
			run: func() error {
				return s.k.TransferShares(s.ctx, holder, friend, sdkmath.NewInt(1))
			},
			expectedErrSubstrs: []string{"sender is banned"},
		},
		{
			name: "strict mode needs kyc on both sides",
			setup: func() {
				s.Require().NoError(s.simApp.ComplianceKeeper.SetStrictMode(s.ctx, authority, true))
				s.Require().NoError(s.simApp.ComplianceKeeper.GrantKyc(s.ctx, authority, holder))
			},
			run: func() error {
				return s.k.TransferShares(s.ctx, holder, friend, sdkmath.NewInt(1))
			},
			expectedErrSubstrs: []string{"receiver has not completed kyc"},
		},
		{
			name: "strict mode with kyc",
			setup: func() {
				s.Require().NoError(s.simApp.ComplianceKeeper.SetStrictMode(s.ctx, authority, true))
				s.Require().NoError(s.simApp.ComplianceKeeper.GrantKyc(s.ctx, authority, holder))
				s.Require().NoError(s.simApp.ComplianceKeeper.GrantKyc(s.ctx, authority, friend))
			},
			run: func() error {
				return s.k.TransferShares(s.ctx, holder, friend, sdkmath.NewInt(5))
			},
			postCheck: func() {
				s.assertShareBalance(friend, sdkmath.NewInt(5))
			},
		},
		{
			name: "zero amount",
			run: func() error {
				return s.k.TransferShares(s.ctx, holder, friend, sdkmath.ZeroInt())
			},
			expectedErrSubstrs: []string{"share amount must be positive"},
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			runKeeperTestCase(s, tc)
		})
	}
}
