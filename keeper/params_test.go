package keeper_test

import (
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/provlabs/navvault/types"
)

func (s *TestSuite) TestKeeper_ParamSetters() {
	authority := s.roles.Authority.String()
	params := func() types.Params {
		p, err := s.k.GetParams(s.ctx)
		s.Require().NoError(err)
		return p
	}

	tests := []keeperTestCase{
		{
			name: "set max deposit",
			run: func() error {
				return s.k.SetMaxDeposit(s.ctx, s.roles.Authority, sdkmath.NewInt(5_000))
			},
			expectedEvents: sdk.Events{types.NewEventParamsUpdated(authority, "max_deposit")},
			postCheck: func() {
				s.Assert().Equal("5000", params().MaxDeposit.String())
			},
		},
		{
			name: "set max withdraw",
			run: func() error {
				return s.k.SetMaxWithdraw(s.ctx, s.roles.Authority, sdkmath.NewInt(7_000))
			},
			expectedEvents: sdk.Events{types.NewEventParamsUpdated(authority, "max_withdraw")},
			postCheck: func() {
				s.Assert().Equal("7000", params().MaxWithdraw.String())
			},
		},
		{
			name: "set minimums",
			run: func() error {
				return s.k.SetMinimums(s.ctx, s.roles.Authority, sdkmath.NewInt(10), sdkmath.NewInt(100), sdkmath.NewInt(5))
			},
			expectedEvents: sdk.Events{types.NewEventParamsUpdated(authority, "minimums")},
			postCheck: func() {
				p := params()
				s.Assert().Equal("10", p.MinDeposit.String())
				s.Assert().Equal("100", p.MinInitialDeposit.String())
				s.Assert().Equal("5", p.MinWithdraw.String())
			},
		},
		{
			name: "set transaction fee",
			run: func() error {
				return s.k.SetTransactionFee(s.ctx, s.roles.Authority, 30, sdkmath.NewInt(2))
			},
			expectedEvents: sdk.Events{types.NewEventParamsUpdated(authority, "transaction_fee")},
			postCheck: func() {
				p := params()
				s.Assert().Equal(uint32(30), p.TransactionFeeBps)
				s.Assert().Equal("2", p.MinTxFee.String())
			},
		},
		{
			name: "set service fee rates",
			run: func() error {
				return s.k.SetServiceFeeRates(s.ctx, s.roles.Authority, 50, 75)
			},
			expectedEvents: sdk.Events{types.NewEventParamsUpdated(authority, "service_fee_rates")},
			postCheck: func() {
				p := params()
				s.Assert().Equal(uint32(50), p.OnchainServiceFeeBps)
				s.Assert().Equal(uint32(75), p.OffchainServiceFeeBps)
			},
		},
		{
			name: "transaction fee above 100%",
			run: func() error {
				return s.k.SetTransactionFee(s.ctx, s.roles.Authority, 10_001, sdkmath.ZeroInt())
			},
			expectedErrSubstrs: []string{"transaction fee 10001 bps exceeds 10000"},
			postCheck: func() {
				s.Assert().Equal(uint32(5), params().TransactionFeeBps, "params unchanged")
			},
		},
		{
			name: "negative minimum",
			run: func() error {
				return s.k.SetMinimums(s.ctx, s.roles.Authority, sdkmath.NewInt(-1), sdkmath.ZeroInt(), sdkmath.ZeroInt())
			},
			expectedErrSubstrs: []string{"min deposit cannot be negative"},
		},
		{
			name: "operator cannot change params",
			run: func() error {
				return s.k.SetMaxDeposit(s.ctx, s.roles.Operator, sdkmath.NewInt(1))
			},
			expectedErrSubstrs: []string{"is not the authority", "unauthorized"},
		},
		{
			name: "replace params wholesale",
			run: func() error {
				p := s.roles.Params()
				p.Operator = s.roles.Treasury.String()
				return s.k.UpdateParams(s.ctx, s.roles.Authority, p)
			},
			expectedEvents: sdk.Events{types.NewEventParamsUpdated(authority, "params")},
			postCheck: func() {
				s.Assert().Equal(s.roles.Treasury.String(), params().Operator, "new operator")
				_, err := s.k.RequestAdvanceEpoch(s.ctx, s.roles.Operator)
				s.Assert().ErrorContains(err, "is not the operator", "old operator lost its role")
			},
		},
		{
			name: "params with an invalid role",
			run: func() error {
				p := s.roles.Params()
				p.Oracle = "nope"
				return s.k.UpdateParams(s.ctx, s.roles.Authority, p)
			},
			expectedErrSubstrs: []string{"invalid oracle address"},
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			runKeeperTestCase(s, tc)
		})
	}
}

func (s *TestSuite) TestKeeper_RateChangeAccruesAtOldRate() {
	s.Require().NoError(s.k.SetServiceFeeRates(s.ctx, s.roles.Authority, 100, 0))
	s.updateParams(func(p *types.Params) { p.TransactionFeeBps = 0 })
	holder := s.newFundedAccount(100_000_000_000)
	s.deposit(holder, 100_000_000_000, 0)

	s.advanceTime(year)
	s.Require().NoError(s.k.SetServiceFeeRates(s.ctx, s.roles.Authority, 1_000, 0))
	state := s.vaultState()
	s.Assert().Equal("1000000000", state.OnchainFeeAccrued.String(), "year accrued at 1%")
	s.Assert().Equal(s.ctx.BlockTime().Unix(), state.LastOnchainAccrual, "clock moved at the change")

	s.advanceTime(year)
	s.advanceEpoch(0)
	// The second year runs at 10% on 100e9 - 1e9.
	s.Assert().Equal("10900000000", s.vaultState().OnchainFeeAccrued.String(), "second year at 10%")
}

func (s *TestSuite) TestKeeper_SetPaused() {
	depositor := s.newFundedAccount(1_000)

	runKeeperTestCase(s, keeperTestCase{
		name: "pause",
		run: func() error {
			return s.k.SetPaused(s.ctx, s.roles.Authority, true)
		},
		expectedEvents: sdk.Events{types.NewEventVaultPaused(s.roles.Authority.String(), true)},
		postCheck: func() {
			s.Assert().True(s.vaultState().Paused)
			_, err := s.k.RequestDeposit(s.ctx, depositor, sdkmath.NewInt(1_000), nil)
			s.Assert().ErrorContains(err, "vault is paused")

			s.Require().NoError(s.k.SetPaused(s.ctx, s.roles.Authority, false))
			_, err = s.k.RequestDeposit(s.ctx, depositor, sdkmath.NewInt(1_000), nil)
			s.Assert().NoError(err, "requests resume after unpausing")
		},
	})

	runKeeperTestCase(s, keeperTestCase{
		name: "only the authority pauses",
		run: func() error {
			return s.k.SetPaused(s.ctx, s.roles.Operator, true)
		},
		expectedErrSubstrs: []string{"is not the authority"},
		postCheck: func() {
			s.Assert().False(s.vaultState().Paused)
		},
	})
}
