package keeper_test

import (
	"encoding/json"
	"time"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/provlabs/navvault/fees"
	"github.com/provlabs/navvault/types"
)

const year = time.Duration(fees.SecondsPerYear) * time.Second

// accrueTwoYears deposits 100k units and runs two yearly epochs at 1% on chain and 2% off chain,
// reporting no NAV for the first year and 50k for the second.
func (s *TestSuite) accrueTwoYears() (types.VaultState, string) {
	s.updateParams(func(p *types.Params) { p.TransactionFeeBps = 0 })
	s.Require().NoError(s.k.SetServiceFeeRates(s.ctx, s.roles.Authority, 100, 200), "SetServiceFeeRates")

	holder := s.newFundedAccount(100_000_000_000)
	s.deposit(holder, 100_000_000_000, 0)

	s.advanceTime(year)
	s.advanceEpoch(0)
	state := s.vaultState()
	s.Require().Equal("1000000000", state.OnchainFeeAccrued.String(), "first year onchain fee")
	s.Require().Equal("0", state.OffchainFeeAccrued.String(), "no offchain fee without nav")

	s.advanceTime(year)
	id, err := s.k.RequestAdvanceEpoch(s.ctx, s.roles.Operator)
	s.Require().NoError(err)
	return s.vaultState(), id
}

func (s *TestSuite) TestKeeper_ServiceFeeAccrual() {
	_, id := s.accrueTwoYears()

	runKeeperTestCase(s, keeperTestCase{
		name: "second epoch accrues both fees",
		run: func() error {
			return s.k.Fulfill(s.ctx, s.roles.Oracle, id, sdkmath.NewInt(50_000_000_000))
		},
		expectedEvents: sdk.Events{
			types.NewEventEpochAdvanced(id, 2, sdkmath.NewInt(50_000_000_000), sdkmath.NewInt(990_000_000), sdkmath.NewInt(1_000_000_000)),
		},
		postCheck: func() {
			state := s.vaultState()
			s.Assert().Equal(uint64(2), state.CurrentEpoch, "epoch")
			s.Assert().Equal("1990000000", state.OnchainFeeAccrued.String(), "onchain fee")
			s.Assert().Equal("1000000000", state.OffchainFeeAccrued.String(), "offchain fee")
			s.Assert().Equal(s.ctx.BlockTime().Unix(), state.LastOnchainAccrual, "accrual clock")
			s.Assert().Equal(s.ctx.BlockTime().Unix(), state.LastEpochTime, "epoch clock")

			net, err := s.k.CombinedNetAssets(s.ctx)
			s.Require().NoError(err)
			s.Assert().Equal("147010000000", net.String(), "reserve + nav - fees")
			liquidity, err := s.k.AvailableLiquidity(s.ctx)
			s.Require().NoError(err)
			s.Assert().Equal("97010000000", liquidity.String(), "liquidity excludes fees")
		},
	})
}

func (s *TestSuite) TestKeeper_ServiceFeeAccrualIsDeterministic() {
	run := func() types.VaultState {
		_, id := s.accrueTwoYears()
		s.Require().NoError(s.k.Fulfill(s.ctx, s.roles.Oracle, id, sdkmath.NewInt(50_000_000_000)))
		return s.vaultState()
	}

	first, err := json.Marshal(run())
	s.Require().NoError(err)
	s.SetupTest()
	second, err := json.Marshal(run())
	s.Require().NoError(err)
	s.Assert().JSONEq(string(first), string(second), "identical histories must yield identical state")
}

func (s *TestSuite) TestKeeper_ZeroElapsedAccruesNothing() {
	s.Require().NoError(s.k.SetServiceFeeRates(s.ctx, s.roles.Authority, 10_000, 10_000))
	holder := s.newFundedAccount(1_000_000)
	s.deposit(holder, 1_000_000, 0)

	state := s.vaultState()
	fee, err := s.k.TestAccessor_accrueOnchainFee(s.T(), s.ctx, &state)
	s.Require().NoError(err)
	s.Assert().True(fee.IsZero(), "no time has passed")

	s.advanceTime(fees.SecondsPerDay * time.Second)
	fee, err = s.k.TestAccessor_accrueOnchainFee(s.T(), s.ctx, &state)
	s.Require().NoError(err)
	// 999_500 at 100% a year for one day.
	s.Assert().Equal("2738", fee.String(), "one day at 100%")
	s.Assert().Equal(s.ctx.BlockTime().Unix(), state.LastOnchainAccrual)
}

func (s *TestSuite) TestKeeper_ClaimServiceFees() {
	s.accrueTwoYearsAndSettle()
	feeReceiver := s.roles.FeeReceiver

	tests := []keeperTestCase{
		{
			name: "claim all onchain fees",
			run: func() error {
				paid, err := s.k.ClaimOnchainServiceFee(s.ctx, s.roles.Operator, types.MaxAmount)
				s.Assert().Equal("1990000000", paid.String(), "paid")
				return err
			},
			expectedEvents: sdk.Events{
				types.NewEventServiceFeeClaimed(types.FeeKindOnchain, feeReceiver.String(), sdkmath.NewInt(1_990_000_000)),
			},
			postCheck: func() {
				s.assertAssetBalance(feeReceiver, sdkmath.NewInt(1_990_000_000))
				s.assertAssetBalance(types.GetVaultAddress(), sdkmath.NewInt(98_010_000_000))
				state := s.vaultState()
				s.Assert().Equal("0", state.OnchainFeeAccrued.String())
				s.Assert().Equal("1000000000", state.OffchainFeeAccrued.String())
			},
		},
		{
			name: "partial offchain claim",
			run: func() error {
				paid, err := s.k.ClaimOffchainServiceFee(s.ctx, s.roles.Operator, sdkmath.NewInt(400_000_000))
				s.Assert().Equal("400000000", paid.String(), "paid")
				return err
			},
			expectedEvents: sdk.Events{
				types.NewEventServiceFeeClaimed(types.FeeKindOffchain, feeReceiver.String(), sdkmath.NewInt(400_000_000)),
			},
			postCheck: func() {
				s.Assert().Equal("600000000", s.vaultState().OffchainFeeAccrued.String())
				s.assertAssetBalance(feeReceiver, sdkmath.NewInt(400_000_000))
			},
		},
		{
			name: "claim capped by the reserve",
			setup: func() {
				state := s.vaultState()
				state.OffchainFeeAccrued = sdkmath.NewInt(500_000_000_000)
				s.Require().NoError(s.k.SetVaultState(s.ctx, state))
			},
			run: func() error {
				paid, err := s.k.ClaimOffchainServiceFee(s.ctx, s.roles.Operator, types.MaxAmount)
				s.Assert().Equal("100000000000", paid.String(), "paid")
				return err
			},
			postCheck: func() {
				s.assertAssetBalance(types.GetVaultAddress(), sdkmath.ZeroInt())
				s.Assert().Equal("400000000000", s.vaultState().OffchainFeeAccrued.String(), "unpaid fee stays accrued")
			},
		},
		{
			name: "nothing accrued pays nothing",
			setup: func() {
				state := s.vaultState()
				state.OnchainFeeAccrued = sdkmath.ZeroInt()
				s.Require().NoError(s.k.SetVaultState(s.ctx, state))
			},
			run: func() error {
				paid, err := s.k.ClaimOnchainServiceFee(s.ctx, s.roles.Operator, types.MaxAmount)
				s.Assert().True(paid.IsZero(), "paid")
				return err
			},
			expectedEvents: sdk.Events{},
		},
		{
			name: "not the operator",
			run: func() error {
				_, err := s.k.ClaimOnchainServiceFee(s.ctx, s.roles.Authority, types.MaxAmount)
				return err
			},
			expectedErrSubstrs: []string{"is not the operator"},
		},
		{
			name: "zero amount",
			run: func() error {
				_, err := s.k.ClaimOffchainServiceFee(s.ctx, s.roles.Operator, sdkmath.ZeroInt())
				return err
			},
			expectedErrSubstrs: []string{"claim amount must be positive"},
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			runKeeperTestCase(s, tc)
		})
	}
}

// accrueTwoYearsAndSettle leaves 1_990_000_000 onchain and 1_000_000_000 offchain fees accrued
// against a reserve of 100_000_000_000.
func (s *TestSuite) accrueTwoYearsAndSettle() {
	_, id := s.accrueTwoYears()
	s.Require().NoError(s.k.Fulfill(s.ctx, s.roles.Oracle, id, sdkmath.NewInt(50_000_000_000)))
}
