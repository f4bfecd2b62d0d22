package keeper_test

import (
	"encoding/json"

	"cosmossdk.io/collections"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/provlabs/navvault/types"
	"github.com/provlabs/navvault/utils"
)

func (s *TestSuite) TestKeeper_RequestDeposit() {
	depositor := s.newFundedAccount(1_000_000)
	beneficiary := utils.TestAddress().Acc()
	unfunded := utils.TestAddress().Acc()
	unapproved := utils.TestAddress().Acc()
	s.Require().NoError(s.simApp.AssetKeeper.Mint(s.ctx, unapproved, sdkmath.NewInt(1_000_000)))

	firstID := s.simApp.OracleTransport.RequestID(0)
	amount := sdkmath.NewInt(250_000)

	tests := []keeperTestCase{
		{
			name: "happy path",
			run: func() error {
				id, err := s.k.RequestDeposit(s.ctx, depositor, amount, nil)
				s.Assert().Equal(firstID, id, "request id")
				return err
			},
			expectedEvents: sdk.Events{
				types.NewEventDepositRequested(firstID, depositor.String(), depositor.String(), amount),
			},
			postCheck: func() {
				req, err := s.k.PendingRequests.Get(s.ctx, firstID)
				s.Require().NoError(err, "pending request should be stored")
				s.Assert().Equal(types.RequestKindDeposit, req.Kind, "kind")
				s.Assert().Equal(depositor.String(), req.Requester, "requester")
				s.Assert().Equal(depositor.String(), req.Receiver, "receiver")
				s.Assert().Equal(amount.String(), req.Amount.String(), "amount")
				s.Assert().Equal(s.ctx.BlockTime().Unix(), req.CreatedAt, "created at")

				info, err := s.k.GetUserEpochInfo(s.ctx, 0, depositor)
				s.Require().NoError(err)
				s.Assert().Equal(amount.String(), info.DepositAmount.String(), "deposit usage recorded at request time")

				outbound, found, err := s.simApp.OracleTransport.Get(s.ctx, firstID)
				s.Require().NoError(err)
				s.Require().True(found, "request should be in the oracle outbox")
				s.Assert().Equal("deposit", outbound.Kind)
				var payload types.PendingRequest
				s.Require().NoError(json.Unmarshal(outbound.Payload, &payload))
				s.Assert().Equal(depositor.String(), payload.Requester)
			},
		},
		{
			name: "on behalf of another receiver",
			run: func() error {
				_, err := s.k.RequestDeposit(s.ctx, depositor, amount, beneficiary)
				return err
			},
			expectedEvents: sdk.Events{
				types.NewEventDepositRequested(firstID, depositor.String(), beneficiary.String(), amount),
			},
			postCheck: func() {
				info, err := s.k.GetUserEpochInfo(s.ctx, 0, beneficiary)
				s.Require().NoError(err)
				s.Assert().Equal(amount.String(), info.DepositAmount.String(), "limits are tracked on the receiver")
				has, err := s.k.UserEpochInfo.Has(s.ctx, collections.Join(uint64(0), depositor))
				s.Require().NoError(err)
				s.Assert().False(has, "payer should not be charged against limits")
			},
		},
		{
			name: "zero amount",
			run: func() error {
				_, err := s.k.RequestDeposit(s.ctx, depositor, sdkmath.ZeroInt(), nil)
				return err
			},
			expectedErrSubstrs: []string{"deposit amount must be positive", "invalid request"},
		},
		{
			name: "below minimum deposit",
			setup: func() {
				s.updateParams(func(p *types.Params) { p.MinDeposit = sdkmath.NewInt(300_000) })
			},
			run: func() error {
				_, err := s.k.RequestDeposit(s.ctx, depositor, amount, nil)
				return err
			},
			expectedErrSubstrs: []string{"minimum deposit is 300000, got 250000", "below minimum"},
		},
		{
			name: "below minimum initial deposit",
			setup: func() {
				s.updateParams(func(p *types.Params) { p.MinInitialDeposit = sdkmath.NewInt(500_000) })
			},
			run: func() error {
				_, err := s.k.RequestDeposit(s.ctx, depositor, amount, nil)
				return err
			},
			expectedErrSubstrs: []string{"minimum initial deposit is 500000, got 250000"},
		},
		{
			name: "initial deposit floor skipped once satisfied",
			setup: func() {
				s.updateParams(func(p *types.Params) { p.MinInitialDeposit = sdkmath.NewInt(500_000) })
				s.Require().NoError(s.k.InitialDeposit.Set(s.ctx, depositor))
			},
			run: func() error {
				_, err := s.k.RequestDeposit(s.ctx, depositor, amount, nil)
				return err
			},
		},
		{
			name: "insufficient balance",
			run: func() error {
				_, err := s.k.RequestDeposit(s.ctx, unfunded, amount, nil)
				return err
			},
			expectedErrSubstrs: []string{"asset balance 0 is below deposit 250000", "insufficient balance"},
		},
		{
			name: "insufficient allowance",
			run: func() error {
				_, err := s.k.RequestDeposit(s.ctx, unapproved, amount, nil)
				return err
			},
			expectedErrSubstrs: []string{"allowance 0 is below deposit 250000", "insufficient allowance"},
		},
		{
			name: "deposit limit exceeded",
			setup: func() {
				s.updateParams(func(p *types.Params) { p.MaxDeposit = sdkmath.NewInt(200_000) })
			},
			run: func() error {
				_, err := s.k.RequestDeposit(s.ctx, depositor, amount, nil)
				return err
			},
			expectedErrSubstrs: []string{"maximum deposit exceeded", "limit exceeded"},
		},
		{
			name: "paused",
			setup: func() {
				s.Require().NoError(s.k.SetPaused(s.ctx, s.roles.Authority, true))
			},
			run: func() error {
				_, err := s.k.RequestDeposit(s.ctx, depositor, amount, nil)
				return err
			},
			expectedErrSubstrs: []string{"vault is paused"},
		},
		{
			name: "receiver not verified in strict mode",
			setup: func() {
				s.Require().NoError(s.simApp.ComplianceKeeper.SetStrictMode(s.ctx, s.roles.Authority, true))
			},
			run: func() error {
				_, err := s.k.RequestDeposit(s.ctx, depositor, amount, nil)
				return err
			},
			expectedErrSubstrs: []string{"receiver has not completed kyc", "transfer restricted"},
			postCheck: func() {
				has, err := s.k.PendingRequests.Has(s.ctx, firstID)
				s.Require().NoError(err)
				s.Assert().False(has, "no request should be stored")
			},
		},
		{
			name: "banned beneficiary is screened before any shares are known",
			setup: func() {
				s.Require().NoError(s.simApp.ComplianceKeeper.Ban(s.ctx, s.roles.Authority, beneficiary))
			},
			run: func() error {
				_, err := s.k.RequestDeposit(s.ctx, depositor, amount, beneficiary)
				return err
			},
			expectedErrSubstrs: []string{"receiver is banned", "transfer restricted"},
			postCheck: func() {
				has, err := s.k.PendingRequests.Has(s.ctx, firstID)
				s.Require().NoError(err)
				s.Assert().False(has, "no request should be stored")
			},
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			runKeeperTestCase(s, tc)
		})
	}
}

func (s *TestSuite) TestKeeper_RequestRedemption() {
	s.updateParams(func(p *types.Params) { p.TransactionFeeBps = 0 })
	owner := s.newFundedAccount(1_000_000)
	s.Require().Equal("1000000", s.deposit(owner, 1_000_000, 0).String(), "first deposit mints one to one")

	receiver := utils.TestAddress().Acc()
	stranger := utils.TestAddress().Acc()
	redemptionID := s.simApp.OracleTransport.RequestID(1)
	shares := sdkmath.NewInt(400_000)

	tests := []keeperTestCase{
		{
			name: "happy path",
			run: func() error {
				_, err := s.k.RequestRedemption(s.ctx, owner, shares, owner, receiver)
				return err
			},
			expectedEvents: sdk.Events{
				types.NewEventRedemptionRequested(redemptionID, owner.String(), receiver.String(), shares),
			},
			postCheck: func() {
				req, err := s.k.PendingRequests.Get(s.ctx, redemptionID)
				s.Require().NoError(err)
				s.Assert().Equal(types.RequestKindRedemption, req.Kind)
				s.Assert().Equal(receiver.String(), req.Receiver)

				info, err := s.k.GetUserEpochInfo(s.ctx, 0, owner)
				s.Require().NoError(err)
				s.Assert().Equal("400000", info.WithdrawAmount.String(), "withdraw usage is the asset value")
				s.assertShareBalance(owner, sdkmath.NewInt(1_000_000))
			},
		},
		{
			name: "receiver defaults to owner",
			run: func() error {
				_, err := s.k.RequestRedemption(s.ctx, owner, shares, owner, nil)
				return err
			},
			expectedEvents: sdk.Events{
				types.NewEventRedemptionRequested(redemptionID, owner.String(), owner.String(), shares),
			},
		},
		{
			name: "caller is not the owner",
			run: func() error {
				_, err := s.k.RequestRedemption(s.ctx, stranger, shares, owner, nil)
				return err
			},
			expectedErrSubstrs: []string{"is not the share owner", "unauthorized"},
		},
		{
			name: "more shares than held",
			run: func() error {
				_, err := s.k.RequestRedemption(s.ctx, owner, sdkmath.NewInt(1_000_001), owner, nil)
				return err
			},
			expectedErrSubstrs: []string{"share balance 1000000 is below 1000001"},
		},
		{
			name: "zero shares",
			run: func() error {
				_, err := s.k.RequestRedemption(s.ctx, owner, sdkmath.ZeroInt(), owner, nil)
				return err
			},
			expectedErrSubstrs: []string{"redemption shares must be positive"},
		},
		{
			name: "below minimum withdraw",
			setup: func() {
				s.updateParams(func(p *types.Params) { p.MinWithdraw = sdkmath.NewInt(500_000) })
			},
			run: func() error {
				_, err := s.k.RequestRedemption(s.ctx, owner, shares, owner, nil)
				return err
			},
			expectedErrSubstrs: []string{"minimum withdraw is 500000, shares are worth 400000"},
		},
		{
			name: "same epoch deposit offsets the withdraw cap",
			setup: func() {
				s.updateParams(func(p *types.Params) { p.MaxWithdraw = sdkmath.NewInt(300_000) })
			},
			run: func() error {
				_, err := s.k.RequestRedemption(s.ctx, owner, shares, owner, nil)
				return err
			},
			postCheck: func() {
				info, err := s.k.GetUserEpochInfo(s.ctx, 0, owner)
				s.Require().NoError(err)
				s.Assert().Equal("-600000", info.NetWithdrawn().String(), "net withdrawal after the deposit")
			},
		},
		{
			name: "withdraw limit exceeded",
			setup: func() {
				s.advanceEpoch(0)
				s.updateParams(func(p *types.Params) { p.MaxWithdraw = sdkmath.NewInt(300_000) })
			},
			run: func() error {
				_, err := s.k.RequestRedemption(s.ctx, owner, shares, owner, nil)
				return err
			},
			expectedErrSubstrs: []string{"maximum withdraw exceeded"},
		},
		{
			name: "paused",
			setup: func() {
				s.Require().NoError(s.k.SetPaused(s.ctx, s.roles.Authority, true))
			},
			run: func() error {
				_, err := s.k.RequestRedemption(s.ctx, owner, shares, owner, nil)
				return err
			},
			expectedErrSubstrs: []string{"vault is paused"},
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			runKeeperTestCase(s, tc)
		})
	}
}

func (s *TestSuite) TestKeeper_RequestOperatorActions() {
	id := s.simApp.OracleTransport.RequestID(0)

	tests := []keeperTestCase{
		{
			name: "advance epoch",
			run: func() error {
				_, err := s.k.RequestAdvanceEpoch(s.ctx, s.roles.Operator)
				return err
			},
			expectedEvents: sdk.Events{
				types.NewEventEpochAdvanceRequested(id, s.roles.Operator.String(), 0),
			},
			postCheck: func() {
				req, err := s.k.PendingRequests.Get(s.ctx, id)
				s.Require().NoError(err)
				s.Assert().Equal(types.RequestKindEpochAdvance, req.Kind)
			},
		},
		{
			name: "advance epoch by non operator",
			run: func() error {
				_, err := s.k.RequestAdvanceEpoch(s.ctx, s.roles.Oracle)
				return err
			},
			expectedErrSubstrs: []string{"is not the operator", "unauthorized"},
		},
		{
			name: "drain empty queue",
			run: func() error {
				_, err := s.k.RequestRedemptionQueueDrain(s.ctx, s.roles.Operator)
				return err
			},
			expectedErrSubstrs: []string{"redemption queue is empty"},
		},
		{
			name: "drain by non operator",
			run: func() error {
				_, err := s.k.RequestRedemptionQueueDrain(s.ctx, s.roles.Authority)
				return err
			},
			expectedErrSubstrs: []string{"is not the operator"},
		},
		{
			name: "drain with a queued entry",
			setup: func() {
				_, err := s.k.RedemptionQueue.Enqueue(s.ctx, types.RedemptionQueueEntry{
					Holder: s.roles.Treasury.String(),
					Owner:  s.roles.Treasury.String(),
					Shares: sdkmath.NewInt(10),
				})
				s.Require().NoError(err)
			},
			run: func() error {
				_, err := s.k.RequestRedemptionQueueDrain(s.ctx, s.roles.Operator)
				return err
			},
			expectedEvents: sdk.Events{
				types.NewEventRedemptionQueueDrainRequested(id, s.roles.Operator.String()),
			},
		},
		{
			name: "advance epoch while paused",
			setup: func() {
				s.Require().NoError(s.k.SetPaused(s.ctx, s.roles.Authority, true))
			},
			run: func() error {
				_, err := s.k.RequestAdvanceEpoch(s.ctx, s.roles.Operator)
				return err
			},
			expectedErrSubstrs: []string{"vault is paused"},
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			runKeeperTestCase(s, tc)
		})
	}
}
