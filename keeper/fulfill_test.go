package keeper_test

import (
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/provlabs/navvault/simapp"
	"github.com/provlabs/navvault/types"
	"github.com/provlabs/navvault/utils"
)

func (s *TestSuite) TestKeeper_Fulfill_FirstDeposit() {
	depositor := s.newFundedAccount(100_000_000_000)
	id := s.simApp.OracleTransport.RequestID(0)
	amount := sdkmath.NewInt(100_000_000_000)
	fee := sdkmath.NewInt(50_000_000)
	shares := sdkmath.NewInt(99_950_000_000)

	runKeeperTestCase(s, keeperTestCase{
		name: "first deposit at 5 bps",
		setup: func() {
			_, err := s.k.RequestDeposit(s.ctx, depositor, amount, nil)
			s.Require().NoError(err, "RequestDeposit")
		},
		run: func() error {
			return s.k.Fulfill(s.ctx, s.roles.Oracle, id, sdkmath.ZeroInt())
		},
		expectedEvents: sdk.Events{
			types.NewEventTransferToTreasury(s.roles.Treasury.String(), fee),
			types.NewEventDepositFulfilled(id, depositor.String(), amount, fee, shares),
		},
		postCheck: func() {
			s.assertShareBalance(depositor, shares)
			s.assertAssetBalance(depositor, sdkmath.ZeroInt())
			s.assertAssetBalance(types.GetVaultAddress(), shares)
			s.assertAssetBalance(s.roles.Treasury, fee)

			net, err := s.k.CombinedNetAssets(s.ctx)
			s.Require().NoError(err)
			s.Assert().Equal(shares.String(), net.String(), "net assets")
			total, err := s.k.TotalShares(s.ctx)
			s.Require().NoError(err)
			s.Assert().Equal(shares.String(), total.String(), "total shares")
			price, err := s.k.PricePerShare(s.ctx)
			s.Require().NoError(err)
			s.Assert().True(price.Equal(sdkmath.LegacyOneDec()), "price per share %s", price)

			s.assertPending(id, false)
			done, err := s.k.FulfilledRequests.Has(s.ctx, id)
			s.Require().NoError(err)
			s.Assert().True(done, "request id should be consumed")
			initial, err := s.k.InitialDeposit.Has(s.ctx, depositor)
			s.Require().NoError(err)
			s.Assert().True(initial, "initial deposit should be marked")
			_, found, err := s.simApp.OracleTransport.Get(s.ctx, id)
			s.Require().NoError(err)
			s.Assert().False(found, "oracle outbox entry should be acknowledged")
		},
	})
}

func (s *TestSuite) TestKeeper_Fulfill_DepositRevalidation() {
	amount := sdkmath.NewInt(100_000_000_000)
	id := s.simApp.OracleTransport.RequestID(0)
	elsewhere := utils.TestAddress().Acc()

	tests := []struct {
		name       string
		drain      func(depositor sdk.AccAddress)
		errSubstrs []string
	}{
		{
			name: "balance moved away after request",
			drain: func(depositor sdk.AccAddress) {
				s.Require().NoError(s.simApp.AssetKeeper.Transfer(s.ctx, depositor, elsewhere, sdkmath.OneInt()))
			},
			errSubstrs: []string{"asset balance 99999999999 is below deposit 100000000000"},
		},
		{
			name: "allowance lowered after request",
			drain: func(depositor sdk.AccAddress) {
				s.Require().NoError(s.simApp.AssetKeeper.Approve(s.ctx, depositor, types.GetVaultAddress(), sdkmath.NewInt(99_999_999_999)))
			},
			errSubstrs: []string{"allowance 99999999999 is below deposit 100000000000"},
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			s.SetupTest()
			depositor := s.newFundedAccount(100_000_000_000)
			_, err := s.k.RequestDeposit(s.ctx, depositor, amount, nil)
			s.Require().NoError(err, "RequestDeposit")
			tc.drain(depositor)

			err = s.k.Fulfill(s.ctx, s.roles.Oracle, id, sdkmath.ZeroInt())
			s.Require().Error(err, "fulfill should revert")
			for _, substr := range tc.errSubstrs {
				s.Assert().Contains(err.Error(), substr)
			}

			s.assertPending(id, true)
			s.assertShareBalance(depositor, sdkmath.ZeroInt())
			s.assertAssetBalance(types.GetVaultAddress(), sdkmath.ZeroInt())
			done, err := s.k.FulfilledRequests.Has(s.ctx, id)
			s.Require().NoError(err)
			s.Assert().False(done, "reverted request must not be consumed")
			s.Assert().Equal("0", s.vaultState().LatestOffchainNAV.String(), "reported nav must not be recorded")

			// Restore the funds and the same request settles.
			s.Require().NoError(simapp.FundAndApprove(s.ctx, s.simApp, depositor, sdkmath.OneInt()))
			s.Require().NoError(s.simApp.AssetKeeper.Approve(s.ctx, depositor, types.GetVaultAddress(), amount))
			s.Require().NoError(s.k.Fulfill(s.ctx, s.roles.Oracle, id, sdkmath.ZeroInt()), "retry should succeed")
			s.assertShareBalance(depositor, sdkmath.NewInt(99_950_000_000))
			s.assertPending(id, false)
		})
	}
}

func (s *TestSuite) TestKeeper_Fulfill_Guards() {
	depositor := s.newFundedAccount(1_000_000)
	id, err := s.k.RequestDeposit(s.ctx, depositor, sdkmath.NewInt(1_000_000), nil)
	s.Require().NoError(err)

	tests := []keeperTestCase{
		{
			name: "caller is not the oracle",
			run: func() error {
				return s.k.Fulfill(s.ctx, s.roles.Operator, id, sdkmath.ZeroInt())
			},
			expectedErrSubstrs: []string{"is not the oracle", "unauthorized"},
		},
		{
			name: "negative nav",
			run: func() error {
				return s.k.Fulfill(s.ctx, s.roles.Oracle, id, sdkmath.NewInt(-1))
			},
			expectedErrSubstrs: []string{"reported nav must be non-negative"},
		},
		{
			name: "unknown request",
			run: func() error {
				return s.k.Fulfill(s.ctx, s.roles.Oracle, "deadbeef", sdkmath.ZeroInt())
			},
			expectedErrSubstrs: []string{"request deadbeef is not pending", "unknown request"},
		},
		{
			name: "second fulfillment",
			setup: func() {
				s.Require().NoError(s.k.Fulfill(s.ctx, s.roles.Oracle, id, sdkmath.ZeroInt()))
			},
			run: func() error {
				return s.k.Fulfill(s.ctx, s.roles.Oracle, id, sdkmath.ZeroInt())
			},
			expectedErrSubstrs: []string{"was already fulfilled", "unknown request"},
			postCheck: func() {
				s.assertShareBalance(depositor, sdkmath.NewInt(999_500))
			},
		},
		{
			name: "paused",
			setup: func() {
				s.Require().NoError(s.k.SetPaused(s.ctx, s.roles.Authority, true))
			},
			run: func() error {
				return s.k.Fulfill(s.ctx, s.roles.Oracle, id, sdkmath.ZeroInt())
			},
			expectedErrSubstrs: []string{"vault is paused"},
			postCheck: func() {
				s.assertPending(id, true)
			},
		},
		{
			name: "receiver banned before fulfillment",
			setup: func() {
				s.Require().NoError(s.simApp.ComplianceKeeper.Ban(s.ctx, s.roles.Authority, depositor))
			},
			run: func() error {
				return s.k.Fulfill(s.ctx, s.roles.Oracle, id, sdkmath.ZeroInt())
			},
			expectedErrSubstrs: []string{"receiver is banned", "transfer restricted"},
			postCheck: func() {
				s.assertPending(id, true)
				s.assertAssetBalance(depositor, sdkmath.NewInt(1_000_000))
				s.assertAssetBalance(s.roles.Treasury, sdkmath.ZeroInt())
			},
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			runKeeperTestCase(s, tc)
		})
	}
}

func (s *TestSuite) TestKeeper_Fulfill_SplitRedemptionAndDrain() {
	s.updateParams(func(p *types.Params) { p.TransactionFeeBps = 0 })
	vault := types.GetVaultAddress()

	holder := s.newFundedAccount(100_000_000_000)
	shares := s.deposit(holder, 100_000_000_000, 0)
	s.Require().Equal("100000000000", shares.String())

	// Most of the reserve goes off chain and comes back as NAV.
	s.Require().NoError(s.k.TransferToTreasury(s.ctx, s.roles.Operator, sdkmath.NewInt(60_000_000_000)))
	s.advanceEpoch(60_000_000_000)

	id, err := s.k.RequestRedemption(s.ctx, holder, shares, holder, nil)
	s.Require().NoError(err)

	runKeeperTestCase(s, keeperTestCase{
		name: "redemption larger than liquidity is split",
		run: func() error {
			return s.k.Fulfill(s.ctx, s.roles.Oracle, id, sdkmath.NewInt(60_000_000_000))
		},
		expectedEvents: sdk.Events{
			types.NewEventRedemptionQueued(0, holder.String(), sdkmath.NewInt(60_000_000_000)),
			types.NewEventRedemptionFulfilled(id, holder.String(), holder.String(), shares,
				sdkmath.NewInt(40_000_000_000), sdkmath.NewInt(60_000_000_000)),
		},
	})

	// Apply for real and drain once the treasury returns the funds.
	s.Require().NoError(s.k.Fulfill(s.ctx, s.roles.Oracle, id, sdkmath.NewInt(60_000_000_000)))
	s.Assert().Equal(uint64(1), s.queueLength(), "queue length after split")
	s.Assert().Equal("60000000000", s.vaultState().QueuedShares.String(), "queued shares")
	s.assertShareBalance(holder, sdkmath.ZeroInt())
	s.assertAssetBalance(holder, sdkmath.NewInt(40_000_000_000))
	total, err := s.k.TotalShares(s.ctx)
	s.Require().NoError(err)
	s.Assert().Equal("60000000000", total.String(), "queued shares still count as outstanding")

	s.Require().NoError(simapp.FundAccount(s.ctx, s.simApp, vault, sdkmath.NewInt(60_000_000_000)))
	drainID, err := s.k.RequestRedemptionQueueDrain(s.ctx, s.roles.Operator)
	s.Require().NoError(err)

	runKeeperTestCase(s, keeperTestCase{
		name: "drain pays the queued remainder",
		run: func() error {
			return s.k.Fulfill(s.ctx, s.roles.Oracle, drainID, sdkmath.ZeroInt())
		},
		expectedEvents: sdk.Events{
			types.NewEventRedemptionQueuePaid(0, holder.String(), sdkmath.NewInt(60_000_000_000), sdkmath.NewInt(60_000_000_000), sdkmath.ZeroInt()),
		},
		postCheck: func() {
			s.Assert().Equal(uint64(0), s.queueLength(), "queue length after drain")
			s.Assert().Equal("0", s.vaultState().QueuedShares.String())
			s.assertAssetBalance(holder, sdkmath.NewInt(100_000_000_000))
			s.assertAssetBalance(vault, sdkmath.ZeroInt())
		},
	})
}

func (s *TestSuite) TestKeeper_Fulfill_DrainIsFIFO() {
	s.updateParams(func(p *types.Params) { p.TransactionFeeBps = 0 })
	vault := types.GetVaultAddress()

	first := s.newFundedAccount(100_000_000_000)
	second := s.newFundedAccount(100_000_000_000)
	firstShares := s.deposit(first, 100_000_000_000, 0)
	secondShares := s.deposit(second, 100_000_000_000, 0)
	s.Require().Equal(firstShares.String(), secondShares.String(), "same price for both depositors")

	s.Require().NoError(s.k.TransferToTreasury(s.ctx, s.roles.Operator, sdkmath.NewInt(200_000_000_000)))
	s.advanceEpoch(200_000_000_000)

	s.redeem(first, firstShares, 200_000_000_000)
	s.redeem(second, secondShares, 200_000_000_000)
	s.Require().Equal(uint64(2), s.queueLength())
	s.assertAssetBalance(first, sdkmath.ZeroInt())
	s.assertAssetBalance(second, sdkmath.ZeroInt())

	s.Require().NoError(simapp.FundAccount(s.ctx, s.simApp, vault, sdkmath.NewInt(150_000_000_000)))
	drainID, err := s.k.RequestRedemptionQueueDrain(s.ctx, s.roles.Operator)
	s.Require().NoError(err)

	runKeeperTestCase(s, keeperTestCase{
		name: "head is paid in full before the next entry",
		run: func() error {
			return s.k.Fulfill(s.ctx, s.roles.Oracle, drainID, sdkmath.NewInt(50_000_000_000))
		},
		expectedEvents: sdk.Events{
			types.NewEventRedemptionQueuePaid(0, first.String(), sdkmath.NewInt(100_000_000_000), sdkmath.NewInt(100_000_000_000), sdkmath.ZeroInt()),
			types.NewEventRedemptionQueuePaid(1, second.String(), sdkmath.NewInt(50_000_000_000), sdkmath.NewInt(50_000_000_000), sdkmath.NewInt(50_000_000_000)),
		},
		postCheck: func() {
			s.assertAssetBalance(first, sdkmath.NewInt(100_000_000_000))
			s.assertAssetBalance(second, sdkmath.NewInt(50_000_000_000))

			id, entry, found, err := s.k.RedemptionQueue.Head(s.ctx)
			s.Require().NoError(err)
			s.Require().True(found, "partially paid entry keeps its place")
			s.Assert().Equal(uint64(1), id)
			s.Assert().Equal("50000000000", entry.Shares.String())
			s.Assert().Equal("50000000000", s.vaultState().QueuedShares.String())

			// Nothing left to pay with, so another drain changes nothing.
			nextID, err := s.k.RequestRedemptionQueueDrain(s.ctx, s.roles.Operator)
			s.Require().NoError(err)
			s.Require().NoError(s.k.Fulfill(s.ctx, s.roles.Oracle, nextID, sdkmath.NewInt(50_000_000_000)))
			s.Assert().Equal(uint64(1), s.queueLength())
			s.assertAssetBalance(second, sdkmath.NewInt(50_000_000_000))
		},
	})
}

func (s *TestSuite) TestKeeper_Fulfill_RedemptionWaitsBehindQueue() {
	s.updateParams(func(p *types.Params) { p.TransactionFeeBps = 0 })
	vault := types.GetVaultAddress()

	first := s.newFundedAccount(100_000_000_000)
	second := s.newFundedAccount(100_000_000_000)
	firstShares := s.deposit(first, 100_000_000_000, 0)
	s.deposit(second, 100_000_000_000, 0)

	s.Require().NoError(s.k.TransferToTreasury(s.ctx, s.roles.Operator, sdkmath.NewInt(200_000_000_000)))
	s.advanceEpoch(200_000_000_000)
	s.redeem(first, firstShares, 200_000_000_000)
	s.Require().Equal(uint64(1), s.queueLength(), "first redemption is queued whole")

	// The treasury sends back a tenth of what the head is owed.
	s.Require().NoError(simapp.FundAccount(s.ctx, s.simApp, vault, sdkmath.NewInt(10_000_000_000)))
	shares := sdkmath.NewInt(10_000_000_000)
	id, err := s.k.RequestRedemption(s.ctx, second, shares, second, nil)
	s.Require().NoError(err)

	runKeeperTestCase(s, keeperTestCase{
		name: "later redemption queues behind an unpaid head",
		run: func() error {
			return s.k.Fulfill(s.ctx, s.roles.Oracle, id, sdkmath.NewInt(190_000_000_000))
		},
		expectedEvents: sdk.Events{
			types.NewEventRedemptionQueuePaid(0, first.String(), sdkmath.NewInt(10_000_000_000), sdkmath.NewInt(10_000_000_000), sdkmath.NewInt(90_000_000_000)),
			types.NewEventRedemptionQueued(1, second.String(), shares),
			types.NewEventRedemptionFulfilled(id, second.String(), second.String(), shares, sdkmath.ZeroInt(), shares),
		},
		postCheck: func() {
			s.assertAssetBalance(first, sdkmath.NewInt(10_000_000_000))
			s.assertAssetBalance(second, sdkmath.ZeroInt())
			s.assertAssetBalance(vault, sdkmath.ZeroInt())
			s.Assert().Equal(uint64(2), s.queueLength())
			s.Assert().Equal("100000000000", s.vaultState().QueuedShares.String())
		},
	})
	s.Require().NoError(s.k.Fulfill(s.ctx, s.roles.Oracle, id, sdkmath.NewInt(190_000_000_000)))

	// Enough comes back to clear the queue with some left over.
	s.Require().NoError(simapp.FundAccount(s.ctx, s.simApp, vault, sdkmath.NewInt(105_000_000_000)))
	more := sdkmath.NewInt(5_000_000_000)
	nextID, err := s.k.RequestRedemption(s.ctx, second, more, second, nil)
	s.Require().NoError(err)

	runKeeperTestCase(s, keeperTestCase{
		name: "queue is settled before the new redemption is paid",
		run: func() error {
			return s.k.Fulfill(s.ctx, s.roles.Oracle, nextID, sdkmath.NewInt(85_000_000_000))
		},
		expectedEvents: sdk.Events{
			types.NewEventRedemptionQueuePaid(0, first.String(), sdkmath.NewInt(90_000_000_000), sdkmath.NewInt(90_000_000_000), sdkmath.ZeroInt()),
			types.NewEventRedemptionQueuePaid(1, second.String(), shares, shares, sdkmath.ZeroInt()),
			types.NewEventRedemptionFulfilled(nextID, second.String(), second.String(), more, more, sdkmath.ZeroInt()),
		},
		postCheck: func() {
			s.assertAssetBalance(first, sdkmath.NewInt(100_000_000_000))
			s.assertAssetBalance(second, sdkmath.NewInt(15_000_000_000))
			s.assertAssetBalance(vault, sdkmath.ZeroInt())
			s.Assert().Equal(uint64(0), s.queueLength())
			s.Assert().Equal("0", s.vaultState().QueuedShares.String())
		},
	})
}

func (s *TestSuite) TestKeeper_Fulfill_DrainDequeuesDust() {
	s.updateParams(func(p *types.Params) { p.TransactionFeeBps = 0 })
	vault := types.GetVaultAddress()

	whale := s.newFundedAccount(100)
	minnow := s.newFundedAccount(1)
	s.deposit(whale, 100, 0)
	s.Require().Equal("1", s.deposit(minnow, 1, 0).String())

	s.Require().NoError(s.k.TransferToTreasury(s.ctx, s.roles.Operator, sdkmath.NewInt(101)))
	s.advanceEpoch(101)
	s.redeem(minnow, sdkmath.OneInt(), 101)
	s.Require().Equal(uint64(1), s.queueLength())

	// The fund loses value: one share is now worth less than one unit.
	s.Require().NoError(simapp.FundAccount(s.ctx, s.simApp, vault, sdkmath.NewInt(10)))
	s.drain(40)

	s.Assert().Equal(uint64(0), s.queueLength(), "worthless entry should be dequeued")
	s.Assert().Equal("0", s.vaultState().QueuedShares.String())
	s.assertAssetBalance(minnow, sdkmath.ZeroInt())
}
