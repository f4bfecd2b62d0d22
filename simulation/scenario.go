package simulation

import (
	"fmt"
	"os"
	"strings"
	"time"

	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	"github.com/cometbft/cometbft/crypto"
	dbm "github.com/cosmos/cosmos-db"
	"gopkg.in/yaml.v3"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/provlabs/navvault/simapp"
	"github.com/provlabs/navvault/types"
)

// Scenario actions.
const (
	ActionDeposit            = "deposit"
	ActionRedeem             = "redeem"
	ActionDrain              = "drain"
	ActionAdvanceEpoch       = "advance_epoch"
	ActionFulfill            = "fulfill"
	ActionTransferShares     = "transfer_shares"
	ActionTransferAssets     = "transfer_assets"
	ActionTransferToTreasury = "transfer_to_treasury"
	ActionClaimOnchainFee    = "claim_onchain_fee"
	ActionClaimOffchainFee   = "claim_offchain_fee"
	ActionPause              = "pause"
	ActionUnpause            = "unpause"
	ActionWait               = "wait"
	ActionExpect             = "expect"
)

// Amount is an integer amount that may be written in YAML as a number or a
// string, with optional underscore separators. "max" means types.MaxAmount.
type Amount struct {
	sdkmath.Int
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (a *Amount) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: amount must be a scalar", value.Line)
	}
	raw := strings.ReplaceAll(strings.TrimSpace(value.Value), "_", "")
	if raw == "max" {
		a.Int = types.MaxAmount
		return nil
	}
	amt, ok := sdkmath.NewIntFromString(raw)
	if !ok {
		return fmt.Errorf("line %d: invalid amount %q", value.Line, value.Value)
	}
	a.Int = amt
	return nil
}

// Scenario is a scripted sequence of vault interactions with expectations.
type Scenario struct {
	Name     string            `yaml:"name"`
	Params   ParamOverrides    `yaml:"params"`
	// Strict only lets verified accounts hold shares.
	Strict   bool              `yaml:"strict"`
	Accounts []ScenarioAccount `yaml:"accounts"`
	Steps    []Step            `yaml:"steps"`
}

// ParamOverrides replace the default vault params when set.
type ParamOverrides struct {
	TransactionFeeBps     *uint32 `yaml:"transaction_fee_bps"`
	MinTxFee              *Amount `yaml:"min_tx_fee"`
	OnchainServiceFeeBps  *uint32 `yaml:"onchain_service_fee_bps"`
	OffchainServiceFeeBps *uint32 `yaml:"offchain_service_fee_bps"`
	MaxDeposit            *Amount `yaml:"max_deposit"`
	MaxWithdraw           *Amount `yaml:"max_withdraw"`
	MinDeposit            *Amount `yaml:"min_deposit"`
	MinInitialDeposit     *Amount `yaml:"min_initial_deposit"`
	MinWithdraw           *Amount `yaml:"min_withdraw"`
}

func (o ParamOverrides) apply(p *types.Params) {
	if o.TransactionFeeBps != nil {
		p.TransactionFeeBps = *o.TransactionFeeBps
	}
	if o.OnchainServiceFeeBps != nil {
		p.OnchainServiceFeeBps = *o.OnchainServiceFeeBps
	}
	if o.OffchainServiceFeeBps != nil {
		p.OffchainServiceFeeBps = *o.OffchainServiceFeeBps
	}
	amounts := []struct {
		src *Amount
		dst *sdkmath.Int
	}{
		{o.MinTxFee, &p.MinTxFee},
		{o.MaxDeposit, &p.MaxDeposit},
		{o.MaxWithdraw, &p.MaxWithdraw},
		{o.MinDeposit, &p.MinDeposit},
		{o.MinInitialDeposit, &p.MinInitialDeposit},
		{o.MinWithdraw, &p.MinWithdraw},
	}
	for _, a := range amounts {
		if a.src != nil {
			*a.dst = a.src.Int
		}
	}
}

// ScenarioAccount is a named holder funded at genesis. Its whole balance is
// approved to the vault.
type ScenarioAccount struct {
	Name  string `yaml:"name"`
	Funds Amount `yaml:"funds"`
	Kyc   bool   `yaml:"kyc"`
}

// Step is one scenario action. Which fields apply depends on Action.
type Step struct {
	Action string `yaml:"action"`
	From   string `yaml:"from"`
	To     string `yaml:"to"`
	Amount Amount `yaml:"amount"`
	// Label names the request a request step creates.
	Label string `yaml:"label"`
	// Request is the label of the request to fulfill. Empty means the latest one.
	Request string `yaml:"request"`
	NAV     Amount `yaml:"nav"`
	// Duration is how long a wait step lets pass, e.g. "24h".
	Duration    string       `yaml:"duration"`
	ExpectError string       `yaml:"expect_error"`
	Expect      *Expectation `yaml:"expect"`
}

// Expectation is checked by an expect step. Unset fields are not checked.
type Expectation struct {
	Shares       map[string]Amount `yaml:"shares"`
	Assets       map[string]Amount `yaml:"assets"`
	NetAssets    *Amount           `yaml:"net_assets"`
	TotalShares  *Amount           `yaml:"total_shares"`
	Price        string            `yaml:"price"`
	OnchainFees  *Amount           `yaml:"onchain_fees"`
	OffchainFees *Amount           `yaml:"offchain_fees"`
	QueueLength  *uint64           `yaml:"queue_length"`
	Pending      *int              `yaml:"pending"`
	Epoch        *uint64           `yaml:"epoch"`
}

// ParseScenario decodes a YAML scenario. Unknown fields are rejected.
func ParseScenario(bz []byte) (Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(strings.NewReader(string(bz)))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return sc, fmt.Errorf("parse scenario: %w", err)
	}
	if len(sc.Steps) == 0 {
		return sc, fmt.Errorf("scenario %q has no steps", sc.Name)
	}
	return sc, nil
}

// LoadScenario reads and decodes the scenario at path.
func LoadScenario(path string) (Scenario, error) {
	bz, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(bz)
}

// ScenarioAddress returns the deterministic address used for a scenario account name.
func ScenarioAddress(name string) sdk.AccAddress {
	return sdk.AccAddress(crypto.AddressHash([]byte("navsim/" + name)))
}

// ScenarioRoles returns the role accounts every scenario runs with. They can
// be referred to by the names authority, operator, oracle, fee_receiver and treasury.
func ScenarioRoles() simapp.Roles {
	return simapp.Roles{
		Authority:   ScenarioAddress("authority"),
		Operator:    ScenarioAddress("operator"),
		Oracle:      ScenarioAddress("oracle"),
		FeeReceiver: ScenarioAddress("fee_receiver"),
		Treasury:    ScenarioAddress("treasury"),
	}
}

type scenarioRunner struct {
	logger   log.Logger
	app      *simapp.SimApp
	roles    simapp.Roles
	accounts map[string]sdk.AccAddress
	requests map[string]string
	latest   string
}

// RunScenario plays sc against a fresh in-memory app. Each step runs in its own
// cached context and leaves no state behind when it fails. A step that fails
// without expect_error, or an expectation that does not hold, stops the run.
func RunScenario(logger log.Logger, sc Scenario) (*simapp.SimApp, error) {
	simapp.SetConfig()
	roles := ScenarioRoles()

	run := &scenarioRunner{
		logger: logger.With("scenario", sc.Name),
		roles:  roles,
		accounts: map[string]sdk.AccAddress{
			"authority":    roles.Authority,
			"operator":     roles.Operator,
			"oracle":       roles.Oracle,
			"fee_receiver": roles.FeeReceiver,
			"treasury":     roles.Treasury,
			"vault":        types.GetVaultAddress(),
		},
		requests: make(map[string]string),
	}

	gen := simapp.DefaultGenesis()
	gen.Strict = sc.Strict
	gen.Vault.Params = roles.Params()
	sc.Params.apply(&gen.Vault.Params)
	for _, acc := range sc.Accounts {
		if _, dup := run.accounts[acc.Name]; dup {
			return nil, fmt.Errorf("account name %q is already taken", acc.Name)
		}
		addr := ScenarioAddress(acc.Name)
		run.accounts[acc.Name] = addr
		if acc.Funds.IsNil() {
			continue
		}
		gen.Assets = append(gen.Assets, types.GenesisBalance{Address: addr.String(), Amount: acc.Funds.Int})
		gen.Allowances = append(gen.Allowances, types.GenesisBalance{Address: addr.String(), Amount: acc.Funds.Int})
		if acc.Kyc {
			gen.Verified = append(gen.Verified, addr.String())
		}
	}

	app, err := simapp.NewSimApp(logger, dbm.NewMemDB(), roles.Authority)
	if err != nil {
		return nil, err
	}
	if err := app.InitChain(gen); err != nil {
		return app, fmt.Errorf("failed to init chain: %w", err)
	}
	run.app = app

	for i, step := range sc.Steps {
		err := run.step(step)
		switch {
		case err != nil && step.ExpectError == "":
			return app, fmt.Errorf("step %d (%s): %w", i+1, step.Action, err)
		case err != nil && !strings.Contains(err.Error(), step.ExpectError):
			return app, fmt.Errorf("step %d (%s): expected error containing %q, got %w", i+1, step.Action, step.ExpectError, err)
		case err == nil && step.ExpectError != "":
			return app, fmt.Errorf("step %d (%s): expected error containing %q", i+1, step.Action, step.ExpectError)
		}
		run.logger.Debug("step done", "step", i+1, "action", step.Action, "error", err)
	}
	return app, nil
}

func (s *scenarioRunner) address(name string) (sdk.AccAddress, error) {
	addr, ok := s.accounts[name]
	if !ok {
		return nil, fmt.Errorf("unknown account %q", name)
	}
	return addr, nil
}

// optionalAddress resolves name, returning nil for an empty name.
func (s *scenarioRunner) optionalAddress(name string) (sdk.AccAddress, error) {
	if name == "" {
		return nil, nil
	}
	return s.address(name)
}

func (s *scenarioRunner) rememberRequest(label, id string) {
	if label != "" {
		s.requests[label] = id
	}
	s.latest = id
}

func (s *scenarioRunner) step(step Step) error {
	if step.Action == ActionWait {
		d, err := time.ParseDuration(step.Duration)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", step.Duration, err)
		}
		s.app.NextBlock(d)
		return nil
	}

	ctx, write := s.app.NewContext().CacheContext()
	if err := s.apply(ctx, step); err != nil {
		return err
	}
	write()
	return nil
}

func (s *scenarioRunner) apply(ctx sdk.Context, step Step) error {
	k := s.app.VaultKeeper
	switch step.Action {
	case ActionDeposit:
		from, err := s.address(step.From)
		if err != nil {
			return err
		}
		to, err := s.optionalAddress(step.To)
		if err != nil {
			return err
		}
		id, err := k.RequestDeposit(ctx, from, step.Amount.Int, to)
		if err != nil {
			return err
		}
		s.rememberRequest(step.Label, id)

	case ActionRedeem:
		from, err := s.address(step.From)
		if err != nil {
			return err
		}
		to, err := s.optionalAddress(step.To)
		if err != nil {
			return err
		}
		id, err := k.RequestRedemption(ctx, from, step.Amount.Int, from, to)
		if err != nil {
			return err
		}
		s.rememberRequest(step.Label, id)

	case ActionDrain:
		id, err := k.RequestRedemptionQueueDrain(ctx, s.callerOr(step.From, s.roles.Operator))
		if err != nil {
			return err
		}
		s.rememberRequest(step.Label, id)

	case ActionAdvanceEpoch:
		id, err := k.RequestAdvanceEpoch(ctx, s.callerOr(step.From, s.roles.Operator))
		if err != nil {
			return err
		}
		s.rememberRequest(step.Label, id)

	case ActionFulfill:
		id := s.latest
		if step.Request != "" {
			var ok bool
			if id, ok = s.requests[step.Request]; !ok {
				return fmt.Errorf("unknown request label %q", step.Request)
			}
		}
		if id == "" {
			return fmt.Errorf("no request to fulfill")
		}
		nav := step.NAV.Int
		if nav.IsNil() {
			nav = sdkmath.ZeroInt()
		}
		return k.Fulfill(ctx, s.callerOr(step.From, s.roles.Oracle), id, nav)

	case ActionTransferShares:
		from, err := s.address(step.From)
		if err != nil {
			return err
		}
		to, err := s.address(step.To)
		if err != nil {
			return err
		}
		return k.TransferShares(ctx, from, to, step.Amount.Int)

	case ActionTransferAssets:
		from, err := s.address(step.From)
		if err != nil {
			return err
		}
		to, err := s.address(step.To)
		if err != nil {
			return err
		}
		return s.app.AssetKeeper.Transfer(ctx, from, to, step.Amount.Int)

	case ActionTransferToTreasury:
		return k.TransferToTreasury(ctx, s.callerOr(step.From, s.roles.Operator), step.Amount.Int)

	case ActionClaimOnchainFee:
		_, err := k.ClaimOnchainServiceFee(ctx, s.callerOr(step.From, s.roles.Operator), step.Amount.Int)
		return err

	case ActionClaimOffchainFee:
		_, err := k.ClaimOffchainServiceFee(ctx, s.callerOr(step.From, s.roles.Operator), step.Amount.Int)
		return err

	case ActionPause, ActionUnpause:
		return k.SetPaused(ctx, s.callerOr(step.From, s.roles.Authority), step.Action == ActionPause)

	case ActionExpect:
		if step.Expect == nil {
			return fmt.Errorf("expect step has no expectations")
		}
		return s.check(ctx, *step.Expect)

	default:
		return fmt.Errorf("unknown action %q", step.Action)
	}
	return nil
}

// callerOr resolves name, falling back to def when name is empty or unknown.
func (s *scenarioRunner) callerOr(name string, def sdk.AccAddress) sdk.AccAddress {
	if addr, ok := s.accounts[name]; ok {
		return addr
	}
	return def
}

func (s *scenarioRunner) check(ctx sdk.Context, exp Expectation) error {
	k := s.app.VaultKeeper
	var failures []string
	mismatch := func(what string, want, got fmt.Stringer) {
		if want.String() != got.String() {
			failures = append(failures, fmt.Sprintf("%s: want %s, got %s", what, want, got))
		}
	}

	for name, want := range exp.Shares {
		addr, err := s.address(name)
		if err != nil {
			return err
		}
		got, err := k.Shares.BalanceOf(ctx, addr)
		if err != nil {
			return err
		}
		mismatch("shares of "+name, want.Int, got)
	}
	for name, want := range exp.Assets {
		addr, err := s.address(name)
		if err != nil {
			return err
		}
		got, err := s.app.AssetKeeper.BalanceOf(ctx, addr)
		if err != nil {
			return err
		}
		mismatch("assets of "+name, want.Int, got)
	}

	v, err := k.GetValuation(ctx)
	if err != nil {
		return err
	}
	if exp.NetAssets != nil {
		mismatch("net assets", exp.NetAssets.Int, v.NetAssets)
	}
	if exp.TotalShares != nil {
		mismatch("total shares", exp.TotalShares.Int, v.TotalShares)
	}
	if exp.Price != "" {
		want, err := sdkmath.LegacyNewDecFromStr(exp.Price)
		if err != nil {
			return fmt.Errorf("invalid price %q: %w", exp.Price, err)
		}
		mismatch("price per share", want, v.PricePerShare())
	}

	state, err := k.GetVaultState(ctx)
	if err != nil {
		return err
	}
	if exp.OnchainFees != nil {
		mismatch("onchain fees", exp.OnchainFees.Int, state.OnchainFeeAccrued)
	}
	if exp.OffchainFees != nil {
		mismatch("offchain fees", exp.OffchainFees.Int, state.OffchainFeeAccrued)
	}
	if exp.Epoch != nil && *exp.Epoch != state.CurrentEpoch {
		failures = append(failures, fmt.Sprintf("epoch: want %d, got %d", *exp.Epoch, state.CurrentEpoch))
	}
	if exp.QueueLength != nil {
		got, err := k.RedemptionQueueLength(ctx)
		if err != nil {
			return err
		}
		if got != *exp.QueueLength {
			failures = append(failures, fmt.Sprintf("queue length: want %d, got %d", *exp.QueueLength, got))
		}
	}
	if exp.Pending != nil {
		count := 0
		err := k.PendingRequests.Walk(ctx, nil, func(string, types.PendingRequest) (bool, error) {
			count++
			return false, nil
		})
		if err != nil {
			return err
		}
		if count != *exp.Pending {
			failures = append(failures, fmt.Sprintf("pending requests: want %d, got %d", *exp.Pending, count))
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("expectations failed: %s", strings.Join(failures, "; "))
	}
	return nil
}
