package simulation

import (
	"fmt"
	"math/rand"
	"time"

	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	dbm "github.com/cosmos/cosmos-db"

	simtypes "github.com/cosmos/cosmos-sdk/types/simulation"

	"github.com/provlabs/navvault/simapp"
)

// Config controls a randomized simulation run.
type Config struct {
	Seed int64
	// NumAccounts is the number of holders, on top of the five role accounts.
	NumAccounts int
	NumBlocks   int
	OpsPerBlock int
	BlockTime   time.Duration
	// InvariantCheckPeriod is how often, in blocks, invariants are checked. Zero disables them.
	InvariantCheckPeriod int
	// AppParams overrides operation weights.
	AppParams simtypes.AppParams
}

// DefaultConfig returns a short run with invariants checked every block.
func DefaultConfig() Config {
	return Config{
		Seed:                 1,
		NumAccounts:          10,
		NumBlocks:            50,
		OpsPerBlock:          20,
		BlockTime:            6 * time.Hour,
		InvariantCheckPeriod: 1,
		AppParams:            make(simtypes.AppParams),
	}
}

// Report summarises a simulation run.
type Report struct {
	Seed        int64          `json:"seed"`
	Blocks      int            `json:"blocks"`
	Operations  map[string]int `json:"operations"`
	Skipped     map[string]int `json:"skipped"`
	Epoch       uint64         `json:"epoch"`
	NetAssets   sdkmath.Int    `json:"net_assets"`
	TotalShares sdkmath.Int    `json:"total_shares"`
	QueueLength uint64         `json:"queue_length"`
}

// Simulate runs cfg against a fresh in-memory app. Every operation executes in
// its own cached context that is only written when the vault accepts it, the
// way a rejected transaction leaves no state behind. The app is returned so
// callers can export or inspect the final state.
func Simulate(logger log.Logger, cfg Config) (*simapp.SimApp, Report, error) {
	report := Report{
		Seed:       cfg.Seed,
		Operations: make(map[string]int),
		Skipped:    make(map[string]int),
	}
	if cfg.AppParams == nil {
		cfg.AppParams = make(simtypes.AppParams)
	}

	r := rand.New(rand.NewSource(cfg.Seed))
	simapp.SetConfig()
	roles, holders := RolesFromAccounts(simtypes.RandomAccounts(r, cfg.NumAccounts+5))
	gen := RandomizedGenState(r, roles, holders)

	app, err := simapp.NewSimApp(logger, dbm.NewMemDB(), roles.Authority)
	if err != nil {
		return nil, report, err
	}
	if err := app.InitChain(gen); err != nil {
		return app, report, fmt.Errorf("failed to init chain: %w", err)
	}

	env := &Env{App: app, Roles: roles, Accounts: holders, OffchainNAV: sdkmath.ZeroInt()}
	ops := WeightedOperations(cfg.AppParams, r)
	invariant := AllInvariants(app.VaultKeeper)

	for block := 1; block <= cfg.NumBlocks; block++ {
		ctx := app.NewContext()
		for i := 0; i < cfg.OpsPerBlock; i++ {
			op, ok := selectOperation(r, ops)
			if !ok {
				return app, report, fmt.Errorf("no operation has a positive weight")
			}
			cacheCtx, write := ctx.CacheContext()
			msg, err := op.Op(r, cacheCtx, env)
			if err != nil {
				return app, report, fmt.Errorf("block %d: %s: %w", block, op.Name, err)
			}
			if !msg.OK {
				report.Skipped[op.Name]++
				logger.Debug("operation skipped", "block", block, "op", op.Name, "reason", msg.Comment)
				continue
			}
			write()
			report.Operations[op.Name]++
		}

		if cfg.InvariantCheckPeriod > 0 && block%cfg.InvariantCheckPeriod == 0 {
			if msg, broken := invariant(ctx); broken {
				return app, report, fmt.Errorf("invariant broken at block %d: %s", block, msg)
			}
		}
		app.NextBlock(cfg.BlockTime)
		report.Blocks = block
	}

	ctx := app.NewContext()
	v, err := app.VaultKeeper.GetValuation(ctx)
	if err != nil {
		return app, report, err
	}
	report.NetAssets = v.NetAssets
	report.TotalShares = v.TotalShares
	if report.Epoch, err = app.VaultKeeper.CurrentEpoch(ctx); err != nil {
		return app, report, err
	}
	if report.QueueLength, err = app.VaultKeeper.RedemptionQueueLength(ctx); err != nil {
		return app, report, err
	}

	logger.Info("simulation finished", "seed", cfg.Seed, "blocks", report.Blocks,
		"epoch", report.Epoch, "net_assets", report.NetAssets.String(), "queue_length", report.QueueLength)
	return app, report, nil
}
