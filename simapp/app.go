package simapp

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"cosmossdk.io/collections"
	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	addresscodec "github.com/cosmos/cosmos-sdk/codec/address"
	"github.com/cosmos/cosmos-sdk/runtime"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/provlabs/navvault"
	"github.com/provlabs/navvault/compliance"
	"github.com/provlabs/navvault/keeper"
	"github.com/provlabs/navvault/oracle"
	"github.com/provlabs/navvault/token"
	"github.com/provlabs/navvault/types"
)

const (
	// Bech32PrefixAccAddr defines the Bech32 prefix of an account's address.
	Bech32PrefixAccAddr = "provlabs"
	// Bech32PrefixAccPub defines the Bech32 prefix of an account's public key.
	Bech32PrefixAccPub = Bech32PrefixAccAddr + "pub"

	// AssetDenom is the underlying asset of the simulated vault.
	AssetDenom = "uusd"

	AssetStoreKey      = "asset"
	ComplianceStoreKey = "compliance"
	OracleStoreKey     = "oracle"

	// ChainID namespaces oracle request ids.
	ChainID = "navsim-1"
)

// GenesisTime is the block time of the first block.
var GenesisTime = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

var configOnce sync.Once

// SetConfig applies the provlabs bech32 prefixes to the global sdk config and seals it.
func SetConfig() {
	configOnce.Do(func() {
		cfg := sdk.GetConfig()
		if cfg.GetBech32AccountAddrPrefix() != Bech32PrefixAccAddr {
			cfg.SetBech32PrefixForAccount(Bech32PrefixAccAddr, Bech32PrefixAccPub)
			cfg.SetBech32PrefixForValidator(Bech32PrefixAccAddr+"valoper", Bech32PrefixAccAddr+"valoperpub")
			cfg.SetBech32PrefixForConsensusNode(Bech32PrefixAccAddr+"valcons", Bech32PrefixAccAddr+"valconspub")
		}
		cfg.Seal()
	})
}

// SimApp is a minimal in-memory application hosting the vault module and
// the collaborators it needs: an asset token, a compliance registry and an
// oracle transport. Each keeper owns its own IAVL store.
type SimApp struct {
	logger log.Logger
	cms    storetypes.CommitMultiStore
	keys   map[string]*storetypes.KVStoreKey
	header cmtproto.Header

	AssetKeeper      *token.Keeper
	ComplianceKeeper *compliance.Keeper
	OracleTransport  *oracle.Transport
	VaultKeeper      *keeper.Keeper
}

// NewSimApp mounts the stores on db and wires the keepers. complianceAuthority
// administers the KYC registry.
func NewSimApp(logger log.Logger, db dbm.DB, complianceAuthority sdk.AccAddress) (*SimApp, error) {
	keys := storetypes.NewKVStoreKeys(types.StoreKey, AssetStoreKey, ComplianceStoreKey, OracleStoreKey)

	cms := store.NewCommitMultiStore(db, logger, metrics.NewNoOpMetrics())
	for _, key := range keys {
		cms.MountStoreWithDB(key, storetypes.StoreTypeIAVL, nil)
	}
	if err := cms.LoadLatestVersion(); err != nil {
		return nil, fmt.Errorf("failed to load stores: %w", err)
	}

	app := &SimApp{
		logger: logger,
		cms:    cms,
		keys:   keys,
		header: cmtproto.Header{ChainID: ChainID, Height: 1, Time: GenesisTime},
	}

	app.AssetKeeper = token.NewKeeper(runtime.NewKVStoreService(keys[AssetStoreKey]), AssetDenom)
	app.ComplianceKeeper = compliance.NewKeeper(runtime.NewKVStoreService(keys[ComplianceStoreKey]), complianceAuthority)
	app.OracleTransport = oracle.NewTransport(runtime.NewKVStoreService(keys[OracleStoreKey]), ChainID)
	app.VaultKeeper = keeper.NewKeeper(
		runtime.NewKVStoreService(keys[types.StoreKey]),
		addresscodec.NewBech32Codec(sdk.GetConfig().GetBech32AccountAddrPrefix()),
		app.AssetKeeper,
		app.ComplianceKeeper,
		app.OracleTransport,
	)
	return app, nil
}

// GetKey returns the KVStoreKey for the provided store key.
func (app *SimApp) GetKey(storeKey string) *storetypes.KVStoreKey {
	return app.keys[storeKey]
}

// Logger returns the app logger.
func (app *SimApp) Logger() log.Logger {
	return app.logger
}

// NewContext returns a context for the current block writing straight to the stores.
func (app *SimApp) NewContext() sdk.Context {
	return sdk.NewContext(app.cms, app.header, false, app.logger)
}

// LastBlockHeight returns the height of the block in progress.
func (app *SimApp) LastBlockHeight() int64 {
	return app.header.Height
}

// BlockTime returns the time of the block in progress.
func (app *SimApp) BlockTime() time.Time {
	return app.header.Time
}

// NextBlock commits the current block and starts a new one elapsed later.
func (app *SimApp) NextBlock(elapsed time.Duration) storetypes.CommitID {
	id := app.cms.Commit()
	app.header.Height++
	app.header.Time = app.header.Time.Add(elapsed)
	return id
}

// GenesisState is the genesis of every store in the app.
type GenesisState struct {
	// Assets are the underlying asset balances.
	Assets []types.GenesisBalance `json:"assets"`
	// Allowances are approvals of the underlying asset to the vault.
	Allowances []types.GenesisBalance `json:"allowances"`

	Verified []string `json:"verified"`
	Banned   []string `json:"banned"`
	Strict   bool     `json:"strict"`

	// OracleSequence is the next oracle request sequence, so ids are not reissued after an import.
	OracleSequence uint64 `json:"oracle_sequence"`

	Vault *types.GenesisState `json:"vault"`
}

// DefaultGenesis returns an empty app genesis with default vault params.
func DefaultGenesis() GenesisState {
	return GenesisState{Vault: types.DefaultGenesisState()}
}

// InitChain loads genesis into the stores and commits the first block.
func (app *SimApp) InitChain(gen GenesisState) error {
	ctx := app.NewContext()

	vaultAddr := types.GetVaultAddress()
	for _, b := range gen.Assets {
		addr, err := sdk.AccAddressFromBech32(b.Address)
		if err != nil {
			return fmt.Errorf("invalid asset holder %q: %w", b.Address, err)
		}
		if err := app.AssetKeeper.Mint(ctx, addr, b.Amount); err != nil {
			return fmt.Errorf("failed to mint genesis assets: %w", err)
		}
	}
	for _, a := range gen.Allowances {
		addr, err := sdk.AccAddressFromBech32(a.Address)
		if err != nil {
			return fmt.Errorf("invalid allowance owner %q: %w", a.Address, err)
		}
		if err := app.AssetKeeper.Approve(ctx, addr, vaultAddr, a.Amount); err != nil {
			return err
		}
	}

	authority := app.ComplianceKeeper.GetAuthority()
	for _, v := range gen.Verified {
		if err := app.ComplianceKeeper.GrantKyc(ctx, authority, sdk.MustAccAddressFromBech32(v)); err != nil {
			return err
		}
	}
	for _, b := range gen.Banned {
		if err := app.ComplianceKeeper.Ban(ctx, authority, sdk.MustAccAddressFromBech32(b)); err != nil {
			return err
		}
	}
	if err := app.ComplianceKeeper.SetStrictMode(ctx, authority, gen.Strict); err != nil {
		return err
	}

	if err := app.OracleTransport.Sequence.Set(ctx, gen.OracleSequence); err != nil {
		return err
	}

	if err := navvault.InitGenesis(ctx, app.VaultKeeper, gen.Vault); err != nil {
		return err
	}

	app.NextBlock(0)
	return nil
}

// ExportGenesis exports the vault and asset state at the current block.
func (app *SimApp) ExportGenesis() (GenesisState, error) {
	ctx := app.NewContext()
	vaultGen, err := navvault.ExportGenesis(ctx, app.VaultKeeper)
	if err != nil {
		return GenesisState{}, err
	}
	gen := GenesisState{Vault: vaultGen}

	err = app.AssetKeeper.WalkBalances(ctx, func(addr sdk.AccAddress, amount sdkmath.Int) (bool, error) {
		gen.Assets = append(gen.Assets, types.GenesisBalance{Address: addr.String(), Amount: amount})
		return false, nil
	})
	if err != nil {
		return gen, err
	}
	vaultAddr := types.GetVaultAddress()
	err = app.AssetKeeper.Allowances.Walk(ctx, nil, func(key collections.Pair[sdk.AccAddress, sdk.AccAddress], amount sdkmath.Int) (bool, error) {
		if key.K2().Equals(vaultAddr) && amount.IsPositive() {
			gen.Allowances = append(gen.Allowances, types.GenesisBalance{Address: key.K1().String(), Amount: amount})
		}
		return false, nil
	})
	if err != nil {
		return gen, err
	}
	gen.OracleSequence, err = app.OracleTransport.Sequence.Peek(ctx)
	if err != nil {
		return gen, err
	}
	err = app.ComplianceKeeper.Verified.Walk(ctx, nil, func(addr sdk.AccAddress) (bool, error) {
		gen.Verified = append(gen.Verified, addr.String())
		return false, nil
	})
	if err != nil {
		return gen, err
	}
	err = app.ComplianceKeeper.Banned.Walk(ctx, nil, func(addr sdk.AccAddress) (bool, error) {
		gen.Banned = append(gen.Banned, addr.String())
		return false, nil
	})
	if err != nil {
		return gen, err
	}
	gen.Strict, err = app.ComplianceKeeper.StrictMode(ctx)
	return gen, err
}

// MarshalGenesis encodes an app genesis as indented JSON.
func MarshalGenesis(gen GenesisState) ([]byte, error) {
	return json.MarshalIndent(gen, "", "  ")
}
