package mocks

import (
	"testing"
	"time"

	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	addresscodec "github.com/cosmos/cosmos-sdk/codec/address"
	"github.com/cosmos/cosmos-sdk/runtime"
	"github.com/cosmos/cosmos-sdk/testutil"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/provlabs/navvault/compliance"
	"github.com/provlabs/navvault/keeper"
	"github.com/provlabs/navvault/oracle"
	"github.com/provlabs/navvault/token"
	"github.com/provlabs/navvault/types"
)

// Collaborators are the concrete keepers a mocked vault keeper talks to.
type Collaborators struct {
	Asset      *token.Keeper
	Compliance *compliance.Keeper
	Oracle     *oracle.Transport
}

// NewVaultKeeper returns an instance of the Keeper backed by in-memory stores,
// one per collaborator. complianceAuthority administers the KYC registry.
func NewVaultKeeper(
	t testing.TB,
	complianceAuthority sdk.AccAddress,
) (sdk.Context, *keeper.Keeper, Collaborators) {
	t.Helper()

	keys := storetypes.NewKVStoreKeys(types.StoreKey, "asset", "compliance", "oracle")
	tkeys := storetypes.NewTransientStoreKeys("transient_" + types.ModuleName)
	ctx := testutil.DefaultContextWithKeys(keys, tkeys, nil)

	c := Collaborators{
		Asset:      token.NewKeeper(runtime.NewKVStoreService(keys["asset"]), "uusd"),
		Compliance: compliance.NewKeeper(runtime.NewKVStoreService(keys["compliance"]), complianceAuthority),
		Oracle:     oracle.NewTransport(runtime.NewKVStoreService(keys["oracle"]), "mock"),
	}

	k := keeper.NewKeeper(
		runtime.NewKVStoreService(keys[types.StoreKey]),
		addresscodec.NewBech32Codec(sdk.GetConfig().GetBech32AccountAddrPrefix()),
		c.Asset,
		c.Compliance,
		c.Oracle,
	)

	ctx = ctx.WithBlockHeader(cmtproto.Header{Height: 1, Time: time.Now().UTC().Truncate(time.Second)})
	return ctx, k, c
}
