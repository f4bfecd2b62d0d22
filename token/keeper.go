package token

import (
	"cosmossdk.io/collections"
	"cosmossdk.io/core/store"
)

var (
	BalancesPrefix   = collections.NewPrefix(0)
	AllowancesPrefix = collections.NewPrefix(1)
	SupplyPrefix     = collections.NewPrefix(2)
)

// Keeper is a ledger that owns its own store. It backs the underlying asset
// in the simulation app and in tests.
type Keeper struct {
	*Ledger
	schema collections.Schema
}

// NewKeeper creates a token keeper for denom.
func NewKeeper(storeService store.KVStoreService, denom string) *Keeper {
	sb := collections.NewSchemaBuilder(storeService)
	ledger := NewLedger(sb, denom, Prefixes{
		Balances:   BalancesPrefix,
		Allowances: AllowancesPrefix,
		Supply:     SupplyPrefix,
	})
	schema, err := sb.Build()
	if err != nil {
		panic(err)
	}
	return &Keeper{Ledger: ledger, schema: schema}
}
