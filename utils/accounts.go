package utils

import (
	"github.com/cometbft/cometbft/crypto/secp256k1"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Address is a generated test account in both raw and bech32 form.
type Address struct {
	Bytes  []byte
	Bech32 string
}

// Acc returns the address as an sdk.AccAddress.
func (a Address) Acc() sdk.AccAddress {
	return sdk.AccAddress(a.Bytes)
}

// TestAddress returns a fresh address with the sdk's configured bech32 prefix.
func TestAddress() Address {
	key := secp256k1.GenPrivKey()
	bytes := key.PubKey().Address().Bytes()

	return Address{
		Bytes:  bytes,
		Bech32: sdk.AccAddress(bytes).String(),
	}
}

// TestAddresses returns n fresh addresses.
func TestAddresses(n int) []Address {
	addrs := make([]Address, n)
	for i := range addrs {
		addrs[i] = TestAddress()
	}
	return addrs
}
