package compliance

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/store"
	sdkerrors "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Transfer restriction codes returned by CanTransfer.
const (
	CodeSuccess uint8 = iota
	CodeSenderBanned
	CodeReceiverBanned
	CodeSenderNotVerified
	CodeReceiverNotVerified
)

var restrictionMessages = map[uint8]string{
	CodeSuccess:             "transfer allowed",
	CodeSenderBanned:        "sender is banned",
	CodeReceiverBanned:      "receiver is banned",
	CodeSenderNotVerified:   "sender has not completed kyc",
	CodeReceiverNotVerified: "receiver has not completed kyc",
}

var (
	VerifiedPrefix = collections.NewPrefix(0)
	BannedPrefix   = collections.NewPrefix(1)
	StrictPrefix   = collections.NewPrefix(2)
)

const Codespace = "compliance"

var ErrUnauthorized = sdkerrors.Register(Codespace, 2, "unauthorized")

// Keeper is the KYC registry gating share token movements. Banned addresses
// can never send or receive. In strict mode both parties must also be verified.
type Keeper struct {
	schema    collections.Schema
	authority sdk.AccAddress

	Verified collections.KeySet[sdk.AccAddress]
	Banned   collections.KeySet[sdk.AccAddress]
	Strict   collections.Item[bool]
}

// NewKeeper creates the registry. Only authority may change it.
func NewKeeper(storeService store.KVStoreService, authority sdk.AccAddress) *Keeper {
	if authority.Empty() {
		panic("compliance authority cannot be empty")
	}
	sb := collections.NewSchemaBuilder(storeService)
	k := &Keeper{
		authority: authority,
		Verified:  collections.NewKeySet(sb, VerifiedPrefix, "verified", sdk.AccAddressKey),
		Banned:    collections.NewKeySet(sb, BannedPrefix, "banned", sdk.AccAddressKey),
		Strict:    collections.NewItem(sb, StrictPrefix, "strict", collections.BoolValue),
	}
	schema, err := sb.Build()
	if err != nil {
		panic(err)
	}
	k.schema = schema
	return k
}

// GetAuthority returns the registry admin.
func (k *Keeper) GetAuthority() sdk.AccAddress {
	return k.authority
}

func (k *Keeper) checkAuthority(caller sdk.AccAddress) error {
	if !bytes.Equal(caller, k.authority) {
		return sdkerrors.Wrapf(ErrUnauthorized, "expected %s, got %s", k.authority, caller)
	}
	return nil
}

// GrantKyc marks addr as verified.
func (k *Keeper) GrantKyc(ctx context.Context, caller, addr sdk.AccAddress) error {
	if err := k.checkAuthority(caller); err != nil {
		return err
	}
	return k.Verified.Set(ctx, addr)
}

// RevokeKyc removes the verification of addr.
func (k *Keeper) RevokeKyc(ctx context.Context, caller, addr sdk.AccAddress) error {
	if err := k.checkAuthority(caller); err != nil {
		return err
	}
	return k.Verified.Remove(ctx, addr)
}

// Ban blocks addr from sending or receiving shares.
func (k *Keeper) Ban(ctx context.Context, caller, addr sdk.AccAddress) error {
	if err := k.checkAuthority(caller); err != nil {
		return err
	}
	return k.Banned.Set(ctx, addr)
}

// Unban lifts a ban.
func (k *Keeper) Unban(ctx context.Context, caller, addr sdk.AccAddress) error {
	if err := k.checkAuthority(caller); err != nil {
		return err
	}
	return k.Banned.Remove(ctx, addr)
}

// SetStrictMode toggles whether verification is required for every transfer.
func (k *Keeper) SetStrictMode(ctx context.Context, caller sdk.AccAddress, strict bool) error {
	if err := k.checkAuthority(caller); err != nil {
		return err
	}
	return k.Strict.Set(ctx, strict)
}

// IsKyc reports whether addr is verified.
func (k *Keeper) IsKyc(ctx context.Context, addr sdk.AccAddress) (bool, error) {
	return k.Verified.Has(ctx, addr)
}

// IsBanned reports whether addr is banned.
func (k *Keeper) IsBanned(ctx context.Context, addr sdk.AccAddress) (bool, error) {
	return k.Banned.Has(ctx, addr)
}

// StrictMode reports whether strict mode is on.
func (k *Keeper) StrictMode(ctx context.Context) (bool, error) {
	strict, err := k.Strict.Get(ctx)
	if errors.Is(err, collections.ErrNotFound) {
		return false, nil
	}
	return strict, err
}

// CanTransfer returns CodeSuccess when amount may move from from to to.
// A nil from is a mint and only the receiver is checked.
func (k *Keeper) CanTransfer(ctx context.Context, from, to sdk.AccAddress, _ sdkmath.Int) (uint8, error) {
	strict, err := k.StrictMode(ctx)
	if err != nil {
		return 0, err
	}

	if !from.Empty() {
		if banned, err := k.IsBanned(ctx, from); err != nil || banned {
			return CodeSenderBanned, err
		}
	}
	if banned, err := k.IsBanned(ctx, to); err != nil || banned {
		return CodeReceiverBanned, err
	}
	if !strict {
		return CodeSuccess, nil
	}

	if !from.Empty() {
		if ok, err := k.IsKyc(ctx, from); err != nil || !ok {
			return CodeSenderNotVerified, err
		}
	}
	if ok, err := k.IsKyc(ctx, to); err != nil || !ok {
		return CodeReceiverNotVerified, err
	}
	return CodeSuccess, nil
}

// MessageForTransferRestriction returns a human readable reason for code.
func (k *Keeper) MessageForTransferRestriction(code uint8) string {
	if msg, ok := restrictionMessages[code]; ok {
		return msg
	}
	return fmt.Sprintf("unknown restriction code %d", code)
}
