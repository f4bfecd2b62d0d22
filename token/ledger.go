package token

import (
	"context"
	"errors"

	"cosmossdk.io/collections"
	sdkerrors "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// TransferHook is consulted before any balance moves to a new holder.
// from is nil for mints.
type TransferHook func(ctx context.Context, from, to sdk.AccAddress, amount sdkmath.Int) error

// Prefixes are the collection prefixes of a ledger.
type Prefixes struct {
	Balances   collections.Prefix
	Allowances collections.Prefix
	Supply     collections.Prefix
}

// Ledger is a fungible token with balances, allowances and a total supply.
type Ledger struct {
	Denom string

	Balances   collections.Map[sdk.AccAddress, sdkmath.Int]
	Allowances collections.Map[collections.Pair[sdk.AccAddress, sdk.AccAddress], sdkmath.Int]
	Supply     collections.Item[sdkmath.Int]

	hook TransferHook
}

// NewLedger registers a ledger for denom on the schema builder.
func NewLedger(sb *collections.SchemaBuilder, denom string, p Prefixes) *Ledger {
	return &Ledger{
		Denom:    denom,
		Balances: collections.NewMap(sb, p.Balances, denom+"_balances", sdk.AccAddressKey, sdk.IntValue),
		Allowances: collections.NewMap(sb, p.Allowances, denom+"_allowances",
			collections.PairKeyCodec(sdk.AccAddressKey, sdk.AccAddressKey), sdk.IntValue),
		Supply: collections.NewItem(sb, p.Supply, denom+"_supply", sdk.IntValue),
	}
}

// SetTransferHook installs the hook run before transfers and mints.
func (l *Ledger) SetTransferHook(hook TransferHook) {
	l.hook = hook
}

// BalanceOf returns the balance of addr, zero when unset.
func (l *Ledger) BalanceOf(ctx context.Context, addr sdk.AccAddress) (sdkmath.Int, error) {
	return getOrZero(l.Balances.Get(ctx, addr))
}

// Allowance returns how much spender may move on behalf of owner.
func (l *Ledger) Allowance(ctx context.Context, owner, spender sdk.AccAddress) (sdkmath.Int, error) {
	return getOrZero(l.Allowances.Get(ctx, collections.Join(owner, spender)))
}

// TotalSupply returns the sum of all balances.
func (l *Ledger) TotalSupply(ctx context.Context) (sdkmath.Int, error) {
	return getOrZero(l.Supply.Get(ctx))
}

// Approve sets the allowance of spender over owner's balance.
func (l *Ledger) Approve(ctx context.Context, owner, spender sdk.AccAddress, amount sdkmath.Int) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	if owner.Empty() || spender.Empty() {
		return sdkerrors.Wrap(ErrInvalidAddress, "owner and spender are required")
	}
	return l.Allowances.Set(ctx, collections.Join(owner, spender), amount)
}

// Transfer moves amount from one holder to another.
func (l *Ledger) Transfer(ctx context.Context, from, to sdk.AccAddress, amount sdkmath.Int) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	if from.Empty() || to.Empty() {
		return sdkerrors.Wrap(ErrInvalidAddress, "sender and recipient are required")
	}
	if l.hook != nil {
		if err := l.hook(ctx, from, to, amount); err != nil {
			return err
		}
	}
	if err := l.sub(ctx, from, amount); err != nil {
		return err
	}
	return l.add(ctx, to, amount)
}

// TransferFrom moves amount out of from using spender's allowance.
func (l *Ledger) TransferFrom(ctx context.Context, spender, from, to sdk.AccAddress, amount sdkmath.Int) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	allowance, err := l.Allowance(ctx, from, spender)
	if err != nil {
		return err
	}
	if allowance.LT(amount) {
		return sdkerrors.Wrapf(ErrInsufficientAllowance, "allowance %s is less than %s", allowance, amount)
	}
	if err := l.Transfer(ctx, from, to, amount); err != nil {
		return err
	}
	return l.Allowances.Set(ctx, collections.Join(from, spender), allowance.Sub(amount))
}

// Mint creates amount new tokens for to.
func (l *Ledger) Mint(ctx context.Context, to sdk.AccAddress, amount sdkmath.Int) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	if to.Empty() {
		return sdkerrors.Wrap(ErrInvalidAddress, "recipient is required")
	}
	if l.hook != nil {
		if err := l.hook(ctx, nil, to, amount); err != nil {
			return err
		}
	}
	supply, err := l.TotalSupply(ctx)
	if err != nil {
		return err
	}
	if err := l.add(ctx, to, amount); err != nil {
		return err
	}
	return l.Supply.Set(ctx, supply.Add(amount))
}

// Burn destroys amount of from's tokens.
func (l *Ledger) Burn(ctx context.Context, from sdk.AccAddress, amount sdkmath.Int) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	supply, err := l.TotalSupply(ctx)
	if err != nil {
		return err
	}
	if err := l.sub(ctx, from, amount); err != nil {
		return err
	}
	return l.Supply.Set(ctx, supply.Sub(amount))
}

// WalkBalances iterates over every non-zero balance.
func (l *Ledger) WalkBalances(ctx context.Context, fn func(addr sdk.AccAddress, amount sdkmath.Int) (stop bool, err error)) error {
	return l.Balances.Walk(ctx, nil, fn)
}

func (l *Ledger) add(ctx context.Context, addr sdk.AccAddress, amount sdkmath.Int) error {
	if amount.IsZero() {
		return nil
	}
	bal, err := l.BalanceOf(ctx, addr)
	if err != nil {
		return err
	}
	return l.Balances.Set(ctx, addr, bal.Add(amount))
}

func (l *Ledger) sub(ctx context.Context, addr sdk.AccAddress, amount sdkmath.Int) error {
	bal, err := l.BalanceOf(ctx, addr)
	if err != nil {
		return err
	}
	if bal.LT(amount) {
		return sdkerrors.Wrapf(ErrInsufficientFunds, "%s has %s%s, needs %s%s", addr, bal, l.Denom, amount, l.Denom)
	}
	rest := bal.Sub(amount)
	if rest.IsZero() {
		return l.Balances.Remove(ctx, addr)
	}
	return l.Balances.Set(ctx, addr, rest)
}

func validateAmount(amount sdkmath.Int) error {
	if amount.IsNil() || amount.IsNegative() {
		return sdkerrors.Wrapf(ErrInvalidAmount, "amount must be non-negative, got %v", amount)
	}
	return nil
}

func getOrZero(v sdkmath.Int, err error) (sdkmath.Int, error) {
	if errors.Is(err, collections.ErrNotFound) {
		return sdkmath.ZeroInt(), nil
	}
	if err != nil {
		return sdkmath.Int{}, err
	}
	return v, nil
}
