package token

import "cosmossdk.io/errors"

// Codespace is the error codespace of the token ledgers.
const Codespace = "token"

var (
	ErrInsufficientFunds     = errors.Register(Codespace, 2, "insufficient funds")
	ErrInsufficientAllowance = errors.Register(Codespace, 3, "insufficient allowance")
	ErrInvalidAmount         = errors.Register(Codespace, 4, "invalid amount")
	ErrInvalidAddress        = errors.Register(Codespace, 5, "invalid address")
)
