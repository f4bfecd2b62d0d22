package types

import "cosmossdk.io/errors"

var (
	ErrInvalidRequest        = errors.Register(ModuleName, 2, "invalid request")
	ErrUnauthorized          = errors.Register(ModuleName, 3, "unauthorized")
	ErrUnknownRequest        = errors.Register(ModuleName, 4, "unknown request")
	ErrInsufficientBalance   = errors.Register(ModuleName, 5, "insufficient balance")
	ErrInsufficientAllowance = errors.Register(ModuleName, 6, "insufficient allowance")
	ErrBelowMinimum          = errors.Register(ModuleName, 7, "below minimum")
	ErrLimitExceeded         = errors.Register(ModuleName, 8, "limit exceeded")
	ErrEmptyQueue            = errors.Register(ModuleName, 9, "redemption queue is empty")
	ErrPaused                = errors.Register(ModuleName, 10, "vault is paused")
	ErrTransferRestricted    = errors.Register(ModuleName, 11, "transfer restricted")
)
