package core

import "errors"

// Error kinds shared by stores, services and the transfer pipeline.
// Callers match them with errors.Is; the wrapped message carries the context.
var (
	ErrDuplicateKey    = errors.New("duplicate key")
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrInvalidState    = errors.New("invalid state")
	ErrMalformedRecord = errors.New("malformed record")
	ErrIO              = errors.New("io failure")
)

var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrEmptyName            = errors.New("empty name")
	ErrNegativeBalance      = errors.New("opening balance cannot be negative")
	ErrCategoryTypeMismatch = errors.New("category/operation type mismatch")
	ErrAccountHasOperations = errors.New("operations reference this account")
)
