package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input the caller can correct.
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflicting state")
)

var (
	ErrInsufficientCapacity = errors.New("not enough tickets available")
	ErrShowingClosed        = errors.New("showing has already started")
	ErrAlreadyRedeemed      = errors.New("voucher already redeemed")
)

// ErrStoreUnavailable wraps every database or cache failure. It is retryable.
var ErrStoreUnavailable = errors.New("store unavailable")

func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// StoreError tags err as an infrastructure failure of op, keeping the cause
// in the chain.
func StoreError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
