package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidID           = errors.New("invalid id")
	ErrInvalidKind         = errors.New("invalid request kind")
	ErrOwnerRequired       = errors.New("owner id required")
	ErrOperatorRequired    = errors.New("operator id required")
	ErrInvalidAction       = errors.New("invalid action")
	ErrHoldNotFound        = errors.New("hold not found")
	ErrHoldAlreadyResolved = errors.New("hold already resolved")
	ErrRequestNotFound     = errors.New("request not found")
	ErrLockedByOther       = errors.New("request locked by another operator")
	ErrNotClaimed          = errors.New("request not claimed")
	ErrStoreConflict       = errors.New("store conflict")
)

// LockedByOtherError carries the label of the operator holding the lock so
// the rejection shown to the acting operator can name them.
type LockedByOtherError struct {
	OperatorID    int64
	OperatorLabel string
}

func (e *LockedByOtherError) Error() string {
	if e.OperatorLabel != "" {
		return fmt.Sprintf("request locked by %s", e.OperatorLabel)
	}
	return fmt.Sprintf("request locked by operator %d", e.OperatorID)
}

func (e *LockedByOtherError) Is(target error) bool {
	return target == ErrLockedByOther
}
