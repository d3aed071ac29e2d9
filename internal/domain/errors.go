package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidTransition  = errors.New("invalid state transition")
	ErrAlreadySigned      = errors.New("already signed")
	ErrInvalidCoupon      = errors.New("invalid coupon")
	ErrSequenceExhausted  = errors.New("sequence exhausted")
	ErrSequenceConflict   = errors.New("sequence conflict")
	ErrTemplateUnresolved = errors.New("template unresolved")
	ErrInvalidInput       = errors.New("invalid input")
	ErrOutOfOrder         = errors.New("signature out of order")
	ErrConcurrentUpdate   = errors.New("concurrent update")
	ErrForbidden          = errors.New("forbidden")
	ErrDuplicateKey       = errors.New("duplicate key")
)

// ErrSequenceUnavailable is returned when the counter store could not be reached after retries.
var ErrSequenceUnavailable = fmt.Errorf("%w: counter store unavailable", ErrSequenceExhausted)

type ConsistencyError struct {
	ContractID string
	Reason     string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("contract %s inconsistent: %s", e.ContractID, e.Reason)
}
