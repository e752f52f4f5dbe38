package domain

import (
	"errors"
	"fmt"
)

// Error classes. Every failure an operation can return wraps exactly one of
// these, so callers can classify with errors.Is.
var (
	// ErrValidation covers null, zero-amount and self-referential inputs,
	// rejected before any state mutation.
	ErrValidation = errors.New("validation error")

	// ErrAuthorization covers wrong-caller and missing-capability failures.
	ErrAuthorization = errors.New("authorization error")

	// ErrState covers operations that are valid in form but arrive in the
	// wrong state (no live window, expired, already reversed, ...).
	ErrState = errors.New("state error")

	// ErrInsufficientFunds is returned when a balance cannot cover a
	// transfer or reversal.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrArithmetic marks overflow in fee or window computation. It is a
	// hard stop for the operation, never a silent truncation.
	ErrArithmetic = errors.New("arithmetic error")
)

// Specific failures, each wrapping its class.
var (
	ErrZeroAddress      = fmt.Errorf("%w: zero address", ErrValidation)
	ErrZeroAmount       = fmt.Errorf("%w: amount must be positive", ErrValidation)
	ErrSelfReference    = fmt.Errorf("%w: debtor and creditor must differ", ErrValidation)
	ErrInvalidAmount    = fmt.Errorf("%w: malformed amount", ErrValidation)
	ErrNotHolder        = fmt.Errorf("%w: caller does not hold the reversal right", ErrAuthorization)
	ErrAdminRequired    = fmt.Errorf("%w: admin capability required", ErrAuthorization)
	ErrPaused           = fmt.Errorf("%w: ledger is paused", ErrState)
	ErrNoActiveWindow   = fmt.Errorf("%w: no live reversal window", ErrState)
	ErrWindowExpired    = fmt.Errorf("%w: reversal window has expired", ErrState)
	ErrWindowNotExpired = fmt.Errorf("%w: reversal window still open", ErrState)
	ErrAlreadyReversed  = fmt.Errorf("%w: transfer already reversed", ErrState)
	ErrWrongOriginator  = fmt.Errorf("%w: reversal must return funds to the originator", ErrState)
	ErrOutboundLocked   = fmt.Errorf("%w: funds inside a reversal window may only return to their originator", ErrState)
	ErrIntegrityTag     = fmt.Errorf("%w: integrity tag mismatch", ErrState)
	ErrLiabilityBounds  = fmt.Errorf("%w: amount exceeds outstanding liability", ErrState)
	ErrOverflow         = fmt.Errorf("%w: value overflows 256 bits", ErrArithmetic)
)
