package orbit

import (
	"github.com/cockroachdb/errors"
	"github.com/ramaorbit/orbit-engine/common/errs"
)

// Validation errors: rejected before any mutation takes place. Each wraps
// its errs kind so callers outside this package can classify without
// importing the sentinels.
var (
	ErrInvalidPayment = errors.Wrap(errs.InvalidArgument, "invalid payment: usd amount must be positive")
	ErrUnknownPayer   = errors.Wrap(errs.InvalidArgument, "unknown payer: user is not registered")
	ErrDuplicateUser  = errors.Wrap(errs.Duplicate, "user already registered")
	ErrUnknownSponsor = errors.Wrap(errs.InvalidArgument, "sponsor is not registered")
)

// Invariant violations: corrupted ledger state. These must halt the operation
// and surface to the operator, never be auto-corrected.
var (
	ErrNoActiveOrbit    = errors.Wrap(errs.InvariantViolation, "no active orbit for user")
	ErrAlreadyCompleted = errors.Wrap(errs.InvariantViolation, "orbit already completed")
)

// IsValidationError reports whether err is a bad-input rejection that
// happened before any mutation.
func IsValidationError(err error) bool {
	return errors.IsAny(err, ErrInvalidPayment, ErrUnknownPayer, ErrDuplicateUser, ErrUnknownSponsor)
}

// IsInvariantViolation reports whether err indicates corrupted ledger state.
func IsInvariantViolation(err error) bool {
	return errors.IsAny(err, ErrNoActiveOrbit, ErrAlreadyCompleted)
}
