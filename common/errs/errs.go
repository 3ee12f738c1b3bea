package errs

// ErrorKind identifies a kind of internal error.
// fully support for errors.Is and errors.As.
type ErrorKind string

const (
	// NotFound is returned when a requested record is not found.
	NotFound = ErrorKind("Not Found")

	// InvalidArgument is returned when the caller supplied a value that is
	// rejected before any mutation takes place.
	InvalidArgument = ErrorKind("Invalid Argument")

	// Duplicate is returned when a value that must be unique already exists.
	Duplicate = ErrorKind("Duplicate")

	// InvariantViolation marks corrupted ledger state. Errors of this kind
	// must halt the operation and surface to the operator; they are never
	// auto-corrected.
	InvariantViolation = ErrorKind("Invariant Violation")

	// Conflict is returned when stored state disagrees with configuration.
	Conflict = ErrorKind("Conflict")

	// Unsupported is returned for unknown drivers, handlers or modules.
	Unsupported = ErrorKind("Unsupported")

	// Timeout is returned when an operation exceeds its deadline.
	Timeout = ErrorKind("Timeout")

	// InternalError is returned for failures that have no better kind.
	InternalError = ErrorKind("Internal Error")

	// Overflow is returned when fixed-point arithmetic exceeds its range.
	Overflow = ErrorKind("Overflow")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}
