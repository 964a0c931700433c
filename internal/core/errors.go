package core

import "errors"

var (
	// ErrEmailTaken is returned when a write would violate email uniqueness.
	ErrEmailTaken = errors.New("email already registered")

	// ErrNotFound is returned when an operation targets a missing record,
	// including deletes scoped to an owner that does not hold the record.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidCredentials is deliberately generic: callers must not be
	// able to tell a missing account from a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrDuplicateBudget is returned when a budget already exists for the
	// same owner, category and month.
	ErrDuplicateBudget = errors.New("a budget for this category and month already exists")

	// ErrInitTimeout is returned to callers that waited on an in-flight
	// storage initialization past the bounded deadline.
	ErrInitTimeout = errors.New("storage initialization timed out")
)

// ValidationError is a field-level, user-correctable failure. The reason is
// meant to be shown verbatim by the presentation layer.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
