package borrowing

import "errors"

// ErrNotFound is returned when a request, line, or book the operation
// targets does not exist (zero rows affected).
var ErrNotFound = errors.New("not found")

// ValidationError reports missing or malformed input, detected before any
// write happens.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// PolicyViolation reports a request that is well-formed but exceeds the
// borrower type's policy limits.
type PolicyViolation struct {
	Reason string
}

func (e *PolicyViolation) Error() string {
	return e.Reason
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsPolicyViolation reports whether err is a policy limit failure.
func IsPolicyViolation(err error) bool {
	var pe *PolicyViolation
	return errors.As(err, &pe)
}
