package errorutil

import "errors"

// ErrDataIntegrity is a base error type to use for failures that are due to
// unrecoverable data integrity issues.
var ErrDataIntegrity = errors.New("data integrity error")

// ErrInvalidFormat is returned when the input is not a trace in the expected
// binary layout at all (bad magic, truncated framing).
var ErrInvalidFormat = errors.New("invalid format")

// IsInputError reports whether err was caused by the input data rather than
// by the environment.
func IsInputError(err error) bool {
	return errors.Is(err, ErrDataIntegrity) || errors.Is(err, ErrInvalidFormat)
}
