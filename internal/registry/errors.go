package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL indicates the original URL is not absolute.
	ErrInvalidURL = errors.New("invalid url")
	// ErrInvalidCode indicates a custom code outside [A-Za-z0-9]{3,20}.
	ErrInvalidCode = errors.New("invalid short code")
	// ErrCodeTaken indicates the custom code is used by an existing entry.
	ErrCodeTaken = errors.New("short code already taken")
	// ErrInvalidValidity indicates a negative validity window.
	ErrInvalidValidity = errors.New("validity must be a positive number of minutes")
	// ErrCodeSpaceExhausted indicates generation gave up after the attempt limit.
	ErrCodeSpaceExhausted = errors.New("unable to generate an unused short code")
	// ErrNotFound indicates no entry uses the requested code.
	ErrNotFound = errors.New("entry not found")
	// ErrWriteFailed indicates the store rejected a write.
	ErrWriteFailed = errors.New("store write failed")
	// ErrReadFailed indicates the store medium could not be reached.
	ErrReadFailed = errors.New("store read failed")
)

// ValidationError describes rejected input to Create.
// It unwraps to ErrInvalidURL, ErrInvalidCode, ErrCodeTaken or ErrInvalidValidity.
type ValidationError struct {
	Reason error
	Value  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %q", e.Reason, e.Value)
}

func (e *ValidationError) Unwrap() error {
	return e.Reason
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError

	return errors.As(err, &ve)
}

func invalid(reason error, value string) error {
	return &ValidationError{Reason: reason, Value: value}
}

// WriteFailed wraps a medium error so it matches ErrWriteFailed.
func WriteFailed(err error) error {
	return fmt.Errorf("%w: %w", ErrWriteFailed, err)
}

// ReadFailed wraps a medium error so it matches ErrReadFailed.
func ReadFailed(err error) error {
	return fmt.Errorf("%w: %w", ErrReadFailed, err)
}
