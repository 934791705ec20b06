package domain

import (
	"github.com/pkg/errors"
)

// Kind classifies an error returned by the core.
type Kind string

const (
	KindUnknown       Kind = "unknown"
	KindInvalidInput  Kind = "invalid_input"
	KindNotFound      Kind = "not_found"
	KindAlreadyExists Kind = "already_exists"
	KindUnavailable   Kind = "unavailable"
)

var (
	// ErrInvalidInput means caller-supplied data failed validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound means a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists means a uniqueness invariant would be violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrUnavailable means the backing storage could not serve the request.
	ErrUnavailable = errors.New("unavailable")
)

// InvalidInput wraps ErrInvalidInput with a formatted reason.
func InvalidInput(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidInput, format, args...)
}

// NotFound wraps ErrNotFound with a formatted subject.
func NotFound(format string, args ...any) error {
	return errors.Wrapf(ErrNotFound, format, args...)
}

// AlreadyExists wraps ErrAlreadyExists with a formatted subject.
func AlreadyExists(format string, args ...any) error {
	return errors.Wrapf(ErrAlreadyExists, format, args...)
}

// Unavailable wraps a backend fault so callers can tell it apart from the
// expected outcomes. Errors that already carry a kind are returned unchanged.
func Unavailable(err error, message string) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindUnknown {
		return err
	}
	return errors.Wrapf(ErrUnavailable, "%s: %v", message, err)
}

// KindOf returns the kind carried by err.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadyExists):
		return KindAlreadyExists
	case errors.Is(err, ErrUnavailable):
		return KindUnavailable
	default:
		return KindUnknown
	}
}
