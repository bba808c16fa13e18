package errors

import (
	"errors"
	"fmt"
)

// Common error types for the companion client
var (
	// Gateway errors
	ErrTransport       = errors.New("transport failure")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNotFound        = errors.New("not found")
	ErrUpstream        = errors.New("upstream request failed")
	ErrAlreadyReplayed = errors.New("request already replayed")

	// Credential errors
	ErrNoSession             = errors.New("no active session")
	ErrRefreshFailed         = errors.New("session refresh failed")
	ErrSessionUnrecoverable  = errors.New("session unrecoverable, re-authentication required")
	ErrInvalidSessionPayload = errors.New("invalid session payload")

	// Storage errors
	ErrStorage        = errors.New("storage failure")
	ErrStorageKeyless = errors.New("storage key is required")

	// General errors
	ErrInvalidRequest = errors.New("invalid request")
	ErrDetached       = errors.New("orchestrator detached")
	ErrUnsupported    = errors.New("unsupported operation")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Join returns an error that wraps the given errors
func Join(errs ...error) error {
	return errors.Join(errs...)
}
