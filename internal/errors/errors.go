package errors

import (
	"errors"
	"fmt"
)

// Common error types for the chat relay
var (
	// Credential errors
	ErrConfigIncomplete = errors.New("oauth2 configuration incomplete")
	ErrRefreshFailed    = errors.New("token refresh failed")
	ErrUnavailable      = errors.New("no usable credential available")

	// Session errors
	ErrUnknownSession = errors.New("unknown session")
	ErrStorageCorrupt = errors.New("session storage corrupt")

	// Relay errors
	ErrUpstream       = errors.New("knowledge base request failed")
	ErrEmptyQuestion  = errors.New("question is empty")
	ErrRelayNotConfig = errors.New("knowledge base url not configured")
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
