package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared across services. Handlers map these to HTTP statuses
// at the boundary; nothing below the handler layer knows about status codes.
var (
	// ErrNotConnected means no usable token exists for the shop+provider.
	// Absence is an expected state (new shop, revoked access), not a crash.
	ErrNotConnected = errors.New("not connected")

	// ErrNotConfigured means a required secret or endpoint is missing from
	// the environment. Checked lazily on first use, never at startup.
	ErrNotConfigured = errors.New("not configured")

	// ErrNotFound means the requested resource does not exist.
	ErrNotFound = errors.New("not found")
)

// ValidationError names the request fields that were missing or malformed.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing or invalid fields: " + strings.Join(e.Fields, ", ")
}

// NewValidationError builds a ValidationError for the given field names.
func NewValidationError(fields ...string) *ValidationError {
	return &ValidationError{Fields: fields}
}

// ProviderError carries an upstream ad-platform error back to the caller with
// the raw provider message preserved for debuggability.
type ProviderError struct {
	Provider string
	Status   int
	Code     string
	Message  string
	// Auth marks credential problems (expired/revoked token) as opposed to
	// user-data problems, so handlers can answer 401 vs 400.
	Auth bool
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (code %s, status %d)", e.Provider, e.Message, e.Code, e.Status)
	}
	return fmt.Sprintf("%s: %s (status %d)", e.Provider, e.Message, e.Status)
}

// IsAuthError reports whether err is a credential-level provider failure.
func IsAuthError(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Auth
	}
	return errors.Is(err, ErrNotConnected)
}
