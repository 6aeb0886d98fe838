// Package errors provides error handling for ga4mcp.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - PII-safe error formatting
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Check errors
//	if errors.Is(err, errors.ErrProvider) {
//	    // handle upstream failure
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Mark      = crdb.Mark
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Sentinel errors for the GA4 MCP server.
// Use these with errors.Is() for type-safe error checking.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrNotFound indicates the requested resource does not exist.
	// Note: property resolution misses are reported as nil matches, not
	// as this error; ErrNotFound is reserved for collaborator surfaces.
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates a malformed configuration or request.
	// Raised at construction/validation time, never at query time.
	ErrInvalidRequest = New("invalid request")

	// ErrProvider indicates the Google Analytics API failed. Provider
	// errors propagate to the caller unchanged; no retries happen here.
	ErrProvider = New("analytics provider error")
)

// IsNotFoundError checks if an error is or wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsInvalidRequestError checks if an error is or wraps ErrInvalidRequest.
func IsInvalidRequestError(err error) bool {
	return err != nil && Is(err, ErrInvalidRequest)
}

// IsProviderError checks if an error is or wraps ErrProvider.
func IsProviderError(err error) bool {
	return err != nil && Is(err, ErrProvider)
}

// WrapProvider wraps an upstream API error as a provider error with context.
// The upstream cause chain is preserved, so callers can still reach typed
// causes (e.g. *googleapi.Error) through As.
func WrapProvider(err error, context string) error {
	return Mark(Wrap(err, context), ErrProvider)
}

// NewInvalidRequestError creates an invalid-request error with a formatted message.
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidRequest, Newf(format, args...).Error())
}
