// Package common provides shared constants, types, and utilities
// used across the eduVPN client core.
package common

import "errors"

// Sentinel errors for discovery and authorization operations.
// These can be checked with errors.Is() for proper error handling.
var (
	// Discovery errors.
	ErrNotFound       = errors.New("discovery data not found")
	ErrStaleData      = errors.New("discovery data too old")
	ErrAllTiersFailed = errors.New("all discovery tiers failed")

	// Message decoding errors.
	ErrDecodeFailed = errors.New("malformed message payload")

	// Authorization errors.
	//
	// ErrAuthCancelled is a non-error outcome: the user dismissed the
	// authorization surface. Callers must check it before ErrAuthFailed
	// and suppress user-facing alerts when it occurs.
	ErrAuthFailed     = errors.New("authorization failed")
	ErrAuthCancelled  = errors.New("authorization cancelled")
	ErrAuthInProgress = errors.New("authorization already in progress")

	// Token storage errors.
	ErrTokenNotFound = errors.New("no stored token")
	ErrTokenStorage  = errors.New("failed to store token")

	// Configuration errors.
	ErrConfigLoad = errors.New("failed to load configuration")
	ErrConfigSave = errors.New("failed to save configuration")
)

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{
		msg: message,
		err: err,
	}
}

type wrappedError struct {
	msg string
	err error
}

func (e *wrappedError) Error() string {
	return e.msg + ": " + e.err.Error()
}

func (e *wrappedError) Unwrap() error {
	return e.err
}
