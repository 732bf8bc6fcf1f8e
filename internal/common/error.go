// Package common defines shared constants and sentinel errors used across
// the identity service. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")

	// Storage failures. ErrIrrecoverableStorage means a compensating
	// rollback itself failed and the two stores may disagree; it is
	// non-retryable and requires operator attention.
	ErrStorage              = errors.New("storage error")
	ErrIrrecoverableStorage = errors.New("irrecoverable storage error")

	// Caller input errors.
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrPolicyViolation  = errors.New("policy violation")

	// Auth errors. ErrInvalidCredentials deliberately covers both
	// "no such user" and "wrong password".
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")

	// Generic internal flow control.
	ErrInternal = errors.New("internal error")
)
