package common

import "errors"

// Callers should match these values with errors.Is; most of them are
// returned wrapped with additional context.
var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// ErrorConflict reports a lost race on a unique key (e.g. two writers
	// inserting the same content hash). The content store resolves it
	// internally by reading the winning row.
	ErrorConflict = errors.New("conflict")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")

	// Validation errors, always raised before any store mutation.
	ErrorValidation = errors.New("invalid request")

	// Session lifecycle errors.
	ErrSessionExpired = errors.New("session expired")
)
