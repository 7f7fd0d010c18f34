// Package common defines sentinel errors shared across the service layers.
// Callers should use errors.Is to match these values; user-facing messages
// are attached at the HTTP boundary, not here.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorUsernameTaken = errors.New("username already taken")
	ErrorEmailTaken    = errors.New("email already taken")
)

// ValidationError carries a user-facing description of an input problem.
// Message and Action are surfaced verbatim in the HTTP error body.
type ValidationError struct {
	Message string
	Action  string
}

func (e *ValidationError) Error() string {
	return e.Message
}
