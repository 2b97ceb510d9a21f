package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a referenced term, example or version does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidTransition is returned when a moderation decision targets an item
// that already reached a terminal status.
var ErrInvalidTransition = errors.New("invalid moderation transition")

// ErrInvalidCredentials is returned by Login for an unknown user or wrong password.
var ErrInvalidCredentials = errors.New("invalid username or password")

// ErrUnknownAccount is returned when a valid token names a user that no longer exists.
var ErrUnknownAccount = errors.New("account no longer exists")

// ValidationError reports malformed, missing or out-of-enum input. Fields are
// listed in the order they were checked; Options enumerates the accepted
// values when a closed set was violated.
type ValidationError struct {
	Message string
	Fields  []string
	Options []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Fields, ", "))
}

// AuthorizationError reports an actor lacking the capability an operation needs.
type AuthorizationError struct {
	Actor    Actor
	Required Capability
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("%s capability required, actor has %s", e.Required, e.Actor.Capability)
}

// PersistenceError wraps a failed record-store call. Callers should retry
// with backoff.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Retryable is always true; timeouts and store failures are transient by contract.
func (e *PersistenceError) Retryable() bool { return true }

// Timeout reports whether the failure came from a deadline or cancellation.
func (e *PersistenceError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded) || errors.Is(e.Err, context.Canceled)
}

func persistenceError(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// PartialWriteWarning records that a term was saved but a dependent write
// failed. It never fails the request that produced it.
type PartialWriteWarning struct {
	TermID string
	Stage  string
	Err    error
}

func (w *PartialWriteWarning) Error() string {
	return fmt.Sprintf("term %s saved but %s failed: %v", w.TermID, w.Stage, w.Err)
}

func (w *PartialWriteWarning) Unwrap() error { return w.Err }
