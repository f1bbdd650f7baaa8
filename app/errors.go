// Package app contains the services composing domain logic with ports.
package app

import (
	"errors"
	"fmt"
)

// ErrConflict is returned when the numbering retry budget is exhausted
// after repeated unique-constraint collisions.
var ErrConflict = errors.New("document number conflict")

// LimitExceededError is a plan gate rejection. It carries the plan and
// the limit that was hit so callers can render an upgrade prompt.
type LimitExceededError struct {
	Plan  string
	Limit int64
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("plan %s: invoice limit of %d reached", e.Plan, e.Limit)
}

// InvalidTransitionError is a status change the lifecycle rules forbid.
type InvalidTransitionError struct {
	Doc  string
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: cannot transition from %s to %s", e.Doc, e.From, e.To)
}

// ValidationError is malformed input caught before any write.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func validation(format string, args ...any) *ValidationError {
	return &ValidationError{Err: fmt.Errorf(format, args...)}
}
