package domain

import (
	"errors"
	"fmt"
)

// ErrNoQuestion is returned when an operation needs a current question but the slot is empty.
var ErrNoQuestion = errors.New("no question is being presented")

// ErrModuleNotFound is returned when a module ID is not known to the supervisor.
var ErrModuleNotFound = errors.New("module not found")

// AbandonError signals that a module's shape or state did not match what its
// handler expected. It ends only that module's task.
type AbandonError struct {
	Reason string
}

func (e *AbandonError) Error() string {
	return e.Reason
}

// Abandon builds an AbandonError with a formatted reason.
func Abandon(format string, args ...any) error {
	return &AbandonError{Reason: fmt.Sprintf(format, args...)}
}

// IsAbandon reports whether err (or anything it wraps) is an AbandonError.
func IsAbandon(err error) bool {
	var ae *AbandonError
	return errors.As(err, &ae)
}
