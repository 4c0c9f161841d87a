package common

import (
	"errors"
	"fmt"
)

// Domain error kinds. Handlers map these to HTTP statuses; the engine never
// retries them because each one is either caller error or a genuine
// constraint violation.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidDepth      = errors.New("category depth limit exceeded")
	ErrCycleDetected     = errors.New("category move would create a cycle")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidArgument   = errors.New("invalid argument")
)

// PersistenceError wraps an underlying store failure. The caller may retry
// the whole mutation once at the transaction boundary; nothing inside the
// engine loops on it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// WrapPersistence tags a store error unless it already carries a domain kind.
func WrapPersistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsDomainError(err) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsDomainError reports whether err is one of the typed domain failures.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidDepth) ||
		errors.Is(err, ErrCycleDetected) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrInvalidArgument)
}
