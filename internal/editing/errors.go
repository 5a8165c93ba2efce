package editing

import (
	"errors"
	"fmt"

	"github.com/Kyz7/rbac-console/internal/validation"
)

var (
	ErrNotFound = errors.New("record not found")

	// ErrNoSession is returned when saving while no entity is open.
	ErrNoSession = errors.New("no edit in progress")

	ErrUnknownField = errors.New("unknown field")
)

type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AuthorizationError is fatal for the request and never reported as a toast.
type AuthorizationError struct {
	Action string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("This action is unauthorized: %s.", e.Action)
}

// ValidationError carries the per-field messages of a rejected edit.
type ValidationError struct {
	Fields validation.Errors
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Fields.Error()
}

// PersistenceError wraps a store or file storage failure during save.
type PersistenceError struct {
	Entity string
	Err    error
}

func (e *PersistenceError) Error() string {
	return e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
