package store

import "fmt"

// ValidationError reports an entry that violates a data-model invariant.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports an unknown entry id for a role.
type NotFoundError struct {
	Role string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("memory not found: %s/%s", e.Role, e.ID)
}

// StorageError wraps a persistence-layer failure. It is terminal for the
// single operation but must not affect other roles' stores.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
