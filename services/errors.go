package services

import (
	"errors"
	"fmt"

	"github.com/cppla/contactbox/repository"
)

var (
	// ErrNotFound is returned when an identifier does not resolve to a record.
	ErrNotFound = errors.New("not found")
	// ErrNoFile is returned when an upload carries no file.
	ErrNoFile = errors.New("no file uploaded")
	// ErrFileTooLarge is returned when an upload exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")
)

// ValidationError reports a missing or blank required field.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// StorageError wraps a failed database or file operation.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *StorageError) Unwrap() error { return e.Err }

// NotificationError wraps a failed email dispatch.
type NotificationError struct {
	Err error
}

func (e *NotificationError) Error() string { return "notification: " + e.Err.Error() }

func (e *NotificationError) Unwrap() error { return e.Err }

// storeErr maps repository failures onto the service error taxonomy.
func storeErr(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return &StorageError{Op: op, Err: err}
}
