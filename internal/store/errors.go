package store

import "errors"

// Domain errors for the store package.
var (
	// ErrRecordNotFound is returned when an id does not exist.
	ErrRecordNotFound = errors.New("store: record not found")

	// ErrRecordExists is returned when inserting an id that already
	// exists.
	ErrRecordExists = errors.New("store: record already exists")

	// ErrInvalidRecord is returned for records missing an id.
	ErrInvalidRecord = errors.New("store: invalid record")

	// ErrClosed is returned for operations on a closed store.
	ErrClosed = errors.New("store: closed")
)
