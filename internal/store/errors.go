package store

import "errors"

// ErrNotFound is returned when a record does not exist or is filtered
// out by soft deletion.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a unique constraint is violated or a
// write-once field is already set.
var ErrConflict = errors.New("conflict")
