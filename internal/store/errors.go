package store

import "errors"

var (
	// ErrNotFound indicates that no record exists for the requested id.
	ErrNotFound = errors.New("record not found")

	// ErrConflict indicates that a unique field is already taken.
	ErrConflict = errors.New("record already exists")
)
