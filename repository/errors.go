package repository

import "errors"

var (
	// ErrNotFound is returned by updates and deletes that matched nothing.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an insert violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate")
	// ErrInvalidID is returned when an identifier is not a valid store id.
	ErrInvalidID = errors.New("invalid id")
)
