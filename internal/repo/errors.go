package repo

import "errors"

var (
	// ErrNotFound is returned when no record matches the requested id or username.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a username is already taken (case-insensitive).
	ErrConflict = errors.New("conflict")
)
