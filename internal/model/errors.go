package model

import "errors"

var (
	// ErrNotFound is returned by stores when the requested row does not
	// exist or is soft-deleted.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned by stores on unique constraint violations.
	ErrConflict = errors.New("already exists")
)
