package repository

import "errors"

var (
	// ErrNotFound indicates an entity was not located.
	ErrNotFound = errors.New("repository: not found")
	// ErrConflict indicates a uniqueness constraint rejected the write.
	ErrConflict = errors.New("repository: conflict")
	// ErrInvalidReference indicates a foreign key pointed at a missing row.
	ErrInvalidReference = errors.New("repository: invalid reference")
)
