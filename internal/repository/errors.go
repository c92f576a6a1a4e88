package repository

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist. Cache adapters return it on a miss.
	ErrNotFound = errors.New("repository: not found")
)
