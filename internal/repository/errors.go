package repository

import "errors"

var (
	// ErrNotFound is returned by lookups when the record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrQueueEmpty is returned by Pop when no run is waiting.
	ErrQueueEmpty = errors.New("queue is empty")
)
