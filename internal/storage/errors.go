package storage

import "errors"

// Storage errors. Runs and their trades are write-once.
var (
	// ErrNotFound is returned when a requested run does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when a run or a (run, trade index) pair is
	// written twice. Stored runs are immutable.
	ErrDuplicateKey = errors.New("duplicate key: stored runs are immutable")

	// ErrInvalidInput is returned when a record lacks its run id or key.
	ErrInvalidInput = errors.New("invalid input")
)
