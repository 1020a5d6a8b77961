package storage

import "errors"

// Common client storage errors
var (
	// ErrItemNotFound indicates that item is absent or expired
	ErrItemNotFound = errors.New("item not found")

	// ErrNotInitialized indicates that Init was not called or failed
	ErrNotInitialized = errors.New("local store is not initialized")

	// ErrUnknownPartition indicates access to a partition outside the well-known set
	ErrUnknownPartition = errors.New("unknown partition")

	// ErrSessionNotFound indicates that no authenticated session is stored
	ErrSessionNotFound = errors.New("session not found")
)
