package storage

import "libris/pkg/platform/sentinel"

// Store errors are the shared sentinels so services translate persistence
// failures the same way regardless of backend.
var (
	ErrNotFound = sentinel.ErrNotFound
	ErrConflict = sentinel.ErrConflict
)
