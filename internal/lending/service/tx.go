package service

import (
	"context"
)

// Stores gives a lending operation access to the stores participating in its
// transaction scope.
type Stores interface {
	Books() BookStore
	Copies() CopyStore
	Records() RecordStore
}

// StoreTx provides the transactional boundary for lending mutations.
// Implementations may wrap a database transaction or, in-memory, a coarse
// lock. Every state-changing lending operation runs entirely inside one
// RunInTx callback so partial writes are never observable; on error the whole
// unit of work rolls back.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(s Stores) error) error
}
