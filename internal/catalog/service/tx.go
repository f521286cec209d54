package service

import (
	"context"
)

// Stores gives a catalog operation access to the stores participating in its
// transaction scope. Copies are included so book creation can register the
// initial copies in the same unit of work.
type Stores interface {
	Books() BookStore
	Copies() CopyStore
}

// StoreTx provides the transactional boundary for catalog mutations.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(s Stores) error) error
}
