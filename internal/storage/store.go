package storage

import (
	"context"

	catalogservice "libris/internal/catalog/service"
	lendingservice "libris/internal/lending/service"
	dErrors "libris/pkg/domain-errors"
)

// The memory database is exposed through the same store and transaction
// interfaces the services define, so in-memory, Postgres, or future
// persistence swap without rewiring business code.

type lendingView struct{ m *Memory }

func (v lendingView) Books() lendingservice.BookStore     { return memBooks{m: v.m} }
func (v lendingView) Copies() lendingservice.CopyStore    { return memCopies{m: v.m} }
func (v lendingView) Records() lendingservice.RecordStore { return memRecords{m: v.m} }

type lendingReads struct{ m *Memory }

func (v lendingReads) Books() lendingservice.BookStore     { return memBooks{m: v.m, lock: true} }
func (v lendingReads) Copies() lendingservice.CopyStore    { return memCopies{m: v.m, lock: true} }
func (v lendingReads) Records() lendingservice.RecordStore { return memRecords{m: v.m, lock: true} }

type lendingTx struct{ m *Memory }

func (t lendingTx) RunInTx(ctx context.Context, fn func(s lendingservice.Stores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	snap := t.m.snapshot()
	if err := fn(lendingView{m: t.m}); err != nil {
		t.m.restore(snap)
		return err
	}
	return nil
}

// LendingTx returns the transactional boundary for lending mutations.
func (m *Memory) LendingTx() lendingservice.StoreTx { return lendingTx{m: m} }

// LendingStores returns the read-side stores, safe for concurrent use.
func (m *Memory) LendingStores() lendingservice.Stores { return lendingReads{m: m} }

type catalogView struct{ m *Memory }

func (v catalogView) Books() catalogservice.BookStore   { return memBooks{m: v.m} }
func (v catalogView) Copies() catalogservice.CopyStore  { return memCopies{m: v.m} }

type catalogReads struct{ m *Memory }

func (v catalogReads) Books() catalogservice.BookStore  { return memBooks{m: v.m, lock: true} }
func (v catalogReads) Copies() catalogservice.CopyStore { return memCopies{m: v.m, lock: true} }

type catalogTx struct{ m *Memory }

func (t catalogTx) RunInTx(ctx context.Context, fn func(s catalogservice.Stores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	snap := t.m.snapshot()
	if err := fn(catalogView{m: t.m}); err != nil {
		t.m.restore(snap)
		return err
	}
	return nil
}

// CatalogTx returns the transactional boundary for catalog mutations.
func (m *Memory) CatalogTx() catalogservice.StoreTx { return catalogTx{m: m} }

// CatalogStores returns the read-side catalog stores.
func (m *Memory) CatalogStores() catalogservice.Stores { return catalogReads{m: m} }
