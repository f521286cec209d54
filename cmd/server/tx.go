package main

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	catalogservice "libris/internal/catalog/service"
	catalogstore "libris/internal/catalog/store"
	lendingservice "libris/internal/lending/service"
	lendingstore "libris/internal/lending/store"
	dErrors "libris/pkg/domain-errors"
)

const (
	defaultTxTimeout = 5 * time.Second
	txRetries        = 3
)

// retryable reports whether the transaction lost a serialization or deadlock
// race and is safe to run again from the top.
func retryable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}

func runInTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTxTimeout)
		defer cancel()
	}

	var err error
	for attempt := 0; attempt < txRetries; attempt++ {
		err = func() error {
			tx, beginErr := db.BeginTx(ctx, nil)
			if beginErr != nil {
				return beginErr
			}
			defer func() {
				_ = tx.Rollback()
			}()

			if fnErr := fn(tx); fnErr != nil {
				return fnErr
			}
			return tx.Commit()
		}()
		if err == nil || !retryable(err) {
			return err
		}
	}
	return err
}

type lendingPostgresTx struct {
	db *sql.DB
}

func newLendingPostgresTx(db *sql.DB) *lendingPostgresTx {
	return &lendingPostgresTx{db: db}
}

func (t *lendingPostgresTx) RunInTx(ctx context.Context, fn func(s lendingservice.Stores) error) error {
	return runInTx(ctx, t.db, func(tx *sql.Tx) error {
		return fn(lendingstore.NewPostgresTx(tx))
	})
}

type catalogPostgresTx struct {
	db *sql.DB
}

func newCatalogPostgresTx(db *sql.DB) *catalogPostgresTx {
	return &catalogPostgresTx{db: db}
}

func (t *catalogPostgresTx) RunInTx(ctx context.Context, fn func(s catalogservice.Stores) error) error {
	return runInTx(ctx, t.db, func(tx *sql.Tx) error {
		return fn(catalogstore.NewPostgresTx(tx))
	})
}
