package service

import (
	"context"

	dErrors "libris/pkg/domain-errors"
)

// nextCopyNumber assigns the next sequential copy number for a book: the
// maximum existing number (0 when the book has no copies) plus one. Callers
// must hold the book's lock for the rest of the transaction so the returned
// number cannot collide with a concurrent registration; the unique
// (book_id, copy_number) constraint backstops the store level.
func nextCopyNumber(ctx context.Context, copies CopyStore, bookID int64) (int, error) {
	max, err := copies.MaxCopyNumber(ctx, bookID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute next copy number")
	}
	return max + 1, nil
}
