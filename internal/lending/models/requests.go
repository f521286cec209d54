package models

import (
	"time"

	dErrors "libris/pkg/domain-errors"
	"libris/pkg/dates"
)

// BorrowRequest is the payload for borrowing a copy.
type BorrowRequest struct {
	ReturnDate dates.Date `json:"return_date" validate:"required"`
}

// ValidateDueDate enforces the fixed loan window: the requested return date
// must be no earlier than today and no later than today plus maxLoan.
func (r *BorrowRequest) ValidateDueDate(now time.Time, maxLoan time.Duration) error {
	if r.ReturnDate.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "return_date is required")
	}
	today := dates.Of(now)
	due := dates.Of(r.ReturnDate.Time)
	if due.Before(today) {
		return dErrors.New(dErrors.CodeValidation, "return_date must be today onwards")
	}
	if due.After(today.Add(maxLoan)) {
		return dErrors.Newf(dErrors.CodeValidation, "return_date must be within %d days from today", int(maxLoan.Hours()/24))
	}
	return nil
}

// RegisterCopyRequest is the payload for registering a new physical copy.
// The field name mirrors the public API ("book" carries the book ID).
type RegisterCopyRequest struct {
	BookID int64 `json:"book" validate:"required,gt=0"`
}
