package models

import (
	"time"

	"github.com/google/uuid"
)

// BorrowRecord is the immutable historical fact of one completed loan:
// the borrower held the copy from BorrowedOn to DueOn and returned it on
// ReturnedOn. Exactly one record is appended per completed loan, at the
// moment of return, and records are never mutated or deleted.
type BorrowRecord struct {
	ID         int64     `json:"id"`
	CopyID     int64     `json:"copy_id"`
	BorrowerID uuid.UUID `json:"borrower_id"`
	BorrowedOn time.Time `json:"borrowed_on"`
	DueOn      time.Time `json:"due_on"`
	ReturnedOn time.Time `json:"returned_on"`
}
