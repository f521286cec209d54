package models

import (
	"time"

	"github.com/google/uuid"

	dErrors "libris/pkg/domain-errors"
	"libris/pkg/dates"
)

// CopyStatus is the circulation state of a single physical copy.
type CopyStatus string

const (
	StatusAvailable   CopyStatus = "Available"
	StatusOnLoan      CopyStatus = "On Loan"
	StatusUnavailable CopyStatus = "Unavailable"
)

// BookCopy is one physical, trackable unit of a book.
//
// Invariants:
//   - CopyNumber is a positive integer, unique within the owning book
//   - BorrowedOn and DueOn are both nil or both set; when set, DueOn >= BorrowedOn
//   - BorrowerID is non-nil if and only if Status == StatusOnLoan
//   - Status == StatusOnLoan implies BorrowedOn and DueOn are set
//
// The copy is created Available with all loan fields nil and is mutated only
// through the Can*/Apply* transition methods below. Copies are never deleted
// while borrow records reference them.
type BookCopy struct {
	ID         int64      `json:"id"`
	BookID     int64      `json:"book_id"`
	CopyNumber int        `json:"copy_number"`
	Status     CopyStatus `json:"status"`
	BorrowedOn *time.Time `json:"borrowed_on,omitempty"`
	DueOn      *time.Time `json:"due_on,omitempty"`
	BorrowerID *uuid.UUID `json:"borrower_id,omitempty"`
}

// NewCopy constructs an Available copy with the given number.
func NewCopy(bookID int64, copyNumber int) (*BookCopy, error) {
	if copyNumber < 1 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "copy number must be a positive integer")
	}
	return &BookCopy{
		BookID:     bookID,
		CopyNumber: copyNumber,
		Status:     StatusAvailable,
	}, nil
}

func (c *BookCopy) IsAvailable() bool {
	return c.Status == StatusAvailable
}

func (c *BookCopy) IsOnLoan() bool {
	return c.Status == StatusOnLoan
}

// CanBorrow checks whether the copy can move to On Loan.
// Returns an error carrying the current status so callers can surface it.
// Use with ApplyBorrow inside a transaction scope.
func (c *BookCopy) CanBorrow() error {
	if c.Status != StatusAvailable {
		return dErrors.Newf(dErrors.CodeBadRequest, "the copy is currently %s", c.Status)
	}
	return nil
}

// ApplyBorrow transitions the copy to On Loan for the given borrower.
// Call CanBorrow first to validate the transition.
func (c *BookCopy) ApplyBorrow(borrowerID uuid.UUID, borrowedOn, dueOn time.Time) {
	b := dates.Of(borrowedOn)
	d := dates.Of(dueOn)
	c.Status = StatusOnLoan
	c.BorrowedOn = &b
	c.DueOn = &d
	c.BorrowerID = &borrowerID
}

// CanReturn checks whether the given borrower may return the copy.
// Use with ApplyReturn inside a transaction scope.
func (c *BookCopy) CanReturn(borrowerID uuid.UUID) error {
	if c.BorrowerID == nil {
		return dErrors.New(dErrors.CodeBadRequest, "the copy has no active loan")
	}
	if *c.BorrowerID != borrowerID {
		return dErrors.New(dErrors.CodeBadRequest, "the copy was borrowed by another member")
	}
	return nil
}

// ApplyReturn completes the loan: it produces the immutable borrow record for
// the loan just ended, clears the loan fields, and returns the copy to
// Available. Call CanReturn first; the caller must persist the record and the
// copy in the same transaction.
func (c *BookCopy) ApplyReturn(returnedOn time.Time) *BorrowRecord {
	record := &BorrowRecord{
		CopyID:     c.ID,
		BorrowerID: *c.BorrowerID,
		BorrowedOn: *c.BorrowedOn,
		DueOn:      *c.DueOn,
		ReturnedOn: dates.Of(returnedOn),
	}
	c.Status = StatusAvailable
	c.BorrowedOn = nil
	c.DueOn = nil
	c.BorrowerID = nil
	return record
}

// CanDisable checks whether the copy may be taken out of circulation.
// Disabling an already Unavailable copy is allowed (idempotent no-op).
func (c *BookCopy) CanDisable() error {
	if c.Status == StatusOnLoan {
		return dErrors.New(dErrors.CodeBadRequest, "cannot disable a copy that is currently on loan")
	}
	return nil
}

// ApplyDisable transitions the copy to Unavailable. No-op when already
// Unavailable. Call CanDisable first.
func (c *BookCopy) ApplyDisable() {
	c.Status = StatusUnavailable
}
