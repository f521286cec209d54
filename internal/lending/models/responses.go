package models

import "github.com/google/uuid"

// CopyDetail is the copy state returned by lending operations, enriched with
// display fields resolved outside the copy row itself.
type CopyDetail struct {
	BookCopy
	BookTitle string `json:"book_title,omitempty"`
	Borrower  string `json:"borrower,omitempty"`
}

// CopyHistory is the response for the record endpoint: the current borrower
// (if the copy is on loan) plus every completed loan in return order.
type CopyHistory struct {
	CopyID          int64          `json:"copy_id"`
	CurrentBorrower *uuid.UUID     `json:"current_borrower,omitempty"`
	Borrower        string         `json:"borrower,omitempty"`
	Records         []BorrowRecord `json:"records"`
}
