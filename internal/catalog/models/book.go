package models

import (
	"time"

	dErrors "libris/pkg/domain-errors"
	"libris/pkg/dates"
)

// Book is a catalog title. Physical copies are tracked separately; a book
// row is never deleted while copies reference it.
type Book struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	Summary         string     `json:"summary"`
	ISBN            *string    `json:"isbn,omitempty"`
	PublicationDate *time.Time `json:"publication_date,omitempty"`
}

// CreateBookRequest creates a book together with its initial copies,
// numbered 1..Copies. Book and copies commit in one transaction.
type CreateBookRequest struct {
	Title           string      `json:"title" validate:"required,max=200"`
	Summary         string      `json:"summary" validate:"required"`
	ISBN            *string     `json:"isbn,omitempty" validate:"omitempty,len=13"`
	PublicationDate *dates.Date `json:"publication_date,omitempty"`
	Copies          int         `json:"copies" validate:"min=0"`
}

// Validate applies the rules the struct tags cannot express.
func (r *CreateBookRequest) Validate(now time.Time) error {
	if r.PublicationDate != nil && dates.Of(r.PublicationDate.Time).After(dates.Of(now)) {
		return dErrors.New(dErrors.CodeValidation, "publication_date must be set in the past")
	}
	return nil
}

// Book constructs the catalog row described by the request.
func (r *CreateBookRequest) Book() *Book {
	b := &Book{
		Title:   r.Title,
		Summary: r.Summary,
		ISBN:    r.ISBN,
	}
	if r.PublicationDate != nil {
		d := dates.Of(r.PublicationDate.Time)
		b.PublicationDate = &d
	}
	return b
}

// BookPatch is a typed partial update: only non-nil fields are applied.
type BookPatch struct {
	Title           *string     `json:"title,omitempty" validate:"omitempty,max=200"`
	Summary         *string     `json:"summary,omitempty"`
	ISBN            *string     `json:"isbn,omitempty" validate:"omitempty,len=13"`
	PublicationDate *dates.Date `json:"publication_date,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p *BookPatch) IsEmpty() bool {
	return p.Title == nil && p.Summary == nil && p.ISBN == nil && p.PublicationDate == nil
}

// Apply mutates the book with the fields present in the patch.
func (p *BookPatch) Apply(b *Book, now time.Time) error {
	if p.Title != nil {
		if *p.Title == "" {
			return dErrors.New(dErrors.CodeValidation, "title must not be empty")
		}
		b.Title = *p.Title
	}
	if p.Summary != nil {
		b.Summary = *p.Summary
	}
	if p.ISBN != nil {
		b.ISBN = p.ISBN
	}
	if p.PublicationDate != nil {
		d := dates.Of(p.PublicationDate.Time)
		if d.After(dates.Of(now)) {
			return dErrors.New(dErrors.CodeValidation, "publication_date must be set in the past")
		}
		b.PublicationDate = &d
	}
	return nil
}

// CopySummary is the per-copy line item on a book detail response.
type CopySummary struct {
	CopyNumber int    `json:"copy_number"`
	Status     string `json:"status"`
}

// BookDetail is a book with the state of every registered copy.
type BookDetail struct {
	Book
	Copies []CopySummary `json:"copies"`
}
