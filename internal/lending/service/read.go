package service

import (
	"context"
	"errors"

	"libris/internal/lending/models"
	dErrors "libris/pkg/domain-errors"
	"libris/pkg/platform/sentinel"
)

// GetCopy returns the detail view of a single copy, read-through cached.
func (s *Service) GetCopy(ctx context.Context, copyID int64) (*models.CopyDetail, error) {
	if s.cache != nil {
		if detail, ok := s.cache.Get(ctx, copyID); ok {
			return detail, nil
		}
	}

	cp, err := s.reads.Copies().FindByID(ctx, copyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "copy not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load copy")
	}

	detail := s.detail(ctx, cp)
	if s.cache != nil {
		s.cache.Set(ctx, detail)
	}
	return detail, nil
}

// ListCopies returns all copies ordered by book then copy number.
func (s *Service) ListCopies(ctx context.Context) ([]models.BookCopy, error) {
	copies, err := s.reads.Copies().List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list copies")
	}
	return copies, nil
}

// GetHistory returns the copy's current borrower (if any) and its completed
// loans in return order.
func (s *Service) GetHistory(ctx context.Context, copyID int64) (*models.CopyHistory, error) {
	cp, err := s.reads.Copies().FindByID(ctx, copyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "copy not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load copy")
	}

	records, err := s.reads.Records().ListByCopy(ctx, copyID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load borrow records")
	}

	history := &models.CopyHistory{
		CopyID:          cp.ID,
		CurrentBorrower: cp.BorrowerID,
		Records:         records,
	}
	if cp.BorrowerID != nil && s.borrowers != nil {
		if name, err := s.borrowers.UsernameByID(ctx, *cp.BorrowerID); err == nil {
			history.Borrower = name
		}
	}
	return history, nil
}
