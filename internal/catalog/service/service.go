package service

import (
	"context"
	"errors"
	"log/slog"

	"libris/internal/audit"
	"libris/internal/catalog/metrics"
	"libris/internal/catalog/models"
	lendmodels "libris/internal/lending/models"
	dErrors "libris/pkg/domain-errors"
	"libris/pkg/platform/sentinel"
	"libris/pkg/requestcontext"
)

// BookStore persists catalog titles.
type BookStore interface {
	Create(ctx context.Context, book *models.Book) error
	FindByID(ctx context.Context, id int64) (*models.Book, error)
	// FindByIDForUpdate locks the book row for the remainder of the
	// transaction so a patch cannot race another writer.
	FindByIDForUpdate(ctx context.Context, id int64) (*models.Book, error)
	Update(ctx context.Context, book *models.Book) error
	List(ctx context.Context) ([]models.Book, error)
}

// CopyStore is the catalog view of copy persistence: creating the initial
// copies of a new book and listing copies for a book detail response.
type CopyStore interface {
	Create(ctx context.Context, copy *lendmodels.BookCopy) error
	ListByBook(ctx context.Context, bookID int64) ([]lendmodels.BookCopy, error)
}

// AuditPublisher records catalog events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service owns the catalog: book creation with initial copies, lookups, and
// typed partial updates.
type Service struct {
	tx      StoreTx
	reads   Stores
	logger  *slog.Logger
	metrics *metrics.Metrics
	auditor AuditPublisher
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.auditor = p }
}

func New(tx StoreTx, reads Stores, opts ...Option) *Service {
	s := &Service{
		tx:     tx,
		reads:  reads,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateBook creates the title and registers its initial copies, numbered
// 1..req.Copies, in one transaction. Either the book and every copy commit,
// or nothing does.
func (s *Service) CreateBook(ctx context.Context, req *models.CreateBookRequest) (*models.BookDetail, error) {
	if err := req.Validate(requestcontext.Now(ctx)); err != nil {
		return nil, err
	}

	book := req.Book()
	detail := &models.BookDetail{}
	err := s.tx.RunInTx(ctx, func(st Stores) error {
		if err := st.Books().Create(ctx, book); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "a book with this isbn already exists")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create book")
		}
		detail.Book = *book
		for n := 1; n <= req.Copies; n++ {
			cp, err := lendmodels.NewCopy(book.ID, n)
			if err != nil {
				return err
			}
			if err := st.Copies().Create(ctx, cp); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create copy")
			}
			detail.Copies = append(detail.Copies, models.CopySummary{
				CopyNumber: cp.CopyNumber,
				Status:     string(cp.Status),
			})
		}
		return nil
	})
	if err != nil {
		return nil, s.txError(ctx, "create book", err)
	}

	s.logger.InfoContext(ctx, audit.ActionBookCreated,
		"book_id", book.ID,
		"copies", req.Copies,
		"member_id", requestcontext.MemberID(ctx),
		"request_id", requestcontext.RequestID(ctx),
		"log_type", "audit",
	)
	if s.auditor != nil {
		_ = s.auditor.Emit(ctx, audit.Event{
			MemberID: requestcontext.MemberID(ctx),
			Action:   audit.ActionBookCreated,
			BookID:   book.ID,
		})
	}
	if s.metrics != nil {
		s.metrics.BooksCreated.Inc()
	}
	return detail, nil
}

// GetBook returns the title with the state of each registered copy.
func (s *Service) GetBook(ctx context.Context, id int64) (*models.BookDetail, error) {
	book, err := s.findBook(ctx, id)
	if err != nil {
		return nil, err
	}
	copies, err := s.reads.Copies().ListByBook(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list copies")
	}
	detail := &models.BookDetail{Book: *book}
	for _, cp := range copies {
		detail.Copies = append(detail.Copies, models.CopySummary{
			CopyNumber: cp.CopyNumber,
			Status:     string(cp.Status),
		})
	}
	return detail, nil
}

// ListBooks returns every catalog title.
func (s *Service) ListBooks(ctx context.Context) ([]models.Book, error) {
	books, err := s.reads.Books().List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list books")
	}
	return books, nil
}

// PatchBook applies a typed partial update under the book's row lock.
func (s *Service) PatchBook(ctx context.Context, id int64, patch *models.BookPatch) (*models.Book, error) {
	if patch.IsEmpty() {
		return nil, dErrors.New(dErrors.CodeValidation, "patch contains no fields")
	}

	var updated *models.Book
	err := s.tx.RunInTx(ctx, func(st Stores) error {
		book, err := st.Books().FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "book not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load book")
		}
		if err := patch.Apply(book, requestcontext.Now(ctx)); err != nil {
			return err
		}
		if err := st.Books().Update(ctx, book); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "a book with this isbn already exists")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update book")
		}
		updated = book
		return nil
	})
	if err != nil {
		return nil, s.txError(ctx, "patch book", err)
	}

	if s.metrics != nil {
		s.metrics.BookUpdates.Inc()
	}
	return updated, nil
}

func (s *Service) findBook(ctx context.Context, id int64) (*models.Book, error) {
	book, err := s.reads.Books().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "book not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load book")
	}
	return book, nil
}

func (s *Service) txError(ctx context.Context, op string, err error) error {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		return err
	}
	s.logger.ErrorContext(ctx, "catalog transaction failed",
		"operation", op,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	return dErrors.Wrap(err, dErrors.CodeBadRequest, "transaction failed")
}
