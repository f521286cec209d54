package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"libris/internal/audit"
	"libris/internal/lending/metrics"
	"libris/internal/lending/models"
	"libris/internal/policy"
	dErrors "libris/pkg/domain-errors"
	"libris/pkg/platform/sentinel"
	"libris/pkg/requestcontext"
)

// BookStore is the lending view of the catalog: enough to validate that a
// book exists and to serialize copy numbering per book.
type BookStore interface {
	// FindForUpdate returns the book's title and locks the book row for the
	// remainder of the transaction, so two concurrent registrations for the
	// same book cannot compute the same next copy number.
	FindForUpdate(ctx context.Context, bookID int64) (title string, err error)
	Title(ctx context.Context, bookID int64) (string, error)
}

// CopyStore persists book copies.
type CopyStore interface {
	FindByID(ctx context.Context, id int64) (*models.BookCopy, error)
	// FindByIDForUpdate locks the copy row for the remainder of the
	// transaction. Concurrent lending operations on the same copy serialize
	// here; the loser observes the post-transition state.
	FindByIDForUpdate(ctx context.Context, id int64) (*models.BookCopy, error)
	Create(ctx context.Context, copy *models.BookCopy) error
	Update(ctx context.Context, copy *models.BookCopy) error
	MaxCopyNumber(ctx context.Context, bookID int64) (int, error)
	List(ctx context.Context) ([]models.BookCopy, error)
}

// RecordStore persists the append-only loan history.
type RecordStore interface {
	Append(ctx context.Context, record *models.BorrowRecord) error
	ListByCopy(ctx context.Context, copyID int64) ([]models.BorrowRecord, error)
}

// BorrowerDirectory resolves member display names for copy detail responses.
// The borrower's lifecycle is independent of the copy's; this is a lookup,
// not ownership.
type BorrowerDirectory interface {
	UsernameByID(ctx context.Context, id uuid.UUID) (string, error)
}

// DetailCache caches resolved copy detail between state changes.
type DetailCache interface {
	Get(ctx context.Context, copyID int64) (*models.CopyDetail, bool)
	Set(ctx context.Context, detail *models.CopyDetail)
	Invalidate(ctx context.Context, copyID int64)
}

// AuditPublisher records lending events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service owns the lending state machine: copy registration with sequential
// numbering, borrow/return/disable transitions, and loan history.
type Service struct {
	tx        StoreTx
	reads     Stores
	borrowers BorrowerDirectory
	logger    *slog.Logger
	metrics   *metrics.Metrics
	cache     DetailCache
	auditor   AuditPublisher
	maxLoan   time.Duration
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithCache(c DetailCache) Option {
	return func(s *Service) { s.cache = c }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.auditor = p }
}

// WithMaxLoanDuration overrides the loan window, for tests.
func WithMaxLoanDuration(d time.Duration) Option {
	return func(s *Service) { s.maxLoan = d }
}

// New constructs the lending service. tx scopes mutations, reads serves
// lookups outside any transaction, borrowers resolves display names.
func New(tx StoreTx, reads Stores, borrowers BorrowerDirectory, opts ...Option) *Service {
	s := &Service{
		tx:        tx,
		reads:     reads,
		borrowers: borrowers,
		logger:    slog.Default(),
		maxLoan:   policy.MaxLoanDuration,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterCopy allocates the next copy number for the book and creates a new
// Available copy. Numbering and insert run in one transaction scope so
// concurrent registrations cannot collide.
func (s *Service) RegisterCopy(ctx context.Context, bookID int64) (*models.CopyDetail, error) {
	var (
		created *models.BookCopy
		title   string
	)
	err := s.tx.RunInTx(ctx, func(st Stores) error {
		var err error
		title, err = st.Books().FindForUpdate(ctx, bookID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeBadRequest, "book not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load book")
		}

		number, err := nextCopyNumber(ctx, st.Copies(), bookID)
		if err != nil {
			return err
		}

		cp, err := models.NewCopy(bookID, number)
		if err != nil {
			return err
		}
		if err := st.Copies().Create(ctx, cp); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeBadRequest, "copy number already taken")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create copy")
		}
		created = cp
		return nil
	})
	if err != nil {
		return nil, s.txError(ctx, "register copy", err)
	}

	s.logAudit(ctx, audit.ActionCopyRegistered, created.ID, created.BookID)
	if s.metrics != nil {
		s.metrics.CopiesRegistered.Inc()
	}
	return &models.CopyDetail{BookCopy: *created, BookTitle: title}, nil
}

// Borrow moves an Available copy to On Loan for the authenticated borrower.
// The requested return date must satisfy today <= return_date <= today+window.
func (s *Service) Borrow(ctx context.Context, copyID int64, borrowerID uuid.UUID, req *models.BorrowRequest) (*models.CopyDetail, error) {
	now := requestcontext.Now(ctx)
	if err := req.ValidateDueDate(now, s.maxLoan); err != nil {
		s.reject("invalid_due_date")
		return nil, err
	}

	var borrowed *models.BookCopy
	err := s.tx.RunInTx(ctx, func(st Stores) error {
		cp, err := s.lockCopy(ctx, st, copyID)
		if err != nil {
			return err
		}
		if err := cp.CanBorrow(); err != nil {
			s.reject("not_available")
			return err
		}
		cp.ApplyBorrow(borrowerID, now, req.ReturnDate.Time)
		if err := st.Copies().Update(ctx, cp); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist loan")
		}
		borrowed = cp
		return nil
	})
	if err != nil {
		return nil, s.txError(ctx, "borrow", err)
	}

	s.invalidate(ctx, copyID)
	s.logAudit(ctx, audit.ActionCopyBorrowed, borrowed.ID, borrowed.BookID)
	if s.metrics != nil {
		s.metrics.Borrows.Inc()
	}
	return s.detail(ctx, borrowed), nil
}

// Return completes the active loan held by the requesting borrower: exactly
// one borrow record is appended and the copy goes back to Available. Append
// and clear commit together; a failure rolls both back.
func (s *Service) Return(ctx context.Context, copyID int64, borrowerID uuid.UUID) (*models.CopyDetail, error) {
	now := requestcontext.Now(ctx)

	var returned *models.BookCopy
	err := s.tx.RunInTx(ctx, func(st Stores) error {
		cp, err := s.lockCopy(ctx, st, copyID)
		if err != nil {
			return err
		}
		if err := cp.CanReturn(borrowerID); err != nil {
			if cp.BorrowerID == nil {
				s.reject("no_active_loan")
			} else {
				s.reject("not_the_borrower")
			}
			return err
		}
		record := cp.ApplyReturn(now)
		if err := st.Records().Append(ctx, record); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append borrow record")
		}
		if err := st.Copies().Update(ctx, cp); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear loan")
		}
		returned = cp
		return nil
	})
	if err != nil {
		return nil, s.txError(ctx, "return", err)
	}

	s.invalidate(ctx, copyID)
	s.logAudit(ctx, audit.ActionCopyReturned, returned.ID, returned.BookID)
	if s.metrics != nil {
		s.metrics.Returns.Inc()
	}
	return s.detail(ctx, returned), nil
}

// Disable takes a copy out of circulation. Rejected while the copy is on
// loan; idempotent when the copy is already Unavailable.
func (s *Service) Disable(ctx context.Context, copyID int64) (*models.CopyDetail, error) {
	var disabled *models.BookCopy
	err := s.tx.RunInTx(ctx, func(st Stores) error {
		cp, err := s.lockCopy(ctx, st, copyID)
		if err != nil {
			return err
		}
		if err := cp.CanDisable(); err != nil {
			s.reject("on_loan")
			return err
		}
		if cp.Status != models.StatusUnavailable {
			cp.ApplyDisable()
			if err := st.Copies().Update(ctx, cp); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to disable copy")
			}
		}
		disabled = cp
		return nil
	})
	if err != nil {
		return nil, s.txError(ctx, "disable", err)
	}

	s.invalidate(ctx, copyID)
	s.logAudit(ctx, audit.ActionCopyDisabled, disabled.ID, disabled.BookID)
	if s.metrics != nil {
		s.metrics.Disables.Inc()
	}
	return s.detail(ctx, disabled), nil
}

// lockCopy loads a copy under the transaction's lock, translating absence
// into a domain 404.
func (s *Service) lockCopy(ctx context.Context, st Stores, copyID int64) (*models.BookCopy, error) {
	cp, err := st.Copies().FindByIDForUpdate(ctx, copyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "copy not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load copy")
	}
	return cp, nil
}

// txError logs non-domain transaction failures and surfaces them as client
// errors; domain rule violations pass through untouched (they are
// deterministic, retrying is pointless).
func (s *Service) txError(ctx context.Context, op string, err error) error {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		return err
	}
	s.logger.ErrorContext(ctx, "lending transaction failed",
		"operation", op,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	return dErrors.Wrap(err, dErrors.CodeBadRequest, "transaction failed")
}

func (s *Service) detail(ctx context.Context, cp *models.BookCopy) *models.CopyDetail {
	detail := &models.CopyDetail{BookCopy: *cp}
	if title, err := s.reads.Books().Title(ctx, cp.BookID); err == nil {
		detail.BookTitle = title
	}
	if cp.BorrowerID != nil && s.borrowers != nil {
		if name, err := s.borrowers.UsernameByID(ctx, *cp.BorrowerID); err == nil {
			detail.Borrower = name
		}
	}
	return detail
}

func (s *Service) invalidate(ctx context.Context, copyID int64) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, copyID)
	}
}

func (s *Service) reject(reason string) {
	if s.metrics != nil {
		s.metrics.Rejections.WithLabelValues(reason).Inc()
	}
}

func (s *Service) logAudit(ctx context.Context, action string, copyID, bookID int64) {
	s.logger.InfoContext(ctx, action,
		"copy_id", copyID,
		"book_id", bookID,
		"member_id", requestcontext.MemberID(ctx),
		"request_id", requestcontext.RequestID(ctx),
		"log_type", "audit",
	)
	if s.auditor == nil {
		return
	}
	_ = s.auditor.Emit(ctx, audit.Event{
		MemberID: requestcontext.MemberID(ctx),
		Action:   action,
		CopyID:   copyID,
		BookID:   bookID,
	})
}
