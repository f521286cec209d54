//go:build integration

package store_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"

	"libris/internal/lending/models"
	"libris/internal/lending/service"
	"libris/internal/lending/store"
	"libris/pkg/dates"
	"libris/pkg/platform/sentinel"
	"libris/pkg/requestcontext"
	"libris/pkg/testutil/containers"
)

// dbTx runs each unit of work in its own database transaction, the way the
// server wires the service in production.
type dbTx struct {
	db *sql.DB
}

func (t dbTx) RunInTx(ctx context.Context, fn func(s service.Stores) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(store.NewPostgresTx(tx)); err != nil {
		return err
	}
	return tx.Commit()
}

type staticDirectory struct{}

func (staticDirectory) UsernameByID(context.Context, uuid.UUID) (string, error) {
	return "ada", nil
}

type PostgresStoreSuite struct {
	suite.Suite
	pg  *containers.PostgresContainer
	svc *service.Service
	ctx context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.svc = service.New(dbTx{db: s.pg.DB}, store.NewPostgres(s.pg.DB), staticDirectory{})
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(context.Background()))
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), now)
}

func (s *PostgresStoreSuite) createBook(title string) int64 {
	var id int64
	err := s.pg.DB.QueryRowContext(s.ctx,
		`INSERT INTO books (title, summary) VALUES ($1, 'summary') RETURNING id`, title,
	).Scan(&id)
	s.Require().NoError(err)
	return id
}

func (s *PostgresStoreSuite) TestCopyRoundTrip() {
	bookID := s.createBook("Dune")
	copies := store.NewPostgres(s.pg.DB).Copies()

	cp, err := models.NewCopy(bookID, 1)
	s.Require().NoError(err)
	s.Require().NoError(copies.Create(s.ctx, cp))
	s.NotZero(cp.ID)

	found, err := copies.FindByID(s.ctx, cp.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusAvailable, found.Status)
	s.Nil(found.BorrowedOn)
	s.Nil(found.BorrowerID)

	dup, err := models.NewCopy(bookID, 1)
	s.Require().NoError(err)
	s.Require().ErrorIs(copies.Create(s.ctx, dup), sentinel.ErrConflict)

	_, err = copies.FindByID(s.ctx, 9999)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestConcurrentRegistrations() {
	bookID := s.createBook("Dune")

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			_, err := s.svc.RegisterCopy(s.ctx, bookID)
			return err
		})
	}
	s.Require().NoError(g.Wait())

	copies, err := store.NewPostgres(s.pg.DB).Copies().ListByBook(s.ctx, bookID)
	s.Require().NoError(err)
	s.Require().Len(copies, 8)
	for i, cp := range copies {
		s.Equal(i+1, cp.CopyNumber)
	}
}

func (s *PostgresStoreSuite) TestConcurrentBorrows() {
	bookID := s.createBook("Dune")
	detail, err := s.svc.RegisterCopy(s.ctx, bookID)
	s.Require().NoError(err)

	due := dates.Date{Time: time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC)}
	req := &models.BorrowRequest{ReturnDate: due}

	var g errgroup.Group
	failures := make(chan error, 2)
	for i := 0; i < 2; i++ {
		g.Go(func() error {
			if _, err := s.svc.Borrow(s.ctx, detail.ID, uuid.New(), req); err != nil {
				failures <- err
			}
			return nil
		})
	}
	s.Require().NoError(g.Wait())
	close(failures)

	var failed int
	for range failures {
		failed++
	}
	s.Equal(1, failed, "exactly one of two racing borrows must lose")

	cp, err := store.NewPostgres(s.pg.DB).Copies().FindByID(s.ctx, detail.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusOnLoan, cp.Status)
}

func (s *PostgresStoreSuite) TestBorrowReturnPersistsOneRecord() {
	bookID := s.createBook("Dune")
	detail, err := s.svc.RegisterCopy(s.ctx, bookID)
	s.Require().NoError(err)

	borrower := uuid.New()
	due := dates.Date{Time: time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC)}
	_, err = s.svc.Borrow(s.ctx, detail.ID, borrower, &models.BorrowRequest{ReturnDate: due})
	s.Require().NoError(err)

	_, err = s.svc.Return(s.ctx, detail.ID, borrower)
	s.Require().NoError(err)

	records, err := store.NewPostgres(s.pg.DB).Records().ListByCopy(s.ctx, detail.ID)
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal(borrower, records[0].BorrowerID)
	s.Equal(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), records[0].BorrowedOn)
	s.Equal(time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC), records[0].DueOn)

	cp, err := store.NewPostgres(s.pg.DB).Copies().FindByID(s.ctx, detail.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusAvailable, cp.Status)
	s.Nil(cp.BorrowerID)
}

func (s *PostgresStoreSuite) TestMaxCopyNumber() {
	bookID := s.createBook("Dune")
	copies := store.NewPostgres(s.pg.DB).Copies()

	max, err := copies.MaxCopyNumber(s.ctx, bookID)
	s.Require().NoError(err)
	s.Zero(max)

	for n := 1; n <= 3; n++ {
		cp, err := models.NewCopy(bookID, n)
		s.Require().NoError(err)
		s.Require().NoError(copies.Create(s.ctx, cp))
	}

	max, err = copies.MaxCopyNumber(s.ctx, bookID)
	s.Require().NoError(err)
	s.Equal(3, max)
}
