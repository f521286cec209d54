package storage_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	catmodels "libris/internal/catalog/models"
	lendmodels "libris/internal/lending/models"
	lendingservice "libris/internal/lending/service"
	"libris/internal/storage"
	"libris/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	mem *storage.Memory
	ctx context.Context
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.mem = storage.NewMemory()
	s.ctx = context.Background()
}

func (s *MemoryStoreSuite) createBook(title string) *catmodels.Book {
	book := &catmodels.Book{Title: title, Summary: "summary"}
	s.Require().NoError(s.mem.CatalogStores().Books().Create(s.ctx, book))
	return book
}

func (s *MemoryStoreSuite) TestBooks() {
	s.Run("creates and finds a book", func() {
		book := s.createBook("Dune")
		s.NotZero(book.ID)

		found, err := s.mem.CatalogStores().Books().FindByID(s.ctx, book.ID)
		s.Require().NoError(err)
		s.Equal("Dune", found.Title)
	})

	s.Run("returns ErrNotFound for an unknown id", func() {
		_, err := s.mem.CatalogStores().Books().FindByID(s.ctx, 999)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rejects a duplicate isbn", func() {
		isbn := "9780441013593"
		first := &catmodels.Book{Title: "A", Summary: "x", ISBN: &isbn}
		s.Require().NoError(s.mem.CatalogStores().Books().Create(s.ctx, first))

		dup := &catmodels.Book{Title: "B", Summary: "y", ISBN: &isbn}
		s.Require().ErrorIs(s.mem.CatalogStores().Books().Create(s.ctx, dup), sentinel.ErrConflict)
	})

	s.Run("title lookup serves the lending view", func() {
		book := s.createBook("Hyperion")
		title, err := s.mem.LendingStores().Books().Title(s.ctx, book.ID)
		s.Require().NoError(err)
		s.Equal("Hyperion", title)
	})
}

func (s *MemoryStoreSuite) TestCopies() {
	s.Run("enforces copy number uniqueness per book", func() {
		book := s.createBook("Dune")
		copies := s.mem.LendingStores().Copies()

		first, _ := lendmodels.NewCopy(book.ID, 1)
		s.Require().NoError(copies.Create(s.ctx, first))

		dup, _ := lendmodels.NewCopy(book.ID, 1)
		s.Require().ErrorIs(copies.Create(s.ctx, dup), sentinel.ErrConflict)

		other := s.createBook("Hyperion")
		reused, _ := lendmodels.NewCopy(other.ID, 1)
		s.Require().NoError(copies.Create(s.ctx, reused))
	})

	s.Run("tracks the max copy number per book", func() {
		book := s.createBook("Dune")
		copies := s.mem.LendingStores().Copies()

		max, err := copies.MaxCopyNumber(s.ctx, book.ID)
		s.Require().NoError(err)
		s.Zero(max)

		for n := 1; n <= 3; n++ {
			cp, _ := lendmodels.NewCopy(book.ID, n)
			s.Require().NoError(copies.Create(s.ctx, cp))
		}
		max, err = copies.MaxCopyNumber(s.ctx, book.ID)
		s.Require().NoError(err)
		s.Equal(3, max)
	})

	s.Run("returned rows do not alias table state", func() {
		book := s.createBook("Dune")
		copies := s.mem.LendingStores().Copies()
		cp, _ := lendmodels.NewCopy(book.ID, 1)
		s.Require().NoError(copies.Create(s.ctx, cp))

		got, err := copies.FindByID(s.ctx, cp.ID)
		s.Require().NoError(err)
		got.Status = lendmodels.StatusUnavailable

		again, err := copies.FindByID(s.ctx, cp.ID)
		s.Require().NoError(err)
		s.Equal(lendmodels.StatusAvailable, again.Status)
	})
}

func (s *MemoryStoreSuite) TestTransactionRollback() {
	book := s.createBook("Dune")

	// A failing callback must leave no partial writes behind.
	err := s.mem.LendingTx().RunInTx(s.ctx, func(st lendingservice.Stores) error {
		cp, _ := lendmodels.NewCopy(book.ID, 1)
		s.Require().NoError(st.Copies().Create(s.ctx, cp))

		record := &lendmodels.BorrowRecord{CopyID: cp.ID, BorrowerID: uuid.New()}
		s.Require().NoError(st.Records().Append(s.ctx, record))

		return sentinel.ErrInvalidState
	})
	s.Require().ErrorIs(err, sentinel.ErrInvalidState)

	copies, err := s.mem.LendingStores().Copies().List(s.ctx)
	s.Require().NoError(err)
	s.Empty(copies)

	max, err := s.mem.LendingStores().Copies().MaxCopyNumber(s.ctx, book.ID)
	s.Require().NoError(err)
	s.Zero(max)
}

func (s *MemoryStoreSuite) TestRecordsOrder() {
	book := s.createBook("Dune")
	copies := s.mem.LendingStores().Copies()
	records := s.mem.LendingStores().Records()

	cp, _ := lendmodels.NewCopy(book.ID, 1)
	s.Require().NoError(copies.Create(s.ctx, cp))

	borrowers := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, b := range borrowers {
		s.Require().NoError(records.Append(s.ctx, &lendmodels.BorrowRecord{CopyID: cp.ID, BorrowerID: b}))
	}

	got, err := records.ListByCopy(s.ctx, cp.ID)
	s.Require().NoError(err)
	s.Require().Len(got, 3)
	for i, b := range borrowers {
		s.Equal(b, got[i].BorrowerID)
	}
}
