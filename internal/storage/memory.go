package storage

import (
	"context"
	"sort"
	"sync"

	catmodels "libris/internal/catalog/models"
	lendmodels "libris/internal/lending/models"
)

// Memory is the in-process database backing the catalog and lending stores.
// It favors clarity over performance: one mutex serializes every transaction,
// which doubles as the row locking a SQL backend gets from FOR UPDATE.
//
// Transactions snapshot the tables up front and restore them when the
// callback fails, so a failed unit of work leaves no partial writes.
type Memory struct {
	mu sync.Mutex

	books   map[int64]catmodels.Book
	copies  map[int64]lendmodels.BookCopy
	records []lendmodels.BorrowRecord

	nextBookID   int64
	nextCopyID   int64
	nextRecordID int64
}

func NewMemory() *Memory {
	return &Memory{
		books:        make(map[int64]catmodels.Book),
		copies:       make(map[int64]lendmodels.BookCopy),
		nextBookID:   1,
		nextCopyID:   1,
		nextRecordID: 1,
	}
}

type snapshot struct {
	books        map[int64]catmodels.Book
	copies       map[int64]lendmodels.BookCopy
	records      []lendmodels.BorrowRecord
	nextBookID   int64
	nextCopyID   int64
	nextRecordID int64
}

func (m *Memory) snapshot() snapshot {
	s := snapshot{
		books:        make(map[int64]catmodels.Book, len(m.books)),
		copies:       make(map[int64]lendmodels.BookCopy, len(m.copies)),
		records:      append([]lendmodels.BorrowRecord(nil), m.records...),
		nextBookID:   m.nextBookID,
		nextCopyID:   m.nextCopyID,
		nextRecordID: m.nextRecordID,
	}
	for id, b := range m.books {
		s.books[id] = cloneBook(b)
	}
	for id, c := range m.copies {
		s.copies[id] = cloneCopy(c)
	}
	return s
}

func (m *Memory) restore(s snapshot) {
	m.books = s.books
	m.copies = s.copies
	m.records = s.records
	m.nextBookID = s.nextBookID
	m.nextCopyID = s.nextCopyID
	m.nextRecordID = s.nextRecordID
}

// Rows are stored and returned by value; pointer fields are re-pointed on
// every boundary crossing so callers never alias table state.
func cloneCopy(c lendmodels.BookCopy) lendmodels.BookCopy {
	if c.BorrowedOn != nil {
		t := *c.BorrowedOn
		c.BorrowedOn = &t
	}
	if c.DueOn != nil {
		t := *c.DueOn
		c.DueOn = &t
	}
	if c.BorrowerID != nil {
		id := *c.BorrowerID
		c.BorrowerID = &id
	}
	return c
}

func cloneBook(b catmodels.Book) catmodels.Book {
	if b.ISBN != nil {
		s := *b.ISBN
		b.ISBN = &s
	}
	if b.PublicationDate != nil {
		t := *b.PublicationDate
		b.PublicationDate = &t
	}
	return b
}

// memBooks serves both the catalog's full book persistence and the lending
// module's narrow view of it. With lock set, every call takes the database
// mutex; inside a transaction the mutex is already held.
type memBooks struct {
	m    *Memory
	lock bool
}

func (s memBooks) guard() func() {
	if !s.lock {
		return func() {}
	}
	s.m.mu.Lock()
	return s.m.mu.Unlock
}

func (s memBooks) Create(_ context.Context, book *catmodels.Book) error {
	defer s.guard()()
	if book.ISBN != nil {
		for _, existing := range s.m.books {
			if existing.ISBN != nil && *existing.ISBN == *book.ISBN {
				return ErrConflict
			}
		}
	}
	book.ID = s.m.nextBookID
	s.m.nextBookID++
	s.m.books[book.ID] = cloneBook(*book)
	return nil
}

func (s memBooks) FindByID(_ context.Context, id int64) (*catmodels.Book, error) {
	defer s.guard()()
	book, ok := s.m.books[id]
	if !ok {
		return nil, ErrNotFound
	}
	book = cloneBook(book)
	return &book, nil
}

func (s memBooks) FindByIDForUpdate(ctx context.Context, id int64) (*catmodels.Book, error) {
	return s.FindByID(ctx, id)
}

func (s memBooks) Update(_ context.Context, book *catmodels.Book) error {
	defer s.guard()()
	if _, ok := s.m.books[book.ID]; !ok {
		return ErrNotFound
	}
	if book.ISBN != nil {
		for id, existing := range s.m.books {
			if id != book.ID && existing.ISBN != nil && *existing.ISBN == *book.ISBN {
				return ErrConflict
			}
		}
	}
	s.m.books[book.ID] = cloneBook(*book)
	return nil
}

func (s memBooks) List(_ context.Context) ([]catmodels.Book, error) {
	defer s.guard()()
	out := make([]catmodels.Book, 0, len(s.m.books))
	for _, b := range s.m.books {
		out = append(out, cloneBook(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s memBooks) FindForUpdate(_ context.Context, bookID int64) (string, error) {
	defer s.guard()()
	book, ok := s.m.books[bookID]
	if !ok {
		return "", ErrNotFound
	}
	return book.Title, nil
}

func (s memBooks) Title(ctx context.Context, bookID int64) (string, error) {
	return s.FindForUpdate(ctx, bookID)
}

type memCopies struct {
	m    *Memory
	lock bool
}

func (s memCopies) guard() func() {
	if !s.lock {
		return func() {}
	}
	s.m.mu.Lock()
	return s.m.mu.Unlock
}

func (s memCopies) FindByID(_ context.Context, id int64) (*lendmodels.BookCopy, error) {
	defer s.guard()()
	cp, ok := s.m.copies[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp = cloneCopy(cp)
	return &cp, nil
}

func (s memCopies) FindByIDForUpdate(ctx context.Context, id int64) (*lendmodels.BookCopy, error) {
	return s.FindByID(ctx, id)
}

func (s memCopies) Create(_ context.Context, cp *lendmodels.BookCopy) error {
	defer s.guard()()
	for _, existing := range s.m.copies {
		if existing.BookID == cp.BookID && existing.CopyNumber == cp.CopyNumber {
			return ErrConflict
		}
	}
	cp.ID = s.m.nextCopyID
	s.m.nextCopyID++
	s.m.copies[cp.ID] = cloneCopy(*cp)
	return nil
}

func (s memCopies) Update(_ context.Context, cp *lendmodels.BookCopy) error {
	defer s.guard()()
	if _, ok := s.m.copies[cp.ID]; !ok {
		return ErrNotFound
	}
	s.m.copies[cp.ID] = cloneCopy(*cp)
	return nil
}

func (s memCopies) MaxCopyNumber(_ context.Context, bookID int64) (int, error) {
	defer s.guard()()
	max := 0
	for _, cp := range s.m.copies {
		if cp.BookID == bookID && cp.CopyNumber > max {
			max = cp.CopyNumber
		}
	}
	return max, nil
}

func (s memCopies) List(_ context.Context) ([]lendmodels.BookCopy, error) {
	defer s.guard()()
	out := make([]lendmodels.BookCopy, 0, len(s.m.copies))
	for _, cp := range s.m.copies {
		out = append(out, cloneCopy(cp))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BookID != out[j].BookID {
			return out[i].BookID < out[j].BookID
		}
		return out[i].CopyNumber < out[j].CopyNumber
	})
	return out, nil
}

func (s memCopies) ListByBook(_ context.Context, bookID int64) ([]lendmodels.BookCopy, error) {
	defer s.guard()()
	var out []lendmodels.BookCopy
	for _, cp := range s.m.copies {
		if cp.BookID == bookID {
			out = append(out, cloneCopy(cp))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CopyNumber < out[j].CopyNumber })
	return out, nil
}

type memRecords struct {
	m    *Memory
	lock bool
}

func (s memRecords) guard() func() {
	if !s.lock {
		return func() {}
	}
	s.m.mu.Lock()
	return s.m.mu.Unlock
}

func (s memRecords) Append(_ context.Context, record *lendmodels.BorrowRecord) error {
	defer s.guard()()
	record.ID = s.m.nextRecordID
	s.m.nextRecordID++
	s.m.records = append(s.m.records, *record)
	return nil
}

func (s memRecords) ListByCopy(_ context.Context, copyID int64) ([]lendmodels.BorrowRecord, error) {
	defer s.guard()()
	var out []lendmodels.BorrowRecord
	for _, r := range s.m.records {
		if r.CopyID == copyID {
			out = append(out, r)
		}
	}
	return out, nil
}
