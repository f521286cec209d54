// Package store provides the Postgres persistence for the lending module.
// Raw SQL keeps the locking explicit: every read that precedes a write inside
// a transaction uses SELECT ... FOR UPDATE.
package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"libris/internal/lending/models"
	"libris/internal/lending/service"
	"libris/pkg/platform/sentinel"
)

// Queryer abstracts *sql.DB and *sql.Tx so the same store code serves reads
// from the pool and writes inside a transaction.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Postgres bundles the lending stores over one queryer.
type Postgres struct {
	q Queryer
}

// NewPostgres serves reads straight from the pool.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{q: db}
}

// NewPostgresTx scopes the stores to a transaction; FOR UPDATE locks taken
// through it hold until the transaction ends.
func NewPostgresTx(tx *sql.Tx) *Postgres {
	return &Postgres{q: tx}
}

func (p *Postgres) Books() service.BookStore     { return pgBooks{q: p.q} }
func (p *Postgres) Copies() service.CopyStore    { return PgCopies{Q: p.q} }
func (p *Postgres) Records() service.RecordStore { return pgRecords{q: p.q} }

func translate(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return sentinel.ErrConflict
	}
	return err
}

type pgBooks struct {
	q Queryer
}

func (s pgBooks) FindForUpdate(ctx context.Context, bookID int64) (string, error) {
	var title string
	err := s.q.QueryRowContext(ctx,
		`SELECT title FROM books WHERE id = $1 FOR UPDATE`, bookID,
	).Scan(&title)
	if err != nil {
		return "", translate(err)
	}
	return title, nil
}

func (s pgBooks) Title(ctx context.Context, bookID int64) (string, error) {
	var title string
	err := s.q.QueryRowContext(ctx,
		`SELECT title FROM books WHERE id = $1`, bookID,
	).Scan(&title)
	if err != nil {
		return "", translate(err)
	}
	return title, nil
}

// PgCopies is exported because the catalog store reuses it to register the
// initial copies of a new book inside the catalog transaction.
type PgCopies struct {
	Q Queryer
}

const copyColumns = `id, book_id, copy_number, status, borrowed_on, due_on, borrower_id`

func scanCopy(row interface{ Scan(...any) error }) (*models.BookCopy, error) {
	var (
		cp       models.BookCopy
		borrowed sql.NullTime
		due      sql.NullTime
		borrower uuid.NullUUID
	)
	if err := row.Scan(&cp.ID, &cp.BookID, &cp.CopyNumber, &cp.Status, &borrowed, &due, &borrower); err != nil {
		return nil, err
	}
	if borrowed.Valid {
		t := borrowed.Time.UTC()
		cp.BorrowedOn = &t
	}
	if due.Valid {
		t := due.Time.UTC()
		cp.DueOn = &t
	}
	if borrower.Valid {
		id := borrower.UUID
		cp.BorrowerID = &id
	}
	return &cp, nil
}

func (s PgCopies) FindByID(ctx context.Context, id int64) (*models.BookCopy, error) {
	cp, err := scanCopy(s.Q.QueryRowContext(ctx,
		`SELECT `+copyColumns+` FROM book_copies WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err)
	}
	return cp, nil
}

func (s PgCopies) FindByIDForUpdate(ctx context.Context, id int64) (*models.BookCopy, error) {
	cp, err := scanCopy(s.Q.QueryRowContext(ctx,
		`SELECT `+copyColumns+` FROM book_copies WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, translate(err)
	}
	return cp, nil
}

func (s PgCopies) Create(ctx context.Context, cp *models.BookCopy) error {
	err := s.Q.QueryRowContext(ctx,
		`INSERT INTO book_copies (book_id, copy_number, status, borrowed_on, due_on, borrower_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		cp.BookID, cp.CopyNumber, cp.Status, nullTime(cp.BorrowedOn), nullTime(cp.DueOn), nullUUID(cp.BorrowerID),
	).Scan(&cp.ID)
	return translateNil(err)
}

func (s PgCopies) Update(ctx context.Context, cp *models.BookCopy) error {
	res, err := s.Q.ExecContext(ctx,
		`UPDATE book_copies
		 SET status = $2, borrowed_on = $3, due_on = $4, borrower_id = $5
		 WHERE id = $1`,
		cp.ID, cp.Status, nullTime(cp.BorrowedOn), nullTime(cp.DueOn), nullUUID(cp.BorrowerID),
	)
	if err != nil {
		return translate(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s PgCopies) MaxCopyNumber(ctx context.Context, bookID int64) (int, error) {
	var max int
	err := s.Q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(copy_number), 0) FROM book_copies WHERE book_id = $1`, bookID,
	).Scan(&max)
	if err != nil {
		return 0, translate(err)
	}
	return max, nil
}

func (s PgCopies) List(ctx context.Context) ([]models.BookCopy, error) {
	rows, err := s.Q.QueryContext(ctx,
		`SELECT `+copyColumns+` FROM book_copies ORDER BY book_id, copy_number`)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()
	return collectCopies(rows)
}

func (s PgCopies) ListByBook(ctx context.Context, bookID int64) ([]models.BookCopy, error) {
	rows, err := s.Q.QueryContext(ctx,
		`SELECT `+copyColumns+` FROM book_copies WHERE book_id = $1 ORDER BY copy_number`, bookID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()
	return collectCopies(rows)
}

func collectCopies(rows *sql.Rows) ([]models.BookCopy, error) {
	var out []models.BookCopy
	for rows.Next() {
		cp, err := scanCopy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *cp)
	}
	return out, rows.Err()
}

type pgRecords struct {
	q Queryer
}

func (s pgRecords) Append(ctx context.Context, record *models.BorrowRecord) error {
	err := s.q.QueryRowContext(ctx,
		`INSERT INTO borrow_records (copy_id, borrower_id, borrowed_on, due_on, returned_on)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		record.CopyID, record.BorrowerID, record.BorrowedOn, record.DueOn, record.ReturnedOn,
	).Scan(&record.ID)
	return translateNil(err)
}

func (s pgRecords) ListByCopy(ctx context.Context, copyID int64) ([]models.BorrowRecord, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, copy_id, borrower_id, borrowed_on, due_on, returned_on
		 FROM borrow_records WHERE copy_id = $1 ORDER BY id`, copyID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var out []models.BorrowRecord
	for rows.Next() {
		var r models.BorrowRecord
		if err := rows.Scan(&r.ID, &r.CopyID, &r.BorrowerID, &r.BorrowedOn, &r.DueOn, &r.ReturnedOn); err != nil {
			return nil, err
		}
		r.BorrowedOn = r.BorrowedOn.UTC()
		r.DueOn = r.DueOn.UTC()
		r.ReturnedOn = r.ReturnedOn.UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

func translateNil(err error) error {
	if err == nil {
		return nil
	}
	return translate(err)
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
