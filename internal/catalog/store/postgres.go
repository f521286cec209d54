// Package store provides the Postgres persistence for the catalog module.
package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"libris/internal/catalog/models"
	"libris/internal/catalog/service"
	lendstore "libris/internal/lending/store"
	"libris/pkg/platform/sentinel"
)

// Postgres bundles the catalog stores over one queryer. Copy persistence is
// shared with the lending store so book creation registers copies through the
// same SQL the lending module uses.
type Postgres struct {
	q lendstore.Queryer
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{q: db}
}

func NewPostgresTx(tx *sql.Tx) *Postgres {
	return &Postgres{q: tx}
}

func (p *Postgres) Books() service.BookStore  { return pgBooks{q: p.q} }
func (p *Postgres) Copies() service.CopyStore { return lendstore.PgCopies{Q: p.q} }

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
	q lendstore.Queryer
}

const bookColumns = `id, title, summary, isbn, publication_date`

func scanBook(row interface{ Scan(...any) error }) (*models.Book, error) {
	var (
		b    models.Book
		isbn sql.NullString
		pub  sql.NullTime
	)
	if err := row.Scan(&b.ID, &b.Title, &b.Summary, &isbn, &pub); err != nil {
		return nil, err
	}
	if isbn.Valid {
		s := isbn.String
		b.ISBN = &s
	}
	if pub.Valid {
		t := pub.Time.UTC()
		b.PublicationDate = &t
	}
	return &b, nil
}

func (s pgBooks) Create(ctx context.Context, book *models.Book) error {
	err := s.q.QueryRowContext(ctx,
		`INSERT INTO books (title, summary, isbn, publication_date)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		book.Title, book.Summary, nullString(book.ISBN), nullTime(book.PublicationDate),
	).Scan(&book.ID)
	if err != nil {
		return translate(err)
	}
	return nil
}

func (s pgBooks) FindByID(ctx context.Context, id int64) (*models.Book, error) {
	book, err := scanBook(s.q.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err)
	}
	return book, nil
}

func (s pgBooks) FindByIDForUpdate(ctx context.Context, id int64) (*models.Book, error) {
	book, err := scanBook(s.q.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, translate(err)
	}
	return book, nil
}

func (s pgBooks) Update(ctx context.Context, book *models.Book) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE books SET title = $2, summary = $3, isbn = $4, publication_date = $5 WHERE id = $1`,
		book.ID, book.Title, book.Summary, nullString(book.ISBN), nullTime(book.PublicationDate),
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

func (s pgBooks) List(ctx context.Context) ([]models.Book, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books ORDER BY id`)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var out []models.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
