// Package postgres opens the database pool and keeps the schema current.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate applies the schema. Statements are idempotent so startup can run
// them unconditionally.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS books (
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		summary TEXT NOT NULL DEFAULT '',
		isbn VARCHAR(13) UNIQUE,
		publication_date DATE
	)`,
	`CREATE TABLE IF NOT EXISTS book_copies (
		id BIGSERIAL PRIMARY KEY,
		book_id BIGINT NOT NULL REFERENCES books (id),
		copy_number INT NOT NULL CHECK (copy_number > 0),
		status TEXT NOT NULL,
		borrowed_on DATE,
		due_on DATE,
		borrower_id UUID,
		UNIQUE (book_id, copy_number),
		CHECK (
			(borrowed_on IS NULL AND due_on IS NULL)
			OR (borrowed_on IS NOT NULL AND due_on IS NOT NULL AND due_on >= borrowed_on)
		)
	)`,
	`CREATE TABLE IF NOT EXISTS borrow_records (
		id BIGSERIAL PRIMARY KEY,
		copy_id BIGINT NOT NULL REFERENCES book_copies (id),
		borrower_id UUID NOT NULL,
		borrowed_on DATE NOT NULL,
		due_on DATE NOT NULL,
		returned_on DATE NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS borrow_records_copy_id_idx ON borrow_records (copy_id)`,
	`CREATE TABLE IF NOT EXISTS members (
		id UUID PRIMARY KEY,
		username VARCHAR(150) NOT NULL UNIQUE,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		password_hash BYTEA NOT NULL,
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}
