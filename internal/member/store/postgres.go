package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"libris/internal/member/models"
	"libris/pkg/platform/sentinel"
)

// Postgres persists members.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

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

const memberColumns = `id, username, first_name, last_name, email, password_hash, is_admin, created_at`

func scanMember(row interface{ Scan(...any) error }) (*models.Member, error) {
	var m models.Member
	err := row.Scan(&m.ID, &m.Username, &m.FirstName, &m.LastName, &m.Email, &m.PasswordHash, &m.Admin, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Postgres) Create(ctx context.Context, member *models.Member) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO members (id, username, first_name, last_name, email, password_hash, is_admin, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		member.ID, member.Username, member.FirstName, member.LastName, member.Email,
		member.PasswordHash, member.Admin, member.CreatedAt,
	)
	if err != nil {
		return translate(err)
	}
	return nil
}

func (s *Postgres) FindByUsername(ctx context.Context, username string) (*models.Member, error) {
	member, err := scanMember(s.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE username = $1`, username))
	if err != nil {
		return nil, translate(err)
	}
	return member, nil
}

func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	member, err := scanMember(s.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err)
	}
	return member, nil
}
