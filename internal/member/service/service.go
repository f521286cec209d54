// Package service implements member registration, login, and lookups. It also
// backs the lending module's borrower directory.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"libris/internal/member/models"
	dErrors "libris/pkg/domain-errors"
	"libris/pkg/platform/sentinel"
	"libris/pkg/requestcontext"
)

// Store persists members.
type Store interface {
	Create(ctx context.Context, member *models.Member) error
	FindByUsername(ctx context.Context, username string) (*models.Member, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Member, error)
}

// TokenIssuer mints access tokens on login.
type TokenIssuer interface {
	GenerateAccessToken(memberID uuid.UUID, username string, admin bool) (string, error)
}

type Service struct {
	store  Store
	tokens TokenIssuer
	logger *slog.Logger
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(store Store, tokens TokenIssuer, opts ...Option) *Service {
	s := &Service{
		store:  store,
		tokens: tokens,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a member account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (*models.Profile, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	member := &models.Member{
		ID:           uuid.New(),
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    requestcontext.Now(ctx),
	}
	if err := s.store.Create(ctx, member); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "username already taken")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create member")
	}

	s.logger.InfoContext(ctx, "member registered",
		"member_id", member.ID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return member.Profile(), nil
}

// dummyPasswordHash is a bcrypt hash of an unguessable throwaway value.
// Login compares against it when the username does not exist, so both
// failure paths cost one bcrypt comparison.
var dummyPasswordHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// Login verifies credentials and issues an access token. Unknown usernames
// and wrong passwords are indistinguishable to the caller, in response and
// in timing.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	member, err := s.store.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyPasswordHash, []byte(req.Password))
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load member")
	}
	if err := bcrypt.CompareHashAndPassword(member.PasswordHash, []byte(req.Password)); err != nil {
		s.logger.WarnContext(ctx, "failed login attempt",
			"username", req.Username,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	token, err := s.tokens.GenerateAccessToken(member.ID, member.Username, member.Admin)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}
	return &models.LoginResponse{AccessToken: token}, nil
}

// Profile returns the authenticated member's own profile.
func (s *Service) Profile(ctx context.Context) (*models.Profile, error) {
	id := requestcontext.MemberID(ctx)
	if id == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "not authenticated")
	}
	member, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "member not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load member")
	}
	return member.Profile(), nil
}

// UsernameByID resolves a member's display name. Lending responses use it to
// show who holds a copy.
func (s *Service) UsernameByID(ctx context.Context, id uuid.UUID) (string, error) {
	member, err := s.store.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	return member.Username, nil
}
