package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"libris/internal/member/models"
	"libris/internal/member/service"
	"libris/internal/member/store"
	dErrors "libris/pkg/domain-errors"
	"libris/pkg/requestcontext"
)

type stubIssuer struct {
	lastMemberID uuid.UUID
	lastAdmin    bool
}

func (i *stubIssuer) GenerateAccessToken(memberID uuid.UUID, username string, admin bool) (string, error) {
	i.lastMemberID = memberID
	i.lastAdmin = admin
	return fmt.Sprintf("token-for-%s", username), nil
}

type MemberServiceSuite struct {
	suite.Suite
	store  *store.InMemory
	issuer *stubIssuer
	svc    *service.Service
	ctx    context.Context
}

func TestMemberServiceSuite(t *testing.T) {
	suite.Run(t, new(MemberServiceSuite))
}

func (s *MemberServiceSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.issuer = &stubIssuer{}
	s.svc = service.New(s.store, s.issuer)
	s.ctx = context.Background()
}

func (s *MemberServiceSuite) register(username, password string) *models.Profile {
	profile, err := s.svc.Register(s.ctx, &models.RegisterRequest{
		Username: username,
		Password: password,
		Email:    username + "@example.com",
	})
	s.Require().NoError(err)
	return profile
}

func (s *MemberServiceSuite) TestRegister() {
	s.Run("creates a member with a hashed password", func() {
		profile := s.register("ada", "correct horse battery")
		s.NotEqual(uuid.Nil, profile.ID)
		s.Equal("ada", profile.Username)
		s.False(profile.Admin)

		stored, err := s.store.FindByUsername(s.ctx, "ada")
		s.Require().NoError(err)
		s.NotContains(string(stored.PasswordHash), "correct horse battery")
		s.NoError(bcrypt.CompareHashAndPassword(stored.PasswordHash, []byte("correct horse battery")))
	})

	s.Run("duplicate username is a conflict", func() {
		s.register("grace", "a strong password")
		_, err := s.svc.Register(s.ctx, &models.RegisterRequest{
			Username: "grace",
			Password: "another password",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *MemberServiceSuite) TestLogin() {
	profile := s.register("ada", "correct horse battery")

	s.Run("issues a token for valid credentials", func() {
		resp, err := s.svc.Login(s.ctx, &models.LoginRequest{
			Username: "ada",
			Password: "correct horse battery",
		})
		s.Require().NoError(err)
		s.Equal("token-for-ada", resp.AccessToken)
		s.Equal(profile.ID, s.issuer.lastMemberID)
	})

	s.Run("wrong password is unauthorized", func() {
		_, err := s.svc.Login(s.ctx, &models.LoginRequest{
			Username: "ada",
			Password: "wrong password",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.Equal("invalid credentials", dErrors.MessageOf(err))
	})

	s.Run("unknown username yields the same error", func() {
		_, err := s.svc.Login(s.ctx, &models.LoginRequest{
			Username: "nobody",
			Password: "whatever password",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.Equal("invalid credentials", dErrors.MessageOf(err))
	})

	s.Run("unknown username still costs a hash comparison", func() {
		start := time.Now()
		_, err := s.svc.Login(s.ctx, &models.LoginRequest{
			Username: "nobody",
			Password: "whatever password",
		})
		unknownElapsed := time.Since(start)
		s.Require().Error(err)

		start = time.Now()
		_, err = s.svc.Login(s.ctx, &models.LoginRequest{
			Username: "ada",
			Password: "wrong password",
		})
		knownElapsed := time.Since(start)
		s.Require().Error(err)

		// Both branches run one bcrypt compare, so the unknown-username
		// path cannot be orders of magnitude faster.
		s.Greater(unknownElapsed, knownElapsed/4)
	})
}

func (s *MemberServiceSuite) TestProfile() {
	profile := s.register("ada", "correct horse battery")

	s.Run("returns the authenticated member", func() {
		ctx := requestcontext.WithMember(s.ctx, profile.ID, "ada", false)
		got, err := s.svc.Profile(ctx)
		s.Require().NoError(err)
		s.Equal(profile.ID, got.ID)
		s.Equal("ada@example.com", got.Email)
	})

	s.Run("anonymous context is unauthorized", func() {
		_, err := s.svc.Profile(s.ctx)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *MemberServiceSuite) TestUsernameByID() {
	profile := s.register("ada", "correct horse battery")

	username, err := s.svc.UsernameByID(s.ctx, profile.ID)
	s.Require().NoError(err)
	s.Equal("ada", username)

	_, err = s.svc.UsernameByID(s.ctx, uuid.New())
	s.Require().Error(err)
}
