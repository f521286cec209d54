package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"libris/internal/member/models"
	dErrors "libris/pkg/domain-errors"
	"libris/pkg/requestcontext"
	"libris/pkg/testutil"
)

type fakeMembers struct {
	profiles map[string]*models.Profile
	password map[string]string
}

func newFakeMembers() *fakeMembers {
	return &fakeMembers{
		profiles: make(map[string]*models.Profile),
		password: make(map[string]string),
	}
}

func (f *fakeMembers) Register(_ context.Context, req *models.RegisterRequest) (*models.Profile, error) {
	if _, ok := f.profiles[req.Username]; ok {
		return nil, dErrors.New(dErrors.CodeConflict, "username already taken")
	}
	profile := &models.Profile{ID: uuid.New(), Username: req.Username, Email: req.Email}
	f.profiles[req.Username] = profile
	f.password[req.Username] = req.Password
	return profile, nil
}

func (f *fakeMembers) Login(_ context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	if f.password[req.Username] != req.Password {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	return &models.LoginResponse{AccessToken: "token-for-" + req.Username}, nil
}

func (f *fakeMembers) Profile(ctx context.Context) (*models.Profile, error) {
	id := requestcontext.MemberID(ctx)
	if id == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "not authenticated")
	}
	for _, p := range f.profiles {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "member not found")
}

func newRouter(svc Service) http.Handler {
	r := chi.NewRouter()
	New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r
}

func TestRegisterMember(t *testing.T) {
	router := newRouter(newFakeMembers())

	t.Run("anonymous registration succeeds", func(t *testing.T) {
		body := map[string]string{"username": "ada", "password": "correct horse", "email": "ada@example.com"}
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/members", body))
		testutil.AssertStatus(t, rr, http.StatusCreated)

		profile := testutil.UnmarshalResponse[models.Profile](t, rr)
		if profile.Username != "ada" {
			t.Fatalf("expected username ada, got %q", profile.Username)
		}
	})

	t.Run("short password is rejected", func(t *testing.T) {
		body := map[string]string{"username": "bob", "password": "short"}
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/members", body))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation")
	})

	t.Run("duplicate username is a conflict", func(t *testing.T) {
		body := map[string]string{"username": "ada", "password": "another pass"}
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/members", body))
		testutil.AssertStatusAndError(t, rr, http.StatusConflict, "conflict")
	})
}

func TestLogin(t *testing.T) {
	svc := newFakeMembers()
	router := newRouter(svc)
	register := map[string]string{"username": "ada", "password": "correct horse"}
	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/members", register))
	testutil.AssertStatus(t, rr, http.StatusCreated)

	t.Run("valid credentials yield a token", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/members/login", register))
		testutil.AssertStatus(t, rr, http.StatusOK)

		resp := testutil.UnmarshalResponse[models.LoginResponse](t, rr)
		if resp.AccessToken == "" {
			t.Fatal("expected an access token")
		}
	})

	t.Run("wrong password is 401", func(t *testing.T) {
		body := map[string]string{"username": "ada", "password": "wrong"}
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/members/login", body))
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	})

	t.Run("missing fields are rejected", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodPost, "/members/login", `{"username":"ada"}`))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation")
	})
}

func TestProfile(t *testing.T) {
	svc := newFakeMembers()
	router := newRouter(svc)
	register := map[string]string{"username": "ada", "password": "correct horse"}
	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/members", register))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	created := testutil.UnmarshalResponse[models.Profile](t, rr)

	t.Run("anonymous gets 401", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/members/profile"))
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	t.Run("authenticated member sees their own profile", func(t *testing.T) {
		req := testutil.WithMember(testutil.NewRequest(t, http.MethodGet, "/members/profile"), created.ID, "ada", false)
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatus(t, rr, http.StatusOK)

		profile := testutil.UnmarshalResponse[models.Profile](t, rr)
		if profile.ID != created.ID {
			t.Fatalf("expected profile for %s, got %s", created.ID, profile.ID)
		}
	})
}
