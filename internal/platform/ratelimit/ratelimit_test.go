package ratelimit

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreAllow(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := store.Allow(ctx, "k", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, 3-(i+1), result.Remaining)
	}

	result, err := store.Allow(ctx, "k", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, result.Allowed)

	// Other keys are unaffected.
	other, err := store.Allow(ctx, "other", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	store.Reset("k")
	result, err = store.Allow(ctx, "k", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestMemoryStoreWindowExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	result, err := store.Allow(ctx, "k", 1, 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, result.Allowed)

	result, err = store.Allow(ctx, "k", 1, 10*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, result.Allowed)

	time.Sleep(20 * time.Millisecond)

	result, err = store.Allow(ctx, "k", 1, 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

type failingStore struct{}

func (failingStore) Allow(context.Context, string, int, time.Duration) (*Result, error) {
	return nil, assert.AnError
}

func TestLimitMiddleware(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("allows up to the limit then rejects", func(t *testing.T) {
		mw := NewMiddleware(NewMemoryStore(), log).Limit("test", 2, time.Minute)
		handler := mw(next)

		for i := 0; i < 2; i++ {
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, http.StatusNoContent, rr.Code)
			assert.NotEmpty(t, rr.Header().Get("X-RateLimit-Remaining"))
		}

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusTooManyRequests, rr.Code)
		assert.NotEmpty(t, rr.Header().Get("Retry-After"))
		assert.Contains(t, rr.Body.String(), "rate_limited")
	})

	t.Run("keys on the client address", func(t *testing.T) {
		mw := NewMiddleware(NewMemoryStore(), log).Limit("test", 1, time.Minute)
		handler := mw(next)

		first := httptest.NewRequest(http.MethodGet, "/", nil)
		first.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, first)
		assert.Equal(t, http.StatusNoContent, rr.Code)

		second := httptest.NewRequest(http.MethodGet, "/", nil)
		second.RemoteAddr = "10.0.0.2:1234"
		rr = httptest.NewRecorder()
		handler.ServeHTTP(rr, second)
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("fails open when the store errors", func(t *testing.T) {
		mw := NewMiddleware(failingStore{}, log).Limit("test", 1, time.Minute)
		rr := httptest.NewRecorder()
		mw(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})
}
