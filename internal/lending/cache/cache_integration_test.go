//go:build integration

package cache_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libris/internal/lending/cache"
	"libris/internal/lending/models"
	"libris/internal/platform/ratelimit"
	"libris/pkg/testutil/containers"
)

func newCache(t *testing.T, ttl time.Duration) *cache.Cache {
	rc := containers.NewRedisContainer(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return cache.New(rc.Client, ttl, log)
}

func sampleDetail(copyID int64) *models.CopyDetail {
	borrower := uuid.New()
	borrowed := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	due := time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC)
	return &models.CopyDetail{
		BookCopy: models.BookCopy{
			ID:         copyID,
			BookID:     1,
			CopyNumber: 1,
			Status:     models.StatusOnLoan,
			BorrowedOn: &borrowed,
			DueOn:      &due,
			BorrowerID: &borrower,
		},
		BookTitle: "Dune",
		Borrower:  "ada",
	}
}

func TestCacheRoundTrip(t *testing.T) {
	c := newCache(t, time.Minute)
	ctx := context.Background()

	_, ok := c.Get(ctx, 7)
	require.False(t, ok)

	want := sampleDetail(7)
	c.Set(ctx, want)

	got, ok := c.Get(ctx, 7)
	require.True(t, ok)
	assert.Equal(t, want.BookTitle, got.BookTitle)
	assert.Equal(t, want.Borrower, got.Borrower)
	assert.Equal(t, want.Status, got.Status)
	require.NotNil(t, got.BorrowerID)
	assert.Equal(t, *want.BorrowerID, *got.BorrowerID)

	c.Invalidate(ctx, 7)
	_, ok = c.Get(ctx, 7)
	assert.False(t, ok)
}

func TestCacheTTLExpiry(t *testing.T) {
	c := newCache(t, time.Second)
	ctx := context.Background()

	c.Set(ctx, sampleDetail(9))
	_, ok := c.Get(ctx, 9)
	require.True(t, ok)

	time.Sleep(1500 * time.Millisecond)
	_, ok = c.Get(ctx, 9)
	assert.False(t, ok)
}

func TestRedisRateLimitStore(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	store := ratelimit.NewRedisStore(rc.Client)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := store.Allow(ctx, "ip:10.0.0.1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}

	result, err := store.Allow(ctx, "ip:10.0.0.1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Zero(t, result.Remaining)

	other, err := store.Allow(ctx, "ip:10.0.0.2", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, other.Allowed)
}
