package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "libris/pkg/domain-errors"
	"libris/pkg/dates"
)

func TestValidateDueDate(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	window := 14 * 24 * time.Hour

	req := func(d time.Time) *BorrowRequest {
		return &BorrowRequest{ReturnDate: dates.Date{Time: d}}
	}

	t.Run("accepts today", func(t *testing.T) {
		assert.NoError(t, req(now).ValidateDueDate(now, window))
	})

	t.Run("accepts the last day of the window", func(t *testing.T) {
		assert.NoError(t, req(now.AddDate(0, 0, 14)).ValidateDueDate(now, window))
	})

	t.Run("rejects yesterday", func(t *testing.T) {
		err := req(now.AddDate(0, 0, -1)).ValidateDueDate(now, window)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Contains(t, err.Error(), "today onwards")
	})

	t.Run("rejects one day past the window", func(t *testing.T) {
		err := req(now.AddDate(0, 0, 15)).ValidateDueDate(now, window)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "within 14 days")
	})

	t.Run("rejects a missing date", func(t *testing.T) {
		err := (&BorrowRequest{}).ValidateDueDate(now, window)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("compares dates not instants", func(t *testing.T) {
		// Return date at 00:00 is still "today" even though now is 15:00.
		assert.NoError(t, req(dates.Of(now)).ValidateDueDate(now, window))
	})
}
