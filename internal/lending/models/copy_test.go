package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "libris/pkg/domain-errors"
)

var (
	day1 = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	day2 = time.Date(2026, 3, 17, 17, 0, 0, 0, time.UTC)
)

func TestNewCopy(t *testing.T) {
	cp, err := NewCopy(7, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(7), cp.BookID)
	assert.Equal(t, 3, cp.CopyNumber)
	assert.Equal(t, StatusAvailable, cp.Status)
	assert.Nil(t, cp.BorrowedOn)
	assert.Nil(t, cp.DueOn)
	assert.Nil(t, cp.BorrowerID)

	_, err = NewCopy(7, 0)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestBorrowTransition(t *testing.T) {
	borrower := uuid.New()

	t.Run("available copy moves to on loan", func(t *testing.T) {
		cp, _ := NewCopy(1, 1)
		require.NoError(t, cp.CanBorrow())

		cp.ApplyBorrow(borrower, day1, day2)
		assert.Equal(t, StatusOnLoan, cp.Status)
		require.NotNil(t, cp.BorrowedOn)
		require.NotNil(t, cp.DueOn)
		require.NotNil(t, cp.BorrowerID)
		assert.Equal(t, borrower, *cp.BorrowerID)
		// Loan fields are dates, truncated to UTC midnight.
		assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), *cp.BorrowedOn)
		assert.Equal(t, time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC), *cp.DueOn)
	})

	t.Run("on loan copy cannot be borrowed", func(t *testing.T) {
		cp, _ := NewCopy(1, 1)
		cp.ApplyBorrow(borrower, day1, day2)

		err := cp.CanBorrow()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
		assert.Contains(t, err.Error(), "On Loan")
	})

	t.Run("unavailable copy cannot be borrowed", func(t *testing.T) {
		cp, _ := NewCopy(1, 1)
		cp.ApplyDisable()

		err := cp.CanBorrow()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Unavailable")
	})
}

func TestReturnTransition(t *testing.T) {
	borrower := uuid.New()

	t.Run("return produces one record and clears the loan", func(t *testing.T) {
		cp, _ := NewCopy(1, 1)
		cp.ID = 42
		cp.ApplyBorrow(borrower, day1, day2)
		require.NoError(t, cp.CanReturn(borrower))

		record := cp.ApplyReturn(day2)
		require.NotNil(t, record)
		assert.Equal(t, int64(42), record.CopyID)
		assert.Equal(t, borrower, record.BorrowerID)
		assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), record.BorrowedOn)
		assert.Equal(t, time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC), record.DueOn)
		assert.Equal(t, time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC), record.ReturnedOn)

		assert.Equal(t, StatusAvailable, cp.Status)
		assert.Nil(t, cp.BorrowedOn)
		assert.Nil(t, cp.DueOn)
		assert.Nil(t, cp.BorrowerID)
	})

	t.Run("return without active loan is rejected", func(t *testing.T) {
		cp, _ := NewCopy(1, 1)
		err := cp.CanReturn(borrower)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no active loan")
	})

	t.Run("return by a different member is rejected", func(t *testing.T) {
		cp, _ := NewCopy(1, 1)
		cp.ApplyBorrow(borrower, day1, day2)

		err := cp.CanReturn(uuid.New())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "another member")
	})
}

func TestDisableTransition(t *testing.T) {
	borrower := uuid.New()

	t.Run("available copy can be disabled", func(t *testing.T) {
		cp, _ := NewCopy(1, 1)
		require.NoError(t, cp.CanDisable())
		cp.ApplyDisable()
		assert.Equal(t, StatusUnavailable, cp.Status)
	})

	t.Run("disable is idempotent on unavailable copies", func(t *testing.T) {
		cp, _ := NewCopy(1, 1)
		cp.ApplyDisable()
		require.NoError(t, cp.CanDisable())
		cp.ApplyDisable()
		assert.Equal(t, StatusUnavailable, cp.Status)
	})

	t.Run("on loan copy cannot be disabled", func(t *testing.T) {
		cp, _ := NewCopy(1, 1)
		cp.ApplyBorrow(borrower, day1, day2)

		err := cp.CanDisable()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "on loan")
	})
}
