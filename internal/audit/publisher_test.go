package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisherStampsMissingTimestamps(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store)
	ctx := context.Background()

	require.NoError(t, pub.Emit(ctx, Event{
		MemberID: uuid.New(),
		Action:   ActionCopyBorrowed,
		CopyID:   7,
	}))

	events, err := pub.List(ctx, 7)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestPublisherKeepsExplicitTimestamps(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store)
	stamp := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	require.NoError(t, pub.Emit(context.Background(), Event{
		Timestamp: stamp,
		Action:    ActionCopyReturned,
		CopyID:    7,
	}))

	events, err := pub.List(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, stamp, events[0].Timestamp)
}

func TestListFiltersByCopy(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store)
	ctx := context.Background()

	for _, copyID := range []int64{1, 2, 1, 3, 1} {
		require.NoError(t, pub.Emit(ctx, Event{Action: ActionCopyBorrowed, CopyID: copyID}))
	}

	events, err := pub.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, events, 3)

	events, err = pub.List(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, events)
}
