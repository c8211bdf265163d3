package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryHistorySeen(t *testing.T) {
	h := NewMemoryHistory(0)
	ctx := context.Background()

	seen, err := h.Seen(ctx, "1abc23")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, h.MarkSeen(ctx, "1abc23"))

	seen, err = h.Seen(ctx, "1abc23")
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = h.Seen(ctx, "2def45")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestMemoryHistoryExpiry(t *testing.T) {
	h := NewMemoryHistory(10 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, h.MarkSeen(ctx, "1abc23"))
	time.Sleep(20 * time.Millisecond)

	seen, err := h.Seen(ctx, "1abc23")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestMemoryHistoryZeroTTLNeverExpires(t *testing.T) {
	h := NewMemoryHistory(0)
	ctx := context.Background()

	require.NoError(t, h.MarkSeen(ctx, "1abc23"))
	time.Sleep(5 * time.Millisecond)

	seen, err := h.Seen(ctx, "1abc23")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestMemoryHistoryGrabCount(t *testing.T) {
	h := NewMemoryHistory(0)
	ctx := context.Background()

	count, err := h.IncGrabCount(ctx, "videos")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	count, err = h.IncGrabCount(ctx, "videos")
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	count, err = h.IncGrabCount(ctx, "pics")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
