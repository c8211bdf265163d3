package watch

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redgrab/redgrab/internal/config"
	"github.com/redgrab/redgrab/internal/entity"
)

type countingScanner struct {
	sweeps  atomic.Int32
	skipAll bool
}

func (s *countingScanner) GrabAll(_ context.Context, _ string, _ int, _ bool) ([]*entity.GrabResult, int, error) {
	s.sweeps.Add(1)

	result := &entity.GrabResult{Post: &entity.Post{ID: "1abc23"}, Skipped: s.skipAll}

	return []*entity.GrabResult{result}, 0, nil
}

type countingIndexer struct {
	runs atomic.Int32
}

func (i *countingIndexer) Index(_ context.Context) (int, error) {
	i.runs.Add(1)

	return 1, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunSweepsUntilCancelled(t *testing.T) {
	scanner := &countingScanner{}
	indexer := &countingIndexer{}
	cfg := &config.WatchConfig{Interval: 10 * time.Millisecond, Limit: 25}

	svc := New(scanner, indexer, cfg, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 35*time.Millisecond)
	defer cancel()

	require.NoError(t, svc.Run(ctx, "pics"))

	// One immediate sweep plus at least one tick.
	assert.GreaterOrEqual(t, scanner.sweeps.Load(), int32(2))
	assert.GreaterOrEqual(t, indexer.runs.Load(), int32(2))
}

func TestRunSkipsIndexWhenNothingGrabbed(t *testing.T) {
	scanner := &countingScanner{skipAll: true}
	indexer := &countingIndexer{}
	cfg := &config.WatchConfig{Interval: 10 * time.Millisecond, Limit: 25}

	svc := New(scanner, indexer, cfg, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Millisecond)
	defer cancel()

	require.NoError(t, svc.Run(ctx, "pics"))

	assert.GreaterOrEqual(t, scanner.sweeps.Load(), int32(1))
	assert.EqualValues(t, 0, indexer.runs.Load())
}

func TestRunWithoutIndexer(t *testing.T) {
	scanner := &countingScanner{}
	cfg := &config.WatchConfig{Interval: 10 * time.Millisecond, Limit: 25}

	svc := New(scanner, nil, cfg, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Millisecond)
	defer cancel()

	require.NoError(t, svc.Run(ctx, "pics"))
	assert.GreaterOrEqual(t, scanner.sweeps.Load(), int32(1))
}
