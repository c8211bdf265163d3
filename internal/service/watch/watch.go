// Package watch reruns the subreddit sweep on a timer so new posts are
// grabbed as they appear.
package watch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redgrab/redgrab/internal/common"
	"github.com/redgrab/redgrab/internal/config"
	"github.com/redgrab/redgrab/internal/entity"
)

type Scanner interface {
	GrabAll(ctx context.Context, subreddit string, limit int, force bool) ([]*entity.GrabResult, int, error)
}

type Indexer interface {
	Index(ctx context.Context) (int, error)
}

type WatchService struct {
	scanner Scanner
	indexer Indexer
	cfg     *config.WatchConfig
	log     *slog.Logger
}

// New builds the watch loop. The indexer may be nil, the archive index is
// then left alone.
func New(scanner Scanner, indexer Indexer, cfg *config.WatchConfig, log *slog.Logger) *WatchService {
	return &WatchService{
		scanner: scanner,
		indexer: indexer,
		cfg:     cfg,
		log:     log.With(slog.String("item", "WatchService")),
	}
}

// Run sweeps the subreddit immediately and then on every tick until ctx is
// cancelled.
func (w *WatchService) Run(ctx context.Context, subreddit string) error {
	log := w.log.With(slog.String("subreddit", subreddit))
	log.Info("Watching", slog.Duration("interval", w.cfg.Interval))

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	w.tick(ctx, subreddit, log)

	for {
		select {
		case <-ctx.Done():
			log.Info("Watch stopped")

			return nil
		case <-ticker.C:
			w.tick(ctx, subreddit, log)
		}
	}
}

func (w *WatchService) tick(ctx context.Context, subreddit string, log *slog.Logger) {
	results, failed, err := w.scanner.GrabAll(ctx, subreddit, w.cfg.Limit, false)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
		case errors.Is(err, common.ErrNoPostsFoundError), errors.Is(err, common.ErrScanHasAlreadyStarted):
			log.Warn("Nothing to grab", slog.Any("error", err))
		default:
			log.Error("Sweep failed", slog.Any("error", err))
		}

		return
	}

	var grabbed, skipped int
	for _, result := range results {
		if result.Skipped {
			skipped++
		} else {
			grabbed++
		}
	}

	log.Info("Sweep finished",
		slog.Int("grabbed", grabbed),
		slog.Int("skipped", skipped),
		slog.Int("failed", failed),
	)

	if grabbed > 0 && w.indexer != nil {
		if _, err := w.indexer.Index(ctx); err != nil {
			log.Error("Cannot rebuild index", slog.Any("error", err))
		}
	}
}
