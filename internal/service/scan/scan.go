// Package scan lists the hot posts of a subreddit and can grab them all in
// one sweep.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/redgrab/redgrab/internal/common"
	"github.com/redgrab/redgrab/internal/entity"
)

type PostLister interface {
	Hot(ctx context.Context, subreddit string, limit int) ([]*entity.Post, error)
}

type Grabber interface {
	GrabPost(ctx context.Context, post *entity.Post, force bool) (*entity.GrabResult, error)
}

type ScanService struct {
	running atomic.Bool
	reddit  PostLister
	grabber Grabber
	log     *slog.Logger
}

func New(reddit PostLister, grabber Grabber, log *slog.Logger) *ScanService {
	return &ScanService{
		reddit:  reddit,
		grabber: grabber,
		log:     log.With(slog.String("item", "ScanService")),
	}
}

func (s *ScanService) List(ctx context.Context, subreddit string, limit int) ([]*entity.Post, error) {
	posts, err := s.reddit.Hot(ctx, subreddit, limit)
	if err != nil {
		s.log.Error("Cannot list subreddit", slog.String("subreddit", subreddit), slog.Any("error", err))

		return nil, fmt.Errorf("cannot list subreddit %s: %w", subreddit, err)
	}

	if len(posts) < 1 {
		return nil, common.ErrNoPostsFoundError
	}

	s.log.Info("Listed subreddit", slog.String("subreddit", subreddit), slog.Int("count", len(posts)))

	return posts, nil
}

// GrabAll grabs every hot post of the subreddit. Single post failures are
// counted, not fatal. Only one sweep runs at a time.
func (s *ScanService) GrabAll(ctx context.Context, subreddit string, limit int, force bool) ([]*entity.GrabResult, int, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, 0, common.ErrScanHasAlreadyStarted
	}
	defer s.running.Store(false)

	posts, err := s.List(ctx, subreddit, limit)
	if err != nil {
		return nil, 0, err
	}

	var (
		results []*entity.GrabResult
		failed  int
	)

	for _, post := range posts {
		select {
		case <-ctx.Done():
			return results, failed, ctx.Err()
		default:
		}

		result, err := s.grabber.GrabPost(ctx, post, force)
		if err != nil {
			s.log.Error("Cannot grab post", slog.String("post_id", post.ID), slog.Any("error", err))
			failed++

			continue
		}

		results = append(results, result)
	}

	return results, failed, nil
}
