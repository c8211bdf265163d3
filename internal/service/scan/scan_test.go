package scan

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redgrab/redgrab/internal/common"
	"github.com/redgrab/redgrab/internal/entity"
)

type stubLister struct {
	posts    []*entity.Post
	err      error
	gotSub   string
	gotLimit int
}

func (s *stubLister) Hot(_ context.Context, subreddit string, limit int) ([]*entity.Post, error) {
	s.gotSub = subreddit
	s.gotLimit = limit

	return s.posts, s.err
}

type stubGrabber struct {
	failIDs map[string]error
	block   chan struct{} // When set, GrabPost waits until the channel closes
	grabbed []string
}

func (s *stubGrabber) GrabPost(_ context.Context, post *entity.Post, _ bool) (*entity.GrabResult, error) {
	if s.block != nil {
		<-s.block
	}

	if err, exists := s.failIDs[post.ID]; exists {
		return nil, err
	}

	s.grabbed = append(s.grabbed, post.ID)

	return &entity.GrabResult{Post: post, Via: entity.ViaHTTP}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPosts(ids ...string) []*entity.Post {
	posts := make([]*entity.Post, 0, len(ids))
	for _, id := range ids {
		posts = append(posts, &entity.Post{ID: id})
	}

	return posts
}

func TestList(t *testing.T) {
	lister := &stubLister{posts: testPosts("a", "b")}
	svc := New(lister, &stubGrabber{}, testLogger())

	posts, err := svc.List(context.Background(), "pics", 10)
	require.NoError(t, err)
	assert.Len(t, posts, 2)
	assert.Equal(t, "pics", lister.gotSub)
	assert.Equal(t, 10, lister.gotLimit)
}

func TestListEmpty(t *testing.T) {
	svc := New(&stubLister{}, &stubGrabber{}, testLogger())

	_, err := svc.List(context.Background(), "pics", 10)
	assert.ErrorIs(t, err, common.ErrNoPostsFoundError)
}

func TestGrabAllCountsFailures(t *testing.T) {
	lister := &stubLister{posts: testPosts("a", "b", "c")}
	grabber := &stubGrabber{failIDs: map[string]error{"b": fmt.Errorf("boom")}}
	svc := New(lister, grabber, testLogger())

	results, failed, err := svc.GrabAll(context.Background(), "pics", 25, false)
	require.NoError(t, err)

	assert.Len(t, results, 2)
	assert.Equal(t, 1, failed)
	assert.Equal(t, []string{"a", "c"}, grabber.grabbed)
}

func TestGrabAllSingleFlight(t *testing.T) {
	block := make(chan struct{})
	lister := &stubLister{posts: testPosts("a")}
	grabber := &stubGrabber{block: block}
	svc := New(lister, grabber, testLogger())

	done := make(chan struct{})
	go func() {
		defer close(done)

		_, _, err := svc.GrabAll(context.Background(), "pics", 25, false)
		assert.NoError(t, err)
	}()

	// Wait for the first sweep to reach the blocked grabber.
	require.Eventually(t, func() bool {
		return svc.running.Load()
	}, time.Second, time.Millisecond)

	_, _, err := svc.GrabAll(context.Background(), "pics", 25, false)
	assert.ErrorIs(t, err, common.ErrScanHasAlreadyStarted)

	close(block)
	<-done
}

func TestGrabAllStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	lister := &stubLister{posts: testPosts("a", "b")}
	grabber := &stubGrabber{}
	svc := New(lister, grabber, testLogger())

	_, _, err := svc.GrabAll(ctx, "pics", 25, false)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, grabber.grabbed)
}
