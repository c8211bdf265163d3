// Package grab implements the main download pipeline: classify a post,
// fetch its media into the archive and record the outcome.
package grab

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/redgrab/redgrab/internal/common"
	"github.com/redgrab/redgrab/internal/config"
	"github.com/redgrab/redgrab/internal/entity"
	"github.com/redgrab/redgrab/internal/redditid"
)

type PostFetcher interface {
	Post(ctx context.Context, id string) (*entity.Post, error)
}

type FileFetcher interface {
	Fetch(ctx context.Context, rawURL, dir, stem string) (*entity.MediaFile, error)
}

type ExternalDownloader interface {
	Download(ctx context.Context, rawURL, dir string) ([]entity.MediaFile, error)
}

type Muxer interface {
	MuxReplace(ctx context.Context, videoPath, audioPath string) error
}

type Archive interface {
	Dir() string
	EnsureDir() error
	WriteSidecar(result *entity.GrabResult) (string, error)
}

type History interface {
	Seen(ctx context.Context, postID string) (bool, error)
	MarkSeen(ctx context.Context, postID string) error
	IncGrabCount(ctx context.Context, subreddit string) (int64, error)
}

type GrabService struct {
	reddit   PostFetcher
	fetcher  FileFetcher
	external ExternalDownloader
	muxer    Muxer
	archive  Archive
	history  History
	cfg      *config.GrabConfig
	log      *slog.Logger
}

// New wires the pipeline. The muxer may be nil, hosted videos then keep
// their separate audio track unmuxed.
func New(reddit PostFetcher, fetcher FileFetcher, external ExternalDownloader, muxer Muxer,
	archive Archive, history History, cfg *config.GrabConfig, log *slog.Logger) *GrabService {
	return &GrabService{
		reddit:   reddit,
		fetcher:  fetcher,
		external: external,
		muxer:    muxer,
		archive:  archive,
		history:  history,
		cfg:      cfg,
		log:      log.With(slog.String("item", "GrabService")),
	}
}

// Grab resolves urlOrID to a post id, fetches the post and grabs its media.
func (s *GrabService) Grab(ctx context.Context, urlOrID string, force bool) (*entity.GrabResult, error) {
	id := redditid.Parse(urlOrID)
	if !redditid.IsValid(id) {
		return nil, fmt.Errorf("%w: %s", common.ErrInvalidPostID, urlOrID)
	}

	post, err := s.reddit.Post(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("cannot fetch post %s: %w", id, err)
	}

	return s.GrabPost(ctx, post, force)
}

// GrabPost downloads the media of an already fetched post. Crossposts are
// resolved to their parent first. Posts found in the history are skipped
// unless force is set.
func (s *GrabService) GrabPost(ctx context.Context, post *entity.Post, force bool) (*entity.GrabResult, error) {
	post = post.Canonical()
	log := s.log.With(slog.String("post_id", post.ID))

	if !force {
		seen, err := s.history.Seen(ctx, post.ID)
		if err != nil {
			log.Error("Cannot check history", slog.Any("error", err))
		} else if seen {
			log.Info("Already grabbed, skipping")

			return &entity.GrabResult{Post: post, Kind: post.Kind(), Via: entity.ViaNone, Skipped: true}, nil
		}
	}

	if err := s.archive.EnsureDir(); err != nil {
		return nil, err
	}

	result := &entity.GrabResult{Post: post, Kind: post.Kind(), Via: entity.ViaNone}
	log.Info("Grab post", slog.String("kind", result.Kind.String()), slog.String("title", post.Title))

	var err error
	switch result.Kind {
	case entity.MediaKindVideo:
		err = s.handleVideo(ctx, post, result)
	case entity.MediaKindGallery:
		err = s.handleGallery(ctx, post, result)
	case entity.MediaKindDirectImage:
		err = s.handleDirectImage(ctx, post, result)
	case entity.MediaKindPreviewImage:
		err = s.handlePreviewImage(ctx, post, result)
	case entity.MediaKindExternal:
		err = s.handleExternal(ctx, post, result)
	default:
		log.Info("No media recognized")
	}

	if err != nil {
		return nil, err
	}

	if _, err := s.archive.WriteSidecar(result); err != nil {
		log.Error("Cannot write sidecar", slog.Any("error", err))
	}

	s.markGrabbed(ctx, post, log)

	return result, nil
}

func (s *GrabService) handleVideo(ctx context.Context, post *entity.Post, result *entity.GrabResult) error {
	rv := post.Video()
	if rv == nil || rv.FallbackURL == "" {
		s.log.Warn("Video post has no fallback url", slog.String("post_id", post.ID))

		return nil
	}

	file, err := s.fetcher.Fetch(ctx, entity.SanitizeURL(rv.FallbackURL), s.archive.Dir(), post.ID)
	if err != nil {
		return fmt.Errorf("cannot download video: %w", err)
	}

	result.Files = append(result.Files, *file)
	result.Via = entity.ViaHTTP

	if rv.HasAudio && s.muxer != nil {
		s.muxAudio(ctx, post, file)
	}

	return nil
}

// muxAudio fetches the separate DASH audio rendition and merges it into the
// video file. Failures are not fatal, the video-only file stays.
func (s *GrabService) muxAudio(ctx context.Context, post *entity.Post, video *entity.MediaFile) {
	log := s.log.With(slog.String("post_id", post.ID))

	audioURL := post.Video().AudioURL()
	if audioURL == "" {
		return
	}

	audio, err := s.fetcher.Fetch(ctx, audioURL, s.archive.Dir(), post.ID+"_audio")
	if err != nil {
		log.Warn("Cannot download audio track, keeping video only", slog.Any("error", err))

		return
	}

	if err := s.muxer.MuxReplace(ctx, video.Path, audio.Path); err != nil {
		log.Warn("Cannot mux audio, keeping video only", slog.Any("error", err))
	}
}

func (s *GrabService) handleGallery(ctx context.Context, post *entity.Post, result *entity.GrabResult) error {
	entries := post.GalleryEntries()
	if len(entries) < 1 {
		s.log.Warn("Gallery post has no downloadable items", slog.String("post_id", post.ID))

		return nil
	}

	in := make(chan entity.GalleryEntry, len(entries))
	out := make(chan entity.MediaFile, len(entries))

	for _, entry := range entries {
		in <- entry
	}
	close(in)

	workers := s.cfg.Workers
	if workers > len(entries) {
		workers = len(entries)
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for n := 0; n < workers; n++ {
		go s.galleryWorker(ctx, n, post.ID, in, out, &wg)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	for file := range out {
		result.Files = append(result.Files, file)
	}

	sort.Slice(result.Files, func(i, j int) bool {
		return result.Files[i].Name < result.Files[j].Name
	})

	if len(result.Files) > 0 {
		result.Via = entity.ViaHTTP
	}

	return nil
}

func (s *GrabService) galleryWorker(ctx context.Context, n int, postID string,
	in chan entity.GalleryEntry, out chan entity.MediaFile, wg *sync.WaitGroup) {
	defer wg.Done()

	log := s.log.With(slog.Int("worker_id", n), slog.String("post_id", postID))
	log.Debug("Started")

	for entry := range in {
		stem := fmt.Sprintf("%s_%02d", postID, entry.Index)

		file, err := s.fetcher.Fetch(ctx, entry.URL, s.archive.Dir(), stem)
		if err != nil {
			log.Error("Cannot download gallery item", slog.Int("index", entry.Index), slog.Any("error", err))

			continue
		}

		select {
		case <-ctx.Done():
			log.Info("Interrupted")

			return
		case out <- *file:
		}
	}

	log.Debug("Done")
}

func (s *GrabService) handleDirectImage(ctx context.Context, post *entity.Post, result *entity.GrabResult) error {
	u := post.OverriddenURL()
	if u == "" {
		return nil
	}

	file, err := s.fetcher.Fetch(ctx, u, s.archive.Dir(), post.ID)
	if err != nil {
		return fmt.Errorf("cannot download image: %w", err)
	}

	result.Files = append(result.Files, *file)
	result.Via = entity.ViaHTTP

	return nil
}

func (s *GrabService) handlePreviewImage(ctx context.Context, post *entity.Post, result *entity.GrabResult) error {
	u := post.PreviewImageURL()
	if u == "" {
		return nil
	}

	file, err := s.fetcher.Fetch(ctx, u, s.archive.Dir(), post.ID)
	if err != nil {
		return fmt.Errorf("cannot download preview image: %w", err)
	}

	result.Files = append(result.Files, *file)
	result.Via = entity.ViaHTTP

	return nil
}

// handleExternal hands the post to yt-dlp. A failed external download is not
// an error, the sidecar still records the post.
func (s *GrabService) handleExternal(ctx context.Context, post *entity.Post, result *entity.GrabResult) error {
	log := s.log.With(slog.String("post_id", post.ID))

	target := post.ExternalMediaURL()
	if target == "" {
		target = post.OverriddenURL()
	}

	if target == "" {
		log.Warn("External post has no target url")

		return nil
	}

	if s.external == nil {
		log.Warn("No external downloader configured", slog.String("url", target))

		return nil
	}

	files, err := s.external.Download(ctx, target, s.archive.Dir())
	if err != nil {
		log.Error("External download failed", slog.String("url", target), slog.Any("error", err))

		return nil
	}

	result.Files = append(result.Files, files...)
	result.Via = entity.ViaYtdlp

	return nil
}

func (s *GrabService) markGrabbed(ctx context.Context, post *entity.Post, log *slog.Logger) {
	if err := s.history.MarkSeen(ctx, post.ID); err != nil {
		log.Error("Cannot mark post seen", slog.Any("error", err))
	}

	if _, err := s.history.IncGrabCount(ctx, post.Subreddit); err != nil {
		log.Error("Cannot increment grab counter", slog.Any("error", err))
	}
}
