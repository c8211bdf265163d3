// Package ytdlp hands external urls to the yt-dlp binary shipped in the
// runtime image.
package ytdlp

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/redgrab/redgrab/internal/entity"
	"github.com/redgrab/redgrab/internal/util"
)

const (
	// Long titles are clipped so generated names stay filesystem friendly.
	outputTemplate = "%(title).80s_%(id)s.%(ext)s"

	progressInterval = 500 * time.Millisecond
)

type Downloader struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Downloader {
	return &Downloader{
		log: log.With(slog.String("item", "YtdlpDownloader")),
	}
}

// Download runs yt-dlp for rawURL, files land in dir. Separate video and
// audio streams are merged into mp4.
func (d *Downloader) Download(ctx context.Context, rawURL, dir string) ([]entity.MediaFile, error) {
	log := d.log.With(slog.String("url", rawURL))
	log.Info("Start external download")

	dl := ytdlp.New().
		NoPlaylist().
		MergeOutputFormat("mp4").
		NoCacheDir().
		Output(filepath.Join(dir, outputTemplate))

	dl.ProgressFunc(progressInterval, func(update ytdlp.ProgressUpdate) {
		if update.TotalBytes > 0 {
			percent := float64(update.DownloadedBytes) / float64(update.TotalBytes) * 100
			log.Debug("Progress", slog.Int("percent", int(percent)))
		}
	})

	result, err := dl.Run(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("cannot run yt-dlp: %w", err)
	}

	info, err := result.GetExtractedInfo()
	if err != nil {
		return nil, fmt.Errorf("cannot read yt-dlp result: %w", err)
	}

	var files []entity.MediaFile
	for _, item := range info {
		if item.Filename == nil || *item.Filename == "" {
			continue
		}

		path := *item.Filename
		files = append(files, entity.MediaFile{
			ID:   util.GetIDFromString(&path),
			Name: filepath.Base(path),
			Path: path,
			URL:  rawURL,
		})
	}

	log.Info("External download done", slog.Int("files", len(files)))

	return files, nil
}
