// Package fetch downloads media files over plain http. Reddit's media hosts
// want a browser-ish referer, and the real file type only becomes known from
// the response headers, so the final name is decided after the GET.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/redgrab/redgrab/internal/config"
	"github.com/redgrab/redgrab/internal/entity"
	"github.com/redgrab/redgrab/internal/util"
)

const referer = "https://www.reddit.com/"

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Fetcher struct {
	fs  afero.Fs
	hc  HTTPDoer
	cfg *config.FetchConfig
	log *slog.Logger
}

func New(cfg *config.FetchConfig, hc HTTPDoer, log *slog.Logger) *Fetcher {
	return NewWithFS(afero.NewOsFs(), cfg, hc, log)
}

func NewWithFS(fs afero.Fs, cfg *config.FetchConfig, hc HTTPDoer, log *slog.Logger) *Fetcher {
	return &Fetcher{
		fs:  fs,
		hc:  hc,
		cfg: cfg,
		log: log.With(slog.String("item", "Fetcher")),
	}
}

// Fetch streams rawURL into dir as <stem><ext>, sniffing ext from the
// response. The data lands in a temporary part file first, the final name
// only appears once the body has been written completely.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, dir, stem string) (*entity.MediaFile, error) {
	if err := f.fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create output dir %s: %w", dir, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot create request: %w", err)
	}

	req.Header.Set("Referer", referer)

	resp, err := f.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cannot fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cannot fetch %s: %s", rawURL, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	ext := SniffExt(contentType, rawURL, resp.Header.Get("Content-Disposition"))

	outPath := filepath.Join(dir, stem+ext)
	partPath := outPath + ".part-" + uuid.NewString()

	size, err := f.writeBody(partPath, resp.Body)
	if err != nil {
		if !f.cfg.KeepParts {
			f.fs.Remove(partPath)
		}

		return nil, fmt.Errorf("cannot write %s: %w", outPath, err)
	}

	if err := f.fs.Rename(partPath, outPath); err != nil {
		return nil, fmt.Errorf("cannot finalize %s: %w", outPath, err)
	}

	f.log.Info("Saved",
		slog.String("path", outPath),
		slog.Int64("size", size),
		slog.String("content_type", contentType),
	)

	return &entity.MediaFile{
		ID:   util.GetIDFromString(&outPath),
		Name: filepath.Base(outPath),
		Path: outPath,
		Size: size,
		URL:  rawURL,
	}, nil
}

func (f *Fetcher) writeBody(path string, body io.Reader) (int64, error) {
	out, err := f.fs.Create(path)
	if err != nil {
		return 0, fmt.Errorf("cannot create part file: %w", err)
	}

	size, err := io.Copy(out, body)
	if err != nil {
		out.Close()

		return 0, err
	}

	if err := out.Close(); err != nil {
		return 0, err
	}

	return size, nil
}
