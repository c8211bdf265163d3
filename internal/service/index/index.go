// Package index rebuilds the static html index of the archive from the
// sidecar files on disk.
package index

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redgrab/redgrab/internal/common"
	"github.com/redgrab/redgrab/internal/entity"
)

type Archive interface {
	Entries(ctx context.Context) ([]*entity.ArchiveEntry, error)
	WriteIndex(content string) (string, error)
}

type Renderer interface {
	Render(entries []*entity.ArchiveEntry) (string, error)
}

type IndexerService struct {
	archive  Archive
	renderer Renderer
	log      *slog.Logger
}

func NewIndexService(archive Archive, renderer Renderer, log *slog.Logger) *IndexerService {
	return &IndexerService{
		archive:  archive,
		renderer: renderer,
		log:      log.With(slog.String("item", "IndexService")),
	}
}

// Index renders index.html from the sidecars and returns how many entries
// it contains.
func (i *IndexerService) Index(ctx context.Context) (int, error) {
	entries, err := i.archive.Entries(ctx)
	if err != nil {
		i.log.Error("Cannot read archive", slog.Any("error", err))

		return 0, fmt.Errorf("cannot read archive: %w", err)
	}

	if len(entries) < 1 {
		return 0, common.ErrNoPostsFoundError
	}

	content, err := i.renderer.Render(entries)
	if err != nil {
		i.log.Error("Cannot render index", slog.Any("error", err))

		return 0, fmt.Errorf("cannot render index: %w", err)
	}

	path, err := i.archive.WriteIndex(content)
	if err != nil {
		i.log.Error("Cannot write index", slog.Any("error", err))

		return 0, fmt.Errorf("cannot write index: %w", err)
	}

	i.log.Info("Index written", slog.String("path", path), slog.Int("count", len(entries)))

	return len(entries), nil
}
