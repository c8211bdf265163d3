// Package archive owns the output directory: media files land next to a
// markdown sidecar per post (yaml frontmatter plus the selftext), and the
// generated index.html makes the whole directory browsable.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"

	"github.com/redgrab/redgrab/internal/entity"
	"github.com/redgrab/redgrab/internal/util"
)

const (
	sidecarExt    = ".md"
	indexFileName = "index.html"

	frontmatterDelim = "---\n"
)

type Archive struct {
	fs  afero.Fs
	dir string
	log *slog.Logger
}

func New(dir string, log *slog.Logger) *Archive {
	return NewWithFS(afero.NewOsFs(), dir, log)
}

func NewWithFS(fs afero.Fs, dir string, log *slog.Logger) *Archive {
	return &Archive{
		fs:  fs,
		dir: dir,
		log: log.With(slog.String("item", "Archive")),
	}
}

func (a *Archive) Dir() string {
	return a.dir
}

func (a *Archive) EnsureDir() error {
	if err := a.fs.MkdirAll(a.dir, 0o755); err != nil {
		return fmt.Errorf("cannot create output dir %s: %w", a.dir, err)
	}

	return nil
}

// WriteSidecar writes <id>.md for a grab result and returns its path. File
// sizes are taken from disk, results may predate an audio mux.
func (a *Archive) WriteSidecar(result *entity.GrabResult) (string, error) {
	entry := a.buildEntry(result)

	data, err := yaml.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("cannot marshal sidecar frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(frontmatterDelim)
	buf.Write(data)
	buf.WriteString(frontmatterDelim)

	if entry.SelfText != "" {
		buf.WriteString("\n")
		buf.WriteString(entry.SelfText)
		buf.WriteString("\n")
	}

	path := filepath.Join(a.dir, result.Post.ID+sidecarExt)
	if err := afero.WriteFile(a.fs, path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("cannot write sidecar %s: %w", path, err)
	}

	a.log.Info("Wrote sidecar", slog.String("path", path))

	return path, nil
}

// Entries reads all sidecars back, newest grab first. Unreadable sidecars
// are logged and skipped.
func (a *Archive) Entries(ctx context.Context) ([]*entity.ArchiveEntry, error) {
	infos, err := afero.ReadDir(a.fs, a.dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read output dir %s: %w", a.dir, err)
	}

	var entries []*entity.ArchiveEntry
	for _, info := range infos {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if info.IsDir() || !strings.HasSuffix(info.Name(), sidecarExt) {
			continue
		}

		path := filepath.Join(a.dir, info.Name())

		entry, err := a.readSidecar(path)
		if err != nil {
			a.log.Error("Cannot read sidecar", slog.String("path", path), slog.Any("error", err))

			continue
		}

		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Fetched.After(entries[j].Fetched)
	})

	return entries, nil
}

// WriteIndex replaces index.html in the output dir.
func (a *Archive) WriteIndex(content string) (string, error) {
	path := filepath.Join(a.dir, indexFileName)
	if err := afero.WriteFile(a.fs, path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("cannot write index %s: %w", path, err)
	}

	return path, nil
}

func (a *Archive) buildEntry(result *entity.GrabResult) *entity.ArchiveEntry {
	post := result.Post

	entry := &entity.ArchiveEntry{
		ID:        post.ID,
		Title:     post.Title,
		Author:    post.Author,
		Subreddit: post.Subreddit,
		Permalink: post.Permalink,
		Kind:      result.Kind.String(),
		Via:       result.Via,
		NSFW:      post.Over18,
		Created:   post.Created(),
		Fetched:   time.Now().UTC(),
		SelfText:  post.SelfText,
	}

	for _, f := range result.Files {
		af := entity.ArchiveFile{
			ID:   f.ID,
			Name: f.Name,
			Size: f.Size,
			URL:  f.URL,
		}

		if af.ID == "" {
			af.ID = util.GetIDFromString(&f.Path)
		}

		if stat, err := a.fs.Stat(f.Path); err == nil {
			af.Size = stat.Size()
		}

		entry.Files = append(entry.Files, af)
	}

	return entry
}

func (a *Archive) readSidecar(path string) (*entity.ArchiveEntry, error) {
	content, err := afero.ReadFile(a.fs, path)
	if err != nil {
		return nil, fmt.Errorf("cannot read sidecar: %w", err)
	}

	str := string(content)
	if !strings.HasPrefix(str, frontmatterDelim) {
		return nil, fmt.Errorf("sidecar has no frontmatter")
	}

	parts := strings.SplitN(str, frontmatterDelim, 3)
	if len(parts) < 3 {
		return nil, fmt.Errorf("sidecar has no frontmatter")
	}

	var entry entity.ArchiveEntry
	if err := yaml.Unmarshal([]byte(parts[1]), &entry); err != nil {
		return nil, fmt.Errorf("cannot unmarshal frontmatter: %w", err)
	}

	entry.SelfText = strings.TrimSpace(parts[2])

	return &entry, nil
}
