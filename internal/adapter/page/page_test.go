package page

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redgrab/redgrab/internal/entity"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEntries() []*entity.ArchiveEntry {
	return []*entity.ArchiveEntry{
		{
			ID:        "1abc23",
			Title:     "A clip",
			Author:    "someone",
			Subreddit: "videos",
			Permalink: "/r/videos/comments/1abc23/a_clip/",
			Kind:      "video",
			Via:       "http",
			Created:   time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
			Fetched:   time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC),
			Files: []entity.ArchiveFile{
				{ID: "f1", Name: "1abc23.mp4", Size: 2048},
			},
			SelfText: "Watch until the **end**.",
		},
		{
			ID:        "2def45",
			Title:     "Spicy",
			Author:    "other",
			Subreddit: "pics",
			Permalink: "/r/pics/comments/2def45/spicy/",
			Kind:      "direct_image",
			Via:       "http",
			NSFW:      true,
			Created:   time.Date(2026, 8, 19, 12, 0, 0, 0, time.UTC),
			Fetched:   time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC),
		},
	}
}

func TestRenderDefaultTemplate(t *testing.T) {
	a, err := NewPageAdapter("", testLogger())
	require.NoError(t, err)

	content, err := a.Render(testEntries())
	require.NoError(t, err)

	assert.Contains(t, content, "A clip")
	assert.Contains(t, content, "https://www.reddit.com/r/videos/comments/1abc23/a_clip/")
	assert.Contains(t, content, `href="1abc23.mp4"`)
	assert.Contains(t, content, "2.0 KiB")
	assert.Contains(t, content, "<strong>end</strong>")
	assert.Contains(t, content, "nsfw")
	assert.Contains(t, content, "r/pics")
}

func TestRenderStripsLeadingFrontmatter(t *testing.T) {
	a, err := NewPageAdapter("", testLogger())
	require.NoError(t, err)

	entries := []*entity.ArchiveEntry{
		{
			ID:       "3ghi67",
			Title:    "Config dump",
			SelfText: "---\nsecret: value\n---\nThe actual body.",
		},
	}

	content, err := a.Render(entries)
	require.NoError(t, err)

	assert.Contains(t, content, "The actual body.")
	assert.NotContains(t, content, "secret: value")
}

func TestRenderCustomTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.html")
	require.NoError(t, os.WriteFile(path, []byte("{{len .Entries}} entries"), 0o644))

	a, err := NewPageAdapter(path, testLogger())
	require.NoError(t, err)

	content, err := a.Render(testEntries())
	require.NoError(t, err)
	assert.Equal(t, "2 entries", content)
}

func TestNewPageAdapterMissingTemplateFile(t *testing.T) {
	_, err := NewPageAdapter(filepath.Join(t.TempDir(), "nope.html"), testLogger())
	assert.Error(t, err)
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
		{3 * 1024 * 1024 * 1024, "3.0 GiB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatSize(tt.size))
	}
}
