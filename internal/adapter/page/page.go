// Package page renders the archive index as a static html catalogue.
package page

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"time"

	_ "embed"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"go.abhg.dev/goldmark/frontmatter"

	"github.com/redgrab/redgrab/internal/entity"
)

const funcNameSize = "size"

//go:embed templates/index.html
var defaultTemplate string

// IndexEntry pairs an archive entry with its selftext rendered to html.
type IndexEntry struct {
	*entity.ArchiveEntry

	ContentHTML template.HTML
}

type IndexContext struct {
	GeneratedAt time.Time
	Entries     []*IndexEntry
}

type PageAdapter struct {
	tpl *template.Template
	md  goldmark.Markdown

	log *slog.Logger
}

// NewPageAdapter builds the index renderer. An empty templateFileName keeps
// the embedded template, otherwise the file replaces it.
func NewPageAdapter(templateFileName string, log *slog.Logger) (*PageAdapter, error) {
	src := defaultTemplate
	if templateFileName != "" {
		data, err := os.ReadFile(templateFileName)
		if err != nil {
			return nil, fmt.Errorf("cannot read template: %w", err)
		}

		src = string(data)
	}

	tpl := template.New("index").Funcs(template.FuncMap{
		funcNameSize: formatSize,
	})

	if _, err := tpl.Parse(src); err != nil {
		return nil, fmt.Errorf("cannot parse template: %w", err)
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Linkify,
			&frontmatter.Extender{},
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)

	return &PageAdapter{
		tpl: tpl,
		md:  md,
		log: log.With(slog.String("item", "PageAdapter")),
	}, nil
}

func (a *PageAdapter) Render(entries []*entity.ArchiveEntry) (string, error) {
	ctx := &IndexContext{
		GeneratedAt: time.Now().UTC(),
	}

	for _, entry := range entries {
		ie := &IndexEntry{ArchiveEntry: entry}

		if entry.SelfText != "" {
			content, err := a.convert(entry.SelfText)
			if err != nil {
				a.log.Error("Cannot convert selftext", slog.String("id", entry.ID), slog.Any("error", err))
			} else {
				ie.ContentHTML = content
			}
		}

		ctx.Entries = append(ctx.Entries, ie)
	}

	buf := bytes.Buffer{}
	if err := a.tpl.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("cannot execute template: %w", err)
	}

	return buf.String(), nil
}

func (a *PageAdapter) convert(selftext string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := a.md.Convert([]byte(selftext), &buf); err != nil {
		return "", fmt.Errorf("cannot convert markdown: %w", err)
	}

	return template.HTML(buf.String()), nil
}

func formatSize(size int64) string {
	const unit = 1024

	if size < unit {
		return fmt.Sprintf("%d B", size)
	}

	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}
