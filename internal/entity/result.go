package entity

import "time"

const (
	ViaHTTP  = "http"
	ViaYtdlp = "yt-dlp"
	ViaNone  = "none"
)

// MediaFile is one file the grab run wrote into the output directory.
type MediaFile struct {
	ID   string // Stable hash of the file path
	Name string
	Path string
	Size int64
	URL  string // Source url the content came from
}

// GrabResult sums up the handling of a single post.
type GrabResult struct {
	Post    *Post
	Kind    MediaKind
	Files   []MediaFile
	Via     string // http, yt-dlp or none
	Skipped bool   // Post was already in the history store
}

// ArchiveEntry is the sidecar record written next to the grabbed media.
// It is stored as yaml frontmatter, the selftext follows as the body.
type ArchiveEntry struct {
	ID        string        `yaml:"id"`
	Title     string        `yaml:"title"`
	Author    string        `yaml:"author"`
	Subreddit string        `yaml:"subreddit"`
	Permalink string        `yaml:"permalink"`
	Kind      string        `yaml:"kind"`
	Via       string        `yaml:"via"`
	NSFW      bool          `yaml:"nsfw"`
	Created   time.Time     `yaml:"created"`
	Fetched   time.Time     `yaml:"fetched"`
	Files     []ArchiveFile `yaml:"files,omitempty"`

	SelfText string `yaml:"-"`
}

// ArchiveFile describes one media file in a sidecar.
type ArchiveFile struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Size int64  `yaml:"size"`
	URL  string `yaml:"url,omitempty"`
}
