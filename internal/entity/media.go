package entity

import (
	"net/url"
	"regexp"
	"strings"
)

const (
	MediaKindUnknown MediaKind = iota
	MediaKindVideo
	MediaKindGallery
	MediaKindDirectImage
	MediaKindPreviewImage
	MediaKindExternal
)

type MediaKind int

func (k MediaKind) String() string {
	return [...]string{"unknown", "video", "gallery", "direct_image", "preview_image", "external"}[k]
}

var (
	imageExts  = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
	imageHosts = []string{"i.redd.it", "preview.redd.it", "external-preview.redd.it", "i.imgur.com"}

	// Reddit-owned hosts never go to the external downloader.
	externalExcludeDomains = []string{
		"reddit.com",
		"redd.it",
		"v.redd.it",
		"i.redd.it",
		"preview.redd.it",
		"external-preview.redd.it",
	}

	dashRenditionRegexp = regexp.MustCompile(`DASH_\d+`)
	oembedSrcRegexp     = regexp.MustCompile(`src="([^"]+)"`)
)

/*
Kind classifies the post media as one of video, gallery, direct_image,
preview_image, external or unknown. The checks run in priority order:
hosted video signals win, preview images are the weakest usable hint.
*/
func (p *Post) Kind() MediaKind {
	if p.IsVideo || p.PostHint == "hosted:video" || p.Video() != nil || strings.ToLower(p.Domain) == "v.redd.it" {
		return MediaKindVideo
	}

	if p.GalleryData != nil && p.MediaMetadata != nil {
		return MediaKindGallery
	}

	if p.PostHint == "rich:video" {
		return MediaKindExternal
	}

	uod := SanitizeURL(p.URLOverridden)
	if isImageishURL(uod) {
		return MediaKindDirectImage
	}

	if p.Preview != nil && len(p.Preview.Images) > 0 {
		return MediaKindPreviewImage
	}

	if uod != "" {
		return MediaKindExternal
	}

	return MediaKindUnknown
}

// OverriddenURL returns the destination url of a link post, preferring
// url_overridden_by_dest over the plain url field.
func (p *Post) OverriddenURL() string {
	if u := SanitizeURL(p.URLOverridden); u != "" {
		return u
	}

	return SanitizeURL(p.URL)
}

// PreviewImageURL returns the source url of the first preview image.
func (p *Post) PreviewImageURL() string {
	if p.Preview == nil || len(p.Preview.Images) == 0 {
		return ""
	}

	return SanitizeURL(p.Preview.Images[0].Source.URL)
}

// ExternalMediaURL picks the best target url to hand to an external
// downloader: the destination url when it points outside reddit, else
// whatever the oembed payload exposes.
func (p *Post) ExternalMediaURL() string {
	if u := p.OverriddenURL(); u != "" {
		if pu, err := url.Parse(u); err == nil {
			host := strings.ToLower(pu.Host)
			if isExternalDomain(host) && !isImageishURL(u) {
				return u
			}
		}
	}

	for _, m := range []*Media{p.Media, p.SecureMedia} {
		if m == nil || m.OEmbed == nil {
			continue
		}

		if m.OEmbed.URL != "" {
			return SanitizeURL(m.OEmbed.URL)
		}

		if m.OEmbed.HTML != "" {
			if sm := oembedSrcRegexp.FindStringSubmatch(m.OEmbed.HTML); sm != nil {
				return SanitizeURL(sm[1])
			}
		}
	}

	return ""
}

// GalleryEntry is one downloadable gallery item. Index keeps the original
// gallery position even when preceding items are skipped.
type GalleryEntry struct {
	Index int
	Kind  string // image, gif or animated_mp4
	URL   string
}

// GalleryEntries flattens gallery_data and media_metadata into the ordered
// list of downloadable items. Animated items prefer the gif rendition and
// fall back to mp4. Items with unusable metadata are dropped.
func (p *Post) GalleryEntries() []GalleryEntry {
	if p.GalleryData == nil || p.MediaMetadata == nil {
		return nil
	}

	var entries []GalleryEntry
	for i, item := range p.GalleryData.Items {
		m, exists := p.MediaMetadata[item.MediaID]
		if !exists {
			continue
		}

		entry := GalleryEntry{Index: i + 1}

		switch m.Kind {
		case "Image":
			entry.Kind = "image"
			entry.URL = SanitizeURL(m.Source.U)
		case "AnimatedImage":
			if gif := SanitizeURL(m.Source.GIF); gif != "" {
				entry.Kind = "gif"
				entry.URL = gif
			} else if mp4 := SanitizeURL(m.Source.MP4); mp4 != "" {
				entry.Kind = "animated_mp4"
				entry.URL = mp4
			}
		}

		if entry.URL == "" {
			continue
		}

		entries = append(entries, entry)
	}

	return entries
}

func isImageishURL(u string) bool {
	if u == "" {
		return false
	}

	pu, err := url.Parse(u)
	if err != nil {
		return false
	}

	path := strings.ToLower(pu.Path)
	for _, ext := range imageExts {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}

	host := strings.ToLower(pu.Host)
	for _, h := range imageHosts {
		if strings.HasSuffix(host, h) {
			return true
		}
	}

	return false
}

func isExternalDomain(host string) bool {
	for _, d := range externalExcludeDomains {
		if strings.HasSuffix(host, d) {
			return false
		}
	}

	return true
}
