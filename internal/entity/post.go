package entity

import (
	"strings"
	"time"
)

// Post is the t3 payload of a reddit post as the json api returns it.
// Field names follow the wire format, raw_json=1 is assumed.
type Post struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"` // Fullname, e.g. t3_1abc23
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	Subreddit     string  `json:"subreddit"`
	Permalink     string  `json:"permalink"`
	Domain        string  `json:"domain"`
	URL           string  `json:"url"`
	URLOverridden string  `json:"url_overridden_by_dest"`
	SelfText      string  `json:"selftext"`
	PostHint      string  `json:"post_hint"`
	IsVideo       bool    `json:"is_video"`
	Over18        bool    `json:"over_18"`
	CreatedUTC    float64 `json:"created_utc"`

	Media         *Media               `json:"media"`
	SecureMedia   *Media               `json:"secure_media"`
	Preview       *Preview             `json:"preview"`
	GalleryData   *GalleryData         `json:"gallery_data"`
	MediaMetadata map[string]MediaMeta `json:"media_metadata"`

	CrosspostParentList []Post `json:"crosspost_parent_list"`
}

// Canonical resolves a crosspost to the post it was crossposted from.
// The parent carries the actual media payloads.
func (p *Post) Canonical() *Post {
	if len(p.CrosspostParentList) > 0 {
		return &p.CrosspostParentList[0]
	}

	return p
}

// Created converts the epoch timestamp reddit uses.
func (p *Post) Created() time.Time {
	return time.Unix(int64(p.CreatedUTC), 0).UTC()
}

// Video returns the hosted video payload, checking media first and
// secure_media second.
func (p *Post) Video() *RedditVideo {
	if p.Media != nil && p.Media.RedditVideo != nil {
		return p.Media.RedditVideo
	}
	if p.SecureMedia != nil && p.SecureMedia.RedditVideo != nil {
		return p.SecureMedia.RedditVideo
	}

	return nil
}

// Media wraps the media and secure_media objects.
type Media struct {
	RedditVideo *RedditVideo `json:"reddit_video"`
	OEmbed      *OEmbed      `json:"oembed"`
}

// RedditVideo describes a v.redd.it hosted video.
type RedditVideo struct {
	FallbackURL string `json:"fallback_url"`
	HLSURL      string `json:"hls_url"`
	DashURL     string `json:"dash_url"`
	HasAudio    bool   `json:"has_audio"`
}

// AudioURL derives the separate DASH audio rendition url from the fallback
// url. v.redd.it serves video and audio as distinct streams.
func (v *RedditVideo) AudioURL() string {
	fb := SanitizeURL(v.FallbackURL)
	if !dashRenditionRegexp.MatchString(fb) {
		return ""
	}

	return dashRenditionRegexp.ReplaceAllString(fb, "DASH_AUDIO_128")
}

// OEmbed is the embed descriptor third-party providers supply.
type OEmbed struct {
	URL  string `json:"url"`
	HTML string `json:"html"`
}

// Preview holds the server-generated preview images of a post.
type Preview struct {
	Images []PreviewImage `json:"images"`
}

type PreviewImage struct {
	Source PreviewSource `json:"source"`
}

type PreviewSource struct {
	URL string `json:"url"`
}

// GalleryData fixes the display order of gallery items.
type GalleryData struct {
	Items []GalleryDataItem `json:"items"`
}

type GalleryDataItem struct {
	MediaID string `json:"media_id"`
}

// MediaMeta describes one gallery item, keyed by media id.
type MediaMeta struct {
	Kind   string          `json:"e"` // Image or AnimatedImage
	Source MediaMetaSource `json:"s"`
}

type MediaMetaSource struct {
	U   string `json:"u"`
	GIF string `json:"gif"`
	MP4 string `json:"mp4"`
}

// SanitizeURL undoes the &amp; escaping reddit applies to urls embedded in
// its json payloads.
func SanitizeURL(u string) string {
	return strings.ReplaceAll(u, "&amp;", "&")
}
