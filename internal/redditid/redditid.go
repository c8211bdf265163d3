// Package redditid extracts post ids from the url forms reddit hands out:
// short links, subreddit permalinks and user page permalinks.
package redditid

import (
	"regexp"
	"strings"
)

var (
	idPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)https?://(?:www\.)?redd\.it/([a-z0-9]{5,8})`),
		regexp.MustCompile(`(?i)https?://(?:www\.)?reddit\.com/r/[^/]+/comments/([a-z0-9]{5,8})`),
		regexp.MustCompile(`(?i)https?://(?:www\.)?reddit\.com/(?:u|user)/[^/]+/comments/([a-z0-9]{5,8})`),
	}

	postIDRegexp = regexp.MustCompile(`(?i)^[a-z0-9]{5,8}$`)
)

// Parse returns the post id found in urlOrID. Input that matches no known
// url form comes back as-is, IsValid decides whether it can be used.
func Parse(urlOrID string) string {
	s := strings.TrimSpace(urlOrID)
	for _, pat := range idPatterns {
		if m := pat.FindStringSubmatch(s); m != nil {
			return m[1]
		}
	}

	return s
}

// IsValid reports whether s looks like a bare base36 post id.
func IsValid(s string) bool {
	return postIDRegexp.MatchString(s)
}
