package fetch

import (
	"net/url"
	"regexp"
	"strings"
)

const extUnknown = ".bin"

var extByContentType = map[string]string{
	"video/mp4":  ".mp4",
	"image/gif":  ".gif",
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

var (
	imageHosts = []string{"i.redd.it", "preview.redd.it", "external-preview.redd.it", "i.imgur.com"}
	knownExts  = []string{".mp4", ".gif", ".jpg", ".jpeg", ".png", ".webp"}

	dispositionRegexp = regexp.MustCompile(`(?i)filename\*=UTF-8''([^;\r\n]+)|filename="?([^;\r\n"]+)"?`)
)

/*
SniffExt decides the extension for a downloaded file:
 1. filename in Content-Disposition
 2. Content-Type map
 3. host heuristic, v.redd.it serves mp4 and the image hosts serve jpg
 4. suffix of the url path
 5. .bin when nothing matched
*/
func SniffExt(contentType, rawURL, contentDisposition string) string {
	if ext := extFromDisposition(contentDisposition); ext != "" {
		return ext
	}

	if contentType != "" {
		ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
		if ext, exists := extByContentType[ct]; exists {
			return ext
		}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return extUnknown
	}

	host := strings.ToLower(u.Host)
	if strings.HasSuffix(host, "v.redd.it") {
		return ".mp4"
	}
	for _, h := range imageHosts {
		if strings.HasSuffix(host, h) {
			return ".jpg"
		}
	}

	if ext := matchKnownExt(strings.ToLower(u.Path)); ext != "" {
		return ext
	}

	return extUnknown
}

func extFromDisposition(dispo string) string {
	if dispo == "" {
		return ""
	}

	m := dispositionRegexp.FindStringSubmatch(dispo)
	if m == nil {
		return ""
	}

	filename := m[1]
	if filename == "" {
		filename = m[2]
	}
	if filename == "" {
		return ""
	}

	filename = strings.SplitN(filename, "?", 2)[0]

	return matchKnownExt(strings.ToLower(filename))
}

func matchKnownExt(s string) string {
	for _, ext := range knownExts {
		if strings.HasSuffix(s, ext) {
			if ext == ".jpeg" {
				return ".jpg"
			}

			return ext
		}
	}

	return ""
}
