package helper

import (
	"path"
	"strings"
)

// ExtractPublicID recovers the Cloudinary public id from a delivery URL such
// as https://res.cloudinary.com/<cloud>/image/upload/v1712/events/posters/event_3_poster_1712.jpg.
// It returns "" for URLs that are not Cloudinary uploads.
func ExtractPublicID(url string) string {
	_, rest, ok := strings.Cut(url, "/upload/")
	if !ok || rest == "" {
		return ""
	}
	if first, tail, found := strings.Cut(rest, "/"); found && isVersion(first) {
		rest = tail
	}
	return strings.TrimSuffix(rest, path.Ext(rest))
}

func isVersion(segment string) bool {
	if len(segment) < 2 || segment[0] != 'v' {
		return false
	}
	for _, r := range segment[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
