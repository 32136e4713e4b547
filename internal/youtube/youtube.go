// Package youtube recognises YouTube video links and builds the HTML document
// that plays one inside a web view.
package youtube

import "regexp"

var (
	urlPattern = regexp.MustCompile(`(?i)(https?://)?(www\.)?(youtube\.com|youtu\.be|youtu.be)/.+`)

	// RE2 has no lookbehind, so the marker is consumed by a non-capturing group.
	// No marker occurs inside another, which keeps the leftmost match identical
	// to a lookbehind scan.
	idPattern = regexp.MustCompile(`(?:[vV]/|be/|[?&]v=|embed/)([A-Za-z0-9_-]+)`)
)

// IsURL reports whether s contains a YouTube link. Matching is case-insensitive.
func IsURL(s string) bool {
	return urlPattern.MatchString(s)
}

// ExtractID returns the video identifier following the leftmost of the markers
// "v/", "V/", "be/", "?v=", "&v=" and "embed/". Markers are case-sensitive, so
// "https://YOUTU.BE/abc" is a YouTube URL without an extractable ID.
func ExtractID(s string) (string, bool) {
	m := idPattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}
