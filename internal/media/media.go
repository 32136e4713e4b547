// Package media decides which player a gallery item needs.
package media

import (
	"net/url"
	"path"
	"strings"

	"github.com/sendrec/galleryplayer/internal/facebook"
	"github.com/sendrec/galleryplayer/internal/youtube"
)

type Kind string

const (
	KindImage    Kind = "image"
	KindVideo    Kind = "video"
	KindYouTube  Kind = "youtube"
	KindFacebook Kind = "facebook"
)

var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".m4v":  true,
	".webm": true,
	".m3u8": true,
}

// Classify picks the player for an item. Web players win over the content type,
// so a YouTube link is never treated as a native video.
func Classify(rawURL, contentType string) Kind {
	switch {
	case rawURL != "" && youtube.IsURL(rawURL):
		return KindYouTube
	case rawURL != "" && facebook.IsURL(rawURL):
		return KindFacebook
	case strings.HasPrefix(strings.ToLower(contentType), "video/"):
		return KindVideo
	case hasVideoExtension(rawURL):
		return KindVideo
	default:
		return KindImage
	}
}

// IsWebPlayer reports whether items of kind k play inside a web view.
func (k Kind) IsWebPlayer() bool {
	return k == KindYouTube || k == KindFacebook
}

func hasVideoExtension(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	return videoExtensions[strings.ToLower(path.Ext(p))]
}

// StripQuery drops the query string and fragment from rawURL.
func StripQuery(rawURL string) string {
	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

// IsUploadable reports whether contentType can be stored as a native item.
func IsUploadable(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.HasPrefix(ct, "video/") || strings.HasPrefix(ct, "image/")
}

func ExtensionForContentType(ct string) string {
	switch strings.ToLower(ct) {
	case "video/mp4":
		return ".mp4"
	case "video/quicktime":
		return ".mov"
	case "video/webm":
		return ".webm"
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
