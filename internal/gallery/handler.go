// Package gallery serves galleries of images, native videos and web-player
// videos (YouTube, Facebook) to gallery widgets and browsers.
package gallery

import (
	"context"
	"time"

	"github.com/sendrec/galleryplayer/internal/database"
	"github.com/sendrec/galleryplayer/internal/videoinfo"
)

const (
	uploadURLExpiry   = 15 * time.Minute
	downloadURLExpiry = 1 * time.Hour
	deleteAttempts    = 3
)

type ObjectStorage interface {
	GenerateUploadURL(ctx context.Context, key string, contentType string, contentLength int64, expiry time.Duration) (string, error)
	GenerateDownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error)
	DeleteObject(ctx context.Context, key string) error
	HeadObject(ctx context.Context, key string) (int64, string, error)
}

// EventNotifier delivers gallery events to the owner's webhook, if any.
type EventNotifier interface {
	Notify(ctx context.Context, galleryID, event string, data map[string]any) error
}

// VideoLookup fetches YouTube titles and durations for resolve and oEmbed.
type VideoLookup interface {
	Lookup(ctx context.Context, videoID string) (videoinfo.Video, error)
}

// CountryResolver maps a client IP to an ISO country code, or "" when unknown.
type CountryResolver interface {
	Country(ip string) string
}

type Handler struct {
	db             database.DBTX
	storage        ObjectStorage
	baseURL        string
	countries      CountryResolver
	events         EventNotifier
	videos         VideoLookup
	frameAncestors string
	retryBackoff   time.Duration
}

func NewHandler(db database.DBTX, s ObjectStorage, baseURL string) *Handler {
	return &Handler{
		db:           db,
		storage:      s,
		baseURL:      baseURL,
		retryBackoff: time.Second,
	}
}

func (h *Handler) SetCountryResolver(r CountryResolver) {
	h.countries = r
}

func (h *Handler) SetEventNotifier(n EventNotifier) {
	h.events = n
}

func (h *Handler) SetVideoLookup(v VideoLookup) {
	h.videos = v
}

// SetFrameAncestors lists extra origins allowed to frame the player documents.
func (h *Handler) SetFrameAncestors(origins string) {
	h.frameAncestors = origins
}
