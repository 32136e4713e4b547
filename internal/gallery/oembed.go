package gallery

import (
	"errors"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/sendrec/galleryplayer/internal/httputil"
	"github.com/sendrec/galleryplayer/internal/media"
	"github.com/sendrec/galleryplayer/internal/validate"
	"github.com/sendrec/galleryplayer/internal/youtube"
)

const (
	oEmbedWidth  = 640
	oEmbedHeight = 360
)

type oEmbedResponse struct {
	Type         string `json:"type"`
	Version      string `json:"version"`
	Title        string `json:"title"`
	ProviderName string `json:"provider_name"`
	ProviderURL  string `json:"provider_url"`
	HTML         string `json:"html"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	AuthorName   string `json:"author_name,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// OEmbed answers oEmbed 1.0 discovery for YouTube links and shared galleries.
func (h *Handler) OEmbed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if format := q.Get("format"); format != "" && format != "json" {
		httputil.WriteError(w, http.StatusNotImplemented, "only json format is supported")
		return
	}
	rawURL := strings.TrimSpace(q.Get("url"))
	if rawURL == "" || validate.SourceURL(rawURL) != "" {
		httputil.WriteError(w, http.StatusBadRequest, "url is required")
		return
	}

	width, height := oEmbedSize(q.Get("maxwidth"), q.Get("maxheight"))

	var title, frameSrc, author, thumbnail string
	switch {
	case strings.HasPrefix(rawURL, h.baseURL+"/g/"):
		shareToken := strings.Trim(media.StripQuery(strings.TrimPrefix(rawURL, h.baseURL+"/g/")), "/")
		err := h.db.QueryRow(r.Context(),
			`SELECT title FROM galleries WHERE share_token = $1`,
			shareToken,
		).Scan(&title)
		if errors.Is(err, pgx.ErrNoRows) {
			httputil.WriteError(w, http.StatusNotFound, "gallery not found")
			return
		}
		if err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, "failed to load gallery")
			return
		}
		frameSrc = h.shareURL(shareToken)
	case youtube.IsURL(rawURL):
		id, ok := youtube.ExtractID(rawURL)
		if !ok || !validate.VideoID(id) {
			httputil.WriteError(w, http.StatusNotFound, "no video ID in URL")
			return
		}
		title = "YouTube video " + id
		if v, ok := h.lookupVideo(r.Context(), id); ok {
			title, author, thumbnail = v.Title, v.Channel, v.ThumbnailURL
		}
		frameSrc = h.youtubePlayerURL(id)
	default:
		httputil.WriteError(w, http.StatusNotFound, "unsupported URL")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, oEmbedResponse{
		Type:         "video",
		Version:      "1.0",
		Title:        title,
		ProviderName: "galleryplayer",
		ProviderURL:  h.baseURL,
		HTML: fmt.Sprintf(`<iframe src="%s" width="%d" height="%d" frameborder="0" allow="autoplay; fullscreen" allowfullscreen></iframe>`,
			html.EscapeString(frameSrc), width, height),
		Width:        width,
		Height:       height,
		AuthorName:   author,
		ThumbnailURL: thumbnail,
	})
}

// oEmbedSize fits the default 16:9 frame inside the consumer's bounds.
func oEmbedSize(maxWidth, maxHeight string) (int, int) {
	width, height := oEmbedWidth, oEmbedHeight
	if mw, err := strconv.Atoi(maxWidth); err == nil && mw > 0 && mw < width {
		width = mw
		height = width * 9 / 16
	}
	if mh, err := strconv.Atoi(maxHeight); err == nil && mh > 0 && mh < height {
		height = mh
		width = height * 16 / 9
	}
	return width, height
}
