package gallery

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sendrec/galleryplayer/internal/facebook"
	"github.com/sendrec/galleryplayer/internal/httputil"
	"github.com/sendrec/galleryplayer/internal/media"
	"github.com/sendrec/galleryplayer/internal/validate"
	"github.com/sendrec/galleryplayer/internal/youtube"
)

func (h *Handler) playerCSP(scriptSources, frameSources, connectSources string) string {
	ancestors := "'self'"
	if h.frameAncestors != "" {
		ancestors += " " + h.frameAncestors
	}
	return "default-src 'none'; " +
		"script-src " + scriptSources + "; " +
		"style-src 'unsafe-inline'; " +
		"img-src https: data:; " +
		"frame-src " + frameSources + "; " +
		"connect-src " + connectSources + "; " +
		"frame-ancestors " + ancestors + ";"
}

func (h *Handler) writePlayer(w http.ResponseWriter, csp, document string) {
	w.Header().Set("Content-Security-Policy", csp)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if h.frameAncestors != "" {
		w.Header().Del("X-Frame-Options")
	}
	httputil.WriteHTML(w, http.StatusOK, document)
}

// YouTubePlayer serves the autoplaying YouTube document for a video ID. The ID
// is checked here because the document splices it in unescaped.
func (h *Handler) YouTubePlayer(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")
	if !validate.VideoID(videoID) {
		httputil.WriteError(w, http.StatusBadRequest, "invalid video ID")
		return
	}

	csp := h.playerCSP(
		youtube.PlayerScriptHash()+" https://www.youtube.com https://s.ytimg.com",
		"https://www.youtube.com https://www.youtube-nocookie.com",
		"https://www.youtube.com",
	)
	h.writePlayer(w, csp, youtube.PlayerHTML(videoID))
}

func (h *Handler) FacebookPlayer(w http.ResponseWriter, r *http.Request) {
	videoURL := r.URL.Query().Get("url")
	if videoURL == "" || !facebook.IsURL(videoURL) || validate.SourceURL(videoURL) != "" {
		httputil.WriteError(w, http.StatusBadRequest, "invalid Facebook video URL")
		return
	}

	csp := h.playerCSP(
		facebook.PlayerScriptHash()+" https://connect.facebook.net",
		"https://www.facebook.com https://web.facebook.com",
		"https://*.facebook.com",
	)
	h.writePlayer(w, csp, facebook.PlayerHTML(videoURL))
}

type resolveResponse struct {
	Kind            media.Kind `json:"kind"`
	YouTubeID       string     `json:"youtubeId,omitempty"`
	PlayerURL       string     `json:"playerUrl,omitempty"`
	Title           string     `json:"title,omitempty"`
	DurationSeconds int64      `json:"durationSeconds,omitempty"`
	ThumbnailURL    string     `json:"thumbnailUrl,omitempty"`
}

// Resolve tells a gallery host which player a URL needs and where to load it.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	rawURL := strings.TrimSpace(r.URL.Query().Get("url"))
	if rawURL == "" {
		httputil.WriteError(w, http.StatusBadRequest, "url is required")
		return
	}
	if msg := validate.SourceURL(rawURL); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	resp := resolveResponse{Kind: media.Classify(rawURL, r.URL.Query().Get("contentType"))}
	switch resp.Kind {
	case media.KindYouTube:
		if id, ok := youtube.ExtractID(rawURL); ok && validate.VideoID(id) {
			resp.YouTubeID = id
			resp.PlayerURL = h.youtubePlayerURL(id)
			if v, ok := h.lookupVideo(r.Context(), id); ok {
				resp.Title = v.Title
				resp.DurationSeconds = int64(v.Duration.Seconds())
				resp.ThumbnailURL = v.ThumbnailURL
			}
		}
	case media.KindFacebook:
		resp.PlayerURL = h.facebookPlayerURL(rawURL)
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}
