package gallery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/sendrec/galleryplayer/internal/httputil"
	"github.com/sendrec/galleryplayer/internal/media"
)

const passwordHeader = "X-Gallery-Password"

var (
	errGalleryNotFound  = errors.New("gallery not found")
	errPasswordRequired = errors.New("password required")
)

type sharedItem struct {
	ID          string     `json:"id"`
	Position    int        `json:"position"`
	Kind        media.Kind `json:"kind"`
	Caption     string     `json:"caption"`
	YouTubeID   string     `json:"youtubeId,omitempty"`
	PlayerURL   string     `json:"playerUrl,omitempty"`
	MediaURL    string     `json:"mediaUrl,omitempty"`
	ContentType string     `json:"contentType,omitempty"`
}

type sharedGallery struct {
	Title    string       `json:"title"`
	Autoplay bool         `json:"autoplay"`
	Items    []sharedItem `json:"items"`
}

func (h *Handler) youtubePlayerURL(videoID string) string {
	return h.baseURL + "/player/youtube/" + videoID
}

func (h *Handler) facebookPlayerURL(videoURL string) string {
	return h.baseURL + "/player/facebook?url=" + url.QueryEscape(videoURL)
}

// loadSharedGallery returns the ready items of the gallery behind shareToken.
// A protected gallery needs the matching password.
func (h *Handler) loadSharedGallery(ctx context.Context, shareToken, password string) (*sharedGallery, error) {
	var galleryID string
	var passwordHash *string
	g := &sharedGallery{Items: []sharedItem{}}

	err := h.db.QueryRow(ctx,
		`SELECT id, title, share_password, autoplay FROM galleries WHERE share_token = $1`,
		shareToken,
	).Scan(&galleryID, &g.Title, &passwordHash, &g.Autoplay)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errGalleryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load gallery: %w", err)
	}
	if passwordHash != nil && (password == "" || !checkPassword(*passwordHash, password)) {
		return nil, errPasswordRequired
	}

	rows, err := h.db.Query(ctx,
		`SELECT id, position, kind, source_url, youtube_id, file_key, content_type, caption
		 FROM gallery_items
		 WHERE gallery_id = $1 AND status = 'ready'
		 ORDER BY position`,
		galleryID,
	)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item sharedItem
		var kind string
		var sourceURL, youtubeID, fileKey, contentType *string
		if err := rows.Scan(&item.ID, &item.Position, &kind, &sourceURL, &youtubeID, &fileKey, &contentType, &item.Caption); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		item.Kind = media.Kind(kind)
		if contentType != nil {
			item.ContentType = *contentType
		}

		switch {
		case item.Kind == media.KindYouTube && youtubeID != nil:
			item.YouTubeID = *youtubeID
			item.PlayerURL = h.youtubePlayerURL(*youtubeID)
		case item.Kind == media.KindFacebook && sourceURL != nil:
			item.PlayerURL = h.facebookPlayerURL(*sourceURL)
		case fileKey != nil:
			u, err := h.storage.GenerateDownloadURL(ctx, *fileKey, downloadURLExpiry)
			if err != nil {
				slog.Error("gallery: presign media failed", "item_id", item.ID, "error", err)
				continue
			}
			item.MediaURL = u
		case sourceURL != nil:
			item.MediaURL = *sourceURL
		}
		g.Items = append(g.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return g, nil
}

// Shared returns the public JSON view of a gallery, used by native gallery widgets.
func (h *Handler) Shared(w http.ResponseWriter, r *http.Request) {
	shareToken := chi.URLParam(r, "shareToken")

	g, err := h.loadSharedGallery(r.Context(), shareToken, r.Header.Get(passwordHeader))
	switch {
	case errors.Is(err, errGalleryNotFound):
		httputil.WriteError(w, http.StatusNotFound, "gallery not found")
	case errors.Is(err, errPasswordRequired):
		httputil.WriteError(w, http.StatusForbidden, "password required")
	case err != nil:
		slog.Error("gallery: load shared gallery failed", "share_token", shareToken, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load gallery")
	default:
		httputil.WriteJSON(w, http.StatusOK, g)
	}
}

// SharePage renders the browser gallery. GET shows it directly or a password
// form; POST carries the password from that form.
func (h *Handler) SharePage(w http.ResponseWriter, r *http.Request) {
	shareToken := chi.URLParam(r, "shareToken")
	nonce := httputil.NonceFromContext(r.Context())

	var password string
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		password = r.PostForm.Get("password")
	}

	g, err := h.loadSharedGallery(r.Context(), shareToken, password)
	switch {
	case errors.Is(err, errGalleryNotFound):
		h.renderPage(w, http.StatusNotFound, notFoundPageTemplate, messagePageData{Nonce: nonce})
	case errors.Is(err, errPasswordRequired):
		status := http.StatusOK
		if password != "" {
			status = http.StatusForbidden
		}
		h.renderPage(w, status, passwordPageTemplate, passwordPageData{
			Nonce:     nonce,
			ShareURL:  h.shareURL(shareToken),
			WrongPass: password != "",
		})
	case err != nil:
		slog.Error("gallery: render share page failed", "share_token", shareToken, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	default:
		h.renderPage(w, http.StatusOK, galleryPageTemplate, galleryPageData{
			Title:      g.Title,
			Autoplay:   g.Autoplay,
			Items:      g.Items,
			ShareToken: shareToken,
			Nonce:      nonce,
		})
	}
}
