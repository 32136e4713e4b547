package gallery

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/sendrec/galleryplayer/internal/auth"
	"github.com/sendrec/galleryplayer/internal/httputil"
	"github.com/sendrec/galleryplayer/internal/media"
	"github.com/sendrec/galleryplayer/internal/storage"
	"github.com/sendrec/galleryplayer/internal/validate"
	"github.com/sendrec/galleryplayer/internal/webhook"
	"github.com/sendrec/galleryplayer/internal/youtube"
)

const (
	statusPending = "pending"
	statusReady   = "ready"
)

type addItemRequest struct {
	URL           string `json:"url"`
	ContentType   string `json:"contentType"`
	ContentLength int64  `json:"contentLength"`
	Caption       string `json:"caption"`
}

type addItemResponse struct {
	ID        string     `json:"id"`
	Position  int        `json:"position"`
	Kind      media.Kind `json:"kind"`
	Status    string     `json:"status"`
	YouTubeID string     `json:"youtubeId,omitempty"`
	UploadURL string     `json:"uploadUrl,omitempty"`
}

// newItem is a row ready for insertion.
type newItem struct {
	kind        media.Kind
	sourceURL   *string
	youtubeID   *string
	fileKey     *string
	contentType *string
	status      string
}

// AddItem appends a linked item (url set) or reserves a native upload (url
// empty) at the end of the gallery.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.OwnerIDFromContext(r.Context())
	galleryID := chi.URLParam(r, "id")

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validate.Caption(req.Caption); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	var item newItem
	var uploadURL string
	if req.URL != "" {
		if msg := validate.SourceURL(req.URL); msg != "" {
			httputil.WriteError(w, http.StatusBadRequest, msg)
			return
		}
		item = newItem{
			kind:      media.Classify(req.URL, req.ContentType),
			sourceURL: &req.URL,
			status:    statusReady,
		}
		if req.ContentType != "" {
			item.contentType = &req.ContentType
		}
		if item.kind == media.KindYouTube {
			id, ok := youtube.ExtractID(req.URL)
			if !ok || !validate.VideoID(id) {
				httputil.WriteError(w, http.StatusBadRequest, "could not find a video ID in the YouTube URL")
				return
			}
			item.youtubeID = &id
		}
	} else {
		if !media.IsUploadable(req.ContentType) {
			httputil.WriteError(w, http.StatusBadRequest, "contentType must be an image or video type")
			return
		}
		key, err := itemFileKey(galleryID, req.ContentType)
		if err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, "failed to add item")
			return
		}
		uploadURL, err = h.storage.GenerateUploadURL(r.Context(), key, req.ContentType, req.ContentLength, uploadURLExpiry)
		if errors.Is(err, storage.ErrTooLarge) {
			httputil.WriteError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		if err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, "failed to generate upload URL")
			return
		}
		item = newItem{
			kind:        media.Classify("", req.ContentType),
			fileKey:     &key,
			contentType: &req.ContentType,
			status:      statusPending,
		}
	}

	var resp addItemResponse
	err := h.db.QueryRow(r.Context(),
		`INSERT INTO gallery_items (gallery_id, position, kind, source_url, youtube_id, file_key, content_type, caption, status)
		 SELECT g.id, COALESCE((SELECT MAX(position) FROM gallery_items WHERE gallery_id = g.id), -1) + 1,
		        $3, $4, $5, $6, $7, $8, $9
		 FROM galleries g
		 WHERE g.id = $1 AND g.owner_id = $2
		 RETURNING id, position`,
		galleryID, ownerID, string(item.kind), item.sourceURL, item.youtubeID, item.fileKey, item.contentType, req.Caption, item.status,
	).Scan(&resp.ID, &resp.Position)
	if errors.Is(err, pgx.ErrNoRows) {
		httputil.WriteError(w, http.StatusNotFound, "gallery not found")
		return
	}
	if isUniqueViolation(err) {
		httputil.WriteError(w, http.StatusConflict, "gallery was modified concurrently, retry")
		return
	}
	if err != nil {
		slog.Error("gallery: insert item failed", "gallery_id", galleryID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to add item")
		return
	}

	if item.status == statusReady {
		h.notify(galleryID, webhook.EventItemReady, map[string]any{"itemId": resp.ID, "kind": item.kind})
	}

	resp.Kind = item.kind
	resp.Status = item.status
	resp.UploadURL = uploadURL
	if item.youtubeID != nil {
		resp.YouTubeID = *item.youtubeID
	}
	httputil.WriteJSON(w, http.StatusCreated, resp)
}

// CompleteItem marks a native upload ready once the object exists in storage.
func (h *Handler) CompleteItem(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.OwnerIDFromContext(r.Context())
	galleryID := chi.URLParam(r, "id")
	itemID := chi.URLParam(r, "itemId")

	var fileKey *string
	var status string
	err := h.db.QueryRow(r.Context(),
		`SELECT i.file_key, i.status FROM gallery_items i
		 JOIN galleries g ON g.id = i.gallery_id
		 WHERE i.id = $1 AND g.id = $2 AND g.owner_id = $3`,
		itemID, galleryID, ownerID,
	).Scan(&fileKey, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		httputil.WriteError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to complete item")
		return
	}
	if fileKey == nil {
		httputil.WriteError(w, http.StatusBadRequest, "item has no upload")
		return
	}
	if status == statusReady {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": statusReady})
		return
	}

	size, contentType, err := h.storage.HeadObject(r.Context(), *fileKey)
	if err != nil || size == 0 {
		httputil.WriteError(w, http.StatusBadRequest, "upload not found")
		return
	}

	if _, err := h.db.Exec(r.Context(),
		`UPDATE gallery_items SET status = 'ready', content_type = COALESCE(NULLIF($2, ''), content_type) WHERE id = $1`,
		itemID, contentType,
	); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to complete item")
		return
	}
	h.notify(galleryID, webhook.EventItemReady, map[string]any{"itemId": itemID, "contentType": contentType})

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": statusReady})
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.OwnerIDFromContext(r.Context())
	galleryID := chi.URLParam(r, "id")
	itemID := chi.URLParam(r, "itemId")

	var fileKey *string
	err := h.db.QueryRow(r.Context(),
		`DELETE FROM gallery_items i
		 USING galleries g
		 WHERE i.gallery_id = g.id AND i.id = $1 AND g.id = $2 AND g.owner_id = $3
		 RETURNING i.file_key`,
		itemID, galleryID, ownerID,
	).Scan(&fileKey)
	if errors.Is(err, pgx.ErrNoRows) {
		httputil.WriteError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}

	if fileKey != nil {
		h.purgeObjects([]string{*fileKey})
	}
	w.WriteHeader(http.StatusNoContent)
}
