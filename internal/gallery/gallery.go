package gallery

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/sendrec/galleryplayer/internal/auth"
	"github.com/sendrec/galleryplayer/internal/httputil"
	"github.com/sendrec/galleryplayer/internal/validate"
)

type createGalleryRequest struct {
	Title    string `json:"title"`
	Password string `json:"password"`
	Autoplay bool   `json:"autoplay"`
}

type createGalleryResponse struct {
	ID         string `json:"id"`
	ShareToken string `json:"shareToken"`
	ShareURL   string `json:"shareUrl"`
	CreatedAt  string `json:"createdAt"`
}

type galleryListItem struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	ShareToken        string `json:"shareToken"`
	ShareURL          string `json:"shareUrl"`
	PasswordProtected bool   `json:"passwordProtected"`
	Autoplay          bool   `json:"autoplay"`
	ItemCount         int    `json:"itemCount"`
	CreatedAt         string `json:"createdAt"`
}

func (h *Handler) shareURL(shareToken string) string {
	return h.baseURL + "/g/" + shareToken
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.OwnerIDFromContext(r.Context())

	var req createGalleryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validate.GalleryTitle(req.Title); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	var passwordHash *string
	if req.Password != "" {
		if msg := validate.Password(req.Password); msg != "" {
			httputil.WriteError(w, http.StatusBadRequest, msg)
			return
		}
		hash, err := hashPassword(req.Password)
		if err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, "failed to create gallery")
			return
		}
		passwordHash = &hash
	}

	shareToken, err := generateShareToken()
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to create gallery")
		return
	}

	var id string
	var createdAt time.Time
	err = h.db.QueryRow(r.Context(),
		`INSERT INTO galleries (owner_id, title, share_token, share_password, autoplay)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		ownerID, req.Title, shareToken, passwordHash, req.Autoplay,
	).Scan(&id, &createdAt)
	if err != nil {
		slog.Error("gallery: insert failed", "owner_id", ownerID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to create gallery")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, createGalleryResponse{
		ID:         id,
		ShareToken: shareToken,
		ShareURL:   h.shareURL(shareToken),
		CreatedAt:  createdAt.Format(time.RFC3339),
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.OwnerIDFromContext(r.Context())

	rows, err := h.db.Query(r.Context(),
		`SELECT g.id, g.title, g.share_token, g.share_password IS NOT NULL, g.autoplay, g.created_at, COUNT(i.id)
		 FROM galleries g
		 LEFT JOIN gallery_items i ON i.gallery_id = g.id
		 WHERE g.owner_id = $1
		 GROUP BY g.id
		 ORDER BY g.created_at DESC`,
		ownerID,
	)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list galleries")
		return
	}
	defer rows.Close()

	galleries := []galleryListItem{}
	for rows.Next() {
		var item galleryListItem
		var createdAt time.Time
		if err := rows.Scan(&item.ID, &item.Title, &item.ShareToken, &item.PasswordProtected, &item.Autoplay, &createdAt, &item.ItemCount); err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, "failed to list galleries")
			return
		}
		item.ShareURL = h.shareURL(item.ShareToken)
		item.CreatedAt = createdAt.Format(time.RFC3339)
		galleries = append(galleries, item)
	}
	if err := rows.Err(); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list galleries")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, galleries)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.OwnerIDFromContext(r.Context())
	galleryID := chi.URLParam(r, "id")

	rows, err := h.db.Query(r.Context(),
		`SELECT i.file_key FROM gallery_items i
		 JOIN galleries g ON g.id = i.gallery_id
		 WHERE g.id = $1 AND g.owner_id = $2 AND i.file_key IS NOT NULL`,
		galleryID, ownerID,
	)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to delete gallery")
		return
	}
	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			rows.Close()
			httputil.WriteError(w, http.StatusInternalServerError, "failed to delete gallery")
			return
		}
		keys = append(keys, key)
	}
	rows.Close()

	tag, err := h.db.Exec(r.Context(),
		`DELETE FROM galleries WHERE id = $1 AND owner_id = $2`,
		galleryID, ownerID,
	)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to delete gallery")
		return
	}
	if tag.RowsAffected() == 0 {
		httputil.WriteError(w, http.StatusNotFound, "gallery not found")
		return
	}

	h.purgeObjects(keys)
	w.WriteHeader(http.StatusNoContent)
}

type itemStats struct {
	ItemID        string `json:"itemId"`
	Position      int    `json:"position"`
	Views         int    `json:"views"`
	UniqueViewers int    `json:"uniqueViewers"`
}

type galleryStats struct {
	Items     []itemStats    `json:"items"`
	Devices   map[string]int `json:"devices"`
	Countries map[string]int `json:"countries"`
}

// Stats reports per-item views plus device and country breakdowns.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.OwnerIDFromContext(r.Context())
	galleryID := chi.URLParam(r, "id")

	var exists bool
	err := h.db.QueryRow(r.Context(),
		`SELECT true FROM galleries WHERE id = $1 AND owner_id = $2`,
		galleryID, ownerID,
	).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		httputil.WriteError(w, http.StatusNotFound, "gallery not found")
		return
	}
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}

	stats := galleryStats{Items: []itemStats{}, Devices: map[string]int{}, Countries: map[string]int{}}

	rows, err := h.db.Query(r.Context(),
		`SELECT i.id, i.position, COUNT(v.id), COUNT(DISTINCT v.viewer_hash)
		 FROM gallery_items i
		 LEFT JOIN item_views v ON v.item_id = i.id
		 WHERE i.gallery_id = $1
		 GROUP BY i.id, i.position
		 ORDER BY i.position`,
		galleryID,
	)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	for rows.Next() {
		var s itemStats
		if err := rows.Scan(&s.ItemID, &s.Position, &s.Views, &s.UniqueViewers); err != nil {
			rows.Close()
			httputil.WriteError(w, http.StatusInternalServerError, "failed to load stats")
			return
		}
		stats.Items = append(stats.Items, s)
	}
	rows.Close()

	breakdowns := []struct {
		column string
		into   map[string]int
	}{
		{"device", stats.Devices},
		{"country", stats.Countries},
	}
	for _, b := range breakdowns {
		if err := h.countViewsBy(r, galleryID, b.column, b.into); err != nil {
			slog.Error("gallery: stats breakdown failed", "gallery_id", galleryID, "column", b.column, "error", err)
			httputil.WriteError(w, http.StatusInternalServerError, "failed to load stats")
			return
		}
	}

	httputil.WriteJSON(w, http.StatusOK, stats)
}

// column is one of a fixed set of identifiers, never user input.
func (h *Handler) countViewsBy(r *http.Request, galleryID, column string, into map[string]int) error {
	rows, err := h.db.Query(r.Context(),
		`SELECT v.`+column+`, COUNT(*)
		 FROM item_views v
		 JOIN gallery_items i ON i.id = v.item_id
		 WHERE i.gallery_id = $1
		 GROUP BY v.`+column,
		galleryID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		if key == "" {
			key = "unknown"
		}
		into[key] += count
	}
	return rows.Err()
}
