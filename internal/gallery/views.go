package gallery

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mssola/useragent"
	"github.com/sendrec/galleryplayer/internal/httputil"
)

const (
	deviceMobile  = "mobile"
	deviceTablet  = "tablet"
	deviceDesktop = "desktop"
	deviceBot     = "bot"
	deviceUnknown = "unknown"
)

func deviceClass(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return deviceUnknown
	}
	ua := useragent.New(userAgent)
	switch {
	case ua.Bot():
		return deviceBot
	case ua.Platform() == "iPad", strings.Contains(ua.OS(), "Android") && !ua.Mobile():
		return deviceTablet
	case ua.Mobile():
		return deviceMobile
	default:
		return deviceDesktop
	}
}

// RecordView stores one view of an item shown in a shared gallery.
func (h *Handler) RecordView(w http.ResponseWriter, r *http.Request) {
	shareToken := chi.URLParam(r, "shareToken")
	itemID := chi.URLParam(r, "itemId")

	ip := httputil.ClientIP(r)
	device := deviceClass(r.UserAgent())
	var country string
	if h.countries != nil {
		country = h.countries.Country(ip)
	}

	tag, err := h.db.Exec(r.Context(),
		`INSERT INTO item_views (item_id, viewer_hash, device, country)
		 SELECT i.id, $3, $4, $5
		 FROM gallery_items i
		 JOIN galleries g ON g.id = i.gallery_id
		 WHERE i.id = $1 AND g.share_token = $2`,
		itemID, shareToken, viewerHash(ip, r.UserAgent()), device, country,
	)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to record view")
		return
	}
	if tag.RowsAffected() == 0 {
		httputil.WriteError(w, http.StatusNotFound, "item not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
