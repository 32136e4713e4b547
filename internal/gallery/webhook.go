package gallery

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sendrec/galleryplayer/internal/auth"
	"github.com/sendrec/galleryplayer/internal/httputil"
	"github.com/sendrec/galleryplayer/internal/validate"
)

type setWebhookRequest struct {
	URL string `json:"url"`
}

type setWebhookResponse struct {
	URL    string `json:"url,omitempty"`
	Secret string `json:"secret,omitempty"`
}

// SetWebhook points a gallery's events at url with a fresh signing secret. An
// empty url turns the webhook off. The secret is only ever shown here.
func (h *Handler) SetWebhook(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.OwnerIDFromContext(r.Context())
	galleryID := chi.URLParam(r, "id")

	var req setWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var webhookURL, secret *string
	var resp setWebhookResponse
	if req.URL != "" {
		if msg := validate.WebhookURL(req.URL); msg != "" {
			httputil.WriteError(w, http.StatusBadRequest, msg)
			return
		}
		s, err := randomToken(24)
		if err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, "failed to set webhook")
			return
		}
		webhookURL, secret = &req.URL, &s
		resp = setWebhookResponse{URL: req.URL, Secret: s}
	}

	tag, err := h.db.Exec(r.Context(),
		`UPDATE galleries SET webhook_url = $3, webhook_secret = $4, updated_at = now()
		 WHERE id = $1 AND owner_id = $2`,
		galleryID, ownerID, webhookURL, secret,
	)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to set webhook")
		return
	}
	if tag.RowsAffected() == 0 {
		httputil.WriteError(w, http.StatusNotFound, "gallery not found")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}
