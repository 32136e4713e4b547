package gallery

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/pashagolub/pgxmock/v3"
)

type stubCountries map[string]string

func (s stubCountries) Country(ip string) string { return s[ip] }

func TestDeviceClass(t *testing.T) {
	tests := []struct {
		name string
		ua   string
		want string
	}{
		{"empty", "", "unknown"},
		{"iphone", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1", "mobile"},
		{"ipad", "Mozilla/5.0 (iPad; CPU OS 16_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Mobile/15E148 Safari/604.1", "tablet"},
		{"googlebot", "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)", "bot"},
		{"desktop", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36", "desktop"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := deviceClass(tt.ua); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func viewRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/api/g/{shareToken}/items/{itemId}/views", h.RecordView)
	return r
}

func TestRecordView_Success(t *testing.T) {
	h, mock := newTestHandler(t, nil)
	h.SetCountryResolver(stubCountries{"203.0.113.9": "NL"})

	ua := "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	mock.ExpectExec(`INSERT INTO item_views`).
		WithArgs("item-1", "tok1", viewerHash("203.0.113.9", ua), "mobile", "NL").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	req := httptest.NewRequest(http.MethodPost, "/api/g/tok1/items/item-1/views", nil)
	req.Header.Set("User-Agent", ua)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	rec := httptest.NewRecorder()
	viewRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	expectMet(t, mock)
}

func TestRecordView_UnknownItem(t *testing.T) {
	h, mock := newTestHandler(t, nil)

	mock.ExpectExec(`INSERT INTO item_views`).
		WithArgs("item-9", "tok1", pgxmock.AnyArg(), "unknown", "").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	rec := serve(viewRouter(h), http.MethodPost, "/api/g/tok1/items/item-9/views", nil)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	expectMet(t, mock)
}

func TestRecordView_DBError(t *testing.T) {
	h, mock := newTestHandler(t, nil)

	mock.ExpectExec(`INSERT INTO item_views`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("connection refused"))

	rec := serve(viewRouter(h), http.MethodPost, "/api/g/tok1/items/item-1/views", nil)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	expectMet(t, mock)
}

func TestViewerHash_Stable(t *testing.T) {
	a := viewerHash("1.2.3.4", "ua")
	if a != viewerHash("1.2.3.4", "ua") {
		t.Error("expected stable hash")
	}
	if a == viewerHash("1.2.3.5", "ua") {
		t.Error("expected different hash for different IP")
	}
	if len(a) != 16 {
		t.Errorf("expected 16 hex chars, got %d", len(a))
	}
}
