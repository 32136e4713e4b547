package gallery

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/sendrec/galleryplayer/internal/media"
	"github.com/sendrec/galleryplayer/internal/storage"
)

var insertItemColumns = []string{"id", "position"}

func TestAddItem_YouTubeLink(t *testing.T) {
	h, mock := newTestHandler(t, nil)
	link := "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

	mock.ExpectQuery(`INSERT INTO gallery_items`).
		WithArgs("gal-1", testOwnerID, "youtube", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), "Rick", "ready").
		WillReturnRows(pgxmock.NewRows(insertItemColumns).AddRow("item-1", 0))

	body := fmt.Sprintf(`{"url":%q,"caption":"Rick"}`, link)
	rec := serve(ownerRouter(h), http.MethodPost, "/api/galleries/gal-1/items", strings.NewReader(body))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp addItemResponse
	decodeBody(t, rec, &resp)
	if resp.Kind != media.KindYouTube {
		t.Errorf("expected youtube kind, got %q", resp.Kind)
	}
	if resp.YouTubeID != "dQw4w9WgXcQ" {
		t.Errorf("expected youtube ID dQw4w9WgXcQ, got %q", resp.YouTubeID)
	}
	if resp.UploadURL != "" {
		t.Errorf("expected no upload URL for linked item, got %q", resp.UploadURL)
	}
	if resp.Status != "ready" || resp.Position != 0 {
		t.Errorf("unexpected response %+v", resp)
	}
	expectMet(t, mock)
}

func TestAddItem_YouTubeLinkWithoutID(t *testing.T) {
	h, mock := newTestHandler(t, nil)

	rec := serve(ownerRouter(h), http.MethodPost, "/api/galleries/gal-1/items",
		strings.NewReader(`{"url":"https://www.youtube.com/channel/UC123"}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	expectMet(t, mock)
}

func TestAddItem_FacebookAndImageLinks(t *testing.T) {
	tests := []struct {
		url  string
		kind string
	}{
		{"https://www.facebook.com/page/videos/123/", "facebook"},
		{"https://cdn.example.com/photo.jpg", "image"},
		{"https://cdn.example.com/clip.mp4", "video"},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			h, mock := newTestHandler(t, nil)

			mock.ExpectQuery(`INSERT INTO gallery_items`).
				WithArgs("gal-1", testOwnerID, tt.kind, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), "", "ready").
				WillReturnRows(pgxmock.NewRows(insertItemColumns).AddRow("item-2", 4))

			rec := serve(ownerRouter(h), http.MethodPost, "/api/galleries/gal-1/items",
				strings.NewReader(fmt.Sprintf(`{"url":%q}`, tt.url)))

			if rec.Code != http.StatusCreated {
				t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
			}
			var resp addItemResponse
			decodeBody(t, rec, &resp)
			if string(resp.Kind) != tt.kind || resp.Position != 4 {
				t.Errorf("unexpected response %+v", resp)
			}
			expectMet(t, mock)
		})
	}
}

func TestAddItem_NativeUpload(t *testing.T) {
	store := &mockStorage{uploadURL: "https://s3.example.com/upload?sig=1"}
	h, mock := newTestHandler(t, store)

	mock.ExpectQuery(`INSERT INTO gallery_items`).
		WithArgs("gal-1", testOwnerID, "video", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), "", "pending").
		WillReturnRows(pgxmock.NewRows(insertItemColumns).AddRow("item-3", 2))

	rec := serve(ownerRouter(h), http.MethodPost, "/api/galleries/gal-1/items",
		strings.NewReader(`{"contentType":"video/mp4","contentLength":1048576}`))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp addItemResponse
	decodeBody(t, rec, &resp)
	if resp.UploadURL != store.uploadURL {
		t.Errorf("expected upload URL %q, got %q", store.uploadURL, resp.UploadURL)
	}
	if resp.Status != "pending" {
		t.Errorf("expected pending status, got %q", resp.Status)
	}
	if len(store.uploadKeys) != 1 || !strings.HasPrefix(store.uploadKeys[0], "galleries/gal-1/") || !strings.HasSuffix(store.uploadKeys[0], ".mp4") {
		t.Errorf("unexpected upload keys %v", store.uploadKeys)
	}
	expectMet(t, mock)
}

func TestAddItem_RejectsUnsupportedUpload(t *testing.T) {
	h, mock := newTestHandler(t, nil)

	rec := serve(ownerRouter(h), http.MethodPost, "/api/galleries/gal-1/items",
		strings.NewReader(`{"contentType":"application/pdf"}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	expectMet(t, mock)
}

func TestAddItem_UploadTooLarge(t *testing.T) {
	store := &mockStorage{uploadErr: fmt.Errorf("presign upload: %w", storage.ErrTooLarge)}
	h, mock := newTestHandler(t, store)

	rec := serve(ownerRouter(h), http.MethodPost, "/api/galleries/gal-1/items",
		strings.NewReader(`{"contentType":"video/mp4","contentLength":999999999999}`))

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
	expectMet(t, mock)
}

func TestAddItem_GalleryNotFound(t *testing.T) {
	h, mock := newTestHandler(t, nil)

	mock.ExpectQuery(`INSERT INTO gallery_items`).
		WillReturnError(pgx.ErrNoRows)

	rec := serve(ownerRouter(h), http.MethodPost, "/api/galleries/other/items",
		strings.NewReader(`{"url":"https://youtu.be/abc"}`))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	expectMet(t, mock)
}

func TestAddItem_ConcurrentInsertConflict(t *testing.T) {
	h, mock := newTestHandler(t, nil)

	mock.ExpectQuery(`INSERT INTO gallery_items`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	rec := serve(ownerRouter(h), http.MethodPost, "/api/galleries/gal-1/items",
		strings.NewReader(`{"url":"https://youtu.be/abc"}`))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	expectMet(t, mock)
}

func TestCompleteItem_MarksReady(t *testing.T) {
	store := &mockStorage{headSize: 2048, headType: "video/mp4"}
	h, mock := newTestHandler(t, store)
	key := "galleries/gal-1/x.mp4"

	mock.ExpectQuery(`SELECT i.file_key, i.status FROM gallery_items`).
		WithArgs("item-1", "gal-1", testOwnerID).
		WillReturnRows(pgxmock.NewRows([]string{"file_key", "status"}).AddRow(&key, "pending"))
	mock.ExpectExec(`UPDATE gallery_items SET status = 'ready'`).
		WithArgs("item-1", "video/mp4").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	rec := serve(ownerRouter(h), http.MethodPost, "/api/galleries/gal-1/items/item-1/complete", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	expectMet(t, mock)
}

func TestCompleteItem_MissingUpload(t *testing.T) {
	store := &mockStorage{headErr: errors.New("not found")}
	h, mock := newTestHandler(t, store)
	key := "galleries/gal-1/x.mp4"

	mock.ExpectQuery(`SELECT i.file_key, i.status FROM gallery_items`).
		WithArgs("item-1", "gal-1", testOwnerID).
		WillReturnRows(pgxmock.NewRows([]string{"file_key", "status"}).AddRow(&key, "pending"))

	rec := serve(ownerRouter(h), http.MethodPost, "/api/galleries/gal-1/items/item-1/complete", nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	expectMet(t, mock)
}

func TestCompleteItem_LinkedItemHasNoUpload(t *testing.T) {
	h, mock := newTestHandler(t, nil)

	mock.ExpectQuery(`SELECT i.file_key, i.status FROM gallery_items`).
		WithArgs("item-1", "gal-1", testOwnerID).
		WillReturnRows(pgxmock.NewRows([]string{"file_key", "status"}).AddRow((*string)(nil), "ready"))

	rec := serve(ownerRouter(h), http.MethodPost, "/api/galleries/gal-1/items/item-1/complete", nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	expectMet(t, mock)
}

func TestDeleteItem_RemovesObject(t *testing.T) {
	store := &mockStorage{deleteCalled: make(chan string, 1)}
	h, mock := newTestHandler(t, store)
	key := "galleries/gal-1/x.jpg"

	mock.ExpectQuery(`DELETE FROM gallery_items`).
		WithArgs("item-1", "gal-1", testOwnerID).
		WillReturnRows(pgxmock.NewRows([]string{"file_key"}).AddRow(&key))

	rec := serve(ownerRouter(h), http.MethodDelete, "/api/galleries/gal-1/items/item-1", nil)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	select {
	case got := <-store.deleteCalled:
		if got != key {
			t.Errorf("expected %q deleted, got %q", key, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for object deletion")
	}
	expectMet(t, mock)
}

func TestDeleteItem_NotFound(t *testing.T) {
	h, mock := newTestHandler(t, nil)

	mock.ExpectQuery(`DELETE FROM gallery_items`).
		WithArgs("item-9", "gal-1", testOwnerID).
		WillReturnError(pgx.ErrNoRows)

	rec := serve(ownerRouter(h), http.MethodDelete, "/api/galleries/gal-1/items/item-9", nil)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	expectMet(t, mock)
}
