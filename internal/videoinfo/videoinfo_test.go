package videoinfo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Config{
		APIKey:     "test-key",
		Endpoint:   srv.URL + "/",
		HTTPClient: srv.Client(),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestLookup(t *testing.T) {
	var gotID, gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotID = r.URL.Query().Get("id")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"id":"dQw4w9WgXcQ",
			"snippet":{"title":"Never Gonna Give You Up","channelTitle":"Rick Astley",
				"thumbnails":{"default":{"url":"https://i.ytimg.com/d.jpg"},"high":{"url":"https://i.ytimg.com/h.jpg"}}},
			"contentDetails":{"duration":"PT3M33S"}}]}`))
	})

	video, err := c.Lookup(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/youtube/v3/videos" {
		t.Errorf("expected %q, got %q", "/youtube/v3/videos", gotPath)
	}
	if gotID != "dQw4w9WgXcQ" {
		t.Errorf("expected id query %q, got %q", "dQw4w9WgXcQ", gotID)
	}
	if video.Title != "Never Gonna Give You Up" || video.Channel != "Rick Astley" {
		t.Errorf("unexpected video %+v", video)
	}
	if video.Duration != 3*time.Minute+33*time.Second {
		t.Errorf("expected 3m33s, got %v", video.Duration)
	}
	if video.ThumbnailURL != "https://i.ytimg.com/h.jpg" {
		t.Errorf("expected high thumbnail, got %q", video.ThumbnailURL)
	}
}

func TestLookup_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[]}`))
	})

	if _, err := c.Lookup(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLookup_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"quota exceeded"}}`))
	})

	_, err := c.Lookup(context.Background(), "abc")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("expected API error, got %v", err)
	}
}

func TestNew_WithoutKeyIsDisabled(t *testing.T) {
	c, err := New(context.Background(), Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c != nil {
		t.Fatal("expected nil client without API key")
	}
	if _, err := c.Lookup(context.Background(), "abc"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound from disabled client, got %v", err)
	}
}

func TestBestThumbnail_Nil(t *testing.T) {
	if got := bestThumbnail(nil); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}
