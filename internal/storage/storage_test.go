package storage_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sendrec/galleryplayer/internal/storage"
)

func newTestStorage(t *testing.T, maxBytes int64) *storage.Storage {
	t.Helper()
	s, err := storage.New(context.Background(), storage.Config{
		Endpoint:       "http://localhost:9000",
		PublicEndpoint: "https://media.example.com",
		Bucket:         "gallery",
		AccessKey:      "test",
		SecretKey:      "test",
		MaxUploadBytes: maxBytes,
	})
	if err != nil {
		t.Fatalf("expected no error creating storage client, got: %v", err)
	}
	return s
}

func TestGenerateUploadURL_UsesPublicEndpoint(t *testing.T) {
	s := newTestStorage(t, 0)

	u, err := s.GenerateUploadURL(context.Background(), "galleries/g1/i1.mp4", "video/mp4", 1024, 15*time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(u, "https://media.example.com/gallery/galleries/g1/i1.mp4") {
		t.Errorf("expected presigned URL on public endpoint, got %s", u)
	}
}

func TestGenerateUploadURL_RejectsOversizedObject(t *testing.T) {
	s := newTestStorage(t, 100)

	_, err := s.GenerateUploadURL(context.Background(), "k", "video/mp4", 101, time.Minute)
	if !errors.Is(err, storage.ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}
}

func TestGenerateDownloadURL(t *testing.T) {
	s := newTestStorage(t, 0)

	u, err := s.GenerateDownloadURL(context.Background(), "galleries/g1/i1.jpg", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(u, "X-Amz-Signature=") {
		t.Errorf("expected signed URL, got %s", u)
	}
}

func TestGenerateUploadURL_NilStorage(t *testing.T) {
	var s *storage.Storage
	if _, err := s.GenerateUploadURL(context.Background(), "k", "video/mp4", 1, time.Minute); err == nil {
		t.Error("expected error for nil storage")
	}
}
