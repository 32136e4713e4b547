package gallery

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sendrec/galleryplayer/internal/media"
	"github.com/sendrec/galleryplayer/internal/videoinfo"
	"golang.org/x/crypto/bcrypt"
)

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func generateShareToken() (string, error) {
	return randomToken(12)
}

func itemFileKey(galleryID, contentType string) (string, error) {
	name, err := randomToken(12)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("galleries/%s/%s%s", galleryID, name, media.ExtensionForContentType(contentType)), nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func viewerHash(ip, userAgent string) string {
	h := sha256.Sum256([]byte(ip + "|" + userAgent))
	return fmt.Sprintf("%x", h[:8])
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// purgeObjects removes stored media in the background once its rows are gone.
func (h *Handler) purgeObjects(keys []string) {
	if len(keys) == 0 {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		for _, key := range keys {
			if err := h.deleteWithRetry(ctx, key); err != nil {
				slog.Error("gallery: failed to delete object", "key", key, "error", err)
			}
		}
	}()
}

// lookupVideo returns YouTube details when a lookup is configured. Failures
// only cost the extra details.
func (h *Handler) lookupVideo(ctx context.Context, videoID string) (videoinfo.Video, bool) {
	if h.videos == nil {
		return videoinfo.Video{}, false
	}
	v, err := h.videos.Lookup(ctx, videoID)
	if err != nil {
		if !errors.Is(err, videoinfo.ErrNotFound) {
			slog.Warn("gallery: video lookup failed", "video_id", videoID, "error", err)
		}
		return videoinfo.Video{}, false
	}
	return v, true
}

// notify hands an event to the notifier without holding up the request.
func (h *Handler) notify(galleryID, event string, data map[string]any) {
	if h.events == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := h.events.Notify(ctx, galleryID, event, data); err != nil {
			slog.Error("gallery: event notification failed", "gallery_id", galleryID, "event", event, "error", err)
		}
	}()
}

func (h *Handler) deleteWithRetry(ctx context.Context, key string) error {
	var lastErr error
	for attempt := 0; attempt < deleteAttempts; attempt++ {
		if attempt > 0 {
			backoff := h.retryBackoff * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
		lastErr = h.storage.DeleteObject(ctx, key)
		if lastErr == nil {
			return nil
		}
		slog.Warn("gallery: delete attempt failed", "attempt", attempt+1, "max_attempts", deleteAttempts, "key", key, "error", lastErr)
	}
	return fmt.Errorf("all %d delete attempts failed for %s: %w", deleteAttempts, key, lastErr)
}
