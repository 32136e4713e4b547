// Package webhook delivers signed gallery events to the URL an owner
// configured for a gallery.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sendrec/galleryplayer/internal/database"
)

const (
	maxResponseBodyBytes = 1024
	signatureHeader      = "X-Gallery-Signature"

	EventItemReady = "item.ready"
)

type Event struct {
	Name      string         `json:"event"`
	GalleryID string         `json:"galleryId"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// Client dispatches events with retries and records every attempt in
// webhook_deliveries.
type Client struct {
	db          database.DBTX
	http        *http.Client
	retryDelays []time.Duration
	now         func() time.Time
}

func New(db database.DBTX) *Client {
	return &Client{
		db:          db,
		http:        &http.Client{Timeout: 10 * time.Second},
		retryDelays: []time.Duration{1 * time.Second, 4 * time.Second},
		now:         time.Now,
	}
}

// SignPayload computes the HMAC-SHA256 of payload, hex encoded with a sha256= prefix.
func SignPayload(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Notify sends an event to the gallery's webhook. Galleries without a
// webhook are skipped silently.
func (c *Client) Notify(ctx context.Context, galleryID, name string, data map[string]any) error {
	webhookURL, secret, err := c.lookupConfig(ctx, galleryID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup webhook: %w", err)
	}

	return c.Dispatch(ctx, webhookURL, secret, Event{
		Name:      name,
		GalleryID: galleryID,
		Timestamp: c.now().UTC(),
		Data:      data,
	})
}

// Dispatch posts event to webhookURL, making up to 1+len(retryDelays) attempts.
func (c *Client) Dispatch(ctx context.Context, webhookURL, secret string, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	signature := SignPayload(secret, body)
	maxAttempts := 1 + len(c.retryDelays)
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		statusCode, respBody, err := c.doPost(ctx, webhookURL, body, signature)
		c.logDelivery(ctx, event.GalleryID, event.Name, body, statusCode, respBody, attempt)

		if err == nil && statusCode != nil && *statusCode >= 200 && *statusCode < 300 {
			return nil
		}

		if err != nil {
			lastErr = err
		} else if statusCode != nil {
			lastErr = fmt.Errorf("webhook returned status %d", *statusCode)
		}

		if attempt < maxAttempts {
			select {
			case <-time.After(c.retryDelays[attempt-1]):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return lastErr
}

func (c *Client) doPost(ctx context.Context, url string, body []byte, signature string) (*int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, "", fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(signatureHeader, signature)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err.Error(), err
	}
	defer func() { _ = resp.Body.Close() }()

	respBytes, _ := io.ReadAll(io.LimitReader(resp.Body, int64(maxResponseBodyBytes)+1))
	respBody := string(respBytes)
	if len(respBody) > maxResponseBodyBytes {
		respBody = respBody[:maxResponseBodyBytes]
	}

	return &resp.StatusCode, respBody, nil
}

func (c *Client) logDelivery(ctx context.Context, galleryID, event string, payload []byte, statusCode *int, responseBody string, attempt int) {
	if _, err := c.db.Exec(ctx,
		`INSERT INTO webhook_deliveries (gallery_id, event, payload, status_code, response_body, attempt)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		galleryID, event, payload, statusCode, responseBody, attempt,
	); err != nil {
		slog.Error("webhook: failed to log delivery", "gallery_id", galleryID, "error", err)
	}
}

func (c *Client) lookupConfig(ctx context.Context, galleryID string) (string, string, error) {
	var url, secret string
	err := c.db.QueryRow(ctx,
		`SELECT webhook_url, webhook_secret FROM galleries
		 WHERE id = $1 AND webhook_url IS NOT NULL AND webhook_secret IS NOT NULL`,
		galleryID,
	).Scan(&url, &secret)
	if err != nil {
		return "", "", err
	}
	return url, secret, nil
}
