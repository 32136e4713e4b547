// Package videoinfo looks up YouTube video details through the YouTube Data API.
package videoinfo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sosodev/duration"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

var ErrNotFound = errors.New("video not found")

type Video struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Channel      string        `json:"channel"`
	Duration     time.Duration `json:"-"`
	ThumbnailURL string        `json:"thumbnailUrl,omitempty"`
}

type Config struct {
	APIKey string
	// Endpoint and HTTPClient override the Google defaults, mainly for tests.
	Endpoint   string
	HTTPClient *http.Client
}

type Client struct {
	service *youtube.Service
}

// New returns nil without an API key; a nil Client reports every video as not found.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, nil
	}
	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	return &Client{service: service}, nil
}

func (c *Client) Lookup(ctx context.Context, videoID string) (Video, error) {
	if c == nil {
		return Video{}, ErrNotFound
	}

	response, err := c.service.Videos.List([]string{"snippet", "contentDetails"}).
		Id(videoID).
		Context(ctx).
		Do()
	if err != nil {
		return Video{}, fmt.Errorf("list video %s: %w", videoID, err)
	}
	if len(response.Items) == 0 {
		return Video{}, ErrNotFound
	}

	item := response.Items[0]
	video := Video{ID: item.Id}
	if item.Snippet != nil {
		video.Title = item.Snippet.Title
		video.Channel = item.Snippet.ChannelTitle
		video.ThumbnailURL = bestThumbnail(item.Snippet.Thumbnails)
	}
	if item.ContentDetails != nil && item.ContentDetails.Duration != "" {
		d, err := duration.Parse(item.ContentDetails.Duration)
		if err != nil {
			return Video{}, fmt.Errorf("parse duration %q: %w", item.ContentDetails.Duration, err)
		}
		video.Duration = d.ToTimeDuration()
	}
	return video, nil
}

func bestThumbnail(t *youtube.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, th := range []*youtube.Thumbnail{t.Maxres, t.High, t.Medium, t.Default} {
		if th != nil && th.Url != "" {
			return th.Url
		}
	}
	return ""
}
