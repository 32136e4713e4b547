package validate

import (
	"fmt"
	"net/url"
	"regexp"
)

// Text field length limits for gallery input.
const (
	MaxGalleryTitleLength = 200
	MaxCaptionLength      = 2000
	MaxSourceURLLength    = 2048
	MinPasswordLength     = 4
	MaxPasswordLength     = 72 // bcrypt ignores anything longer
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

func checkLen(value string, max int, field string) string {
	if len(value) > max {
		return fmt.Sprintf("%s must be %d characters or fewer", field, max)
	}
	return ""
}

func GalleryTitle(s string) string {
	if s == "" {
		return "title is required"
	}
	return checkLen(s, MaxGalleryTitleLength, "title")
}

func Caption(s string) string   { return checkLen(s, MaxCaptionLength, "caption") }
func SourceURL(s string) string { return checkLen(s, MaxSourceURLLength, "url") }

func Password(s string) string {
	if len(s) < MinPasswordLength {
		return fmt.Sprintf("password must be at least %d characters", MinPasswordLength)
	}
	return checkLen(s, MaxPasswordLength, "password")
}

// WebhookURL requires an absolute http(s) URL.
func WebhookURL(s string) string {
	if msg := checkLen(s, MaxSourceURLLength, "webhook url"); msg != "" {
		return msg
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return "webhook url must be an absolute http or https URL"
	}
	return ""
}

// VideoID reports whether s is safe to splice into a player document.
func VideoID(s string) bool {
	return videoIDPattern.MatchString(s)
}

// FieldLimits returns field names mapped to max lengths for the /api/limits endpoint.
func FieldLimits() map[string]int {
	return map[string]int{
		"galleryTitle": MaxGalleryTitleLength,
		"caption":      MaxCaptionLength,
		"url":          MaxSourceURLLength,
		"password":     MaxPasswordLength,
	}
}
