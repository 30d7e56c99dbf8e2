package services

import (
	"net/url"
	"strings"
)

// MaxURLLength is the largest accepted long URL, in bytes.
const MaxURLLength = 2048

// ValidateLongURL applies the acceptance rule for long URLs, in order:
// non-blank, an absolute http or https URL with a host, then at most
// MaxURLLength bytes. A URL that is both malformed and oversized is reported
// as malformed. Nothing is normalized.
func ValidateLongURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return ErrEmptyURL
	}
	if !isHTTPURL(raw) {
		return ErrInvalidURL
	}
	if len(raw) > MaxURLLength {
		return ErrURLTooLong
	}
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Hostname() == "" {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return true
	}
	return false
}
