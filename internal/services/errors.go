// Package services defines the business logic of the URL shortener. This
// file centralizes service-level error values so that they can be returned
// by service methods and checked by callers with errors.Is.
//
// Translation into user-facing messages and HTTP status codes is done by the
// handler layer.
package services

import (
	"errors"
	"fmt"

	"github.com/tbourn/go-url-shortener/internal/shortcode"
)

// URL validation errors.
var (
	// ErrEmptyURL is returned when no long URL was supplied.
	ErrEmptyURL = errors.New("long url is empty")

	// ErrURLTooLong is returned when the long URL exceeds MaxURLLength bytes.
	ErrURLTooLong = errors.New("long url too long")

	// ErrInvalidURL is returned when the long URL is not an absolute http(s)
	// URL with a host.
	ErrInvalidURL = errors.New("long url is not a valid http(s) url")
)

// Lookup errors.
var (
	// ErrInvalidShortCode is returned when a short code contains characters
	// outside the base62 alphabet. It matches shortcode.ErrInvalidEncoding.
	ErrInvalidShortCode = fmt.Errorf("bad short code format: %w", shortcode.ErrInvalidEncoding)

	// ErrURLNotFound indicates that no record carries the requested code.
	ErrURLNotFound = errors.New("short url not found")

	// ErrInvalidPagination is returned for page < 1 or limit outside [1, MaxPageLimit].
	ErrInvalidPagination = errors.New("invalid pagination")
)
