// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes give clients a stable, machine-readable taxonomy next to the
// human-readable message. Generic codes mirror HTTP status semantics;
// domain codes narrow a 400 down to the offending input.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "invalid_short_url",
//	  "message": "Invalid short URL format"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeInvalidURL      = "invalid_url"
	ErrCodeInvalidShortURL = "invalid_short_url"
	ErrCodeUnhealthy       = "unhealthy"
)
