// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response utilities shared by all endpoints: the
// error envelope, the success envelope, and the mapping from service errors
// to HTTP statuses.
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "Short URL not found"
//	}
//
// Example success response:
//
//	HTTP/1.1 200 OK
//	{ "success": true, "data": { "id": 1, "shortUrl": "1", ... } }
package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-url-shortener/internal/http/middleware"
	"github.com/tbourn/go-url-shortener/internal/services"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"Short URL not found"`
}

// DataResponse is the success envelope for single-resource responses.
type DataResponse struct {
	Success bool `json:"success" example:"true"`
	Data    any  `json:"data"`
}

// fail aborts the request with a structured error. Server errors are logged
// with the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) { failErr(c, status, code, msg, nil) }

// failErr is fail with the underlying cause attached to the 5xx log entry.
// The cause never reaches the client.
func failErr(c *gin.Context, status int, code, msg string, cause error) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		ev := lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg)
		if cause != nil {
			ev = ev.Err(cause)
		}
		ev.Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() for router-level handlers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failFromErr maps a service error onto the error envelope. Unknown errors
// are storage failures: the client gets a generic 500.
func failFromErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEmptyURL):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "longUrl is required")
	case errors.Is(err, services.ErrInvalidURL):
		fail(c, http.StatusBadRequest, ErrCodeInvalidURL, "Invalid URL format. URL must start with http:// or https://")
	case errors.Is(err, services.ErrURLTooLong):
		fail(c, http.StatusBadRequest, ErrCodeInvalidURL,
			fmt.Sprintf("URL is too long. Maximum length is %d characters", services.MaxURLLength))
	case errors.Is(err, services.ErrInvalidShortCode):
		fail(c, http.StatusBadRequest, ErrCodeInvalidShortURL, "Invalid short URL format")
	case errors.Is(err, services.ErrURLNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "Short URL not found")
	case errors.Is(err, services.ErrInvalidPagination):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, paginationMessage)
	default:
		failErr(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error", err)
	}
}

var paginationMessage = fmt.Sprintf("page must be >= 1 and limit must be between 1 and %d", services.MaxPageLimit)

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// okData wraps data in the success envelope.
func okData(c *gin.Context, status int, data any) {
	ok(c, status, DataResponse{Success: true, Data: data})
}
