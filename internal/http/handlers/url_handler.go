// URL HTTP handlers.
//
// This file exposes the shortener endpoints, relative to the API base path:
//   - POST   /shorten, /data/shorten  (create or reuse an alias)
//   - GET    /:shortUrl               (301 redirect, counts a click)
//   - GET    /info/:shortUrl          (analytics)
//   - GET    /urls                    (list, paginated, ETag support)
//   - DELETE /urls/:shortUrl          (remove an alias)
//
// Handlers are transport-thin: they decode input, call the service, and map
// results and errors onto HTTP responses.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-url-shortener/internal/domain"
	"github.com/tbourn/go-url-shortener/internal/http/middleware"
	"github.com/tbourn/go-url-shortener/internal/services"
	"github.com/tbourn/go-url-shortener/internal/utils"
)

// URLService is the application surface consumed by the handlers.
//
// Implementations must be safe for concurrent use and honor ctx.
type URLService interface {
	// Shorten returns the alias for longURL and whether it was just created.
	Shorten(ctx context.Context, longURL string) (*domain.URL, bool, error)
	// Resolve returns the record for code and records a click asynchronously.
	Resolve(ctx context.Context, code string) (*domain.URL, error)
	// Info returns the record for code without side effects.
	Info(ctx context.Context, code string) (*domain.URL, error)
	// ListPage returns a page of records, newest first, and the total count.
	ListPage(ctx context.Context, page, limit int) ([]domain.URL, int64, error)
	// ListStats returns the record count and latest modification time.
	ListStats(ctx context.Context) (int64, *time.Time, error)
	// Delete removes the record for code.
	Delete(ctx context.Context, code string) (*domain.URL, error)
	// Health probes storage.
	Health(ctx context.Context) services.Health
}

// Options configures link rendering.
type Options struct {
	// APIBasePath is the mount point of the API, e.g. "/api/v1".
	APIBasePath string
	// BaseURL is the public origin used in fullShortUrl. When empty it is
	// derived from the request scheme and Host.
	BaseURL string
}

// Handlers groups the HTTP endpoints of the shortener.
type Handlers struct {
	svc      URLService
	basePath string
	baseURL  string
}

// New constructs Handlers bound to svc.
func New(svc URLService, opts Options) *Handlers {
	bp := strings.TrimRight(opts.APIBasePath, "/")
	return &Handlers{
		svc:      svc,
		basePath: bp,
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
	}
}

//
// DTOs
//

// ShortenRequest is the JSON payload for creating a short URL.
type ShortenRequest struct {
	LongURL string `json:"longUrl" example:"https://example.com/very/long/path"`
}

// ShortenedURL is the representation returned by the shorten endpoint.
type ShortenedURL struct {
	ID           int64     `json:"id" example:"125"`
	LongURL      string    `json:"longUrl" example:"https://example.com/very/long/path"`
	ShortURL     string    `json:"shortUrl" example:"21"`
	FullShortURL string    `json:"fullShortUrl" example:"https://sho.rt/api/v1/21"`
	ClickCount   int64     `json:"clickCount" example:"0"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ShortenResponse wraps ShortenedURL in the success envelope.
type ShortenResponse struct {
	Success bool         `json:"success" example:"true"`
	Data    ShortenedURL `json:"data"`
}

// URLResponse wraps a stored record in the success envelope.
type URLResponse struct {
	Success bool       `json:"success" example:"true"`
	Data    domain.URL `json:"data"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalCount  int64 `json:"totalCount"`
	Limit       int   `json:"limit"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

// ListURLsResponse wraps a page of records and pagination information.
type ListURLsResponse struct {
	Success    bool         `json:"success" example:"true"`
	Data       []domain.URL `json:"data"`
	Pagination Pagination   `json:"pagination"`
}

//
// Helpers
//

// parsePagination reads page and limit. Absent values take the defaults;
// malformed or out-of-range values are rejected.
func parsePagination(c *gin.Context) (page, limit int, err error) {
	if page, err = utils.ParseIntDefault(c.Query("page"), 1); err != nil {
		return 0, 0, services.ErrInvalidPagination
	}
	if limit, err = utils.ParseIntDefault(c.Query("limit"), services.DefaultPageLimit); err != nil {
		return 0, 0, services.ErrInvalidPagination
	}
	if page < 1 || limit < 1 || limit > services.MaxPageLimit {
		return 0, 0, services.ErrInvalidPagination
	}
	return page, limit, nil
}

// fullShortURL renders the absolute link for code.
func (h *Handlers) fullShortURL(c *gin.Context, code string) string {
	origin := h.baseURL
	if origin == "" {
		origin = middleware.Scheme(c.Request) + "://" + c.Request.Host
	}
	return origin + h.basePath + "/" + code
}

// decodeLongURL extracts longUrl from the body, distinguishing a missing
// field from one of the wrong JSON type.
func decodeLongURL(c *gin.Context) (string, bool) {
	var raw struct {
		LongURL json.RawMessage `json:"longUrl"`
	}
	if err := c.ShouldBindJSON(&raw); err != nil && !errors.Is(err, io.EOF) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return "", false
	}
	v := bytes.TrimSpace(raw.LongURL)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "longUrl is required")
		return "", false
	}
	var s string
	if v[0] != '"' || json.Unmarshal(v, &s) != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "longUrl must be a string")
		return "", false
	}
	return s, true
}

//
// Handlers
//

// Shorten godoc
// @ID          shortenURL
// @Summary     Shorten a URL
// @Description Returns the alias for longUrl, creating it on first submission. Submitting the same URL again returns the existing alias.
// @Tags        URLs
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.ShortenRequest  true  "URL to shorten"
// @Success     201   {object}  handlers.ShortenResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Missing, malformed, or too long URL"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /shorten [post]
func (h *Handlers) Shorten(c *gin.Context) {
	longURL, good := decodeLongURL(c)
	if !good {
		return
	}

	u, _, err := h.svc.Shorten(c.Request.Context(), longURL)
	if err != nil {
		failFromErr(c, err)
		return
	}
	ok(c, http.StatusCreated, ShortenResponse{
		Success: true,
		Data: ShortenedURL{
			ID:           u.ID,
			LongURL:      u.LongURL,
			ShortURL:     u.ShortCode,
			FullShortURL: h.fullShortURL(c, u.ShortCode),
			ClickCount:   u.ClickCount,
			CreatedAt:    u.CreatedAt,
		},
	})
}

// Redirect godoc
// @ID          redirectShortURL
// @Summary     Follow a short URL
// @Description Redirects to the original URL with 301 and counts the click in the background.
// @Tags        URLs
// @Param       shortUrl  path  string  true  "Short code"  example(21)
// @Success     301  {string}  string  "Moved Permanently"
// @Header      301  {string}  Location  "Original URL"
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid short URL format"
// @Failure     404  {object}  handlers.ErrorResponse  "Short URL not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /{shortUrl} [get]
func (h *Handlers) Redirect(c *gin.Context) {
	u, err := h.svc.Resolve(c.Request.Context(), c.Param("shortUrl"))
	if err != nil {
		failFromErr(c, err)
		return
	}
	// Browsers cache 301s indefinitely; revalidation keeps clicks counted.
	c.Header("Cache-Control", "no-cache")
	c.Redirect(http.StatusMovedPermanently, u.LongURL)
}

// Info godoc
// @ID          getURLInfo
// @Summary     Short URL analytics
// @Description Returns the stored record, including its click count. Does not count a click.
// @Tags        URLs
// @Produce     json
// @Param       shortUrl  path  string  true  "Short code"  example(21)
// @Success     200  {object}  handlers.URLResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid short URL format"
// @Failure     404  {object}  handlers.ErrorResponse  "Short URL not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /info/{shortUrl} [get]
func (h *Handlers) Info(c *gin.Context) {
	u, err := h.svc.Info(c.Request.Context(), c.Param("shortUrl"))
	if err != nil {
		failFromErr(c, err)
		return
	}
	ok(c, http.StatusOK, URLResponse{Success: true, Data: *u})
}

// ListURLs godoc
// @ID          listURLs
// @Summary     List short URLs (paginated)
// @Description Returns a page of records, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        URLs
// @Produce     json
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"  example(W/\"urls:3:1700000000000000000:1:10\")
// @Param       page           query   int     false  "Page number"     minimum(1) default(1)
// @Param       limit          query   int     false  "Items per page"  minimum(1) maximum(100) default(10)
// @Success     200  {object}  handlers.ListURLsResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad pagination"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /urls [get]
func (h *Handlers) ListURLs(c *gin.Context) {
	ctx := c.Request.Context()
	page, limit, err := parsePagination(c)
	if err != nil {
		failFromErr(c, err)
		return
	}

	// ETag pre-check (best effort).
	if count, maxTS, err := h.svc.ListStats(ctx); err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.UnixNano()
		}
		etag := fmt.Sprintf(`W/"urls:%d:%d:%d:%d"`, count, ts, page, limit)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, total, err := h.svc.ListPage(ctx, page, limit)
	if err != nil {
		failFromErr(c, err)
		return
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	ok(c, http.StatusOK, ListURLsResponse{
		Success: true,
		Data:    items,
		Pagination: Pagination{
			CurrentPage: page,
			TotalPages:  totalPages,
			TotalCount:  total,
			Limit:       limit,
			HasNextPage: page < totalPages,
			HasPrevPage: page > 1,
		},
	})
}

// DeleteURL godoc
// @ID          deleteURL
// @Summary     Delete a short URL
// @Description Removes the alias; later lookups return 404.
// @Tags        URLs
// @Produce     json
// @Param       shortUrl  path  string  true  "Short code"  example(21)
// @Success     200  {object}  handlers.URLResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid short URL format"
// @Failure     404  {object}  handlers.ErrorResponse  "Short URL not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /urls/{shortUrl} [delete]
func (h *Handlers) DeleteURL(c *gin.Context) {
	u, err := h.svc.Delete(c.Request.Context(), c.Param("shortUrl"))
	if err != nil {
		failFromErr(c, err)
		return
	}
	okData(c, http.StatusOK, u)
}
