package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-url-shortener/internal/domain"
	"github.com/tbourn/go-url-shortener/internal/repo"
	"github.com/tbourn/go-url-shortener/internal/services"
)

// ---------- test wiring ----------

func newTestService(t *testing.T) *services.URLService {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "handlers.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close(db) })
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	svc := services.NewURLService(db, repo.URLStore{})
	t.Cleanup(svc.Wait)
	return svc
}

func newRouter(svc URLService, opts Options) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", "rid-test")
		c.Next()
	})
	h := New(svc, opts)
	g := r.Group(opts.APIBasePath)
	g.POST("/shorten", h.Shorten)
	g.POST("/data/shorten", h.Shorten)
	g.GET("/urls", h.ListURLs)
	g.DELETE("/urls/:shortUrl", h.DeleteURL)
	g.GET("/info/:shortUrl", h.Info)
	g.GET("/health", h.Health)
	g.GET("/:shortUrl", h.Redirect)
	return r
}

func do(r http.Handler, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeErr(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("error body: %v (%s)", err, w.Body.String())
	}
	return e
}

// stubService fails every call with err.
type stubService struct{ err error }

func (s stubService) Shorten(context.Context, string) (*domain.URL, bool, error) {
	return nil, false, s.err
}
func (s stubService) Resolve(context.Context, string) (*domain.URL, error) { return nil, s.err }
func (s stubService) Info(context.Context, string) (*domain.URL, error)    { return nil, s.err }
func (s stubService) ListPage(context.Context, int, int) ([]domain.URL, int64, error) {
	return nil, 0, s.err
}
func (s stubService) ListStats(context.Context) (int64, *time.Time, error) { return 0, nil, s.err }
func (s stubService) Delete(context.Context, string) (*domain.URL, error)  { return nil, s.err }
func (s stubService) Health(context.Context) services.Health {
	return services.Health{Healthy: s.err == nil, CheckedAt: time.Now(), Err: s.err}
}

// ---------- tests ----------

func TestShorten_CreatesAndDedups(t *testing.T) {
	svc := newTestService(t)
	r := newRouter(svc, Options{APIBasePath: "/api/v1"})

	body := `{"longUrl":"https://example.com/very/long/path"}`
	w := do(r, http.MethodPost, "/api/v1/shorten", body, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var first ShortenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &first); err != nil {
		t.Fatalf("json: %v", err)
	}
	d := first.Data
	if !first.Success || d.ID <= 0 || d.ShortURL == "" || d.ClickCount != 0 || d.LongURL != "https://example.com/very/long/path" {
		t.Fatalf("unexpected data: %+v", first)
	}
	if d.FullShortURL != "http://example.com/api/v1/"+d.ShortURL {
		t.Fatalf("fullShortUrl = %q", d.FullShortURL)
	}

	// legacy alias route, same URL -> same alias
	w = do(r, http.MethodPost, "/api/v1/data/shorten", body, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("second status = %d", w.Code)
	}
	var second ShortenResponse
	_ = json.Unmarshal(w.Body.Bytes(), &second)
	if second.Data.ID != d.ID || second.Data.ShortURL != d.ShortURL {
		t.Fatalf("dedup failed: %+v vs %+v", second.Data, d)
	}
}

func TestShorten_FullShortURL_BaseURLAndForwardedProto(t *testing.T) {
	svc := newTestService(t)

	r := newRouter(svc, Options{APIBasePath: "/api/v1", BaseURL: "https://sho.rt/"})
	w := do(r, http.MethodPost, "/api/v1/shorten", `{"longUrl":"https://a.example"}`, nil)
	var resp ShortenResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Data.FullShortURL != "https://sho.rt/api/v1/"+resp.Data.ShortURL {
		t.Fatalf("fullShortUrl with BASE_URL = %q", resp.Data.FullShortURL)
	}

	r = newRouter(svc, Options{APIBasePath: "/api/v1"})
	w = do(r, http.MethodPost, "/api/v1/shorten", `{"longUrl":"https://b.example"}`, map[string]string{"X-Forwarded-Proto": "https"})
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if !strings.HasPrefix(resp.Data.FullShortURL, "https://example.com/api/v1/") {
		t.Fatalf("fullShortUrl behind TLS proxy = %q", resp.Data.FullShortURL)
	}
}

func TestShorten_BadInput(t *testing.T) {
	svc := newTestService(t)
	r := newRouter(svc, Options{APIBasePath: "/api/v1"})

	tests := []struct {
		name     string
		body     string
		wantCode string
		wantMsg  string
	}{
		{"empty body", "", ErrCodeBadRequest, "longUrl is required"},
		{"missing field", `{}`, ErrCodeBadRequest, "longUrl is required"},
		{"null", `{"longUrl":null}`, ErrCodeBadRequest, "longUrl is required"},
		{"empty string", `{"longUrl":""}`, ErrCodeBadRequest, "longUrl is required"},
		{"number", `{"longUrl":42}`, ErrCodeBadRequest, "longUrl must be a string"},
		{"object", `{"longUrl":{"u":"x"}}`, ErrCodeBadRequest, "longUrl must be a string"},
		{"bad json", `{"longUrl":`, ErrCodeBadRequest, "invalid JSON body"},
		{"no scheme", `{"longUrl":"example.com"}`, ErrCodeInvalidURL, "Invalid URL format. URL must start with http:// or https://"},
		{"ftp", `{"longUrl":"ftp://example.com"}`, ErrCodeInvalidURL, "Invalid URL format. URL must start with http:// or https://"},
		{"too long", `{"longUrl":"https://e.io/` + strings.Repeat("a", services.MaxURLLength) + `"}`, ErrCodeInvalidURL, "URL is too long. Maximum length is 2048 characters"},
		{"too long without scheme", `{"longUrl":"e.io/` + strings.Repeat("a", services.MaxURLLength) + `"}`, ErrCodeInvalidURL, "Invalid URL format. URL must start with http:// or https://"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/api/v1/shorten", tt.body, nil)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
			}
			e := decodeErr(t, w)
			if e.Code != tt.wantCode || e.Message != tt.wantMsg || e.RequestID != "rid-test" {
				t.Fatalf("unexpected error: %+v", e)
			}
		})
	}

	if n, _, _ := svc.ListStats(context.Background()); n != 0 {
		t.Fatalf("rejected input must not be stored, rows=%d", n)
	}
}

func TestRedirect_CountsClickAndInfo(t *testing.T) {
	svc := newTestService(t)
	r := newRouter(svc, Options{APIBasePath: "/api/v1"})

	u, _, err := svc.Shorten(context.Background(), "https://example.com/very/long/path")
	if err != nil {
		t.Fatalf("Shorten: %v", err)
	}

	w := do(r, http.MethodGet, "/api/v1/"+u.ShortCode, "", nil)
	if w.Code != http.StatusMovedPermanently {
		t.Fatalf("status = %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "https://example.com/very/long/path" {
		t.Fatalf("Location = %q", loc)
	}
	svc.Wait()

	w = do(r, http.MethodGet, "/api/v1/info/"+u.ShortCode, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("info status = %d", w.Code)
	}
	var info URLResponse
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatalf("json: %v", err)
	}
	if !info.Success || info.Data.ClickCount != 1 || info.Data.ShortCode != u.ShortCode {
		t.Fatalf("unexpected info: %+v", info)
	}

	// info itself does not count
	_ = do(r, http.MethodGet, "/api/v1/info/"+u.ShortCode, "", nil)
	got, _ := svc.Info(context.Background(), u.ShortCode)
	if got.ClickCount != 1 {
		t.Fatalf("info must not count clicks, got %d", got.ClickCount)
	}
}

func TestLookups_InvalidAndUnknown(t *testing.T) {
	svc := newTestService(t)
	r := newRouter(svc, Options{APIBasePath: "/api/v1"})

	for _, p := range []string{"/api/v1/ab-c", "/api/v1/info/ab-c", "/api/v1/a%20b"} {
		w := do(r, http.MethodGet, p, "", nil)
		if w.Code != http.StatusBadRequest || decodeErr(t, w).Code != ErrCodeInvalidShortURL {
			t.Fatalf("GET %s -> %d %s", p, w.Code, w.Body.String())
		}
	}
	for _, p := range []string{"/api/v1/zzzzzz", "/api/v1/info/zzzzzz"} {
		w := do(r, http.MethodGet, p, "", nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("GET %s -> %d", p, w.Code)
		}
		if e := decodeErr(t, w); e.Code != ErrCodeNotFound || e.Message != "Short URL not found" {
			t.Fatalf("unexpected error: %+v", e)
		}
	}
}

func TestListURLs_PaginationAndETag(t *testing.T) {
	svc := newTestService(t)
	r := newRouter(svc, Options{APIBasePath: "/api/v1"})
	for i := 0; i < 15; i++ {
		if _, _, err := svc.Shorten(context.Background(), fmt.Sprintf("https://list.example/%d", i)); err != nil {
			t.Fatalf("Shorten: %v", err)
		}
	}

	w := do(r, http.MethodGet, "/api/v1/urls", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var page ListURLsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("json: %v", err)
	}
	p := page.Pagination
	if len(page.Data) != 10 || p.TotalCount != 15 || p.CurrentPage != 1 || p.Limit != 10 ||
		p.TotalPages != 2 || !p.HasNextPage || p.HasPrevPage {
		t.Fatalf("unexpected page: len=%d %+v", len(page.Data), p)
	}
	if page.Data[0].LongURL != "https://list.example/14" {
		t.Fatalf("expected newest first, got %q", page.Data[0].LongURL)
	}

	etag := w.Header().Get("ETag")
	if !strings.HasPrefix(etag, `W/"urls:15:`) {
		t.Fatalf("ETag = %q", etag)
	}
	w = do(r, http.MethodGet, "/api/v1/urls", "", map[string]string{"If-None-Match": etag})
	if w.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", w.Code)
	}

	w = do(r, http.MethodGet, "/api/v1/urls?page=2&limit=10", "", map[string]string{"If-None-Match": etag})
	if w.Code != http.StatusOK {
		t.Fatalf("different page must not match the first page's ETag, got %d", w.Code)
	}
	_ = json.Unmarshal(w.Body.Bytes(), &page)
	if len(page.Data) != 5 || page.Pagination.HasNextPage || !page.Pagination.HasPrevPage {
		t.Fatalf("unexpected page 2: len=%d %+v", len(page.Data), page.Pagination)
	}
}

func TestListURLs_EmptyAndBadParams(t *testing.T) {
	svc := newTestService(t)
	r := newRouter(svc, Options{APIBasePath: "/api/v1"})

	w := do(r, http.MethodGet, "/api/v1/urls", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"data":[]`) {
		t.Fatalf("empty list: %d %s", w.Code, w.Body.String())
	}

	for _, q := range []string{"page=0", "page=-1", "limit=0", "limit=101", "page=abc", "limit=1.5"} {
		w := do(r, http.MethodGet, "/api/v1/urls?"+q, "", nil)
		if w.Code != http.StatusBadRequest || decodeErr(t, w).Code != ErrCodeBadRequest {
			t.Fatalf("GET /urls?%s -> %d", q, w.Code)
		}
	}

	for i := 0; i < 3; i++ {
		if _, _, err := svc.Shorten(context.Background(), fmt.Sprintf("https://far.example/%d", i)); err != nil {
			t.Fatalf("Shorten: %v", err)
		}
	}
	// (page-1)*limit does not fit in an int64 here
	w = do(r, http.MethodGet, "/api/v1/urls?page=92233720368547760&limit=100", "", nil)
	var far struct {
		Data       []domain.URL `json:"data"`
		Pagination Pagination   `json:"pagination"`
	}
	if w.Code != http.StatusOK {
		t.Fatalf("far page -> %d %s", w.Code, w.Body.String())
	}
	if err := json.Unmarshal(w.Body.Bytes(), &far); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(far.Data) != 0 || far.Pagination.TotalCount != 3 || far.Pagination.HasNextPage {
		t.Fatalf("far page served rows: %d items, pagination %+v", len(far.Data), far.Pagination)
	}
}

func TestDeleteURL(t *testing.T) {
	svc := newTestService(t)
	r := newRouter(svc, Options{APIBasePath: "/api/v1"})
	u, _, _ := svc.Shorten(context.Background(), "https://del.example")

	w := do(r, http.MethodDelete, "/api/v1/urls/"+u.ShortCode, "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"success":true`) {
		t.Fatalf("delete: %d %s", w.Code, w.Body.String())
	}
	if w := do(r, http.MethodGet, "/api/v1/"+u.ShortCode, "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("redirect after delete -> %d", w.Code)
	}
	if w := do(r, http.MethodDelete, "/api/v1/urls/"+u.ShortCode, "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("second delete -> %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	svc := newTestService(t)
	r := newRouter(svc, Options{APIBasePath: "/api/v1"})

	w := do(r, http.MethodGet, "/api/v1/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var hr HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &hr); err != nil {
		t.Fatalf("json: %v", err)
	}
	if !hr.Success || hr.Database.Status != "healthy" || hr.Server == nil || hr.Server.Uptime == nil {
		t.Fatalf("unexpected health: %+v", hr)
	}

	down := newRouter(stubService{err: errors.New("db gone")}, Options{APIBasePath: "/api/v1"})
	w = do(down, http.MethodGet, "/api/v1/health", "", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("degraded status = %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "db gone") {
		t.Fatalf("probe cause leaked: %s", w.Body.String())
	}
	hr = HealthResponse{}
	if err := json.Unmarshal(w.Body.Bytes(), &hr); err != nil {
		t.Fatalf("json: %v", err)
	}
	if hr.Success || hr.Code != ErrCodeUnhealthy || hr.Database.Status != "unhealthy" || hr.Server != nil {
		t.Fatalf("unexpected degraded body: %s", w.Body.String())
	}
}

func TestStorageErrors_Generic500(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("logger", &logger)
		c.Next()
	})
	h := New(stubService{err: errors.New("connection refused")}, Options{APIBasePath: "/api/v1"})
	r.POST("/api/v1/shorten", h.Shorten)
	r.GET("/api/v1/urls", h.ListURLs)
	r.GET("/api/v1/:shortUrl", h.Redirect)

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodPost, "/api/v1/shorten", `{"longUrl":"https://x.example"}`},
		{http.MethodGet, "/api/v1/urls", ""},
		{http.MethodGet, "/api/v1/abc", ""},
	} {
		w := do(r, tc.method, tc.path, tc.body, nil)
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("%s %s -> %d", tc.method, tc.path, w.Code)
		}
		e := decodeErr(t, w)
		if e.Code != ErrCodeInternal || e.Message != "internal server error" {
			t.Fatalf("unexpected body: %+v", e)
		}
	}
	if !strings.Contains(buf.String(), "connection refused") {
		t.Fatalf("expected cause in logs, got: %s", buf.String())
	}
}

func TestParsePagination_Defaults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/urls", nil)
	page, limit, err := parsePagination(c)
	if err != nil || page != 1 || limit != services.DefaultPageLimit {
		t.Fatalf("defaults = %d, %d, %v", page, limit, err)
	}

	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/urls?page=3&limit=100", nil)
	page, limit, err = parsePagination(c)
	if err != nil || page != 3 || limit != 100 {
		t.Fatalf("explicit = %d, %d, %v", page, limit, err)
	}
}
