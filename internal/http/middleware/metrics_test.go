package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newMetricsEngine(t *testing.T, opt MetricsOptions) (*gin.Engine, *httpMetrics, *prometheus.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m := newHTTPMetrics(reg)

	r := gin.New()
	r.Use(m.handler(opt))
	r.GET("/metrics", func(c *gin.Context) { c.String(http.StatusOK, "# scrape") })
	r.GET("/api/v1/:shortUrl", func(c *gin.Context) {
		c.Header("Location", "https://example.com/")
		c.Status(http.StatusMovedPermanently)
	})
	r.GET("/api/v1/urls", func(c *gin.Context) { c.String(http.StatusOK, `{"success":true}`) })
	return r, m, reg
}

func hit(r http.Handler, path string) int {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w.Code
}

func TestMetrics_RouteLabelsAreBounded(t *testing.T) {
	r, m, _ := newMetricsEngine(t, MetricsOptions{})

	for _, code := range []string{"21", "3d7", "zz"} {
		if got := hit(r, "/api/v1/"+code); got != http.StatusMovedPermanently {
			t.Fatalf("GET /api/v1/%s = %d", code, got)
		}
	}
	if got := hit(r, "/api/v1/a/b"); got != http.StatusNotFound {
		t.Fatalf("nested path = %d", got)
	}

	if got := testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/v1/:shortUrl", "301")); got != 3 {
		t.Fatalf("redirect counter = %v; want 3", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("GET", unmatchedPath, "404")); got != 1 {
		t.Fatalf("unmatched counter = %v; want 1", got)
	}
	// one series per route, never per alias
	if n := testutil.CollectAndCount(m.requests); n != 2 {
		t.Fatalf("request series = %d; want 2", n)
	}
	if v := testutil.ToFloat64(m.inflight); v != 0 {
		t.Fatalf("inflight = %v after requests", v)
	}
}

func TestMetrics_SizeSkippedWithoutBody(t *testing.T) {
	r, m, _ := newMetricsEngine(t, MetricsOptions{})

	hit(r, "/api/v1/21")   // status only
	hit(r, "/api/v1/urls") // writes a body

	if n := testutil.CollectAndCount(m.size); n != 1 {
		t.Fatalf("size series = %d; want only the list route", n)
	}
	if n := testutil.CollectAndCount(m.latency); n != 2 {
		t.Fatalf("latency series = %d; want 2", n)
	}
}

func TestMetrics_SkipPaths(t *testing.T) {
	r, m, reg := newMetricsEngine(t, MetricsOptions{SkipPaths: []string{"/metrics"}})

	if got := hit(r, "/metrics"); got != http.StatusOK {
		t.Fatalf("GET /metrics = %d", got)
	}
	if n := testutil.CollectAndCount(m.requests); n != 0 {
		t.Fatalf("scrape was instrumented: %d series", n)
	}

	hit(r, "/api/v1/urls")
	want := `
# HELP http_requests_total Total number of HTTP requests by method, route and status code.
# TYPE http_requests_total counter
http_requests_total{method="GET",path="/api/v1/urls",status="200"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(want), "http_requests_total"); err != nil {
		t.Fatal(err)
	}
}
