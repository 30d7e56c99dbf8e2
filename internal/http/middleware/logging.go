// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// Install order: RequestID, Logger, Recovery. Everything after Logger can
// fetch the request-scoped logger with LoggerFrom, and code that only holds
// the request context can use zerolog.Ctx.
package middleware

import (
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	loggerKey = "logger"
	// Alias params are user input; anything longer is not a valid code anyway.
	maxLoggedParam    = 64
	maxQueryLogLength = 2048
)

// Logger emits one access line per request and installs a request-scoped
// logger carrying request_id, method, route and client details.
//
// Redirects log the alias and the destination host only. Paths and queries
// of long URLs routinely carry tokens, so they are left out.
func Logger(opts RedactOptions) gin.HandlerFunc {
	red := newRedactor(opts)
	return func(c *gin.Context) {
		start := time.Now()

		route := c.FullPath()
		if route == "" {
			route = truncate(c.Request.URL.Path, maxQueryLogLength)
		}
		l := log.With().
			Str("request_id", RequestIDFrom(c)).
			Str("method", c.Request.Method).
			Str("path", route).
			Str("remote_ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Logger()

		c.Set(loggerKey, &l)
		c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))

		c.Next()

		status := c.Writer.Status()
		ev := accessEvent(&l, status, c.Errors.String())
		if q := c.Request.URL.RawQuery; q != "" {
			ev = ev.Str("query", truncate(red.scrub(q), maxQueryLogLength))
		}
		if code := c.Param("shortUrl"); code != "" {
			ev = ev.Str("short_url", truncate(code, maxLoggedParam))
		}
		if host := redirectHost(status, c.Writer.Header().Get("Location")); host != "" {
			ev = ev.Str("redirect_host", host)
		}
		ev.
			Int("status", status).
			Dur("latency", time.Since(start)).
			Int64("bytes_in", c.Request.ContentLength).
			Int("bytes_out", c.Writer.Size()).
			Interface("headers", red.headers(c.Request.Header)).
			Msg("request")
	}
}

// accessEvent picks the level: error for 5xx or collected Gin errors, warn
// for 4xx, info otherwise.
func accessEvent(l *zerolog.Logger, status int, ginErrors string) *zerolog.Event {
	switch {
	case ginErrors != "":
		return l.Error().Str("errors", ginErrors)
	case status >= 500:
		return l.Error()
	case status >= 400:
		return l.Warn()
	default:
		return l.Info()
	}
}

func redirectHost(status int, location string) string {
	if status < 300 || status >= 400 || location == "" {
		return ""
	}
	u, err := url.Parse(location)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// LoggerFrom returns the request-scoped logger, or the global logger when
// Logger is not installed. Never nil.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

// truncate caps s at max bytes and appends an ellipsis. max <= 0 disables it.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
