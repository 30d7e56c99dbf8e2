package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-url-shortener/internal/domain"
	"github.com/tbourn/go-url-shortener/internal/repo"
	"github.com/tbourn/go-url-shortener/internal/shortcode"
)

// Pagination bounds for ListPage.
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// URLRepo is the persistence surface used by URLService. Every method takes
// the handle to run against so the service can pass a transaction.
type URLRepo interface {
	GetURLByShortCode(ctx context.Context, db *gorm.DB, code string) (*domain.URL, error)
	GetURLByLongURL(ctx context.Context, db *gorm.DB, longURL string) (*domain.URL, error)

	// InsertPendingURL inserts a row with a placeholder code and returns it
	// with its new ID.
	InsertPendingURL(ctx context.Context, db *gorm.DB, longURL string, now time.Time) (*domain.URL, error)
	AssignShortCode(ctx context.Context, db *gorm.DB, id int64, code string, now time.Time) error

	// IncrementClickCount must be a single atomic statement.
	IncrementClickCount(ctx context.Context, db *gorm.DB, code string, now time.Time) error

	CountURLs(ctx context.Context, db *gorm.DB) (int64, error)
	ListURLsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.URL, error)
	DeleteURLByShortCode(ctx context.Context, db *gorm.DB, code string) (*domain.URL, error)
	URLsStats(ctx context.Context, db *gorm.DB) (int64, *time.Time, error)
	Ping(ctx context.Context, db *gorm.DB) error
}

// Health is the outcome of a storage liveness probe.
type Health struct {
	Healthy   bool
	CheckedAt time.Time
	Uptime    time.Duration
	Err       error // probe failure, if any; never returned from Health
}

var (
	shortenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortener_shorten_total",
			Help: "Shorten requests that reached storage, by outcome (created|existing).",
		},
		[]string{"outcome"},
	)
	clicksRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortener_clicks_recorded_total",
			Help: "Asynchronous click increments, by result (ok|not_found|error).",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(shortenTotal, clicksRecorded)
}

var tracer = otel.Tracer("github.com/tbourn/go-url-shortener/internal/services")

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// URLService creates, resolves, and lists shortened URLs.
type URLService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the URL repository used by this service.
	Repo URLRepo
	// Now is the clock; defaults to time.Now in UTC.
	Now func() time.Time

	started time.Time
	clicks  sync.WaitGroup
}

func NewURLService(db *gorm.DB, r URLRepo) *URLService {
	s := &URLService{
		DB:   db,
		Repo: r,
		Now:  func() time.Time { return time.Now().UTC() },
	}
	s.started = s.Now()
	return s
}

// Shorten returns the alias for longURL, creating it when absent. The
// boolean reports whether a new record was created.
//
// Creation runs in one transaction: insert a pending row, derive the code
// from the generated ID, then store the code. When a concurrent request wins
// the unique index on long_url, the committed record is returned instead.
func (s *URLService) Shorten(ctx context.Context, longURL string) (_ *domain.URL, _ bool, err error) {
	ctx, span := tracer.Start(ctx, "URLService.Shorten")
	defer func() { endSpan(span, err) }()

	if err := ValidateLongURL(longURL); err != nil {
		return nil, false, err
	}

	var (
		out     *domain.URL
		created bool
	)
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.Repo.GetURLByLongURL(ctx, tx, longURL)
		if err == nil {
			out = existing
			return nil
		}
		if !isNotFound(err) {
			return err
		}

		now := s.Now()
		u, err := s.Repo.InsertPendingURL(ctx, tx, longURL, now)
		if err != nil {
			return err
		}
		code := shortcode.Encode(u.ID)
		if err := s.Repo.AssignShortCode(ctx, tx, u.ID, code, now); err != nil {
			return err
		}
		u.ShortCode = code
		u.UpdatedAt = now
		out, created = u, true
		return nil
	})
	if err != nil {
		if !repo.IsDuplicate(err) {
			return nil, false, fmt.Errorf("shorten: %w", err)
		}
		winner, gerr := s.Repo.GetURLByLongURL(ctx, s.DB, longURL)
		if gerr != nil {
			return nil, false, fmt.Errorf("shorten: reread after conflict: %w", gerr)
		}
		out = winner
	}

	outcome := "existing"
	if created {
		outcome = "created"
	}
	shortenTotal.WithLabelValues(outcome).Inc()
	span.SetAttributes(
		attribute.String("shortener.outcome", outcome),
		attribute.String("shortener.short_url", out.ShortCode),
	)
	return out, created, nil
}

// Resolve looks up code for a redirect and records the click in the
// background. The returned record reflects the count before this click.
func (s *URLService) Resolve(ctx context.Context, code string) (*domain.URL, error) {
	u, err := s.Info(ctx, code)
	if err != nil {
		return nil, err
	}
	s.dispatchClick(ctx, code)
	return u, nil
}

// Info returns the record for code without touching its click count.
func (s *URLService) Info(ctx context.Context, code string) (*domain.URL, error) {
	if !shortcode.IsValid(code) {
		return nil, ErrInvalidShortCode
	}
	u, err := s.Repo.GetURLByShortCode(ctx, s.DB, code)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrURLNotFound
		}
		return nil, fmt.Errorf("get url: %w", err)
	}
	return u, nil
}

// RecordClick increments the click count of code and returns the updated
// record.
func (s *URLService) RecordClick(ctx context.Context, code string) (_ *domain.URL, err error) {
	ctx, span := tracer.Start(ctx, "URLService.RecordClick",
		trace.WithAttributes(attribute.String("shortener.short_url", code)))
	defer func() { endSpan(span, err) }()

	if !shortcode.IsValid(code) {
		return nil, ErrInvalidShortCode
	}
	var out *domain.URL
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.Repo.IncrementClickCount(ctx, tx, code, s.Now()); err != nil {
			return err
		}
		u, err := s.Repo.GetURLByShortCode(ctx, tx, code)
		if err != nil {
			return err
		}
		out = u
		return nil
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrURLNotFound
		}
		return nil, fmt.Errorf("record click: %w", err)
	}
	return out, nil
}

// dispatchClick records a click without blocking the caller. The request's
// cancellation does not apply; its values (logger, trace) do.
func (s *URLService) dispatchClick(ctx context.Context, code string) {
	ctx = context.WithoutCancel(ctx)
	s.clicks.Add(1)
	go func() {
		defer s.clicks.Done()
		_, err := s.RecordClick(ctx, code)
		switch {
		case err == nil:
			clicksRecorded.WithLabelValues("ok").Inc()
		case errors.Is(err, ErrURLNotFound):
			clicksRecorded.WithLabelValues("not_found").Inc()
			loggerFrom(ctx).Warn().Str("short_url", code).Msg("click for vanished short url")
		default:
			clicksRecorded.WithLabelValues("error").Inc()
			loggerFrom(ctx).Error().Err(err).Str("short_url", code).Msg("record click failed")
		}
	}()
}

// Wait blocks until every click dispatched so far has been recorded.
func (s *URLService) Wait() { s.clicks.Wait() }

// ListPage returns the given page of records, newest first, and the total
// number of records. page is 1-based.
func (s *URLService) ListPage(ctx context.Context, page, limit int) ([]domain.URL, int64, error) {
	if page < 1 || limit < 1 || limit > MaxPageLimit {
		return nil, 0, ErrInvalidPagination
	}
	total, err := s.Repo.CountURLs(ctx, s.DB)
	if err != nil {
		return nil, 0, fmt.Errorf("count urls: %w", err)
	}
	// Compare pages, not offsets: (page-1)*limit overflows for huge pages.
	if lastPage := (total + int64(limit) - 1) / int64(limit); int64(page) > lastPage {
		return []domain.URL{}, total, nil
	}
	items, err := s.Repo.ListURLsPage(ctx, s.DB, (page-1)*limit, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list urls: %w", err)
	}
	return items, total, nil
}

// ListStats returns the record count and latest modification time, which
// together version the listing.
func (s *URLService) ListStats(ctx context.Context) (int64, *time.Time, error) {
	return s.Repo.URLsStats(ctx, s.DB)
}

// Delete removes the record for code and returns it.
func (s *URLService) Delete(ctx context.Context, code string) (*domain.URL, error) {
	if !shortcode.IsValid(code) {
		return nil, ErrInvalidShortCode
	}
	var out *domain.URL
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := s.Repo.DeleteURLByShortCode(ctx, tx, code)
		out = u
		return err
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrURLNotFound
		}
		return nil, fmt.Errorf("delete url: %w", err)
	}
	return out, nil
}

// Health probes storage. Failures are reported in the result, not returned.
func (s *URLService) Health(ctx context.Context) Health {
	err := s.Repo.Ping(ctx, s.DB)
	now := s.Now()
	return Health{
		Healthy:   err == nil,
		CheckedAt: now,
		Uptime:    now.Sub(s.started),
		Err:       err,
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, repo.ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// loggerFrom returns the request-scoped logger carried by ctx, falling back
// to the global logger.
func loggerFrom(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}
