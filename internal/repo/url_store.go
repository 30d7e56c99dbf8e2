package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-url-shortener/internal/domain"
)

// URLStore exposes the package functions as a method set, satisfying
// services.URLRepo.
type URLStore struct{}

func (URLStore) GetURLByShortCode(ctx context.Context, db *gorm.DB, code string) (*domain.URL, error) {
	return GetURLByShortCode(ctx, db, code)
}

func (URLStore) GetURLByLongURL(ctx context.Context, db *gorm.DB, longURL string) (*domain.URL, error) {
	return GetURLByLongURL(ctx, db, longURL)
}

func (URLStore) InsertPendingURL(ctx context.Context, db *gorm.DB, longURL string, now time.Time) (*domain.URL, error) {
	return InsertPendingURL(ctx, db, longURL, now)
}

func (URLStore) AssignShortCode(ctx context.Context, db *gorm.DB, id int64, code string, now time.Time) error {
	return AssignShortCode(ctx, db, id, code, now)
}

func (URLStore) IncrementClickCount(ctx context.Context, db *gorm.DB, code string, now time.Time) error {
	return IncrementClickCount(ctx, db, code, now)
}

func (URLStore) CountURLs(ctx context.Context, db *gorm.DB) (int64, error) {
	return CountURLs(ctx, db)
}

func (URLStore) ListURLsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.URL, error) {
	return ListURLsPage(ctx, db, offset, limit)
}

func (URLStore) DeleteURLByShortCode(ctx context.Context, db *gorm.DB, code string) (*domain.URL, error) {
	return DeleteURLByShortCode(ctx, db, code)
}

func (URLStore) URLsStats(ctx context.Context, db *gorm.DB) (int64, *time.Time, error) {
	return URLsStats(ctx, db)
}

func (URLStore) Ping(ctx context.Context, db *gorm.DB) error { return Ping(ctx, db) }
