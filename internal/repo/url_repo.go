// Package repo implements the data persistence layer for stored URLs, backed
// by GORM. This file provides the repository functions for the URL model.
//
// All functions are context-aware and accept a *gorm.DB handle, so they can
// run against the pool or inside a transaction. They only compose queries;
// business rules (validation, dedup, code derivation) live in
// services.URLService.
//
// Error semantics:
//   - Missing rows yield ErrNotFound (an alias of gorm.ErrRecordNotFound).
//   - A unique-index violation on insert yields ErrDuplicate.
//   - Any other driver error is returned unchanged.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-url-shortener/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates that an insert hit a unique index (for URLs, another
// row already owns the long URL).
var ErrDuplicate = errors.New("duplicate")

// GetURLByShortCode fetches the record whose short code equals code.
func GetURLByShortCode(ctx context.Context, db *gorm.DB, code string) (*domain.URL, error) {
	var u domain.URL
	if err := db.WithContext(ctx).Where("short_url = ?", code).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetURLByLongURL fetches the record for an exact long URL match.
func GetURLByLongURL(ctx context.Context, db *gorm.DB, longURL string) (*domain.URL, error) {
	var u domain.URL
	if err := db.WithContext(ctx).Where("long_url = ?", longURL).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// InsertPendingURL inserts a row for longURL carrying a unique placeholder
// code and returns it with its assigned ID. The caller is expected to replace
// the placeholder with AssignShortCode in the same transaction.
func InsertPendingURL(ctx context.Context, db *gorm.DB, longURL string, now time.Time) (*domain.URL, error) {
	u := &domain.URL{
		ShortCode: domain.PendingCodePrefix + uuid.NewString(),
		LongURL:   longURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		if IsDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return u, nil
}

// AssignShortCode sets the final short code of row id.
func AssignShortCode(ctx context.Context, db *gorm.DB, id int64, code string, now time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.URL{}).
		Where("id = ?", id).
		Updates(map[string]any{"short_url": code, "updated_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementClickCount adds one to the click counter of code in a single
// UPDATE statement. It returns ErrNotFound when no row matched.
func IncrementClickCount(ctx context.Context, db *gorm.DB, code string, now time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.URL{}).
		Where("short_url = ?", code).
		Updates(map[string]any{
			"click_count": gorm.Expr("click_count + ?", 1),
			"updated_at":  now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountURLs returns the total number of stored URLs.
func CountURLs(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.URL{}).Count(&total).Error
	return total, err
}

// ListURLsPage returns a page of URLs, newest first. Rows sharing a creation
// timestamp are ordered by descending ID.
func ListURLsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.URL, error) {
	out := []domain.URL{}
	err := db.WithContext(ctx).
		Order("created_at desc").
		Order("id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// DeleteURLByShortCode removes the record for code and returns it as it was
// before deletion.
func DeleteURLByShortCode(ctx context.Context, db *gorm.DB, code string) (*domain.URL, error) {
	u, err := GetURLByShortCode(ctx, db, code)
	if err != nil {
		return nil, err
	}
	res := db.WithContext(ctx).Delete(&domain.URL{}, u.ID)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return u, nil
}

// IsDuplicate reports whether err is a unique-constraint violation.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, ErrDuplicate) {
		return true
	}
	// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "duplicate key")
}
