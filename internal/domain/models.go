// Package domain defines the persistence model of the URL shortener. The
// types are mapped with GORM and serialized with the camelCase field names
// used by the public API.
package domain

import (
	"strings"
	"time"
)

// PendingCodePrefix marks a short code that has not been assigned yet. It is
// outside the base62 alphabet, so a pending row can never be resolved.
const PendingCodePrefix = "~"

// URL is a stored alias: a long URL and the short code derived from its ID.
//
// Fields:
//   - ID: autoincrement primary key; the short code is its base62 encoding.
//   - ShortCode: unique alias; holds a pending sentinel only inside the
//     creating transaction.
//   - LongURL: destination, unique so one URL maps to one alias.
//   - ClickCount: number of successful resolutions.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type URL struct {
	ID         int64     `json:"id"         gorm:"primaryKey;autoIncrement"`
	ShortCode  string    `json:"shortUrl"   gorm:"column:short_url;type:varchar(64);not null;uniqueIndex:ux_urls_short_url"`
	LongURL    string    `json:"longUrl"    gorm:"column:long_url;type:text;not null;uniqueIndex:ux_urls_long_url"`
	ClickCount int64     `json:"clickCount" gorm:"not null"`
	CreatedAt  time.Time `json:"createdAt"  gorm:"index:idx_urls_created_at"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// TableName returns the database table name for URL.
func (URL) TableName() string { return "urls" }

// Pending reports whether the record still carries the placeholder code.
func (u URL) Pending() bool { return strings.HasPrefix(u.ShortCode, PendingCodePrefix) }
