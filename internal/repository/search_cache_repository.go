package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/showtime-matcher/internal/model"
)

// SearchCacheRepo stores raw provider responses in serpapi_cache keyed by
// (location, movie). Both key columns use a binary collation so lookups
// are exact and case-sensitive.
type SearchCacheRepo struct {
	db *sql.DB
}

// NewSearchCacheRepo constructs a SearchCacheRepo with the given DB handle.
func NewSearchCacheRepo(db *sql.DB) *SearchCacheRepo {
	return &SearchCacheRepo{db: db}
}

// GetFresh returns the cached result for the key if it expires after now.
// It returns ErrCacheMiss when there is no such row.
func (r *SearchCacheRepo) GetFresh(ctx context.Context, location, movie string, now time.Time) (*model.CachedSearchResult, error) {
	const q = `SELECT location, movie, response_data, expires_at, created_at
               FROM serpapi_cache
               WHERE location = ? AND movie = ? AND expires_at > ?`
	var c model.CachedSearchResult
	var raw []byte
	err := r.db.QueryRowContext(ctx, q, location, movie, now.UTC()).Scan(&c.Location, &c.Movie, &raw, &c.ExpiresAt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}
	c.Payload = raw
	return &c, nil
}

// Upsert stores the payload for the key, replacing any previous row and
// resetting its expiry and creation time.
func (r *SearchCacheRepo) Upsert(ctx context.Context, c model.CachedSearchResult) error {
	const q = `INSERT INTO serpapi_cache (location, movie, response_data, expires_at, created_at)
               VALUES (?, ?, ?, ?, ?)
               ON DUPLICATE KEY UPDATE
                 response_data = VALUES(response_data),
                 expires_at = VALUES(expires_at),
                 created_at = VALUES(created_at)`
	_, err := r.db.ExecContext(ctx, q, c.Location, c.Movie, []byte(c.Payload), c.ExpiresAt.UTC(), c.CreatedAt.UTC())
	return err
}

// Delete removes the row for the key regardless of expiry.
func (r *SearchCacheRepo) Delete(ctx context.Context, location, movie string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM serpapi_cache WHERE location = ? AND movie = ?`, location, movie)
	return err
}

// DeleteExpired removes rows whose expiry is before now and returns how
// many were deleted.
func (r *SearchCacheRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM serpapi_cache WHERE expires_at < ?`, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
