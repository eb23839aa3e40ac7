package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/spotx/internal/services"
	"github.com/desertthunder/spotx/internal/shared"
)

// SearchCache implements [services.TrackCache] over SQLite.
type SearchCache struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewSearchCache creates a cache on db. A ttl of zero keeps entries forever.
func NewSearchCache(db *sql.DB, ttl time.Duration) *SearchCache {
	return &SearchCache{db: db, ttl: ttl, now: time.Now}
}

func (c *SearchCache) fresh(cachedAt int64) bool {
	if c.ttl <= 0 {
		return true
	}
	return c.now().Sub(time.Unix(cachedAt, 0)) < c.ttl
}

func (c *SearchCache) cutoff() int64 {
	return c.now().Add(-c.ttl).Unix()
}

// Get returns the tracks stored for key in their original order.
//
// found is false when nothing is stored or the entry has expired.
// A recorded miss returns found with an empty slice.
func (c *SearchCache) Get(ctx context.Context, key string) ([]services.Track, bool, error) {
	var missAt int64
	err := c.db.QueryRowContext(ctx, `SELECT cached_at FROM search_misses WHERE query_key = ?`, key).Scan(&missAt)
	switch {
	case err == nil:
		if c.fresh(missAt) {
			return []services.Track{}, true, nil
		}
		return nil, false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, false, fmt.Errorf("failed to read search miss: %w", err)
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT artist, title, album, uri, cached_at
		FROM search_cache
		WHERE query_key = ?
		ORDER BY position
	`, key)
	if err != nil {
		return nil, false, fmt.Errorf("failed to query search cache: %w", err)
	}
	defer rows.Close()

	var tracks []services.Track
	for rows.Next() {
		var (
			t        services.Track
			cachedAt int64
		)
		if err := rows.Scan(&t.Artist, &t.Title, &t.Album, &t.URI, &cachedAt); err != nil {
			return nil, false, fmt.Errorf("failed to scan cached track: %w", err)
		}
		if !c.fresh(cachedAt) {
			return nil, false, nil
		}
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("failed to iterate search cache: %w", err)
	}

	if len(tracks) == 0 {
		return nil, false, nil
	}
	return tracks, true, nil
}

// Put replaces whatever is stored for key. An empty tracks records a miss.
func (c *SearchCache) Put(ctx context.Context, key string, tracks []services.Track) error {
	now := c.now().Unix()

	return withTx(ctx, c.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM search_cache WHERE query_key = ?`, key); err != nil {
			return fmt.Errorf("failed to clear cached tracks: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM search_misses WHERE query_key = ?`, key); err != nil {
			return fmt.Errorf("failed to clear cached miss: %w", err)
		}

		if len(tracks) == 0 {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO search_misses (query_key, cached_at) VALUES (?, ?)`, key, now); err != nil {
				return fmt.Errorf("failed to insert search miss: %w", err)
			}
			return nil
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO search_cache (id, query_key, position, artist, title, album, uri, cached_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for i, t := range tracks {
			if _, err := stmt.ExecContext(ctx, shared.GenerateID(), key, i, t.Artist, t.Title, t.Album, t.URI, now); err != nil {
				return fmt.Errorf("failed to insert cached track: %w", err)
			}
		}
		return nil
	})
}

// Prune deletes expired entries and reports how many rows were removed.
func (c *SearchCache) Prune(ctx context.Context) (int64, error) {
	if c.ttl <= 0 {
		return 0, nil
	}
	cutoff := c.cutoff()

	var removed int64
	err := withTx(ctx, c.db, func(tx *sql.Tx) error {
		for _, table := range []string{"search_cache", "search_misses"} {
			res, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE cached_at <= ?", table), cutoff)
			if err != nil {
				return fmt.Errorf("failed to prune %s: %w", table, err)
			}
			n, _ := res.RowsAffected()
			removed += n
		}
		return nil
	})
	return removed, err
}

// Clear deletes every entry and reports how many rows were removed.
func (c *SearchCache) Clear(ctx context.Context) (int64, error) {
	var removed int64
	err := withTx(ctx, c.db, func(tx *sql.Tx) error {
		for _, table := range []string{"search_cache", "search_misses"} {
			res, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", table))
			if err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
			n, _ := res.RowsAffected()
			removed += n
		}
		return nil
	})
	return removed, err
}

// CacheStats counts stored rows.
type CacheStats struct {
	Tracks int `json:"tracks"`
	Misses int `json:"misses"`
}

// Stats counts cached track rows and recorded misses.
func (c *SearchCache) Stats(ctx context.Context) (CacheStats, error) {
	tracks, err := countRows(ctx, c.db, "search_cache")
	if err != nil {
		return CacheStats{}, err
	}
	misses, err := countRows(ctx, c.db, "search_misses")
	if err != nil {
		return CacheStats{}, err
	}
	return CacheStats{Tracks: tracks, Misses: misses}, nil
}
