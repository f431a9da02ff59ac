package db

import (
	"database/sql"
	"fmt"
	"time"
)

// PutResponse stores an upstream response body under its request URL,
// replacing any previous entry for the same URL.
func (db *DB) PutResponse(url string, body []byte, fetchedAt time.Time) error {
	query := `
		INSERT OR REPLACE INTO http_cache (url, body, fetched_at_unix)
		VALUES (?, ?, ?)
	`

	_, err := db.DB.Exec(query, url, body, fetchedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to cache response: %w", err)
	}

	return nil
}

// GetResponse returns the cached body for url, if present and fresh.
// A ttl of zero means entries never expire. Staleness is judged against
// now so callers control the clock.
func (db *DB) GetResponse(url string, ttl time.Duration, now time.Time) ([]byte, bool, error) {
	query := `SELECT body, fetched_at_unix FROM http_cache WHERE url = ?`

	var body []byte
	var fetchedAtUnix int64
	err := db.DB.QueryRow(query, url).Scan(&body, &fetchedAtUnix)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached response: %w", err)
	}

	if ttl > 0 {
		fetchedAt := time.Unix(fetchedAtUnix, 0)
		if now.Sub(fetchedAt) > ttl {
			return nil, false, nil
		}
	}

	return body, true, nil
}

// PurgeExpiredResponses deletes cache entries older than ttl and reports how
// many were removed. With a zero ttl nothing expires and nothing is deleted.
func (db *DB) PurgeExpiredResponses(ttl time.Duration, now time.Time) (int64, error) {
	if ttl <= 0 {
		return 0, nil
	}

	cutoff := now.Add(-ttl).Unix()
	result, err := db.DB.Exec(`DELETE FROM http_cache WHERE fetched_at_unix < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return removed, nil
}
