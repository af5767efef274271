// Package cache provides a small SQLite-backed key/value cache with TTL
// expiry, used to avoid refetching market snapshots between runs.
package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultTTL is the fallback time-to-live for cached entries (24 hours,
// matching how quickly lot-level market data goes stale).
const DefaultTTL = 24 * time.Hour

// validTables whitelists cache table names; table names are interpolated
// into SQL and must never come from user input.
var validTables = map[string]bool{
	"market_cache": true,
}

const tableSchema = `
	CREATE TABLE IF NOT EXISTS %s (
		cache_key TEXT PRIMARY KEY NOT NULL,
		data TEXT NOT NULL,
		cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
`

// DB manages the SQLite connection backing the cache tables.
type DB struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string
}

// Open opens (creating if needed) the cache database and all cache tables.
func Open(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	if err := db.Ping(); err != nil {
		closeErr := db.Close()
		return nil, errors.Join(fmt.Errorf("failed to connect to cache database: %w", err), closeErr)
	}
	for table := range validTables {
		if _, err := db.Exec(fmt.Sprintf(tableSchema, table)); err != nil {
			closeErr := db.Close()
			return nil, errors.Join(fmt.Errorf("failed to create cache table %s: %w", table, err), closeErr)
		}
	}
	return &DB{db: db, path: dbPath}, nil
}

// RegisterTable marks an extra table name as valid and creates it. Intended
// for tests.
func (c *DB) RegisterTable(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	validTables[name] = true
	if _, err := c.db.Exec(fmt.Sprintf(tableSchema, name)); err != nil {
		return fmt.Errorf("failed to create cache table %s: %w", name, err)
	}
	return nil
}

// Get retrieves a cached value. Returns the data, whether a live (non
// expired) entry was found, and any storage error.
func (c *DB) Get(table, key string, ttl time.Duration) (string, bool, error) {
	if !validTables[table] {
		return "", false, fmt.Errorf("invalid cache table name: %s", table)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	var data string
	var cachedAt time.Time
	err := c.db.QueryRow(
		fmt.Sprintf(`SELECT data, cached_at FROM %s WHERE cache_key = ?`, table), key,
	).Scan(&data, &cachedAt)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query cache: %w", err)
	}
	if age := time.Now().UTC().Sub(cachedAt); age > ttl {
		slog.Debug("Cache entry expired", "table", table, "key", key, "age", age)
		return "", false, nil
	}
	return data, true, nil
}

// Set stores a value, replacing any previous entry for the key.
func (c *DB) Set(table, key, data string) error {
	if !validTables[table] {
		return fmt.Errorf("invalid cache table name: %s", table)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.Exec(
		fmt.Sprintf(`INSERT OR REPLACE INTO %s (cache_key, data, cached_at) VALUES (?, ?, CURRENT_TIMESTAMP)`, table),
		key, data,
	)
	if err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// ClearExpired removes entries older than ttl from a table.
func (c *DB) ClearExpired(table string, ttl time.Duration) error {
	if !validTables[table] {
		return fmt.Errorf("invalid cache table name: %s", table)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := time.Now().UTC().Add(-ttl)
	result, err := c.db.Exec(fmt.Sprintf(`DELETE FROM %s WHERE cached_at < ?`, table), cutoff)
	if err != nil {
		return fmt.Errorf("failed to clear expired cache: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows > 0 {
		slog.Debug("Cleared expired cache entries", "table", table, "count", rows)
	}
	return nil
}

// Close closes the database connection.
func (c *DB) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// GetOrFetch returns the cached value for key, or calls fetch and caches
// the result. A cache storage failure never fails the fetch; it is logged
// and the fresh value is returned.
func GetOrFetch[T any](db *DB, table, key string, ttl time.Duration, fetch func() (T, error)) (T, bool, error) {
	var zero T
	if db != nil {
		if cached, ok, err := db.Get(table, key, ttl); err == nil && ok {
			var result T
			if err := json.Unmarshal([]byte(cached), &result); err == nil {
				slog.Debug("Cache hit", "table", table, "key", key)
				return result, true, nil
			}
			slog.Warn("Failed to unmarshal cached data, refetching", "table", table, "key", key)
		}
	}

	data, err := fetch()
	if err != nil {
		return zero, false, fmt.Errorf("failed to fetch data: %w", err)
	}

	if db != nil {
		if payload, err := json.Marshal(data); err == nil {
			if err := db.Set(table, key, string(payload)); err != nil {
				slog.Warn("Failed to cache data", "table", table, "key", key, "error", err)
			}
		}
	}
	return data, false, nil
}
