// Package store provides a SQLite-backed cache for fetched usage reports.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hpcops/slurmacc/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Cache persists the usage rows of past fetches, keyed by the request that
// produced them.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// GetReport returns the cached usage rows for key in their original fetch
// order. The second return value is false when the key has never been saved.
func (c *Cache) GetReport(key string) ([]model.UsageRecord, bool, error) {
	var fetchedAt string
	err := c.db.QueryRow("SELECT fetched_at FROM report_cache WHERE cache_key = ?", key).Scan(&fetchedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	rows, err := c.db.Query(`SELECT login, account, used FROM usage_records
		WHERE cache_key = ? ORDER BY seq`, key)
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = rows.Close() }()

	var records []model.UsageRecord
	for rows.Next() {
		var r model.UsageRecord
		if err := rows.Scan(&r.Login, &r.Account, &r.Used); err != nil {
			return nil, false, err
		}
		records = append(records, r)
	}
	return records, true, rows.Err()
}

// SaveReport stores the usage rows for key, replacing any previous entry.
func (c *Cache) SaveReport(key string, records []model.UsageRecord) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.Exec("INSERT OR REPLACE INTO report_cache (cache_key, fetched_at) VALUES (?, ?)", key, now)
	if err != nil {
		return err
	}

	_, err = tx.Exec("DELETE FROM usage_records WHERE cache_key = ?", key)
	if err != nil {
		return err
	}

	for i, r := range records {
		_, err = tx.Exec(`INSERT INTO usage_records (cache_key, seq, login, account, used)
			VALUES (?, ?, ?, ?, ?)`, key, i, r.Login, r.Account, r.Used)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// DeleteReport removes a cached report and its usage rows.
func (c *Cache) DeleteReport(key string) error {
	_, err := c.db.Exec("DELETE FROM report_cache WHERE cache_key = ?", key)
	return err
}

// ReportCount returns the number of cached reports.
func (c *Cache) ReportCount() (int, error) {
	var count int
	err := c.db.QueryRow("SELECT COUNT(*) FROM report_cache").Scan(&count)
	return count, err
}

// CacheDir returns the platform-appropriate cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "slurmacc")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "slurmacc")
}

// CachePath returns the full path to the cache database.
func CachePath() string {
	return filepath.Join(CacheDir(), "usage.db")
}
