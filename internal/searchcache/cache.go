package searchcache

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"
	_ "modernc.org/sqlite"

	"cinelog/internal/logging"
	"cinelog/internal/tmdb"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped when the schema changes. Older databases are
// rebuilt from scratch since their contents are disposable.
const schemaVersion = 1

// Cache persists ranked title search results in SQLite.
type Cache struct {
	db     *sql.DB
	path   string
	maxAge time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// Stats summarizes cache contents.
type Stats struct {
	Entries int64
	Expired int64
}

// Key normalizes a search query into its cache key.
func Key(query string) string {
	return cases.Fold().String(strings.Join(strings.Fields(query), " "))
}

// Open initializes or connects to the cache database at path. A maxAge of
// zero keeps entries forever.
func Open(path string, maxAge time.Duration, logger *slog.Logger) (*Cache, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("search cache path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create search cache dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	cache := &Cache{
		db:     db,
		path:   path,
		maxAge: maxAge,
		now:    time.Now,
		logger: logging.NewComponentLogger(logger, "searchcache"),
	}
	if err := cache.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return cache, nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Path returns the database location.
func (c *Cache) Path() string {
	return c.path
}

// Lookup returns the cached candidates for query when present and fresh.
func (c *Cache) Lookup(ctx context.Context, query string) ([]tmdb.Candidate, bool, error) {
	var (
		payload  string
		storedAt int64
	)
	err := c.db.QueryRowContext(ctx,
		"SELECT results_json, stored_at FROM searches WHERE query = ?", Key(query),
	).Scan(&payload, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup search: %w", err)
	}
	if c.expired(storedAt) {
		return nil, false, nil
	}
	var candidates []tmdb.Candidate
	if err := json.Unmarshal([]byte(payload), &candidates); err != nil {
		return nil, false, fmt.Errorf("decode cached search: %w", err)
	}
	return candidates, true, nil
}

// Store records candidates for query, replacing any previous entry.
func (c *Cache) Store(ctx context.Context, query string, candidates []tmdb.Candidate) error {
	if candidates == nil {
		candidates = []tmdb.Candidate{}
	}
	payload, err := json.Marshal(candidates)
	if err != nil {
		return fmt.Errorf("encode search: %w", err)
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO searches (query, results_json, result_count, stored_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(query) DO UPDATE SET
             results_json = excluded.results_json,
             result_count = excluded.result_count,
             stored_at = excluded.stored_at`,
		Key(query), string(payload), len(candidates), c.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("store search: %w", err)
	}
	return nil
}

// Prune deletes expired entries and returns how many were removed.
func (c *Cache) Prune(ctx context.Context) (int64, error) {
	if c.maxAge <= 0 {
		return 0, nil
	}
	res, err := c.db.ExecContext(ctx, "DELETE FROM searches WHERE stored_at < ?", c.cutoff())
	if err != nil {
		return 0, fmt.Errorf("prune searches: %w", err)
	}
	removed, _ := res.RowsAffected()
	c.logger.Debug("pruned search cache", logging.Int64("removed", removed))
	return removed, nil
}

// Clear deletes every entry and returns how many were removed.
func (c *Cache) Clear(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, "DELETE FROM searches")
	if err != nil {
		return 0, fmt.Errorf("clear searches: %w", err)
	}
	removed, _ := res.RowsAffected()
	return removed, nil
}

// Stats counts total and expired entries.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM searches").Scan(&stats.Entries); err != nil {
		return Stats{}, fmt.Errorf("count searches: %w", err)
	}
	if c.maxAge > 0 {
		err := c.db.QueryRowContext(ctx,
			"SELECT COUNT(1) FROM searches WHERE stored_at < ?", c.cutoff(),
		).Scan(&stats.Expired)
		if err != nil {
			return Stats{}, fmt.Errorf("count expired searches: %w", err)
		}
	}
	return stats, nil
}

func (c *Cache) expired(storedAt int64) bool {
	return c.maxAge > 0 && storedAt < c.cutoff()
}

func (c *Cache) cutoff() int64 {
	return c.now().Add(-c.maxAge).Unix()
}

func (c *Cache) initSchema(ctx context.Context) error {
	var tableExists int
	err := c.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists > 0 {
		var version int
		if err := c.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("read schema version: %w", err)
		}
		if version == schemaVersion {
			return nil
		}
		c.logger.Info("rebuilding search cache",
			logging.Int("found_version", version),
			logging.Int("expected_version", schemaVersion))
	}
	return c.createSchema(ctx)
}

func (c *Cache) createSchema(ctx context.Context) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{"DROP TABLE IF EXISTS searches", "DROP TABLE IF EXISTS schema_version"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("reset schema: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}
