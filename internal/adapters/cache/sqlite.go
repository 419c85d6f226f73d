package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"stickerbot/internal/core/domain"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS conversions (
    id         TEXT PRIMARY KEY,
    ref        TEXT NOT NULL,
    created_at TEXT NOT NULL
)`

// SQLiteCache persists conversion results in a SQLite database. The database file is guarded by an exclusive
// lock file for as long as the cache is open.
type SQLiteCache struct {
	db     *sql.DB
	path   string
	lock   *flock.Flock
	logger zerolog.Logger
}

func OpenSQLite(ctx context.Context, path string) (*SQLiteCache, error) {
	if path == "" {
		return nil, errors.New("sqlite cache requires a path")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire cache lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCacheLocked, path)
	}

	// pragmas go into the DSN so every pooled connection gets them
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	c := &SQLiteCache{
		db:     db,
		path:   path,
		lock:   lock,
		logger: log.With().Str("component", "cache").Str("backend", BackendSQLite).Logger(),
	}

	c.logger.Info().Str("path", path).Int64("entries", c.Count(ctx)).Msg("output cache opened")

	return c, nil
}

func (c *SQLiteCache) Lookup(ctx context.Context, id domain.ConversionID) (domain.OutputReference, bool) {
	var ref string
	err := c.db.QueryRowContext(ctx, `SELECT ref FROM conversions WHERE id = ?`, string(id)).Scan(&ref)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			c.logger.Warn().Err(err).Str("conversionId", string(id)).Msg("cache lookup failed, treating as miss")
		}
		return "", false
	}

	return domain.OutputReference(ref), true
}

func (c *SQLiteCache) Store(ctx context.Context, id domain.ConversionID, ref domain.OutputReference) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO conversions (id, ref, created_at) VALUES (?, ?, ?)`,
		string(id), string(ref), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("%w: insert %s: %w", domain.ErrCache, id.Short(), err)
	}

	c.logger.Debug().Str("conversionId", string(id)).Msg("stored conversion")

	return nil
}

func (c *SQLiteCache) Count(ctx context.Context) int64 {
	var n int64
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversions`).Scan(&n); err != nil {
		c.logger.Warn().Err(err).Msg("could not count cache entries")
		return -1
	}
	return n
}

// Close closes the database and releases the lock file.
func (c *SQLiteCache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}

	err := c.db.Close()
	if unlockErr := c.lock.Unlock(); unlockErr != nil {
		c.logger.Warn().Err(unlockErr).Msg("failed to release cache lock")
	}

	c.logger.Info().Str("path", c.path).Msg("output cache closed")

	return err
}
