package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// Open connects to the sqlite database at path, applies pragmas and runs
// migrations. Callers own the returned handle and must Close it.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	dsn := formatDSN(path)

	instance, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := instance.PingContext(ctx); err != nil {
		instance.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Debug().Str("path", path).Msg("database connection successful")

	if err := migrate(ctx, instance); err != nil {
		instance.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Debug().Msg("migrations completed")

	return instance, nil
}

func formatDSN(path string) string {
	if path == "" {
		path = "shortr.db"
	}
	path = strings.TrimPrefix(path, "file:")

	// Add pragmas for better performance and safety
	// See: https://pkg.go.dev/modernc.org/sqlite#pkg-overview
	params := url.Values{}
	params.Set("cache", "shared")
	params.Set("mode", "rwc")
	params.Set("_time_format", "sqlite")
	params.Set("_pragma", "foreign_keys(1)")
	params.Add("_pragma", "journal_mode(WAL)")
	params.Add("_pragma", "synchronous(NORMAL)")
	params.Set("_busy_timeout", "5000")

	return "file:" + path + "?" + params.Encode()
}

func migrate(ctx context.Context, db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS urls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		short_id TEXT UNIQUE NOT NULL,
		long_url TEXT NOT NULL,
		clicks INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS analytics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		short_id TEXT NOT NULL,
		ip TEXT,
		country TEXT,
		user_agent TEXT,
		device TEXT,
		browser TEXT,
		referrer TEXT,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(short_id) REFERENCES urls(short_id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_analytics_short ON analytics(short_id);
	CREATE INDEX IF NOT EXISTS idx_urls_long_url ON urls(long_url);
	`

	_, err := db.ExecContext(ctx, schema)
	return err
}
