// Package db provides SQLite-backed repository implementations for the
// precipwatch engine. The store is a single local database file with
// one-writer semantics; repositories assume atomic single-row reads and
// writes and implement no locking of their own.
//
// All repositories accept the stdlib *sql.DB; timestamps are stored as unix
// seconds (UTC) and forecast period sequences as JSON.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"precipwatch/internal/types"
)

// Open opens (creating if necessary) the SQLite database at path with WAL
// journaling and foreign keys enabled. A single writer connection is used,
// serializing writes at the pool level.
func Open(path string, busyTimeout time.Duration) (*sql.DB, error) {
	dsn := "file:" + path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=foreign_keys(1)" +
		"&_pragma=busy_timeout(" + strconv.Itoa(int(busyTimeout.Milliseconds())) + ")"

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database %q: %w", path, err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging sqlite database %q: %w", path, err)
	}

	return sqlDB, nil
}

// OpenMemory opens an in-memory database for tests. Each call returns an
// isolated database.
func OpenMemory() (*sql.DB, error) {
	name := "mem" + strconv.FormatInt(time.Now().UnixNano(), 36)
	dsn := "file:" + url.PathEscape(name) + "?mode=memory&cache=shared&_pragma=foreign_keys(1)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening in-memory sqlite database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return sqlDB, nil
}

// schema defines the persisted state layout: cities (bundled reference
// data), alerts (mutable, user-owned), forecast_cache (one row per fetch,
// latest per city x provider is authoritative), alert_history (append-only),
// and preferences (key-value).
const schema = `
CREATE TABLE IF NOT EXISTS cities (
	id          INTEGER PRIMARY KEY,
	name        TEXT NOT NULL,
	country     TEXT NOT NULL,
	lat         REAL NOT NULL,
	lon         REAL NOT NULL,
	population  INTEGER
);

CREATE TABLE IF NOT EXISTS alerts (
	id            TEXT PRIMARY KEY,
	city_id       INTEGER NOT NULL REFERENCES cities(id),
	category      TEXT NOT NULL,
	threshold     REAL NOT NULL CHECK (threshold > 0),
	notes         TEXT NOT NULL DEFAULT '',
	snoozed_until INTEGER,
	created_at    INTEGER NOT NULL,
	updated_at    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS forecast_cache (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	city_id    INTEGER NOT NULL,
	provider   TEXT NOT NULL,
	fetched_at INTEGER NOT NULL,
	periods    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_forecast_cache_lookup
	ON forecast_cache (city_id, provider, fetched_at DESC);

CREATE TABLE IF NOT EXISTS alert_history (
	id              TEXT PRIMARY KEY,
	alert_id        TEXT NOT NULL,
	city_name       TEXT NOT NULL,
	category        TEXT NOT NULL,
	observed_value  REAL NOT NULL,
	threshold_value REAL NOT NULL,
	triggered_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_alert_history_triggered_at
	ON alert_history (triggered_at DESC);

CREATE TABLE IF NOT EXISTS preferences (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Migrate applies the schema. It is idempotent and safe to run on every
// startup.
func Migrate(ctx context.Context, sqlDB *sql.DB) error {
	if _, err := sqlDB.ExecContext(ctx, schema); err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to apply schema", err)
	}
	return nil
}

// unixOrNil converts a nullable unix-seconds column into a *time.Time.
func unixOrNil(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}
