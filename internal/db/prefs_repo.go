package db

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"precipwatch/internal/types"
)

// Preference keys. The engine owns these; the companion UI reads them
// through the control API.
const (
	prefKeyUpdateIntervalHours = "preferred_update_interval_hours"
	prefKeyLastCheckTimestamp  = "last_check_timestamp"
	prefKeyUserAPIKeyPrefix    = "user_api_key:"
)

// PrefsRepository implements the preferences read/write contract consumed by
// the scheduler and provider adapters: preferred update interval, last check
// timestamp, and per-provider user API keys.
type PrefsRepository struct {
	db *sql.DB
}

// NewPrefsRepository creates a PrefsRepository backed by the given database.
func NewPrefsRepository(sqlDB *sql.DB) *PrefsRepository {
	return &PrefsRepository{db: sqlDB}
}

// get returns the raw value for key; ok is false if the key is unset.
func (r *PrefsRepository) get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, types.NewAppError(types.ErrCodeInternalDB, "failed to read preference", err)
	}
	return value, true, nil
}

// set upserts a preference value.
func (r *PrefsRepository) set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO preferences (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to write preference", err)
	}
	return nil
}

// UpdateIntervalHours returns the user's preferred check interval in hours;
// ok is false when the user has never changed it (use the config default).
func (r *PrefsRepository) UpdateIntervalHours(ctx context.Context) (int, bool, error) {
	raw, ok, err := r.get(ctx, prefKeyUpdateIntervalHours)
	if err != nil || !ok {
		return 0, false, err
	}
	hours, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, types.NewAppError(types.ErrCodeInternalDB, "stored update interval is malformed", err)
	}
	return hours, true, nil
}

// SetUpdateIntervalHours stores the user's preferred check interval.
func (r *PrefsRepository) SetUpdateIntervalHours(ctx context.Context, hours int) error {
	return r.set(ctx, prefKeyUpdateIntervalHours, strconv.Itoa(hours))
}

// LastCheck returns the completion time of the most recent check cycle;
// ok is false when no cycle has ever completed.
func (r *PrefsRepository) LastCheck(ctx context.Context) (time.Time, bool, error) {
	raw, ok, err := r.get(ctx, prefKeyLastCheckTimestamp)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	unix, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, types.NewAppError(types.ErrCodeInternalDB, "stored last check timestamp is malformed", err)
	}
	return time.Unix(unix, 0).UTC(), true, nil
}

// SetLastCheck records the wall-clock completion time of a check cycle.
// It is written regardless of the cycle outcome so the UI can show
// staleness accurately.
func (r *PrefsRepository) SetLastCheck(ctx context.Context, t time.Time) error {
	return r.set(ctx, prefKeyLastCheckTimestamp, strconv.FormatInt(t.Unix(), 10))
}

// UserAPIKey returns the user-supplied API key for a provider, or "" when
// the shared default key should be used.
func (r *PrefsRepository) UserAPIKey(ctx context.Context, provider types.ProviderName) (string, error) {
	raw, _, err := r.get(ctx, prefKeyUserAPIKeyPrefix+string(provider))
	return raw, err
}

// SetUserAPIKey stores a user-supplied API key for a provider.
func (r *PrefsRepository) SetUserAPIKey(ctx context.Context, provider types.ProviderName, key types.SecretString) error {
	return r.set(ctx, prefKeyUserAPIKeyPrefix+string(provider), key.Unmask())
}
