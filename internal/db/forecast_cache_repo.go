package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"precipwatch/internal/types"
)

// ForecastCacheRepository provides data access for the forecast_cache table.
// Each fetch inserts a new row; the most recent row per (city, provider) is
// the authoritative entry for evaluation. Older rows are retained for
// inspection — pruning is an external housekeeping concern.
type ForecastCacheRepository struct {
	db *sql.DB
}

// NewForecastCacheRepository creates a ForecastCacheRepository backed by the
// given database.
func NewForecastCacheRepository(sqlDB *sql.DB) *ForecastCacheRepository {
	return &ForecastCacheRepository{db: sqlDB}
}

// GetLatest returns the most recent cached forecast for (cityID, provider),
// or nil when no entry exists.
func (r *ForecastCacheRepository) GetLatest(ctx context.Context, cityID int64, provider types.ProviderName) (*types.CachedForecast, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, city_id, provider, fetched_at, periods
		 FROM forecast_cache
		 WHERE city_id = ? AND provider = ?
		 ORDER BY fetched_at DESC, id DESC
		 LIMIT 1`,
		cityID, string(provider),
	)

	var fc types.CachedForecast
	var fetchedAt int64
	var periodsJSON string
	err := row.Scan(&fc.ID, &fc.CityID, &fc.Provider, &fetchedAt, &periodsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to load cached forecast", err)
	}

	fc.FetchedAt = time.Unix(fetchedAt, 0).UTC()
	if err := json.Unmarshal([]byte(periodsJSON), &fc.Periods); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "cached forecast periods are malformed", err)
	}
	return &fc, nil
}

// Insert persists a new cache row for (cityID, provider). Writes that would
// move fetched_at backwards violate the monotonicity invariant and are
// rejected with a cache_write_failure.
func (r *ForecastCacheRepository) Insert(ctx context.Context, fc *types.CachedForecast) error {
	latest, err := r.GetLatest(ctx, fc.CityID, fc.Provider)
	if err != nil {
		return err
	}
	if latest != nil && fc.FetchedAt.Before(latest.FetchedAt) {
		return types.NewAppError(types.ErrCodeCacheWriteFailure, "rejecting cache write older than latest entry", nil).
			WithDetails(map[string]any{
				"city_id":  fc.CityID,
				"provider": string(fc.Provider),
			})
	}

	periodsJSON, err := json.Marshal(fc.Periods)
	if err != nil {
		return types.NewAppError(types.ErrCodeCacheWriteFailure, "failed to encode forecast periods", err)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO forecast_cache (city_id, provider, fetched_at, periods)
		 VALUES (?, ?, ?, ?)`,
		fc.CityID, string(fc.Provider), fc.FetchedAt.Unix(), string(periodsJSON),
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeCacheWriteFailure, "failed to insert cached forecast", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		fc.ID = id
	}
	return nil
}
