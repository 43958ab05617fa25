package db

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"

	"precipwatch/internal/types"
)

//go:embed cities.json
var seedFS embed.FS

// SeedCities loads the bundled city dataset into an empty cities table.
// It is a no-op when cities already exist, so repeated startups are cheap.
func SeedCities(ctx context.Context, sqlDB *sql.DB) error {
	var count int
	if err := sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM cities`).Scan(&count); err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to count cities", err)
	}
	if count > 0 {
		return nil
	}

	raw, err := seedFS.ReadFile("cities.json")
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "bundled city dataset missing", err)
	}

	var cities []types.City
	if err := json.Unmarshal(raw, &cities); err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "bundled city dataset is malformed", err)
	}

	tx, err := sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to begin seed transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO cities (id, name, country, lat, lon, population) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to prepare seed statement", err)
	}
	defer stmt.Close()

	for _, c := range cities {
		var population any
		if c.Population != nil {
			population = *c.Population
		}
		if _, err := stmt.ExecContext(ctx, c.ID, c.Name, c.Country, c.Lat, c.Lon, population); err != nil {
			return types.NewAppError(types.ErrCodeInternalDB, "failed to insert seed city", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to commit seed transaction", err)
	}
	return nil
}
