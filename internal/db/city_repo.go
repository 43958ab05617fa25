package db

import (
	"context"
	"database/sql"
	"errors"

	"precipwatch/internal/types"
)

// cityColumns is the standard column set for city queries.
const cityColumns = `id, name, country, lat, lon, population`

// CityRepository provides read access to the bundled city dataset. Cities
// are immutable reference data; no write operations exist beyond seeding.
type CityRepository struct {
	db *sql.DB
}

// NewCityRepository creates a CityRepository backed by the given database.
func NewCityRepository(sqlDB *sql.DB) *CityRepository {
	return &CityRepository{db: sqlDB}
}

// scanCity scans a single city row in cityColumns order.
func scanCity(row interface{ Scan(dest ...any) error }) (*types.City, error) {
	var c types.City
	var population sql.NullInt64

	err := row.Scan(&c.ID, &c.Name, &c.Country, &c.Lat, &c.Lon, &population)
	if err != nil {
		return nil, err
	}
	if population.Valid {
		c.Population = &population.Int64
	}
	return &c, nil
}

// GetByID returns the city with the given ID.
func (r *CityRepository) GetByID(ctx context.Context, id int64) (*types.City, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+cityColumns+` FROM cities WHERE id = ?`, id)

	c, err := scanCity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.NewAppError(types.ErrCodeCityNotFound, "city not found", err).
			WithDetails(map[string]any{"city_id": id})
	}
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to load city", err)
	}
	return c, nil
}

// Search returns cities whose name matches the query prefix, most populous
// first. It backs the city picker in the companion UI.
func (r *CityRepository) Search(ctx context.Context, query string, limit int) ([]types.City, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+cityColumns+` FROM cities
		 WHERE name LIKE ? COLLATE NOCASE
		 ORDER BY population DESC NULLS LAST, name
		 LIMIT ?`,
		query+"%", limit,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to search cities", err)
	}
	defer rows.Close()

	var cities []types.City
	for rows.Next() {
		c, err := scanCity(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan city row", err)
		}
		cities = append(cities, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to iterate city rows", err)
	}
	return cities, nil
}
