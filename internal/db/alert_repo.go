package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"precipwatch/internal/types"
)

// alertColumns is the standard column set for alert queries; scanAlert must
// match its order.
const alertColumns = `id, city_id, category, threshold, notes, snoozed_until, created_at, updated_at`

// AlertRepository provides data access for the alerts table.
type AlertRepository struct {
	db    *sql.DB
	clock types.Clock
}

// NewAlertRepository creates an AlertRepository backed by the given database.
func NewAlertRepository(sqlDB *sql.DB, clock types.Clock) *AlertRepository {
	if clock == nil {
		clock = types.RealClock{}
	}
	return &AlertRepository{db: sqlDB, clock: clock}
}

// scanAlert scans a single alert row in alertColumns order.
func scanAlert(row interface{ Scan(dest ...any) error }) (*types.Alert, error) {
	var a types.Alert
	var snoozedUntil sql.NullInt64
	var createdAt, updatedAt int64

	err := row.Scan(
		&a.ID,
		&a.CityID,
		&a.Category,
		&a.Threshold,
		&a.Notes,
		&snoozedUntil,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.SnoozedUntil = unixOrNil(snoozedUntil)
	a.CreatedAt = time.Unix(createdAt, 0).UTC()
	a.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &a, nil
}

// Create inserts a new alert, minting its ID and timestamps.
func (r *AlertRepository) Create(ctx context.Context, draft *types.AlertDraft) (*types.Alert, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	now := r.clock.Now()
	a := &types.Alert{
		ID:        uuid.NewString(),
		CityID:    draft.CityID,
		Category:  draft.Category,
		Threshold: draft.Threshold,
		Notes:     draft.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO alerts (id, city_id, category, threshold, notes, snoozed_until, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, NULL, ?, ?)`,
		a.ID, a.CityID, string(a.Category), a.Threshold, a.Notes, now.Unix(), now.Unix(),
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to insert alert", err)
	}
	return a, nil
}

// GetByID returns the alert with the given ID.
func (r *AlertRepository) GetByID(ctx context.Context, id string) (*types.Alert, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+alertColumns+` FROM alerts WHERE id = ?`, id)

	a, err := scanAlert(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.NewAppError(types.ErrCodeAlertNotFound, "alert not found", err).
			WithDetails(map[string]any{"alert_id": id})
	}
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to load alert", err)
	}
	return a, nil
}

// List returns all alerts in persisted (creation) order. The scheduler
// evaluates alerts in exactly this order.
func (r *AlertRepository) List(ctx context.Context) ([]types.Alert, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+alertColumns+` FROM alerts ORDER BY created_at, id`)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list alerts", err)
	}
	defer rows.Close()

	var alerts []types.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan alert row", err)
		}
		alerts = append(alerts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to iterate alert rows", err)
	}
	return alerts, nil
}

// Update replaces the mutable fields of an alert from a validated draft.
func (r *AlertRepository) Update(ctx context.Context, id string, draft *types.AlertDraft) (*types.Alert, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	now := r.clock.Now()
	res, err := r.db.ExecContext(ctx,
		`UPDATE alerts SET city_id = ?, category = ?, threshold = ?, notes = ?, updated_at = ?
		 WHERE id = ?`,
		draft.CityID, string(draft.Category), draft.Threshold, draft.Notes, now.Unix(), id,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to update alert", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, types.NewAppError(types.ErrCodeAlertNotFound, "alert not found", nil).
			WithDetails(map[string]any{"alert_id": id})
	}
	return r.GetByID(ctx, id)
}

// SetSnoozedUntil overwrites the alert's snoozed-until timestamp. A nil
// value clears the snooze. Snoozing is idempotent and overwrite-based.
func (r *AlertRepository) SetSnoozedUntil(ctx context.Context, id string, until *time.Time) error {
	var value any
	if until != nil {
		value = until.Unix()
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE alerts SET snoozed_until = ?, updated_at = ? WHERE id = ?`,
		value, r.clock.Now().Unix(), id,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to set snooze", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.NewAppError(types.ErrCodeAlertNotFound, "alert not found", nil).
			WithDetails(map[string]any{"alert_id": id})
	}
	return nil
}

// Delete removes an alert. History rows referencing it are kept; they carry
// denormalized city name and category for exactly this reason.
func (r *AlertRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM alerts WHERE id = ?`, id)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to delete alert", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.NewAppError(types.ErrCodeAlertNotFound, "alert not found", nil).
			WithDetails(map[string]any{"alert_id": id})
	}
	return nil
}
