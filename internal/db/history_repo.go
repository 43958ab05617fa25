package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"precipwatch/internal/types"
)

// HistoryRepository provides data access for the alert_history table.
// History is append-only: rows are write-once, there is no update operation,
// and deletion happens only through the bulk Clear.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a HistoryRepository backed by the given
// database.
func NewHistoryRepository(sqlDB *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: sqlDB}
}

// Append inserts a new immutable history row, minting its ID.
func (r *HistoryRepository) Append(ctx context.Context, h *types.AlertHistory) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO alert_history (id, alert_id, city_name, category, observed_value, threshold_value, triggered_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.AlertID, h.CityName, string(h.Category), h.ObservedValue, h.ThresholdValue, h.TriggeredAt.Unix(),
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to append history row", err)
	}
	return nil
}

// QuerySince returns history rows triggered at or after since, newest first.
// A zero since returns everything.
func (r *HistoryRepository) QuerySince(ctx context.Context, since time.Time) ([]types.AlertHistory, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, alert_id, city_name, category, observed_value, threshold_value, triggered_at
		 FROM alert_history
		 WHERE triggered_at >= ?
		 ORDER BY triggered_at DESC, id`,
		since.Unix(),
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query history", err)
	}
	defer rows.Close()

	var out []types.AlertHistory
	for rows.Next() {
		var h types.AlertHistory
		var triggeredAt int64
		if err := rows.Scan(&h.ID, &h.AlertID, &h.CityName, &h.Category, &h.ObservedValue, &h.ThresholdValue, &triggeredAt); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan history row", err)
		}
		h.TriggeredAt = time.Unix(triggeredAt, 0).UTC()
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to iterate history rows", err)
	}
	return out, nil
}

// Clear deletes all history rows and returns the number deleted.
func (r *HistoryRepository) Clear(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM alert_history`)
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to clear history", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to count cleared history rows", err)
	}
	return n, nil
}
