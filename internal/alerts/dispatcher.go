package alerts

import (
	"context"
	"log/slog"

	"precipwatch/internal/types"
)

// LogDispatcher is the default Dispatcher: it emits the notification payload
// as a structured log record. Platform notification rendering lives in the
// host application; this keeps the contract exercised in headless runs.
type LogDispatcher struct {
	logger *slog.Logger
}

// NewLogDispatcher creates a LogDispatcher.
func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogDispatcher{logger: logger}
}

// TriggerNotification implements Dispatcher.
func (d *LogDispatcher) TriggerNotification(ctx context.Context, n types.Notification) error {
	d.logger.InfoContext(ctx, "alert notification",
		"alert_id", n.AlertID,
		"category", string(n.Category),
		"city", n.CityName,
		"current_value", n.CurrentValue,
		"threshold_value", n.ThresholdValue,
	)
	return nil
}
