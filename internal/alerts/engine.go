// Package alerts implements the alert evaluation engine: given an alert and
// the current forecast, it computes cumulative precipitation over the
// lookahead window, decides active state, and records triggered-alert
// history subject to snooze gating.
package alerts

import (
	"context"
	"log/slog"
	"time"

	"precipwatch/internal/forecasts"
	"precipwatch/internal/types"
)

// CityResolver abstracts city lookup.
type CityResolver interface {
	GetByID(ctx context.Context, id int64) (*types.City, error)
}

// ForecastSource abstracts the forecast cache store.
type ForecastSource interface {
	Get(ctx context.Context, city *types.City, provider types.ProviderName, skipCache bool) (*types.CachedForecast, error)
}

// HistoryRecorder abstracts the append-only history store.
type HistoryRecorder interface {
	Append(ctx context.Context, h *types.AlertHistory) error
}

// Dispatcher is the notification dispatch collaborator. Rendering,
// formatting, and repeat-notification rate limiting live behind it, outside
// this engine.
type Dispatcher interface {
	TriggerNotification(ctx context.Context, n types.Notification) error
}

// Engine evaluates alerts against forecasts. Each evaluation is independent
// and stateless apart from the reads it performs; the engine holds no locks
// and does not retry — retry policy belongs to the scheduler's next tick.
type Engine struct {
	cities   CityResolver
	source   ForecastSource
	history  HistoryRecorder
	dispatch Dispatcher
	snooze   *SnoozeManager

	provider types.ProviderName
	window   time.Duration
	logger   *slog.Logger
	clock    types.Clock
}

// EngineConfig holds the dependencies for creating an Engine.
type EngineConfig struct {
	Cities     CityResolver
	Forecasts  ForecastSource
	History    HistoryRecorder
	Dispatcher Dispatcher
	Snooze     *SnoozeManager

	Provider types.ProviderName
	Window   time.Duration
	Logger   *slog.Logger
	Clock    types.Clock
}

// NewEngine creates an Engine with the given configuration.
func NewEngine(cfg EngineConfig) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.RealClock{}
	}
	window := cfg.Window
	if window <= 0 {
		window = forecasts.DefaultWindow
	}
	return &Engine{
		cities:   cfg.Cities,
		source:   cfg.Forecasts,
		history:  cfg.History,
		dispatch: cfg.Dispatcher,
		snooze:   cfg.Snooze,
		provider: cfg.Provider,
		window:   window,
		logger:   logger,
		clock:    clock,
	}
}

// Evaluate runs one alert through the full pipeline:
//
//  1. Resolve the city; fail fast if missing.
//  2. Obtain the forecast via the cache store with skipCache=false.
//     Routine checks never force-refresh; force-refresh is reserved for
//     explicit user actions (see Validate).
//  3. Compute the cumulative value for the alert's category.
//  4. Active iff the cumulative value strictly exceeds the threshold —
//     a tie is NOT active.
//  5. While snoozed, active state is still computed and returned for
//     display, but history recording and notification dispatch are
//     suppressed.
//
// History is recorded once per evaluation where the alert is active and not
// snoozed; deduplication of repeated notifications across cycles is the
// notification layer's concern. A history or dispatch failure is logged but
// does not fail the evaluation — the result stays available.
func (e *Engine) Evaluate(ctx context.Context, alert *types.Alert) (*types.EvaluationResult, error) {
	city, err := e.cities.GetByID(ctx, alert.CityID)
	if err != nil {
		return nil, err
	}

	fc, err := e.source.Get(ctx, city, e.provider, false)
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()
	cumulative := forecasts.Cumulative(fc.Periods, e.window, alert.Category, now)
	active := cumulative > alert.Threshold
	snoozed := e.snooze.IsSnoozed(alert)

	result := &types.EvaluationResult{
		AlertID:      alert.ID,
		CityName:     city.Name,
		Category:     alert.Category,
		Cumulative:   cumulative,
		Threshold:    alert.Threshold,
		Active:       active,
		Snoozed:      snoozed,
		Provider:     fc.Provider,
		EvaluatedAt:  now,
		ForecastFrom: fc.FetchedAt,
	}

	if !active || snoozed {
		return result, nil
	}

	row := &types.AlertHistory{
		AlertID:        alert.ID,
		CityName:       city.Name,
		Category:       alert.Category,
		ObservedValue:  cumulative,
		ThresholdValue: alert.Threshold,
		TriggeredAt:    now,
	}
	if err := e.history.Append(ctx, row); err != nil {
		e.logger.ErrorContext(ctx, "failed to record alert history",
			"alert_id", alert.ID,
			"city_id", city.ID,
			"error", err,
		)
	}

	if e.dispatch != nil {
		notification := types.Notification{
			AlertID:        alert.ID,
			Category:       alert.Category,
			CityName:       city.Name,
			CurrentValue:   cumulative,
			ThresholdValue: alert.Threshold,
			ReminderNotes:  alert.Notes,
		}
		if err := e.dispatch.TriggerNotification(ctx, notification); err != nil {
			e.logger.ErrorContext(ctx, "notification dispatch failed",
				"alert_id", alert.ID,
				"city_id", city.ID,
				"error", err,
			)
		}
	}

	return result, nil
}

// Validate checks a draft alert against live provider data before it is
// persisted: the forecast is fetched with skipCache=true so a brand-new or
// edited alert is confirmed against current data rather than a stale cache
// entry. Returns the would-be evaluation so the UI can preview it.
func (e *Engine) Validate(ctx context.Context, draft *types.AlertDraft) (*types.EvaluationResult, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	city, err := e.cities.GetByID(ctx, draft.CityID)
	if err != nil {
		return nil, err
	}

	fc, err := e.source.Get(ctx, city, e.provider, true)
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()
	cumulative := forecasts.Cumulative(fc.Periods, e.window, draft.Category, now)

	return &types.EvaluationResult{
		CityName:     city.Name,
		Category:     draft.Category,
		Cumulative:   cumulative,
		Threshold:    draft.Threshold,
		Active:       cumulative > draft.Threshold,
		Provider:     fc.Provider,
		EvaluatedAt:  now,
		ForecastFrom: fc.FetchedAt,
	}, nil
}
