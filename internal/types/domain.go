package types

import "time"

// City is immutable reference data sourced from the bundled dataset.
// The engine never mutates cities.
type City struct {
	ID         int64   `json:"id" db:"id"`
	Name       string  `json:"name" db:"name"`
	Country    string  `json:"country" db:"country"`
	Lat        float64 `json:"lat" db:"lat"`
	Lon        float64 `json:"lon" db:"lon"`
	Population *int64  `json:"population,omitempty" db:"population"`
}

// Alert is the core domain entity: a user-defined rule binding a city to a
// precipitation category and a threshold. SnoozedUntil, when set and in the
// future, suppresses notification dispatch and history recording but not
// evaluation itself.
type Alert struct {
	ID           string     `json:"id" db:"id"`
	CityID       int64      `json:"city_id" db:"city_id"`
	Category     Category   `json:"category" db:"category"`
	Threshold    float64    `json:"threshold" db:"threshold"`
	Notes        string     `json:"notes,omitempty" db:"notes"`
	SnoozedUntil *time.Time `json:"snoozed_until,omitempty" db:"snoozed_until"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ForecastPeriod is one normalized per-period entry of a provider forecast.
// Volumes are millimetres; adapters convert provider units on ingest and
// treat missing fields as zero.
type ForecastPeriod struct {
	Start  time.Time `json:"start"`
	SnowMM float64   `json:"snow_mm"`
	RainMM float64   `json:"rain_mm"`
}

// CachedForecast is a persisted per-city forecast snapshot. One row is
// written per fetch; the most recent row per (city, provider) is the
// authoritative one for evaluation, older rows are retained for inspection.
//
// Invariant: FetchedAt is monotonically non-decreasing per (city, provider);
// the cache repository rejects writes that would violate this.
type CachedForecast struct {
	ID        int64            `json:"id" db:"id"`
	CityID    int64            `json:"city_id" db:"city_id"`
	Provider  ProviderName     `json:"provider" db:"provider"`
	FetchedAt time.Time        `json:"fetched_at" db:"fetched_at"`
	Periods   []ForecastPeriod `json:"periods" db:"periods"`
}

// AlertHistory is an append-only record of a triggered alert. City name and
// category are denormalized so history survives alert or city deletion.
// Rows are write-once; there is deliberately no update operation anywhere.
type AlertHistory struct {
	ID             string    `json:"id" db:"id"`
	AlertID        string    `json:"alert_id" db:"alert_id"`
	CityName       string    `json:"city_name" db:"city_name"`
	Category       Category  `json:"category" db:"category"`
	ObservedValue  float64   `json:"observed_value" db:"observed_value"`
	ThresholdValue float64   `json:"threshold_value" db:"threshold_value"`
	TriggeredAt    time.Time `json:"triggered_at" db:"triggered_at"`
}

// EvaluationResult captures the outcome of evaluating a single alert against
// the current forecast. It is ephemeral: computed fresh per check cycle and
// never persisted.
type EvaluationResult struct {
	AlertID      string       `json:"alert_id"`
	CityName     string       `json:"city_name"`
	Category     Category     `json:"category"`
	Cumulative   float64      `json:"cumulative_mm"`
	Threshold    float64      `json:"threshold_mm"`
	Active       bool         `json:"active"`
	Snoozed      bool         `json:"snoozed"`
	Provider     ProviderName `json:"provider"`
	EvaluatedAt  time.Time    `json:"evaluated_at"`
	ForecastFrom time.Time    `json:"forecast_fetched_at"`
}

// AlertFailure records a single alert's evaluation failure within a cycle.
type AlertFailure struct {
	AlertID string    `json:"alert_id"`
	CityID  int64     `json:"city_id"`
	Err     error     `json:"-"`
	Code    ErrorCode `json:"code"`
}

// CycleReport summarizes one full scheduler pass over all alerts.
type CycleReport struct {
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Outcome    CycleOutcome       `json:"outcome"`
	Evaluated  int                `json:"evaluated"`
	Triggered  int                `json:"triggered"`
	Results    []EvaluationResult `json:"results,omitempty"`
	Failures   []AlertFailure     `json:"failures,omitempty"`
}

// Notification is the payload handed to the notification dispatch
// collaborator. Rendering is outside this engine's scope.
type Notification struct {
	AlertID        string   `json:"alert_id"`
	Category       Category `json:"category"`
	CityName       string   `json:"city_name"`
	CurrentValue   float64  `json:"current_value"`
	ThresholdValue float64  `json:"threshold_value"`
	ReminderNotes  string   `json:"reminder_notes,omitempty"`
}
