package types

// Category identifies which precipitation volume an alert watches.
type Category string

const (
	CategorySnowfall Category = "snow_fall"
	CategoryRainfall Category = "rain_fall"
)

// Valid reports whether the category is one of the known values.
func (c Category) Valid() bool {
	return c == CategorySnowfall || c == CategoryRainfall
}

// ProviderName identifies an external weather-forecast data source.
type ProviderName string

const (
	ProviderOpenWeatherMap ProviderName = "openweathermap"
	ProviderOpenMeteo      ProviderName = "open-meteo"
)

// CycleOutcome is the terminal state of a scheduler check cycle.
type CycleOutcome string

const (
	// CycleSuccess: every alert evaluated without a fetch error.
	CycleSuccess CycleOutcome = "success"
	// CyclePartialFailure: some alerts failed; the rest were still evaluated.
	CyclePartialFailure CycleOutcome = "partial_failure"
	// CycleFailure: a systemic failure aborted the whole cycle.
	CycleFailure CycleOutcome = "failure"
)

// SnoozeOption enumerates the supported snooze durations.
type SnoozeOption string

const (
	SnoozeOneHour         SnoozeOption = "1h"
	SnoozeThreeHours      SnoozeOption = "3h"
	SnoozeOneDay          SnoozeOption = "1d"
	SnoozeTomorrowMorning SnoozeOption = "tomorrow_08"
	SnoozeOneWeek         SnoozeOption = "1w"
)
