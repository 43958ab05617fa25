// Package config defines the global configuration for the precipwatch engine.
// Configuration is loaded once at process start and is immutable thereafter;
// components receive only the config subsets they require rather than reading
// ambient global state.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> Struct Defaults (Lowest)
package config

import (
	"time"

	"precipwatch/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type
// used to keep provider API keys out of logs and config dumps.
type SecretString = types.SecretString

// Config is the top-level configuration struct.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"local" validate:"oneof=local dev prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server    ServerConfig
	Database  DatabaseConfig
	Scheduler SchedulerConfig
	Providers ProvidersConfig
}

// ServerConfig holds the control API listen configuration. The API is a
// localhost surface for the companion UI; it is not meant to be exposed.
type ServerConfig struct {
	ListenAddr      string        `envconfig:"LISTEN_ADDR" default:"127.0.0.1:8686"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`
}

// DatabaseConfig holds the local SQLite store configuration.
type DatabaseConfig struct {
	Path        string        `envconfig:"DB_PATH" default:"precipwatch.db" validate:"required"`
	BusyTimeout time.Duration `envconfig:"DB_BUSY_TIMEOUT" default:"5s"`
}

// SchedulerConfig holds the periodic check cycle configuration.
// CheckInterval is the default; the preferences store can override it at
// runtime (user-adjustable interval).
type SchedulerConfig struct {
	CheckInterval time.Duration `envconfig:"CHECK_INTERVAL" default:"12h" validate:"min=300000000000"` // >= 5m
	WindowHours   int           `envconfig:"LOOKAHEAD_WINDOW_HOURS" default:"24" validate:"min=1,max=48"`
}

// ProvidersConfig holds weather-provider selection and credentials.
// DefaultAPIKey is the shared key used when the user has not stored a
// personal key for a provider; an Unauthorized fetch result signals the
// caller to prompt for a personal key.
type ProvidersConfig struct {
	Default        types.ProviderName `envconfig:"FORECAST_PROVIDER" default:"open-meteo" validate:"oneof=open-meteo openweathermap"`
	DefaultAPIKey  SecretString       `envconfig:"OPENWEATHER_DEFAULT_API_KEY"`
	RequestTimeout time.Duration      `envconfig:"PROVIDER_TIMEOUT" default:"15s"`
	UserAgent      string             `envconfig:"PROVIDER_USER_AGENT" default:"precipwatch/1.0"`
	Timezone       string             `envconfig:"LOCAL_TIMEZONE" default:""` // empty = system local; used for snooze date math
}
