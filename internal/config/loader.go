// loader.go implements the configuration loading lifecycle.
//
// The loading sequence is:
//  1. Load a .env file via godotenv (non-fatal if absent).
//  2. Process envconfig struct tags to populate the Config struct.
//  3. Validate the struct using go-playground/validator.
//
// Any missing required value or invalid format fails startup immediately.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ConfigErrorType categorizes configuration loading failures for diagnostics.
type ConfigErrorType string

const (
	ErrTypeProcess  ConfigErrorType = "process"
	ErrTypeValidate ConfigErrorType = "validate"
)

// ConfigError is a diagnostic error type returned by Load to aid debugging.
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Load loads and validates the precipwatch configuration.
func Load() (*Config, error) {
	// Step 1: .env file (non-fatal if missing).
	_ = godotenv.Load()

	// Step 2: populate from environment.
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrTypeProcess,
			Message: "failed to process environment configuration",
			Err:     err,
		}
	}

	// Step 3: validate.
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(&cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrTypeValidate,
			Message: "configuration validation failed",
			Err:     err,
		}
	}

	return &cfg, nil
}
