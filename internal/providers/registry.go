package providers

import (
	"net/http"

	"precipwatch/internal/types"
)

// Registry holds the configured provider adapters keyed by name. It is built
// once at startup; lookup of an unknown name is a validation error so the
// control API can reject bad provider selections cleanly.
type Registry struct {
	byName map[types.ProviderName]Provider
}

// NewRegistry creates a Registry from the given providers.
func NewRegistry(provs ...Provider) *Registry {
	byName := make(map[types.ProviderName]Provider, len(provs))
	for _, p := range provs {
		byName[p.Name()] = p
	}
	return &Registry{byName: byName}
}

// DefaultRegistry builds the standard provider set (OpenWeatherMap and
// Open-Meteo), each with its own circuit breaker over the shared HTTP client.
func DefaultRegistry(httpClient *http.Client, userAgent string) *Registry {
	policy := DefaultRetryPolicy()
	return NewRegistry(
		NewOpenWeatherProvider(NewBaseClient(httpClient, "openweathermap", policy, userAgent)),
		NewOpenMeteoProvider(NewBaseClient(httpClient, "open-meteo", policy, userAgent)),
	)
}

// Get returns the provider registered under name.
func (r *Registry) Get(name types.ProviderName) (Provider, error) {
	p, ok := r.byName[name]
	if !ok {
		return nil, types.NewAppError(types.ErrCodeValidationInvalidProvider, "unknown forecast provider: "+string(name), nil)
	}
	return p, nil
}

// Names returns the registered provider names.
func (r *Registry) Names() []types.ProviderName {
	names := make([]types.ProviderName, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	return names
}
