package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"precipwatch/internal/types"
)

// openWeatherBaseURL is the 5-day / 3-hour forecast endpoint.
const openWeatherBaseURL = "https://api.openweathermap.org/data/2.5/forecast"

// OpenWeatherProvider adapts the OpenWeatherMap forecast API. Periods are
// 3-hourly; rain and snow volumes arrive in millimetres under the "3h" key
// and are absent entirely for dry periods.
type OpenWeatherProvider struct {
	base    *BaseClient
	baseURL string
}

// NewOpenWeatherProvider creates an OpenWeatherMap adapter on top of the
// given BaseClient.
func NewOpenWeatherProvider(base *BaseClient) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		base:    base,
		baseURL: openWeatherBaseURL,
	}
}

// Name implements Provider.
func (p *OpenWeatherProvider) Name() types.ProviderName {
	return types.ProviderOpenWeatherMap
}

// RequiresKey implements Provider. OpenWeatherMap rejects keyless calls.
func (p *OpenWeatherProvider) RequiresKey() bool {
	return true
}

// openWeatherPayload mirrors the subset of the forecast response we consume.
// Rain/Snow are pointers because the keys are omitted for dry periods;
// missing volumes normalize to zero.
type openWeatherPayload struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Rain *struct {
			ThreeHours float64 `json:"3h"`
		} `json:"rain,omitempty"`
		Snow *struct {
			ThreeHours float64 `json:"3h"`
		} `json:"snow,omitempty"`
	} `json:"list"`
}

// FetchForecast implements Provider.
func (p *OpenWeatherProvider) FetchForecast(ctx context.Context, lat, lon float64, apiKey string) ([]types.ForecastPeriod, error) {
	if err := types.ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}
	if apiKey == "" {
		return nil, types.NewAppError(types.ErrCodeProviderUnauthorized, "openweathermap requires an API key", nil)
	}

	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', 4, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', 4, 64))
	q.Set("appid", apiKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to build openweathermap request", err)
	}

	resp, err := p.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, p.mapStatus(resp.StatusCode)
	}

	var payload openWeatherPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, types.NewAppError(types.ErrCodeProviderUnknownFailure, "failed to decode openweathermap response", err)
	}

	periods := make([]types.ForecastPeriod, 0, len(payload.List))
	for _, entry := range payload.List {
		period := types.ForecastPeriod{
			Start: time.Unix(entry.Dt, 0).UTC(),
		}
		if entry.Rain != nil {
			period.RainMM = entry.Rain.ThreeHours
		}
		if entry.Snow != nil {
			period.SnowMM = entry.Snow.ThreeHours
		}
		periods = append(periods, period)
	}

	if len(periods) == 0 {
		return nil, types.NewAppError(types.ErrCodeProviderNotFound, "openweathermap returned no forecast periods for coordinates", nil)
	}

	return periods, nil
}

// mapStatus translates OpenWeatherMap status codes into the fetch error
// taxonomy. 401 covers both bad and exhausted keys.
func (p *OpenWeatherProvider) mapStatus(status int) *types.AppError {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return types.NewAppError(types.ErrCodeProviderUnauthorized, "openweathermap rejected the API key", nil)
	case http.StatusNotFound:
		return types.NewAppError(types.ErrCodeProviderNotFound, "openweathermap has no forecast for these coordinates", nil)
	case http.StatusTooManyRequests:
		return types.NewAppError(types.ErrCodeProviderRateLimited, "openweathermap rate limit exceeded", nil)
	default:
		return types.NewAppError(types.ErrCodeProviderUnknownFailure, fmt.Sprintf("openweathermap returned unexpected status %d", status), nil)
	}
}
