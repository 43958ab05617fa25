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

// openMeteoBaseURL is the Open-Meteo hourly forecast endpoint.
const openMeteoBaseURL = "https://api.open-meteo.com/v1/forecast"

// snowfallCmToMm converts Open-Meteo snowfall (centimetres) to millimetres.
const snowfallCmToMm = 10.0

// OpenMeteoProvider adapts the Open-Meteo forecast API. Periods are hourly;
// rain arrives in millimetres and snowfall in centimetres. The API is
// keyless, so Unauthorized cannot occur here.
type OpenMeteoProvider struct {
	base    *BaseClient
	baseURL string
}

// NewOpenMeteoProvider creates an Open-Meteo adapter on top of the given
// BaseClient.
func NewOpenMeteoProvider(base *BaseClient) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		base:    base,
		baseURL: openMeteoBaseURL,
	}
}

// Name implements Provider.
func (p *OpenMeteoProvider) Name() types.ProviderName {
	return types.ProviderOpenMeteo
}

// RequiresKey implements Provider.
func (p *OpenMeteoProvider) RequiresKey() bool {
	return false
}

// openMeteoPayload mirrors the subset of the hourly response we consume.
// Volume entries are pointers: Open-Meteo emits null for hours where the
// model has no value, which normalizes to zero.
type openMeteoPayload struct {
	Hourly struct {
		Time     []string   `json:"time"`
		Rain     []*float64 `json:"rain"`
		Snowfall []*float64 `json:"snowfall"`
	} `json:"hourly"`
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

// FetchForecast implements Provider.
func (p *OpenMeteoProvider) FetchForecast(ctx context.Context, lat, lon float64, _ string) ([]types.ForecastPeriod, error) {
	if err := types.ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	q.Set("hourly", "rain,snowfall")
	q.Set("forecast_days", "2")
	q.Set("timezone", "UTC")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to build open-meteo request", err)
	}

	resp, err := p.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, p.mapStatus(resp.StatusCode)
	}

	var payload openMeteoPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, types.NewAppError(types.ErrCodeProviderUnknownFailure, "failed to decode open-meteo response", err)
	}
	if payload.Error {
		return nil, types.NewAppError(types.ErrCodeProviderNotFound, "open-meteo: "+payload.Reason, nil)
	}

	periods := make([]types.ForecastPeriod, 0, len(payload.Hourly.Time))
	for i, stamp := range payload.Hourly.Time {
		start, err := time.Parse("2006-01-02T15:04", stamp)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeProviderUnknownFailure, "open-meteo returned an unparseable timestamp", err)
		}
		period := types.ForecastPeriod{Start: start.UTC()}
		if i < len(payload.Hourly.Rain) && payload.Hourly.Rain[i] != nil {
			period.RainMM = *payload.Hourly.Rain[i]
		}
		if i < len(payload.Hourly.Snowfall) && payload.Hourly.Snowfall[i] != nil {
			period.SnowMM = *payload.Hourly.Snowfall[i] * snowfallCmToMm
		}
		periods = append(periods, period)
	}

	if len(periods) == 0 {
		return nil, types.NewAppError(types.ErrCodeProviderNotFound, "open-meteo returned no forecast periods for coordinates", nil)
	}

	return periods, nil
}

// mapStatus translates Open-Meteo status codes into the fetch error taxonomy.
// A 400 means the coordinates were rejected (no forecast at location).
func (p *OpenMeteoProvider) mapStatus(status int) *types.AppError {
	switch status {
	case http.StatusBadRequest, http.StatusNotFound:
		return types.NewAppError(types.ErrCodeProviderNotFound, "open-meteo has no forecast for these coordinates", nil)
	case http.StatusTooManyRequests:
		return types.NewAppError(types.ErrCodeProviderRateLimited, "open-meteo rate limit exceeded", nil)
	default:
		return types.NewAppError(types.ErrCodeProviderUnknownFailure, fmt.Sprintf("open-meteo returned unexpected status %d", status), nil)
	}
}
