package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"precipwatch/internal/types"
)

func newTestBaseClient(t *testing.T) *BaseClient {
	t.Helper()
	return NewBaseClient(
		&http.Client{Timeout: 5 * time.Second},
		"test-breaker-"+t.Name(),
		RetryPolicy{MaxRetries: 2, MinWait: time.Millisecond, MaxWait: 10 * time.Millisecond},
		"precipwatch-test/1.0",
		WithSleepFunc(func(time.Duration) {}),
	)
}

func TestOpenWeatherFetchForecast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret-key", r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"list":[
			{"dt":1700000000,"rain":{"3h":2.5}},
			{"dt":1700010800,"snow":{"3h":1.2}},
			{"dt":1700021600}
		]}`))
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(newTestBaseClient(t))
	p.baseURL = srv.URL

	periods, err := p.FetchForecast(context.Background(), 47.37, 8.54, "secret-key")
	require.NoError(t, err)
	require.Len(t, periods, 3)

	assert.Equal(t, time.Unix(1700000000, 0).UTC(), periods[0].Start)
	assert.Equal(t, 2.5, periods[0].RainMM)
	assert.Equal(t, 0.0, periods[0].SnowMM)
	assert.Equal(t, 1.2, periods[1].SnowMM)

	// Dry period: rain/snow keys absent entirely.
	assert.Equal(t, 0.0, periods[2].RainMM)
	assert.Equal(t, 0.0, periods[2].SnowMM)
}

func TestOpenWeatherStatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantCode types.ErrorCode
	}{
		{"unauthorized", http.StatusUnauthorized, types.ErrCodeProviderUnauthorized},
		{"forbidden", http.StatusForbidden, types.ErrCodeProviderUnauthorized},
		{"not found", http.StatusNotFound, types.ErrCodeProviderNotFound},
		{"rate limited", http.StatusTooManyRequests, types.ErrCodeProviderRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			p := NewOpenWeatherProvider(newTestBaseClient(t))
			p.baseURL = srv.URL

			_, err := p.FetchForecast(context.Background(), 47.37, 8.54, "k")
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, types.CodeOf(err))

			// 4xx answers are never retried.
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestOpenWeatherRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"list":[{"dt":1700000000,"rain":{"3h":1.0}}]}`))
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(newTestBaseClient(t))
	p.baseURL = srv.URL

	periods, err := p.FetchForecast(context.Background(), 47.37, 8.54, "k")
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestOpenWeatherExhaustedRetriesMapToUnknownFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(newTestBaseClient(t))
	p.baseURL = srv.URL

	_, err := p.FetchForecast(context.Background(), 47.37, 8.54, "k")
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeProviderUnknownFailure, types.CodeOf(err))
}

func TestOpenWeatherMissingKeyFailsUpfront(t *testing.T) {
	p := NewOpenWeatherProvider(newTestBaseClient(t))
	p.baseURL = "http://127.0.0.1:1" // must never be contacted

	_, err := p.FetchForecast(context.Background(), 47.37, 8.54, "")
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeProviderUnauthorized, types.CodeOf(err))
}

func TestOpenWeatherEmptyForecastIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"list":[]}`))
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(newTestBaseClient(t))
	p.baseURL = srv.URL

	_, err := p.FetchForecast(context.Background(), 47.37, 8.54, "k")
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeProviderNotFound, types.CodeOf(err))
}

func TestOpenWeatherInvalidCoordinates(t *testing.T) {
	p := NewOpenWeatherProvider(newTestBaseClient(t))

	_, err := p.FetchForecast(context.Background(), 91.0, 8.54, "k")
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeValidationInvalidLat, types.CodeOf(err))
}

func TestConnectionRefusedIsNetworkFailure(t *testing.T) {
	p := NewOpenWeatherProvider(newTestBaseClient(t))
	p.baseURL = "http://127.0.0.1:1"

	_, err := p.FetchForecast(context.Background(), 47.37, 8.54, "k")
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeProviderNetworkFailure, types.CodeOf(err))
	assert.True(t, types.IsNetworkClass(err))
}
