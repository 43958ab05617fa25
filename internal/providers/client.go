// Package providers implements the forecast provider adapter layer: a uniform
// interface over external weather APIs with distinct units, period
// granularity, and failure modes. All outbound HTTP calls are routed through
// the BaseClient, which enforces consistent resilience patterns: circuit
// breaking, retries with exponential backoff, and mapping onto the provider
// error taxonomy.
//
// Adapters translate responses into normalized []types.ForecastPeriod values;
// they perform no caching and no writes. Provider-specific status-code
// mapping stays localized to each adapter.
package providers

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"

	"precipwatch/internal/types"
)

// Provider is the uniform contract over weather data sources.
type Provider interface {
	// Name returns the stable provider identifier used as the cache key.
	Name() types.ProviderName

	// RequiresKey reports whether the provider needs an API key.
	RequiresKey() bool

	// FetchForecast returns normalized per-period entries covering at least
	// the next 24-48 hours for the given coordinates. apiKey may be a
	// user-supplied key or the shared default; keyless providers ignore it.
	FetchForecast(ctx context.Context, lat, lon float64, apiKey string) ([]types.ForecastPeriod, error)
}

// RetryPolicy configures the retry behavior for the BaseClient.
type RetryPolicy struct {
	MaxRetries int
	MinWait    time.Duration
	MaxWait    time.Duration
}

// DefaultRetryPolicy returns sensible defaults for provider API calls.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		MinWait:    500 * time.Millisecond,
		MaxWait:    10 * time.Second,
	}
}

// BaseClient wraps an *http.Client and a circuit breaker to enforce
// consistent resilience on all provider calls. Adapters embed a BaseClient
// to inherit this behavior.
//
// Retries apply only to 5xx responses and transport errors. 401/403/404/429
// are returned to the adapter unmodified: per the error-handling policy,
// Unauthorized and RateLimited are actionable conditions that must not be
// silently retried with the same key.
type BaseClient struct {
	client      *http.Client
	breaker     *gobreaker.CircuitBreaker[*http.Response]
	retryPolicy RetryPolicy
	userAgent   string
	sleepFn     func(time.Duration) // for testability; defaults to time.Sleep
}

// BaseClientOption is a functional option for configuring a BaseClient.
type BaseClientOption func(*BaseClient)

// WithSleepFunc overrides the sleep function used between retries.
// This is intended for testing to avoid real delays.
func WithSleepFunc(fn func(time.Duration)) BaseClientOption {
	return func(c *BaseClient) {
		c.sleepFn = fn
	}
}

// NewBaseClient creates a BaseClient with the given http client, breaker
// name, retry policy, and user agent string.
func NewBaseClient(
	httpClient *http.Client,
	breakerName string,
	retryPolicy RetryPolicy,
	userAgent string,
	opts ...BaseClientOption,
) *BaseClient {
	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil
		},
	})

	bc := &BaseClient{
		client:      httpClient,
		breaker:     cb,
		retryPolicy: retryPolicy,
		userAgent:   userAgent,
		sleepFn:     time.Sleep,
	}

	for _, opt := range opts {
		opt(bc)
	}

	return bc
}

// Do executes the HTTP request with:
//  1. User-Agent header injection
//  2. Circuit breaker wrapping
//  3. Retry on 5xx and transport failures
//  4. Error mapping to the provider taxonomy
//
// On 2xx-4xx the response is returned as-is; the adapter owns status-code
// interpretation. The caller is responsible for closing the response body.
func (c *BaseClient) Do(req *http.Request) (*http.Response, error) {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	var lastResp *http.Response
	var lastErr error

	maxAttempts := 1 + c.retryPolicy.MaxRetries
	for attempt := 0; attempt < maxAttempts; attempt++ {
		resp, err := c.breaker.Execute(func() (*http.Response, error) {
			r, doErr := c.client.Do(req)
			if doErr != nil {
				return nil, doErr
			}
			// Only 5xx trips the breaker; 4xx (including 429) is a usable
			// answer that the adapter maps itself.
			if r.StatusCode >= 500 {
				return r, errUpstream5xx
			}
			return r, nil
		})

		if err == nil {
			return resp, nil
		}

		lastErr = err
		if resp != nil {
			if attempt < maxAttempts-1 {
				resp.Body.Close()
			} else {
				lastResp = resp
			}
		}

		// An open breaker means the upstream is effectively unreachable;
		// do not keep retrying against it.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			break
		}

		if attempt < maxAttempts-1 {
			c.sleepFn(c.computeBackoff(attempt, resp))
		}
	}

	if lastResp != nil {
		lastResp.Body.Close()
	}

	return nil, c.mapFailure(lastResp, lastErr)
}

// errUpstream5xx marks a 5xx response inside the breaker callback.
var errUpstream5xx = errors.New("upstream returned 5xx")

// computeBackoff determines the wait duration before the next retry attempt.
// It respects the Retry-After header if present, otherwise uses exponential
// backoff with full jitter clamped to [MinWait, MaxWait].
func (c *BaseClient) computeBackoff(attempt int, resp *http.Response) time.Duration {
	if resp != nil {
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
				wait := time.Duration(seconds) * time.Second
				if wait > c.retryPolicy.MaxWait {
					wait = c.retryPolicy.MaxWait
				}
				return wait
			}
			if t, err := http.ParseTime(retryAfter); err == nil {
				wait := time.Until(t)
				if wait <= 0 {
					return c.retryPolicy.MinWait
				}
				if wait > c.retryPolicy.MaxWait {
					wait = c.retryPolicy.MaxWait
				}
				return wait
			}
		}
	}

	base := float64(c.retryPolicy.MinWait) * math.Pow(2, float64(attempt))
	maxWait := float64(c.retryPolicy.MaxWait)
	if base > maxWait {
		base = maxWait
	}

	minWait := float64(c.retryPolicy.MinWait)
	if base <= minWait {
		return c.retryPolicy.MinWait
	}
	jittered := minWait + rand.Float64()*(base-minWait)
	return time.Duration(jittered)
}

// mapFailure translates transport-level failures into the provider taxonomy.
func (c *BaseClient) mapFailure(resp *http.Response, err error) *types.AppError {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return types.NewAppError(
			types.ErrCodeProviderNetworkFailure,
			"circuit breaker is open; provider unreachable",
			err,
		)
	}

	if resp != nil && resp.StatusCode >= 500 {
		return types.NewAppError(
			types.ErrCodeProviderUnknownFailure,
			"provider returned "+strconv.Itoa(resp.StatusCode)+" after retries",
			err,
		)
	}

	// DNS failure, connection refused, timeout, context cancellation.
	return types.NewAppError(
		types.ErrCodeProviderNetworkFailure,
		"provider request failed",
		err,
	)
}
