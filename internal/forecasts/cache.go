// Package forecasts implements forecast acquisition for the precipwatch
// engine: the cache-or-fetch store over provider adapters, and the
// cumulative precipitation calculator.
package forecasts

import (
	"context"
	"log/slog"

	"precipwatch/internal/providers"
	"precipwatch/internal/types"
)

// CacheRepo abstracts the cache table operations the service needs.
type CacheRepo interface {
	GetLatest(ctx context.Context, cityID int64, provider types.ProviderName) (*types.CachedForecast, error)
	Insert(ctx context.Context, fc *types.CachedForecast) error
}

// KeySource abstracts per-provider user API key lookup (preferences store).
type KeySource interface {
	UserAPIKey(ctx context.Context, provider types.ProviderName) (string, error)
}

// ProviderSource abstracts provider lookup; satisfied by providers.Registry.
type ProviderSource interface {
	Get(name types.ProviderName) (providers.Provider, error)
}

// CacheService implements the forecast cache store contract.
//
// Freshness is deliberately not checked per read: a cached entry is returned
// regardless of age when skipCache is false, because minimizing provider API
// calls under shared rate-limited keys takes priority. Staleness is bounded
// by the scheduler's check interval, and skipCache is entirely caller-owned
// (explicit user actions force-refresh, routine checks never do).
type CacheService struct {
	repo       CacheRepo
	provs      ProviderSource
	keys       KeySource
	defaultKey types.SecretString
	logger     *slog.Logger
	clock      types.Clock
}

// CacheServiceConfig holds the dependencies for creating a CacheService.
type CacheServiceConfig struct {
	Repo       CacheRepo
	Providers  ProviderSource
	Keys       KeySource
	DefaultKey types.SecretString
	Logger     *slog.Logger
	Clock      types.Clock
}

// NewCacheService creates a CacheService with the given configuration.
func NewCacheService(cfg CacheServiceConfig) *CacheService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.RealClock{}
	}
	return &CacheService{
		repo:       cfg.Repo,
		provs:      cfg.Providers,
		keys:       cfg.Keys,
		defaultKey: cfg.DefaultKey,
		logger:     logger,
		clock:      clock,
	}
}

// Get returns an up-to-date forecast for the city using cache-or-fetch
// semantics:
//
//   - skipCache false + cache hit: the cached entry is returned directly,
//     with no provider call, regardless of its age.
//   - skipCache true, or cache miss: the provider adapter is called and the
//     result is persisted as a new cache row before being returned. A cache
//     write failure is logged but does not fail the call — availability of
//     the forecast is prioritized over cache durability.
//
// Fetch failures propagate the provider error taxonomy. Falling back to a
// stale cache entry after a failed fetch is the caller's policy decision,
// not this store's.
func (s *CacheService) Get(ctx context.Context, city *types.City, provider types.ProviderName, skipCache bool) (*types.CachedForecast, error) {
	if !skipCache {
		cached, err := s.repo.GetLatest(ctx, city.ID, provider)
		if err != nil {
			// A broken cache read must not take evaluation down; fall
			// through to a live fetch.
			s.logger.WarnContext(ctx, "cache read failed, fetching live",
				"city_id", city.ID,
				"provider", string(provider),
				"error", err,
			)
		} else if cached != nil {
			return cached, nil
		}
	}

	p, err := s.provs.Get(provider)
	if err != nil {
		return nil, err
	}

	apiKey, err := s.resolveKey(ctx, p)
	if err != nil {
		return nil, err
	}

	periods, err := p.FetchForecast(ctx, city.Lat, city.Lon, apiKey)
	if err != nil {
		return nil, err
	}

	fc := &types.CachedForecast{
		CityID:    city.ID,
		Provider:  provider,
		FetchedAt: s.clock.Now(),
		Periods:   periods,
	}

	if err := s.repo.Insert(ctx, fc); err != nil {
		s.logger.ErrorContext(ctx, "cache write failed, returning live forecast anyway",
			"city_id", city.ID,
			"provider", string(provider),
			"error", err,
		)
	}

	return fc, nil
}

// resolveKey picks the user-supplied key when one is stored, otherwise the
// shared default key from config. Keyless providers short-circuit.
func (s *CacheService) resolveKey(ctx context.Context, p providers.Provider) (string, error) {
	if !p.RequiresKey() {
		return "", nil
	}
	if s.keys != nil {
		userKey, err := s.keys.UserAPIKey(ctx, p.Name())
		if err != nil {
			return "", err
		}
		if userKey != "" {
			return userKey, nil
		}
	}
	return s.defaultKey.Unmask(), nil
}
