package forecasts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"precipwatch/internal/types"
)

func TestCumulativeSumsWindow(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	periods := []types.ForecastPeriod{
		{Start: now, SnowMM: 2.0, RainMM: 1.0},
		{Start: now.Add(6 * time.Hour), SnowMM: 3.5, RainMM: 0.5},
		{Start: now.Add(23 * time.Hour), SnowMM: 1.0, RainMM: 4.0},
	}

	assert.Equal(t, 6.5, Cumulative(periods, DefaultWindow, types.CategorySnowfall, now))
	assert.Equal(t, 5.5, Cumulative(periods, DefaultWindow, types.CategoryRainfall, now))
}

func TestCumulativeWindowBoundaries(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	// A past entry and an entry at exactly now+window must not count; the
	// window is inclusive at the start and exclusive at the end.
	periods := []types.ForecastPeriod{
		{Start: now.Add(-time.Hour), SnowMM: 100},
		{Start: now, SnowMM: 1},
		{Start: now.Add(24*time.Hour - time.Second), SnowMM: 2},
		{Start: now.Add(24 * time.Hour), SnowMM: 100},
	}

	assert.Equal(t, 3.0, Cumulative(periods, DefaultWindow, types.CategorySnowfall, now))
}

func TestCumulativeEmptyForecast(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 0.0, Cumulative(nil, DefaultWindow, types.CategorySnowfall, now))
}

func TestCumulativeCustomWindow(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	periods := []types.ForecastPeriod{
		{Start: now, RainMM: 1},
		{Start: now.Add(5 * time.Hour), RainMM: 2},
		{Start: now.Add(7 * time.Hour), RainMM: 4},
	}

	assert.Equal(t, 3.0, Cumulative(periods, 6*time.Hour, types.CategoryRainfall, now))
}
