package forecasts

import (
	"time"

	"precipwatch/internal/types"
)

// DefaultWindow is the product's "next-day" lookahead window.
const DefaultWindow = 24 * time.Hour

// Cumulative sums the category's precipitation volume across all period
// entries whose start time falls within [now, now+window). Summation is in
// double precision; rounding happens only at the presentation boundary.
//
// The window is a parameter rather than a constant so the calculation stays
// testable independent of the 24h product default. Entries outside the
// window, including past entries still present in a cached forecast, do not
// contribute.
func Cumulative(periods []types.ForecastPeriod, window time.Duration, category types.Category, now time.Time) float64 {
	end := now.Add(window)

	var total float64
	for _, p := range periods {
		if p.Start.Before(now) || !p.Start.Before(end) {
			continue
		}
		switch category {
		case types.CategorySnowfall:
			total += p.SnowMM
		case types.CategoryRainfall:
			total += p.RainMM
		}
	}
	return total
}
