package ranking

import (
	"math"

	"github.com/onnwee/venuefinder/internal/geo"
)

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// CategoryAffinity returns bonus when category (already normalized) is one
// of the normalized favorites.
func CategoryAffinity(category string, favorites []string, bonus float64) float64 {
	if category == "" {
		return 0
	}
	for _, fav := range favorites {
		if fav == category {
			return bonus
		}
	}
	return 0
}

// BudgetProximity scores how close price is to budget using the first tier
// whose MaxDiff covers the difference. Outside every tier it returns miss.
// Missing or non-finite inputs contribute 0.
func BudgetProximity(price, budget *float64, tiers []BudgetTier, miss float64) float64 {
	if price == nil || budget == nil || !finite(*price) || !finite(*budget) {
		return 0
	}
	diff := math.Abs(*price - *budget)
	for _, t := range tiers {
		if diff <= t.MaxDiff {
			return t.Bonus
		}
	}
	return miss
}

// AttributePreference sums the user's weight for every attribute slug.
// Repeated slugs count each time; non-finite weights are ignored.
func AttributePreference(slugs []string, weights map[string]float64) float64 {
	if len(weights) == 0 {
		return 0
	}
	total := 0.0
	for _, s := range slugs {
		if w, ok := weights[s]; ok && finite(w) {
			total += w
		}
	}
	return total
}

// HomeDistance returns the proximity signal and the distance it was computed
// from. ok is false when the signal does not apply: no home, no positive
// finite max distance, or no valid venue location.
//
// Beyond maxKm the venue gets penalty. Otherwise the bonus decays linearly
// from base+bonus at home to base at the limit.
func HomeDistance(home *geo.Coordinate, maxKm *float64, loc *geo.Coordinate, c *Calibration) (score, distanceKm float64, ok bool) {
	if home == nil || maxKm == nil || loc == nil {
		return 0, 0, false
	}
	limit := *maxKm
	if !finite(limit) || limit <= 0 || !home.Valid() || !loc.Valid() {
		return 0, 0, false
	}

	d := geo.DistanceKm(*home, *loc)
	if d > limit {
		return c.DistancePenalty, d, true
	}
	return c.ProximityBase + c.ProximityBonus*math.Max(0, (limit-d)/limit), d, true
}
