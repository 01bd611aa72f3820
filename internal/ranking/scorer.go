package ranking

import (
	"github.com/onnwee/venuefinder/internal/profile"
	"github.com/onnwee/venuefinder/internal/venue"
)

// Breakdown is the per-signal contribution to a venue's score.
type Breakdown struct {
	Category   float64  `json:"category"`
	Budget     float64  `json:"budget"`
	Attributes float64  `json:"attributes"`
	Distance   float64  `json:"distance"`
	DistanceKm *float64 `json:"distance_km,omitempty"`
	Total      float64  `json:"total"`
}

// Scorer computes recommendation scores. It is immutable and safe for
// concurrent use.
type Scorer struct {
	cal Calibration
}

// NewScorer creates a scorer. A nil calibration uses DefaultCalibration.
func NewScorer(cal *Calibration) *Scorer {
	c := MergeCalibration(DefaultCalibration(), nil)
	if cal != nil {
		c = MergeCalibration(cal, nil)
	}
	return &Scorer{cal: *c}
}

// Calibration returns a copy of the constants in use.
func (s *Scorer) Calibration() Calibration {
	return *MergeCalibration(&s.cal, nil)
}

// Score returns the recommendation score of v for uc, or 0 when uc is nil.
func (s *Scorer) Score(v *venue.Venue, uc *profile.UserContext) float64 {
	return s.Explain(v, uc).Total
}

// Explain returns every signal's contribution. The zero Breakdown is
// returned for a nil context.
func (s *Scorer) Explain(v *venue.Venue, uc *profile.UserContext) Breakdown {
	var b Breakdown
	if uc == nil || v == nil {
		return b
	}

	b.Category = CategoryAffinity(v.NormalizedCategory(), uc.NormalizedFavorites(), s.cal.CategoryBonus)
	b.Budget = BudgetProximity(v.Price, uc.BudgetLevel, s.cal.BudgetTiers, s.cal.BudgetMiss)
	b.Attributes = AttributePreference(v.AttributeSlugs(), uc.AttributeWeights)

	if score, d, ok := HomeDistance(uc.Home, uc.MaxDistanceKm, v.Location, &s.cal); ok {
		b.Distance = score
		b.DistanceKm = &d
	}

	b.Total = b.Category + b.Budget + b.Attributes + b.Distance
	return b
}
