// Package profile resolves the preferences used to personalize venue
// ranking for a signed-in user.
package profile

import (
	"math"

	"github.com/onnwee/venuefinder/internal/geo"
	"github.com/onnwee/venuefinder/internal/textnorm"
)

// DefaultWeight applies to preferences stored without a usable weight.
const DefaultWeight = 1.0

// UserContext is a snapshot of one user's preferences. A nil *UserContext
// means the caller is anonymous and nothing is personalized.
type UserContext struct {
	UserID             string             `json:"user_id,omitempty" yaml:"user_id"`
	FavoriteCategories []string           `json:"favorite_categories" yaml:"favorite_categories"`
	BudgetLevel        *float64           `json:"budget_level,omitempty" yaml:"budget_level"`
	Home               *geo.Coordinate    `json:"home,omitempty" yaml:"home"`
	MaxDistanceKm      *float64           `json:"max_distance_km,omitempty" yaml:"max_distance_km"`
	AttributeWeights   map[string]float64 `json:"attribute_weights,omitempty" yaml:"attribute_weights"`
}

// Preference is a stored attribute preference already resolved to a slug.
type Preference struct {
	Slug   string   `json:"slug" yaml:"slug"`
	Weight *float64 `json:"weight,omitempty" yaml:"weight"`
}

// NewAttributeWeights builds a slug to weight map. Keys are slugified and
// empty slugs skipped. Missing, zero, negative or non-finite weights become
// DefaultWeight. A later preference for the same slug wins.
func NewAttributeWeights(prefs []Preference) map[string]float64 {
	weights := make(map[string]float64, len(prefs))
	for _, p := range prefs {
		slug := textnorm.SlugifyAttribute(p.Slug)
		if slug == "" {
			continue
		}
		weights[slug] = normalizeWeight(p.Weight)
	}
	return weights
}

func normalizeWeight(w *float64) float64 {
	if w == nil || math.IsNaN(*w) || math.IsInf(*w, 0) || *w <= 0 {
		return DefaultWeight
	}
	return *w
}

// Clone returns a deep copy. Cloning nil yields nil.
func (uc *UserContext) Clone() *UserContext {
	if uc == nil {
		return nil
	}
	out := *uc
	if uc.FavoriteCategories != nil {
		out.FavoriteCategories = append([]string(nil), uc.FavoriteCategories...)
	}
	if uc.BudgetLevel != nil {
		b := *uc.BudgetLevel
		out.BudgetLevel = &b
	}
	if uc.Home != nil {
		h := *uc.Home
		out.Home = &h
	}
	if uc.MaxDistanceKm != nil {
		m := *uc.MaxDistanceKm
		out.MaxDistanceKm = &m
	}
	if uc.AttributeWeights != nil {
		out.AttributeWeights = make(map[string]float64, len(uc.AttributeWeights))
		for k, v := range uc.AttributeWeights {
			out.AttributeWeights[k] = v
		}
	}
	return &out
}

// NormalizedFavorites returns the canonical form of every favorite category.
func (uc *UserContext) NormalizedFavorites() []string {
	if uc == nil {
		return nil
	}
	out := make([]string, 0, len(uc.FavoriteCategories))
	for _, c := range uc.FavoriteCategories {
		if n := textnorm.NormalizeCategory(c); n != "" {
			out = append(out, n)
		}
	}
	return out
}
