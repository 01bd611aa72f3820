package ranking

import (
	"testing"

	"github.com/onnwee/venuefinder/internal/geo"
	"github.com/onnwee/venuefinder/internal/venue"
)

func BenchmarkBudgetProximity(b *testing.B) {
	tiers := DefaultCalibration().BudgetTiers
	price, budget := 42.0, 50.0
	for i := 0; i < b.N; i++ {
		BudgetProximity(&price, &budget, tiers, -1)
	}
}

func BenchmarkHomeDistance(b *testing.B) {
	cal := DefaultCalibration()
	home := &geo.Coordinate{Lat: -15.7939, Lng: -47.8828}
	loc := &geo.Coordinate{Lat: -15.80, Lng: -47.89}
	maxKm := 5.0
	for i := 0; i < b.N; i++ {
		HomeDistance(home, &maxKm, loc, cal)
	}
}

func BenchmarkScore(b *testing.B) {
	s := NewScorer(nil)
	uc := cafeLover()
	v := &venue.Venue{
		Category:   "Cafeteria",
		Price:      f(45),
		Location:   &geo.Coordinate{Lat: -15.80, Lng: -47.89},
		Attributes: []string{"Wi-Fi", "Pet Friendly", "Área ao ar livre"},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Score(v, uc)
	}
}
