package ranking

import (
	"math"
	"testing"

	"github.com/onnwee/venuefinder/internal/geo"
)

func f(v float64) *float64 { return &v }

const epsilon = 1e-6

func TestCategoryAffinity(t *testing.T) {
	tests := []struct {
		name      string
		category  string
		favorites []string
		want      float64
	}{
		{"match", "cafe", []string{"bar", "cafe"}, 3},
		{"no match", "museu", []string{"bar", "cafe"}, 0},
		{"no favorites", "cafe", nil, 0},
		{"empty category", "", []string{""}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CategoryAffinity(tt.category, tt.favorites, 3); got != tt.want {
				t.Errorf("CategoryAffinity = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBudgetProximity(t *testing.T) {
	tiers := DefaultCalibration().BudgetTiers
	tests := []struct {
		name   string
		price  *float64
		budget *float64
		want   float64
	}{
		{"exact", f(50), f(50), 3},
		{"tier 1 boundary", f(60), f(50), 3},
		{"tier 2", f(60.5), f(50), 2},
		{"tier 2 boundary below", f(25), f(50), 2},
		{"tier 3 boundary", f(100), f(50), 1},
		{"miss", f(100.01), f(50), -1},
		{"no price", nil, f(50), 0},
		{"no budget", f(50), nil, 0},
		{"NaN price", f(math.NaN()), f(50), 0},
		{"infinite budget", f(10), f(math.Inf(1)), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BudgetProximity(tt.price, tt.budget, tiers, -1); got != tt.want {
				t.Errorf("BudgetProximity = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBudgetProximity_Monotonic(t *testing.T) {
	tiers := DefaultCalibration().BudgetTiers
	budget := 40.0
	prev := math.Inf(1)
	for diff := 0.0; diff <= 120; diff += 0.5 {
		got := BudgetProximity(f(budget+diff), &budget, tiers, -1)
		if got > prev {
			t.Fatalf("budget score increased from %v to %v at diff %v", prev, got, diff)
		}
		prev = got
	}
}

func TestAttributePreference(t *testing.T) {
	weights := map[string]float64{"wifi": 2, "pet_friendly": 1, "broken": math.NaN()}
	tests := []struct {
		name  string
		slugs []string
		want  float64
	}{
		{"single", []string{"wifi"}, 2},
		{"sum", []string{"wifi", "pet_friendly", "happy_hour"}, 3},
		{"repeated counts twice", []string{"wifi", "wifi"}, 4},
		{"non-finite ignored", []string{"broken", "pet_friendly"}, 1},
		{"none", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AttributePreference(tt.slugs, weights); got != tt.want {
				t.Errorf("AttributePreference = %v, want %v", got, tt.want)
			}
		})
	}
	if got := AttributePreference([]string{"wifi"}, nil); got != 0 {
		t.Errorf("nil weights gave %v", got)
	}
}

func TestHomeDistance(t *testing.T) {
	cal := DefaultCalibration()
	home := &geo.Coordinate{Lat: -15.7939, Lng: -47.8828}
	// 2.5 km due north along the meridian.
	half := &geo.Coordinate{Lat: home.Lat + 2.5/(geo.EarthRadiusKm*math.Pi/180), Lng: home.Lng}
	far := &geo.Coordinate{Lat: -23.5505, Lng: -46.6333}

	tests := []struct {
		name   string
		home   *geo.Coordinate
		maxKm  *float64
		loc    *geo.Coordinate
		want   float64
		wantOK bool
	}{
		{"at home", home, f(5), home, 2, true},
		{"halfway", home, f(5), half, 1.5, true},
		{"beyond limit", home, f(5), far, -999, true},
		{"no home", nil, f(5), home, 0, false},
		{"no max", home, nil, home, 0, false},
		{"zero max", home, f(0), home, 0, false},
		{"NaN max", home, f(math.NaN()), home, 0, false},
		{"no location", home, f(5), nil, 0, false},
		{"invalid location", home, f(5), &geo.Coordinate{Lat: 91, Lng: 0}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, ok := HomeDistance(tt.home, tt.maxKm, tt.loc, cal)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if math.Abs(got-tt.want) > epsilon {
				t.Errorf("HomeDistance = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHomeDistance_BonusRange(t *testing.T) {
	cal := DefaultCalibration()
	home := &geo.Coordinate{Lat: 0, Lng: 0}
	for km := 0.0; km < 10; km += 0.25 {
		loc := &geo.Coordinate{Lat: km / (geo.EarthRadiusKm * math.Pi / 180), Lng: 0}
		got, _, ok := HomeDistance(home, f(10), loc, cal)
		if !ok {
			t.Fatalf("signal should apply at %v km", km)
		}
		if got < 1-epsilon || got > 2+epsilon {
			t.Errorf("bonus %v at %v km outside [1, 2]", got, km)
		}
	}
}
