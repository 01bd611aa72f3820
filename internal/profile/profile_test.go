package profile

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/onnwee/venuefinder/internal/geo"
)

func f(v float64) *float64 { return &v }

func TestNewAttributeWeights(t *testing.T) {
	prefs := []Preference{
		{Slug: "wifi", Weight: f(2.5)},
		{Slug: "Pet Friendly"},
		{Slug: "happy_hour", Weight: f(0)},
		{Slug: "acessivel", Weight: f(-3)},
		{Slug: "musica_ao_vivo", Weight: f(math.NaN())},
		{Slug: "area_ao_ar_livre", Weight: f(4)},
		{Slug: "!!", Weight: f(9)},
	}
	want := map[string]float64{
		"wifi":           2.5,
		"pet_friendly":   1,
		"happy_hour":     1,
		"acessivel":      1,
		"musica_ao_vivo": 1,
		"ao_ar_livre":    4,
	}
	if got := NewAttributeWeights(prefs); !reflect.DeepEqual(got, want) {
		t.Errorf("NewAttributeWeights = %v, want %v", got, want)
	}

	if got := NewAttributeWeights(nil); got == nil || len(got) != 0 {
		t.Errorf("NewAttributeWeights(nil) = %#v", got)
	}
}

func TestUserContext_Clone(t *testing.T) {
	var nilCtx *UserContext
	if nilCtx.Clone() != nil {
		t.Error("Clone of nil should be nil")
	}

	uc := &UserContext{
		UserID:             "u1",
		FavoriteCategories: []string{"Cafe"},
		BudgetLevel:        f(50),
		Home:               &geo.Coordinate{Lat: 1, Lng: 2},
		MaxDistanceKm:      f(5),
		AttributeWeights:   map[string]float64{"wifi": 2},
	}
	c := uc.Clone()
	if !reflect.DeepEqual(uc, c) {
		t.Fatalf("clone differs")
	}

	c.FavoriteCategories[0] = "bar"
	*c.BudgetLevel = 1
	c.Home.Lat = 9
	*c.MaxDistanceKm = 9
	c.AttributeWeights["wifi"] = 9

	if uc.FavoriteCategories[0] != "Cafe" || *uc.BudgetLevel != 50 || uc.Home.Lat != 1 ||
		*uc.MaxDistanceKm != 5 || uc.AttributeWeights["wifi"] != 2 {
		t.Errorf("clone shares memory with original: %+v", uc)
	}
}

func TestUserContext_NormalizedFavorites(t *testing.T) {
	uc := &UserContext{FavoriteCategories: []string{"Cafeteria", " BAR ", "", "Teatro"}}
	want := []string{"cafe", "bar", "teatro"}
	if got := uc.NormalizedFavorites(); !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizedFavorites = %v, want %v", got, want)
	}

	var nilCtx *UserContext
	if nilCtx.NormalizedFavorites() != nil {
		t.Error("nil context should have no favorites")
	}
}

func TestInMemoryRepository(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	if _, err := repo.Get(ctx, "ghost"); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("error = %v, want ErrProfileNotFound", err)
	}

	in := &UserContext{FavoriteCategories: []string{"cafe"}, BudgetLevel: f(30)}
	repo.Put("u1", in)
	in.FavoriteCategories[0] = "bar"

	got, err := repo.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.UserID != "u1" || got.FavoriteCategories[0] != "cafe" {
		t.Errorf("unexpected context %+v", got)
	}

	got.FavoriteCategories[0] = "museu"
	again, _ := repo.Get(ctx, "u1")
	if again.FavoriteCategories[0] != "cafe" {
		t.Error("Get returned shared memory")
	}

	repo.Put("u2", nil)
	empty, err := repo.Get(ctx, "u2")
	if err != nil || empty == nil || empty.UserID != "u2" {
		t.Errorf("Put(nil) stored %+v, %v", empty, err)
	}
}

const sampleProfile = `
user_id: ana
favorite_categories: [Cafe, Museu]
budget_level: 50
home: {lat: -15.79, lng: -47.88}
max_distance_km: 5
preferences:
  - slug: wifi
    weight: 2
  - slug: Pet Friendly
`

func TestDecode(t *testing.T) {
	uc, err := Decode(strings.NewReader(sampleProfile))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if uc.UserID != "ana" || len(uc.FavoriteCategories) != 2 {
		t.Errorf("unexpected context %+v", uc)
	}
	if uc.BudgetLevel == nil || *uc.BudgetLevel != 50 {
		t.Errorf("budget = %v", uc.BudgetLevel)
	}
	if uc.Home == nil || uc.Home.Lat != -15.79 {
		t.Errorf("home = %v", uc.Home)
	}
	want := map[string]float64{"wifi": 2, "pet_friendly": 1}
	if !reflect.DeepEqual(uc.AttributeWeights, want) {
		t.Errorf("weights = %v, want %v", uc.AttributeWeights, want)
	}
}

func TestDecode_EmptyAndInvalid(t *testing.T) {
	uc, err := Decode(strings.NewReader(""))
	if err != nil || uc == nil {
		t.Fatalf("Decode(empty) = %+v, %v", uc, err)
	}
	if uc.AttributeWeights != nil || uc.BudgetLevel != nil {
		t.Errorf("expected empty context, got %+v", uc)
	}

	if _, err := Decode(strings.NewReader("budget_level: [")); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user.yaml")
	if err := os.WriteFile(path, []byte(sampleProfile), 0o600); err != nil {
		t.Fatal(err)
	}
	uc, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if uc.MaxDistanceKm == nil || *uc.MaxDistanceKm != 5 {
		t.Errorf("max distance = %v", uc.MaxDistanceKm)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDecodeSeed(t *testing.T) {
	seed := `
profiles:
  - user_id: ana
    favorite_categories: [cafe]
    budget_level: 30
  - user_id: bia
    preferences:
      - slug: Wi Fi
        weight: -1
`
	repo, err := DecodeSeed(strings.NewReader(seed))
	if err != nil {
		t.Fatalf("DecodeSeed: %v", err)
	}

	ana, err := repo.Get(context.Background(), "ana")
	if err != nil {
		t.Fatalf("Get(ana): %v", err)
	}
	if ana.UserID != "ana" || ana.BudgetLevel == nil || *ana.BudgetLevel != 30 {
		t.Errorf("unexpected ana %+v", ana)
	}

	bia, err := repo.Get(context.Background(), "bia")
	if err != nil {
		t.Fatalf("Get(bia): %v", err)
	}
	if !reflect.DeepEqual(bia.AttributeWeights, map[string]float64{"wi_fi": DefaultWeight}) {
		t.Errorf("bia weights = %v", bia.AttributeWeights)
	}

	if _, err := repo.Get(context.Background(), "carla"); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestDecodeSeed_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing user id", "profiles:\n  - budget_level: 10\n"},
		{"malformed", "profiles: ["},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeSeed(strings.NewReader(tt.doc)); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := LoadSeedFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadSeedFile_DevelopmentProfiles(t *testing.T) {
	repo, err := LoadSeedFile(filepath.Join("..", "..", "configs", "profiles.seed.yaml"))
	if err != nil {
		t.Fatalf("LoadSeedFile: %v", err)
	}
	uc, err := repo.Get(context.Background(), "demo-cafe")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if uc.Home == nil || uc.MaxDistanceKm == nil {
		t.Error("expected home and max distance")
	}
	if _, ok := uc.AttributeWeights["wi_fi"]; !ok {
		t.Errorf("expected wi_fi preference, got %v", uc.AttributeWeights)
	}
}
