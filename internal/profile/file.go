package profile

import (
	"fmt"
	"io"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/onnwee/venuefinder/internal/geo"
)

// fileProfile is the YAML layout read by venuectl. Preferences go through
// NewAttributeWeights so weights get the same defaults as stored ones.
type fileProfile struct {
	UserID             string          `yaml:"user_id"`
	FavoriteCategories []string        `yaml:"favorite_categories"`
	BudgetLevel        *float64        `yaml:"budget_level"`
	Home               *geo.Coordinate `yaml:"home"`
	MaxDistanceKm      *float64        `yaml:"max_distance_km"`
	Preferences        []Preference    `yaml:"preferences"`
}

// Decode parses a YAML user context. An empty document yields an empty,
// non-nil context.
func Decode(r io.Reader) (*UserContext, error) {
	var fp fileProfile
	if err := yaml.NewDecoder(r).Decode(&fp); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return fp.userContext(), nil
}

func (fp fileProfile) userContext() *UserContext {
	uc := &UserContext{
		UserID:             fp.UserID,
		FavoriteCategories: fp.FavoriteCategories,
		BudgetLevel:        fp.BudgetLevel,
		Home:               fp.Home,
		MaxDistanceKm:      fp.MaxDistanceKm,
	}
	if len(fp.Preferences) > 0 {
		uc.AttributeWeights = NewAttributeWeights(fp.Preferences)
	}
	return uc
}

// LoadFile reads a YAML user context from path.
func LoadFile(path string) (*UserContext, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open profile %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// seedFile lists the profiles loaded into the in-memory repository when the
// server runs without a database.
type seedFile struct {
	Profiles []fileProfile `yaml:"profiles"`
}

// DecodeSeed parses a YAML list of profiles into a repository. Every profile
// needs a user_id.
func DecodeSeed(r io.Reader) (*InMemoryRepository, error) {
	var sf seedFile
	if err := yaml.NewDecoder(r).Decode(&sf); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	repo := NewInMemoryRepository()
	for i, fp := range sf.Profiles {
		if fp.UserID == "" {
			return nil, fmt.Errorf("decode profiles: profile %d has no user_id", i)
		}
		repo.Put(fp.UserID, fp.userContext())
	}
	return repo, nil
}

// LoadSeedFile reads a YAML profile list from path.
func LoadSeedFile(path string) (*InMemoryRepository, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open profiles %s: %w", path, err)
	}
	defer f.Close()
	return DecodeSeed(f)
}
