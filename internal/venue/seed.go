package venue

import (
	"fmt"
	"io"
	"os"

	"go.yaml.in/yaml/v3"
)

// Seed is the on-disk representation of a catalog. It seeds the in-memory
// repository when no database is configured and is the catalog format read by
// venuectl.
type Seed struct {
	Features []Feature `yaml:"features"`
	Venues   []Venue   `yaml:"venues"`
}

// DecodeSeed parses a YAML catalog.
func DecodeSeed(r io.Reader) (*Seed, error) {
	var s Seed
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&s); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	for i, v := range s.Venues {
		if v.ID == "" {
			return nil, fmt.Errorf("decode catalog: venue %d (%q) has no id", i, v.Name)
		}
	}
	return &s, nil
}

// LoadSeedFile reads a YAML catalog from path.
func LoadSeedFile(path string) (*Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer f.Close()
	return DecodeSeed(f)
}

// NewInMemoryRepositoryFromSeed builds a repository holding every seeded
// venue and feature.
func NewInMemoryRepositoryFromSeed(s *Seed) *InMemoryRepository {
	repo := NewInMemoryRepository()
	if s == nil {
		return repo
	}
	for _, f := range s.Features {
		repo.UpsertFeature(f)
	}
	for _, v := range s.Venues {
		repo.Upsert(v)
	}
	return repo
}
