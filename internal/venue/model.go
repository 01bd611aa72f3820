// Package venue provides the venue model and the catalog repositories that
// supply venues to the ranking pipeline.
package venue

import (
	"github.com/onnwee/venuefinder/internal/geo"
	"github.com/onnwee/venuefinder/internal/textnorm"
)

// DefaultCategory is assigned to venues stored without a category.
const DefaultCategory = "outro"

// AttributeTag is a raw attribute label plus its canonical slug.
type AttributeTag = textnorm.AttributeTag

// Venue is a place subject to filtering and ranking.
//
// Location, Rating and Price are optional. Score is a cache owned by the
// ranking pipeline: it is only meaningful for the user context it was last
// computed with and must be recomputed before use.
type Venue struct {
	ID         string          `json:"id" yaml:"id"`
	Slug       string          `json:"slug,omitempty" yaml:"slug"`
	Name       string          `json:"name" yaml:"name"`
	Category   string          `json:"category" yaml:"category"`
	Address    string          `json:"address" yaml:"address"`
	Location   *geo.Coordinate `json:"location,omitempty" yaml:"location"`
	Rating     *float64        `json:"rating,omitempty" yaml:"rating"`
	Price      *float64        `json:"price,omitempty" yaml:"price"`
	Attributes []string        `json:"attributes" yaml:"attributes"`
	Score      float64         `json:"score" yaml:"-"`
}

// NormalizedCategory returns the canonical form of the venue category.
func (v *Venue) NormalizedCategory() string {
	return textnorm.NormalizeCategory(v.Category)
}

// AttributeSlugs returns the slugs of the venue attributes in label order.
func (v *Venue) AttributeSlugs() []string {
	return textnorm.SlugifyAll(v.Attributes)
}

// AttributeTags pairs every attribute label with its slug.
func (v *Venue) AttributeTags() []AttributeTag {
	tags := make([]AttributeTag, 0, len(v.Attributes))
	for _, a := range v.Attributes {
		tags = append(tags, textnorm.NewAttributeTag(a))
	}
	return tags
}

// Clone returns a deep copy so callers can mutate Score without touching the
// original record.
func (v Venue) Clone() Venue {
	out := v
	if v.Location != nil {
		loc := *v.Location
		out.Location = &loc
	}
	if v.Rating != nil {
		r := *v.Rating
		out.Rating = &r
	}
	if v.Price != nil {
		p := *v.Price
		out.Price = &p
	}
	if v.Attributes != nil {
		out.Attributes = append([]string(nil), v.Attributes...)
	}
	return out
}

// CloneAll deep-copies a catalog, preserving order.
func CloneAll(venues []Venue) []Venue {
	out := make([]Venue, len(venues))
	for i := range venues {
		out[i] = venues[i].Clone()
	}
	return out
}

// Feature is an entry of the attribute catalog.
type Feature struct {
	ID    string `json:"id" yaml:"id"`
	Slug  string `json:"slug" yaml:"slug"`
	Label string `json:"label" yaml:"label"`
}
