package filter

import (
	"strings"

	"github.com/onnwee/venuefinder/internal/textnorm"
	"github.com/onnwee/venuefinder/internal/venue"
)

// MatchText passes when the trimmed query is empty or a case-insensitive
// substring of the venue name, address or raw category.
func MatchText(v *venue.Venue, s State) bool {
	q := strings.ToLower(strings.TrimSpace(s.Text))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(v.Name), q) ||
		strings.Contains(strings.ToLower(v.Address), q) ||
		strings.Contains(strings.ToLower(v.Category), q)
}

// MatchCategory passes for CategoryAll or when the venue's normalized
// category equals the selection.
func MatchCategory(v *venue.Venue, s State) bool {
	if s.Category == "" || s.Category == CategoryAll || s.Category == legacyCategoryAll {
		return true
	}
	return v.NormalizedCategory() == s.Category
}

// MatchPrice passes when no range is set. Venues without a price fail an
// active range.
func MatchPrice(v *venue.Venue, s State) bool {
	if s.Price == nil {
		return true
	}
	if v.Price == nil {
		return false
	}
	return s.Price.Contains(*v.Price)
}

// MatchAttributes passes when every required attribute is among the venue's
// attributes. Both sides are compared by slug.
func MatchAttributes(v *venue.Venue, s State) bool {
	if len(s.RequiredAttributes) == 0 {
		return true
	}
	have := make(map[string]struct{}, len(v.Attributes))
	for _, slug := range v.AttributeSlugs() {
		have[slug] = struct{}{}
	}
	for _, req := range s.RequiredAttributes {
		if _, ok := have[textnorm.SlugifyAttribute(req)]; !ok {
			return false
		}
	}
	return true
}

// Predicate is a single filter criterion.
type Predicate func(*venue.Venue, State) bool

// predicates lists every criterion a venue must pass.
var predicates = []Predicate{MatchText, MatchCategory, MatchPrice, MatchAttributes}

// PassesAll reports whether v satisfies every predicate.
func PassesAll(v *venue.Venue, s State) bool {
	for _, p := range predicates {
		if !p(v, s) {
			return false
		}
	}
	return true
}

// Apply returns the venues of catalog that pass s, in catalog order. The
// result shares no memory with catalog and is never nil.
func Apply(catalog []venue.Venue, s State) []venue.Venue {
	out := make([]venue.Venue, 0, len(catalog))
	for i := range catalog {
		if PassesAll(&catalog[i], s) {
			out = append(out, catalog[i].Clone())
		}
	}
	return out
}
