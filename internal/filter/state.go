// Package filter holds the user's filter selection and the predicates that
// decide which venues survive it.
package filter

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/onnwee/venuefinder/internal/textnorm"
)

// CategoryAll disables the category predicate.
const CategoryAll = "all"

// legacyCategoryAll is the sentinel older clients send for CategoryAll.
const legacyCategoryAll = "todos"

// DefaultTolerance is used when a price range is given without a tolerance.
const DefaultTolerance = 10.0

// ErrInvalidPriceRange is returned for price ranges with a negative or
// non-finite center or tolerance.
var ErrInvalidPriceRange = errors.New("invalid price range")

// PriceRange accepts prices in [Center-Tolerance, Center+Tolerance].
type PriceRange struct {
	Center    float64 `json:"center" yaml:"center"`
	Tolerance float64 `json:"tolerance" yaml:"tolerance"`
}

// NewPriceRange builds a range from optional inputs. A nil center means no
// price filter and returns (nil, nil). A nil tolerance defaults to
// DefaultTolerance.
func NewPriceRange(center, tolerance *float64) (*PriceRange, error) {
	if center == nil {
		return nil, nil
	}
	tol := DefaultTolerance
	if tolerance != nil {
		tol = *tolerance
	}
	pr := &PriceRange{Center: *center, Tolerance: tol}
	if err := pr.Validate(); err != nil {
		return nil, err
	}
	return pr, nil
}

// Validate reports whether both bounds are finite and non-negative.
func (p PriceRange) Validate() error {
	if !finiteNonNegative(p.Center) {
		return fmt.Errorf("%w: center %v must be a finite number >= 0", ErrInvalidPriceRange, p.Center)
	}
	if !finiteNonNegative(p.Tolerance) {
		return fmt.Errorf("%w: tolerance %v must be a finite number >= 0", ErrInvalidPriceRange, p.Tolerance)
	}
	return nil
}

// Bounds returns the inclusive limits of the range.
func (p PriceRange) Bounds() (lo, hi float64) {
	return p.Center - p.Tolerance, p.Center + p.Tolerance
}

// Contains reports whether price lies within the inclusive bounds. NaN never
// matches.
func (p PriceRange) Contains(price float64) bool {
	lo, hi := p.Bounds()
	return price >= lo && price <= hi
}

func finiteNonNegative(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f >= 0
}

// State is one immutable filter selection. The zero value matches every
// venue except that its empty Category must be read as CategoryAll; use
// NewState for a canonical starting point.
type State struct {
	Text               string      `json:"text,omitempty" yaml:"text"`
	Category           string      `json:"category" yaml:"category"`
	Price              *PriceRange `json:"price,omitempty" yaml:"price"`
	RequiredAttributes []string    `json:"required_attributes,omitempty" yaml:"required_attributes"`
}

// NewState returns the empty selection.
func NewState() State {
	return State{Category: CategoryAll}
}

// WithText returns a copy with the free-text query replaced.
func (s State) WithText(q string) State {
	out := s.clone()
	out.Text = q
	return out
}

// WithCategory returns a copy selecting the canonical form of raw. Empty,
// "all" and "todos" select every category.
func (s State) WithCategory(raw string) State {
	out := s.clone()
	out.Category = CanonicalCategory(raw)
	return out
}

// WithPrice returns a copy with the price range replaced. nil clears it.
func (s State) WithPrice(pr *PriceRange) State {
	out := s.clone()
	if pr != nil {
		p := *pr
		out.Price = &p
	} else {
		out.Price = nil
	}
	return out
}

// WithRequiredAttributes returns a copy requiring the given attributes.
// Labels are slugified, empty slugs dropped and duplicates removed.
func (s State) WithRequiredAttributes(labels ...string) State {
	out := s.clone()
	out.RequiredAttributes = canonicalSlugs(labels)
	return out
}

// ToggleAttribute returns a copy with label added to the required set, or
// removed if it was already required.
func (s State) ToggleAttribute(label string) State {
	slug := textnorm.SlugifyAttribute(label)
	if slug == "" {
		return s.clone()
	}
	out := s.clone()
	for i, existing := range out.RequiredAttributes {
		if existing == slug {
			out.RequiredAttributes = append(out.RequiredAttributes[:i:i], out.RequiredAttributes[i+1:]...)
			return out
		}
	}
	out.RequiredAttributes = append(out.RequiredAttributes, slug)
	return out
}

// Validate checks the price range. Categories are never rejected: an
// unknown category simply matches nothing.
func (s State) Validate() error {
	if s.Price != nil {
		return s.Price.Validate()
	}
	return nil
}

// Transition applies a filter-change event. If next is invalid the previous
// state is kept and the validation error returned.
func Transition(prev, next State) (State, error) {
	if err := next.Validate(); err != nil {
		return prev, err
	}
	return next, nil
}

// CanonicalCategory maps a requested category to CategoryAll or to its
// normalized form.
func CanonicalCategory(raw string) string {
	c := strings.ToLower(strings.TrimSpace(raw))
	if c == "" || c == CategoryAll || c == legacyCategoryAll {
		return CategoryAll
	}
	return textnorm.NormalizeCategory(c)
}

func (s State) clone() State {
	out := s
	if s.Price != nil {
		p := *s.Price
		out.Price = &p
	}
	if s.RequiredAttributes != nil {
		out.RequiredAttributes = append([]string(nil), s.RequiredAttributes...)
	}
	return out
}

func canonicalSlugs(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		slug := textnorm.SlugifyAttribute(l)
		if slug == "" {
			continue
		}
		if _, dup := seen[slug]; dup {
			continue
		}
		seen[slug] = struct{}{}
		out = append(out, slug)
	}
	return out
}
