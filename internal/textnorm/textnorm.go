// Package textnorm canonicalizes free-form venue text: attribute labels into
// slugs and raw category strings into the fixed category set.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Canonical venue categories.
const (
	CategoryCafe   = "cafe"
	CategoryBar    = "bar"
	CategoryParque = "parque"
	CategoryMuseu  = "museu"
)

// categoryPrefixes is evaluated in order; the first matching prefix wins.
var categoryPrefixes = []struct {
	prefix    string
	canonical string
}{
	{"caf", CategoryCafe},
	{"bar", CategoryBar},
	{"parq", CategoryParque},
	{"mus", CategoryMuseu},
}

// legacySlugs remaps slugs produced by older attribute labels.
var legacySlugs = map[string]string{
	"area_ao_ar_livre": "ao_ar_livre",
}

// AttributeTag is a raw attribute label together with its slug. Two tags
// describe the same attribute iff their slugs are equal.
type AttributeTag struct {
	Label string `json:"label" yaml:"label"`
	Slug  string `json:"slug" yaml:"slug"`
}

// NewAttributeTag derives the slug for label.
func NewAttributeTag(label string) AttributeTag {
	return AttributeTag{Label: label, Slug: SlugifyAttribute(label)}
}

// stripMarks removes combining marks after canonical decomposition.
func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// SlugifyAttribute turns a label such as "Área ao ar livre" into
// "ao_ar_livre". The result only contains [a-z0-9_] and the function is
// idempotent.
func SlugifyAttribute(label string) string {
	if label == "" {
		return ""
	}

	s := strings.ToLower(stripMarks(label))

	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte('_')
			}
			inSpace = true
			continue
		}
		inSpace = false
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}

	slug := b.String()
	if mapped, ok := legacySlugs[slug]; ok {
		return mapped
	}
	return slug
}

// SlugifyAll slugifies every label, skipping labels whose slug is empty.
func SlugifyAll(labels []string) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if s := SlugifyAttribute(l); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// NormalizeCategory maps plural and accented variants ("Cafés", "Bares")
// onto the canonical category set. Unknown categories are returned
// lowercased and trimmed.
func NormalizeCategory(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	for _, p := range categoryPrefixes {
		if strings.HasPrefix(s, p.prefix) {
			return p.canonical
		}
	}
	return s
}
