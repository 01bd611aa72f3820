// Package validate provides input validation for user-supplied strings
// accepted by the venuefinder API.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// String validation errors
var (
	ErrStringTooShort    = errors.New("string is too short")
	ErrStringTooLong     = errors.New("string is too long")
	ErrInvalidCharacters = errors.New("string contains invalid characters")
	ErrEmpty             = errors.New("string is empty")
)

// StringConstraints defines validation constraints for a string.
type StringConstraints struct {
	MinLength      int            // Minimum length in runes (0 = no minimum)
	MaxLength      int            // Maximum length in runes (0 = no maximum)
	AllowedPattern *regexp.Regexp // Optional regex the whole string must match
	AllowEmpty     bool           // Whether empty strings are allowed
	TrimSpace      bool           // Whether to trim whitespace before validation
}

// String validates a string against the given constraints.
// Returns the validated (and optionally trimmed) string and an error if validation fails.
func String(s string, constraints StringConstraints) (string, error) {
	if constraints.TrimSpace {
		s = strings.TrimSpace(s)
	}

	if s == "" {
		if !constraints.AllowEmpty {
			return "", ErrEmpty
		}
		return s, nil
	}

	if !utf8.ValidString(s) {
		return "", fmt.Errorf("%w: not valid UTF-8", ErrInvalidCharacters)
	}

	// Get actual character count (not byte count)
	length := utf8.RuneCountInString(s)

	if constraints.MinLength > 0 && length < constraints.MinLength {
		return "", fmt.Errorf("%w: got %d chars, need at least %d", ErrStringTooShort, length, constraints.MinLength)
	}

	if constraints.MaxLength > 0 && length > constraints.MaxLength {
		return "", fmt.Errorf("%w: got %d chars, maximum is %d", ErrStringTooLong, length, constraints.MaxLength)
	}

	if constraints.AllowedPattern != nil && !constraints.AllowedPattern.MatchString(s) {
		return "", fmt.Errorf("%w: does not match required pattern", ErrInvalidCharacters)
	}

	return s, nil
}

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_\-]*$`)

// FeedbackName validates the author of a feedback entry:
// - Required, 1-100 characters
func FeedbackName(name string) (string, error) {
	return String(name, StringConstraints{
		MinLength: 1,
		MaxLength: 100,
		TrimSpace: true,
	})
}

// FeedbackMessage validates a feedback body:
// - Required, max 2000 characters
func FeedbackMessage(msg string) (string, error) {
	return String(msg, StringConstraints{
		MinLength: 1,
		MaxLength: 2000,
		TrimSpace: true,
	})
}

// SearchQuery validates the free-text venue query. Empty is allowed.
func SearchQuery(q string) (string, error) {
	return String(q, StringConstraints{
		MaxLength:  200,
		AllowEmpty: true,
		TrimSpace:  true,
	})
}

// Slug validates a venue slug: lowercase letters, digits, dash and
// underscore, at most 100 characters.
func Slug(slug string) (string, error) {
	return String(slug, StringConstraints{
		MinLength:      1,
		MaxLength:      100,
		AllowedPattern: slugPattern,
	})
}
