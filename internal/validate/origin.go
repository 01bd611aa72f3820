package validate

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Origin validation errors
var (
	ErrInvalidOrigin    = errors.New("invalid origin")
	ErrDisallowedScheme = errors.New("origin scheme not allowed")
)

// MaxOriginLength bounds a single configured origin.
const MaxOriginLength = 255

// Origin validates a CORS origin of the form scheme://host[:port]. Paths,
// queries, fragments, credentials and wildcards are rejected. Plain http is
// only accepted when allowInsecure is set.
func Origin(origin string, allowInsecure bool) (string, error) {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		return "", ErrEmpty
	}
	if len(origin) > MaxOriginLength {
		return "", fmt.Errorf("%w: origin exceeds %d characters", ErrStringTooLong, MaxOriginLength)
	}
	if strings.Contains(origin, "*") {
		return "", fmt.Errorf("%w: wildcards are not supported", ErrInvalidOrigin)
	}

	u, err := url.Parse(origin)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidOrigin, err)
	}

	switch u.Scheme {
	case "https":
	case "http":
		if !allowInsecure {
			return "", fmt.Errorf("%w: %q requires https", ErrDisallowedScheme, origin)
		}
	default:
		return "", fmt.Errorf("%w: got %q", ErrDisallowedScheme, u.Scheme)
	}

	if u.Hostname() == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidOrigin)
	}
	if u.User != nil || (u.Path != "" && u.Path != "/") || u.RawQuery != "" || u.Fragment != "" {
		return "", fmt.Errorf("%w: %q must not have a path, query or credentials", ErrInvalidOrigin, origin)
	}

	return strings.TrimSuffix(origin, "/"), nil
}
