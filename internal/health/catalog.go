package health

import (
	"context"
	"errors"
	"fmt"

	"github.com/onnwee/venuefinder/internal/venue"
)

// ErrCatalogTooSmall is returned when fewer active venues are available than
// the checker requires.
var ErrCatalogTooSmall = errors.New("catalog below minimum size")

// CatalogChecker reports whether the venue catalog can be loaded.
type CatalogChecker struct {
	repo      venue.Repository
	minVenues int
}

// NewCatalogChecker creates a checker over repo. With minVenues > 0 the
// check also fails while the catalog holds fewer active venues.
func NewCatalogChecker(repo venue.Repository, minVenues int) *CatalogChecker {
	return &CatalogChecker{repo: repo, minVenues: minVenues}
}

// HealthCheck loads the active catalog.
func (c *CatalogChecker) HealthCheck(ctx context.Context) error {
	venues, err := c.repo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	if len(venues) < c.minVenues {
		return fmt.Errorf("%w: have %d, need %d", ErrCatalogTooSmall, len(venues), c.minVenues)
	}
	return nil
}
