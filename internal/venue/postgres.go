package venue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/onnwee/venuefinder/internal/geo"
	"github.com/onnwee/venuefinder/internal/tracing"
)

const listActiveQuery = `
	SELECT id, COALESCE(slug, ''), name, COALESCE(NULLIF(category, ''), $1), COALESCE(address, ''),
	       lat, lng, avg_price, rating
	FROM venues
	WHERE is_active IS DISTINCT FROM false
	ORDER BY name ASC, id ASC
`

const venueFeaturesQuery = `
	SELECT vf.venue_id, f.slug
	FROM venue_features vf
	JOIN features f ON f.id = vf.feature_id
	ORDER BY vf.venue_id, f.slug
`

const getBySlugQuery = `
	SELECT id, COALESCE(slug, ''), name, COALESCE(NULLIF(category, ''), $2), COALESCE(address, ''),
	       lat, lng, avg_price, rating
	FROM venues
	WHERE slug = $1 AND is_active IS DISTINCT FROM false
`

const featuresForVenueQuery = `
	SELECT f.slug
	FROM venue_features vf
	JOIN features f ON f.id = vf.feature_id
	WHERE vf.venue_id = $1
	ORDER BY f.slug
`

const listFeaturesQuery = `
	SELECT id, slug, COALESCE(label, slug)
	FROM features
	ORDER BY label, id
`

// PostgresRepository implements Repository on the venues, features and
// venue_features tables.
type PostgresRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *sql.DB, logger *slog.Logger) *PostgresRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRepository{db: db, logger: logger}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVenue(row rowScanner) (Venue, error) {
	var (
		v             Venue
		lat, lng      sql.NullFloat64
		price, rating sql.NullFloat64
	)
	if err := row.Scan(&v.ID, &v.Slug, &v.Name, &v.Category, &v.Address, &lat, &lng, &price, &rating); err != nil {
		return Venue{}, err
	}
	if lat.Valid && lng.Valid {
		v.Location = geo.NewCoordinate(&lat.Float64, &lng.Float64)
	}
	if price.Valid {
		p := price.Float64
		v.Price = &p
	}
	if rating.Valid {
		r := rating.Float64
		v.Rating = &r
	}
	v.Attributes = []string{}
	return v, nil
}

// ListActive loads the catalog ordered by name with attribute slugs attached.
func (r *PostgresRepository) ListActive(ctx context.Context) (venues []Venue, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "venues", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	rows, err := r.db.QueryContext(ctx, listActiveQuery, DefaultCategory)
	if err != nil {
		return nil, fmt.Errorf("failed to query venues: %w", err)
	}
	defer rows.Close()

	index := make(map[string]int)
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan venue: %w", err)
		}
		index[v.ID] = len(venues)
		venues = append(venues, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate venues: %w", err)
	}

	frows, err := r.db.QueryContext(ctx, venueFeaturesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query venue features: %w", err)
	}
	defer frows.Close()

	for frows.Next() {
		var venueID, slug string
		if err := frows.Scan(&venueID, &slug); err != nil {
			return nil, fmt.Errorf("failed to scan venue feature: %w", err)
		}
		i, ok := index[venueID]
		if !ok {
			continue
		}
		venues[i].Attributes = append(venues[i].Attributes, slug)
	}
	if err := frows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate venue features: %w", err)
	}

	r.logger.DebugContext(ctx, "loaded venue catalog", slog.Int("venues", len(venues)))
	if venues == nil {
		venues = []Venue{}
	}
	return venues, nil
}

// GetBySlug loads one active venue with its attribute slugs.
func (r *PostgresRepository) GetBySlug(ctx context.Context, slug string) (_ *Venue, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "venues", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	v, err := scanVenue(r.db.QueryRowContext(ctx, getBySlugQuery, slug, DefaultCategory))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVenueNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get venue %q: %w", slug, err)
	}

	rows, err := r.db.QueryContext(ctx, featuresForVenueQuery, v.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query venue features: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan venue feature: %w", err)
		}
		v.Attributes = append(v.Attributes, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate venue features: %w", err)
	}
	return &v, nil
}

// ListFeatures returns the attribute catalog ordered by label.
func (r *PostgresRepository) ListFeatures(ctx context.Context) (features []Feature, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "features", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	rows, err := r.db.QueryContext(ctx, listFeaturesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query features: %w", err)
	}
	defer rows.Close()

	features = []Feature{}
	for rows.Next() {
		var f Feature
		if err := rows.Scan(&f.ID, &f.Slug, &f.Label); err != nil {
			return nil, fmt.Errorf("failed to scan feature: %w", err)
		}
		features = append(features, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate features: %w", err)
	}
	return features, nil
}
