package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/onnwee/venuefinder/internal/geo"
	"github.com/onnwee/venuefinder/internal/tracing"
)

const getProfileQuery = `
	SELECT budget_level, home_lat, home_lng, max_distance_km, fav_categories
	FROM profiles
	WHERE id = $1
`

// Preferences whose feature no longer exists are dropped by the join.
const getPreferencesQuery = `
	SELECT f.slug, p.weight
	FROM user_feature_prefs p
	JOIN features f ON f.id = p.feature_id
	WHERE p.user_id = $1
	ORDER BY f.slug
`

// PostgresRepository implements Repository on the profiles and
// user_feature_prefs tables.
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

// Get loads the profile row and attribute preferences for userID. A user
// with preferences but no profile row still gets a context.
func (r *PostgresRepository) Get(ctx context.Context, userID string) (_ *UserContext, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "profiles", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	var (
		budget, homeLat, homeLng, maxDist sql.NullFloat64
		favorites                         pq.StringArray
	)
	found := true
	err = r.db.QueryRowContext(ctx, getProfileQuery, userID).
		Scan(&budget, &homeLat, &homeLng, &maxDist, &favorites)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		found = false
		err = nil
	case err != nil:
		return nil, fmt.Errorf("failed to get profile %q: %w", userID, err)
	}

	prefs, err := r.preferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !found && len(prefs) == 0 {
		return nil, ErrProfileNotFound
	}

	uc := &UserContext{
		UserID:             userID,
		FavoriteCategories: []string(favorites),
		BudgetLevel:        nullable(budget),
		MaxDistanceKm:      nullable(maxDist),
	}
	if homeLat.Valid && homeLng.Valid {
		uc.Home = geo.NewCoordinate(&homeLat.Float64, &homeLng.Float64)
	}
	if len(prefs) > 0 {
		uc.AttributeWeights = NewAttributeWeights(prefs)
	}

	r.logger.DebugContext(ctx, "loaded user context",
		slog.String("user_id", userID),
		slog.Bool("has_profile", found),
		slog.Int("preferences", len(prefs)),
	)
	return uc, nil
}

func (r *PostgresRepository) preferences(ctx context.Context, userID string) ([]Preference, error) {
	rows, err := r.db.QueryContext(ctx, getPreferencesQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query preferences: %w", err)
	}
	defer rows.Close()

	var prefs []Preference
	for rows.Next() {
		var (
			p      Preference
			weight sql.NullFloat64
		)
		if err := rows.Scan(&p.Slug, &weight); err != nil {
			return nil, fmt.Errorf("failed to scan preference: %w", err)
		}
		p.Weight = nullable(weight)
		prefs = append(prefs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate preferences: %w", err)
	}
	return prefs, nil
}

func nullable(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
