// Package api provides the HTTP handlers of the venue API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/onnwee/venuefinder/internal/filter"
	"github.com/onnwee/venuefinder/internal/geo"
	"github.com/onnwee/venuefinder/internal/middleware"
	"github.com/onnwee/venuefinder/internal/pipeline"
	"github.com/onnwee/venuefinder/internal/profile"
	"github.com/onnwee/venuefinder/internal/ranking"
	"github.com/onnwee/venuefinder/internal/tracing"
	"github.com/onnwee/venuefinder/internal/validate"
	"github.com/onnwee/venuefinder/internal/venue"
)

// MaxRequiredFeatures caps the features query parameter.
const MaxRequiredFeatures = 20

// VenueHandlers holds dependencies for venue HTTP handlers.
type VenueHandlers struct {
	venues   venue.Repository
	profiles profile.Repository
	pipeline *pipeline.Pipeline
}

// NewVenueHandlers creates a new VenueHandlers instance. profiles may be nil,
// in which case every request is ranked anonymously.
func NewVenueHandlers(venues venue.Repository, profiles profile.Repository, p *pipeline.Pipeline) *VenueHandlers {
	return &VenueHandlers{
		venues:   venues,
		profiles: profiles,
		pipeline: p,
	}
}

// VenueItem is the API representation of a ranked venue.
type VenueItem struct {
	ID                 string               `json:"id"`
	Slug               string               `json:"slug"`
	Name               string               `json:"name"`
	Category           string               `json:"category"`
	NormalizedCategory string               `json:"normalized_category"`
	Address            string               `json:"address"`
	Rating             *float64             `json:"rating"`
	Price              *float64             `json:"price"`
	Attributes         []venue.AttributeTag `json:"attributes"`
	CoarseGeohash      string               `json:"coarse_geohash,omitempty"` // Never the exact location
	Score              float64              `json:"score"`
	Breakdown          *ranking.Breakdown   `json:"breakdown,omitempty"`
}

// VenueSearchResponse is the body of GET /venues.
type VenueSearchResponse struct {
	Recommended  []VenueItem `json:"recommended"`
	Others       []VenueItem `json:"others"`
	Personalized bool        `json:"personalized"`
	Count        int         `json:"count"`
}

// SearchVenues handles GET /venues - filters the active catalog and ranks it
// for the caller.
func (h *VenueHandlers) SearchVenues(w http.ResponseWriter, r *http.Request) {
	state, explain, errMsg := parseSearchParams(r)
	if errMsg != "" {
		WriteError(w, r, ErrCodeValidation, errMsg)
		return
	}

	ctx, endSpan := tracing.StartSpan(r.Context(), "venue.search")
	defer endSpan(nil)

	catalog, err := h.venues.ListActive(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load catalog", "error", err)
		WriteError(w, r, ErrCodeUnavailable, "Venue catalog unavailable")
		return
	}

	uc := h.userContext(ctx)
	result := h.pipeline.Rank(catalog, state, uc)
	tracing.SetRankAttributes(ctx, len(catalog), result.Count(), len(result.Recommended), result.Personalized)

	resp := VenueSearchResponse{
		Recommended:  h.toItems(result.Recommended, uc, explain),
		Others:       h.toItems(result.Others, uc, explain),
		Personalized: result.Personalized,
		Count:        result.Count(),
	}

	writeJSON(w, ctx, http.StatusOK, resp)
}

// GetVenue handles GET /venues/{slug}. The score is computed for the caller.
func (h *VenueHandlers) GetVenue(w http.ResponseWriter, r *http.Request) {
	slug, err := validate.Slug(r.PathValue("slug"))
	if err != nil {
		WriteError(w, r, ErrCodeValidation, "Invalid venue slug")
		return
	}

	explain, err := parseExplain(r.URL.Query().Get("explain"))
	if err != nil {
		WriteError(w, r, ErrCodeValidation, "explain must be a boolean")
		return
	}

	v, err := h.venues.GetBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, venue.ErrVenueNotFound) {
			WriteError(w, r, ErrCodeNotFound, "Venue not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to load venue", "slug", slug, "error", err)
		WriteError(w, r, ErrCodeUnavailable, "Venue catalog unavailable")
		return
	}

	uc := h.userContext(r.Context())
	scored := v.Clone()
	scored.Score = h.pipeline.Scorer().Score(&scored, uc)

	writeJSON(w, r.Context(), http.StatusOK, h.toItem(&scored, uc, explain))
}

// ListFeatures handles GET /features - returns the attribute catalog.
func (h *VenueHandlers) ListFeatures(w http.ResponseWriter, r *http.Request) {
	features, err := h.venues.ListFeatures(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to load features", "error", err)
		WriteError(w, r, ErrCodeUnavailable, "Feature catalog unavailable")
		return
	}
	if features == nil {
		features = []venue.Feature{}
	}

	writeJSON(w, r.Context(), http.StatusOK, features)
}

// userContext resolves the authenticated caller's preferences. Unknown users
// and profile lookup failures rank anonymously.
func (h *VenueHandlers) userContext(ctx context.Context) *profile.UserContext {
	userID := middleware.GetUserID(ctx)
	if userID == "" || h.profiles == nil {
		return nil
	}

	uc, err := h.profiles.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, profile.ErrProfileNotFound) {
			slog.WarnContext(ctx, "profile lookup failed, ranking anonymously", "user_id", userID, "error", err)
		}
		return nil
	}
	return uc
}

func (h *VenueHandlers) toItems(venues []venue.Venue, uc *profile.UserContext, explain bool) []VenueItem {
	items := make([]VenueItem, 0, len(venues))
	for i := range venues {
		items = append(items, h.toItem(&venues[i], uc, explain))
	}
	return items
}

func (h *VenueHandlers) toItem(v *venue.Venue, uc *profile.UserContext, explain bool) VenueItem {
	item := VenueItem{
		ID:                 v.ID,
		Slug:               v.Slug,
		Name:               v.Name,
		Category:           v.Category,
		NormalizedCategory: v.NormalizedCategory(),
		Address:            v.Address,
		Rating:             v.Rating,
		Price:              v.Price,
		Attributes:         v.AttributeTags(),
		CoarseGeohash:      geo.Coarse(v.Location),
		Score:              v.Score,
	}
	if explain {
		b := h.pipeline.Scorer().Explain(v, uc)
		item.Breakdown = &b
	}
	return item
}

// parseSearchParams builds the filter state from the query string. A
// non-empty message reports the first invalid parameter.
func parseSearchParams(r *http.Request) (filter.State, bool, string) {
	query := r.URL.Query()
	state := filter.NewState()

	q, err := validate.SearchQuery(query.Get("q"))
	if err != nil {
		return state, false, "q must be at most 200 characters of valid text"
	}
	state = state.WithText(q).WithCategory(strings.TrimSpace(query.Get("category")))

	center, err := parseOptionalFloat(query.Get("price_center"))
	if err != nil {
		return state, false, "price_center must be a number"
	}
	tolerance, err := parseOptionalFloat(query.Get("price_tolerance"))
	if err != nil {
		return state, false, "price_tolerance must be a number"
	}
	pr, err := filter.NewPriceRange(center, tolerance)
	if err != nil {
		return state, false, "price_center and price_tolerance must be finite and non-negative"
	}
	state = state.WithPrice(pr)

	var features []string
	for _, raw := range query["features"] {
		for _, f := range strings.Split(raw, ",") {
			if f = strings.TrimSpace(f); f != "" {
				features = append(features, f)
			}
		}
	}
	if len(features) > MaxRequiredFeatures {
		return state, false, "too many features requested"
	}
	state = state.WithRequiredAttributes(features...)

	explain, err := parseExplain(query.Get("explain"))
	if err != nil {
		return state, false, "explain must be a boolean"
	}

	return state, explain, ""
}

func parseOptionalFloat(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func parseExplain(raw string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}

// writeJSON encodes body with the given status.
func writeJSON(w http.ResponseWriter, ctx context.Context, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}
