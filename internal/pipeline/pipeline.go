// Package pipeline turns a catalog snapshot, a filter selection and an
// optional user context into recommended and remaining venues.
//
// Rank never mutates its inputs: survivors are copied before their scores
// are written, so the same catalog may be ranked concurrently.
package pipeline

import (
	"sort"
	"time"

	"github.com/onnwee/venuefinder/internal/filter"
	"github.com/onnwee/venuefinder/internal/profile"
	"github.com/onnwee/venuefinder/internal/ranking"
	"github.com/onnwee/venuefinder/internal/venue"
)

// DefaultTopN bounds the recommended set.
const DefaultTopN = 5

// Result is the outcome of one ranking. Both lists are non-nil; together
// they hold exactly the filtered venues.
type Result struct {
	Recommended  []venue.Venue `json:"recommended"`
	Others       []venue.Venue `json:"others"`
	Personalized bool          `json:"personalized"`
}

// Count returns the number of venues that passed the filters.
func (r Result) Count() int {
	return len(r.Recommended) + len(r.Others)
}

// Stats describes one Rank call.
type Stats struct {
	Catalog      int
	Filtered     int
	Recommended  int
	Personalized bool
	Duration     time.Duration
}

// Observer is notified after every Rank call.
type Observer interface {
	ObserveRank(Stats)
}

// Pipeline ranks catalogs. It is safe for concurrent use.
type Pipeline struct {
	scorer   *ranking.Scorer
	topN     int
	observer Observer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTopN overrides DefaultTopN. Non-positive values are ignored.
func WithTopN(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.topN = n
		}
	}
}

// WithObserver registers an observer for rank statistics.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		p.observer = o
	}
}

// New creates a pipeline. A nil scorer uses the default calibration.
func New(scorer *ranking.Scorer, opts ...Option) *Pipeline {
	if scorer == nil {
		scorer = ranking.NewScorer(nil)
	}
	p := &Pipeline{scorer: scorer, topN: DefaultTopN}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Scorer returns the scorer used to rescore survivors.
func (p *Pipeline) Scorer() *ranking.Scorer {
	return p.scorer
}

// HasPersonalization reports whether uc carries any preference that can
// affect a score.
func HasPersonalization(uc *profile.UserContext) bool {
	if uc == nil {
		return false
	}
	return len(uc.FavoriteCategories) > 0 ||
		len(uc.AttributeWeights) > 0 ||
		uc.BudgetLevel != nil ||
		(uc.Home != nil && uc.MaxDistanceKm != nil)
}

// Rank filters catalog with state, rescores every survivor for uc and splits
// them into at most topN recommended venues (score > 0, best first, ties in
// catalog order) and the rest in catalog order. Without personalization
// nothing is recommended.
func (p *Pipeline) Rank(catalog []venue.Venue, state filter.State, uc *profile.UserContext) Result {
	start := time.Now()

	survivors := filter.Apply(catalog, state)
	for i := range survivors {
		survivors[i].Score = p.scorer.Score(&survivors[i], uc)
	}

	res := Result{Recommended: []venue.Venue{}, Personalized: HasPersonalization(uc)}
	if !res.Personalized {
		res.Others = survivors
		p.observe(len(catalog), res, start)
		return res
	}

	candidates := make([]int, 0, len(survivors))
	for i := range survivors {
		if survivors[i].Score > 0 {
			candidates = append(candidates, i)
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return survivors[candidates[a]].Score > survivors[candidates[b]].Score
	})
	if len(candidates) > p.topN {
		candidates = candidates[:p.topN]
	}

	chosen := make(map[int]struct{}, len(candidates))
	for _, i := range candidates {
		chosen[i] = struct{}{}
		res.Recommended = append(res.Recommended, survivors[i])
	}

	res.Others = make([]venue.Venue, 0, len(survivors)-len(candidates))
	for i := range survivors {
		if _, ok := chosen[i]; !ok {
			res.Others = append(res.Others, survivors[i])
		}
	}

	p.observe(len(catalog), res, start)
	return res
}

func (p *Pipeline) observe(catalogSize int, res Result, start time.Time) {
	if p.observer == nil {
		return
	}
	p.observer.ObserveRank(Stats{
		Catalog:      catalogSize,
		Filtered:     res.Count(),
		Recommended:  len(res.Recommended),
		Personalized: res.Personalized,
		Duration:     time.Since(start),
	})
}
