package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/onnwee/venuefinder/internal/filter"
	"github.com/onnwee/venuefinder/internal/pipeline"
	"github.com/onnwee/venuefinder/internal/profile"
	"github.com/onnwee/venuefinder/internal/ranking"
	"github.com/onnwee/venuefinder/internal/venue"
)

type rankOptions struct {
	catalog        string
	profile        string
	calibration    string
	query          string
	category       string
	priceCenter    float64
	priceTolerance float64
	features       []string
	explain        bool
	topN           int
}

type rankedVenue struct {
	ID        string               `json:"id"`
	Slug      string               `json:"slug"`
	Name      string               `json:"name"`
	Category  string               `json:"category"`
	Price     *float64             `json:"price,omitempty"`
	Score     float64              `json:"score"`
	Breakdown *ranking.Breakdown   `json:"breakdown,omitempty"`
	Tags      []venue.AttributeTag `json:"attributes"`
}

type rankOutput struct {
	Filter       filter.State  `json:"filter"`
	Recommended  []rankedVenue `json:"recommended"`
	Others       []rankedVenue `json:"others"`
	Personalized bool          `json:"personalized"`
	Count        int           `json:"count"`
}

func newRankCmd() *cobra.Command {
	var opts rankOptions

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Filter and rank a catalog file",
		Long: `rank applies the filter flags to every venue in --catalog, scores the
survivors against --profile (if given) and prints the recommended and
remaining venues as JSON.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			center := flagFloat(cmd, "price-center", opts.priceCenter)
			tolerance := flagFloat(cmd, "price-tolerance", opts.priceTolerance)
			return runRank(cmd, opts, center, tolerance)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.catalog, "catalog", "", "YAML catalog file (required)")
	f.StringVar(&opts.profile, "profile", "", "YAML user profile file")
	f.StringVar(&opts.calibration, "calibration", "", "JSON calibration file (defaults to built-in constants)")
	f.StringVar(&opts.query, "q", "", "free-text query matched against names")
	f.StringVar(&opts.category, "category", "", "category to keep (default all)")
	f.Float64Var(&opts.priceCenter, "price-center", 0, "center of the accepted price range")
	f.Float64Var(&opts.priceTolerance, "price-tolerance", filter.DefaultTolerance, "half-width of the accepted price range")
	f.StringSliceVar(&opts.features, "feature", nil, "required attribute; repeat or comma-separate")
	f.BoolVar(&opts.explain, "explain", false, "include per-signal score breakdown")
	f.IntVar(&opts.topN, "top", pipeline.DefaultTopN, "size of the recommended set")
	_ = cmd.MarkFlagRequired("catalog")

	return cmd
}

// flagFloat returns nil for flags the user left unset.
func flagFloat(cmd *cobra.Command, name string, v float64) *float64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}

func runRank(cmd *cobra.Command, opts rankOptions, center, tolerance *float64) error {
	seed, err := venue.LoadSeedFile(opts.catalog)
	if err != nil {
		return err
	}

	var uc *profile.UserContext
	if opts.profile != "" {
		if uc, err = profile.LoadFile(opts.profile); err != nil {
			return err
		}
	}

	pr, err := filter.NewPriceRange(center, tolerance)
	if err != nil {
		return err
	}
	state := filter.NewState().
		WithText(opts.query).
		WithCategory(opts.category).
		WithPrice(pr).
		WithRequiredAttributes(opts.features...)

	cal, err := ranking.LoadCalibration(opts.calibration)
	if err != nil {
		return err
	}
	scorer := ranking.NewScorer(cal)
	p := pipeline.New(scorer, pipeline.WithTopN(opts.topN))

	catalog, err := venue.NewInMemoryRepositoryFromSeed(seed).ListActive(cmd.Context())
	if err != nil {
		return err
	}
	res := p.Rank(catalog, state, uc)
	out := rankOutput{
		Filter:       state,
		Recommended:  toRanked(res.Recommended, scorer, uc, opts.explain),
		Others:       toRanked(res.Others, scorer, uc, opts.explain),
		Personalized: res.Personalized,
		Count:        res.Count(),
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func toRanked(venues []venue.Venue, scorer *ranking.Scorer, uc *profile.UserContext, explain bool) []rankedVenue {
	out := make([]rankedVenue, 0, len(venues))
	for i := range venues {
		v := &venues[i]
		rv := rankedVenue{
			ID:       v.ID,
			Slug:     v.Slug,
			Name:     v.Name,
			Category: v.Category,
			Price:    v.Price,
			Score:    v.Score,
			Tags:     v.AttributeTags(),
		}
		if explain {
			b := scorer.Explain(v, uc)
			rv.Breakdown = &b
		}
		out = append(out, rv)
	}
	return out
}
