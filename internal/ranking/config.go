package ranking

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// ErrInvalidCalibration is returned by Validate.
var ErrInvalidCalibration = errors.New("invalid ranking calibration")

// BudgetTier awards Bonus when |price - budget| <= MaxDiff.
type BudgetTier struct {
	MaxDiff float64 `json:"max_diff"`
	Bonus   float64 `json:"bonus"`
}

// Calibration holds the scoring constants.
type Calibration struct {
	CategoryBonus   float64      `json:"category_bonus"`   // Favorite category (default: 3)
	BudgetTiers     []BudgetTier `json:"budget_tiers"`     // Ascending by MaxDiff (default: 10/3, 25/2, 50/1)
	BudgetMiss      float64      `json:"budget_miss"`      // Price outside every tier (default: -1)
	DistancePenalty float64      `json:"distance_penalty"` // Venue beyond max distance (default: -999)
	ProximityBase   float64      `json:"proximity_base"`   // Venue at the distance limit (default: 1)
	ProximityBonus  float64      `json:"proximity_bonus"`  // Extra at zero distance (default: 1)
}

// CalibrationConfig represents the JSON structure of the calibration file.
type CalibrationConfig struct {
	Version     string      `json:"version"`
	Calibration Calibration `json:"calibration"`
}

// DefaultCalibration returns the standard scoring constants.
func DefaultCalibration() *Calibration {
	return &Calibration{
		CategoryBonus: 3,
		BudgetTiers: []BudgetTier{
			{MaxDiff: 10, Bonus: 3},
			{MaxDiff: 25, Bonus: 2},
			{MaxDiff: 50, Bonus: 1},
		},
		BudgetMiss:      -1,
		DistancePenalty: -999,
		ProximityBase:   1,
		ProximityBonus:  1,
	}
}

// LoadCalibration loads scoring constants from a JSON calibration file.
// An empty path yields the defaults. On any error the defaults are returned
// together with the error so callers can log and carry on.
func LoadCalibration(filePath string) (*Calibration, error) {
	if filePath == "" {
		return DefaultCalibration(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultCalibration(), fmt.Errorf("failed to read calibration file: %w", err)
	}

	var config CalibrationConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Warn("failed to parse calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultCalibration(), fmt.Errorf("failed to parse calibration file: %w", err)
	}

	defaults := DefaultCalibration()
	merged := MergeCalibration(defaults, &config.Calibration)
	if err := merged.Validate(); err != nil {
		slog.Warn("rejecting calibration file, using defaults",
			"path", filePath,
			"error", err)
		return defaults, err
	}
	logCalibrationOverrides(defaults, merged)

	return merged, nil
}

// MergeCalibration applies the non-zero values of override on top of base.
// A non-empty tier list replaces the base tiers wholesale.
func MergeCalibration(base *Calibration, override *Calibration) *Calibration {
	if base == nil {
		base = DefaultCalibration()
	}

	result := *base
	result.BudgetTiers = append([]BudgetTier(nil), base.BudgetTiers...)
	if override == nil {
		return &result
	}

	if override.CategoryBonus != 0 {
		result.CategoryBonus = override.CategoryBonus
	}
	if len(override.BudgetTiers) > 0 {
		result.BudgetTiers = append([]BudgetTier(nil), override.BudgetTiers...)
	}
	if override.BudgetMiss != 0 {
		result.BudgetMiss = override.BudgetMiss
	}
	if override.DistancePenalty != 0 {
		result.DistancePenalty = override.DistancePenalty
	}
	if override.ProximityBase != 0 {
		result.ProximityBase = override.ProximityBase
	}
	if override.ProximityBonus != 0 {
		result.ProximityBonus = override.ProximityBonus
	}

	return &result
}

// Validate checks tier ordering and that the distance penalty outweighs the
// largest possible category, budget and proximity bonuses combined.
func (c *Calibration) Validate() error {
	maxTier := 0.0
	prev := -1.0
	for i, t := range c.BudgetTiers {
		if t.MaxDiff < 0 || t.MaxDiff <= prev {
			return fmt.Errorf("%w: budget tier %d max_diff %.2f must be >= 0 and ascending", ErrInvalidCalibration, i, t.MaxDiff)
		}
		prev = t.MaxDiff
		if t.Bonus > maxTier {
			maxTier = t.Bonus
		}
	}

	if c.DistancePenalty >= 0 {
		return fmt.Errorf("%w: distance_penalty %.2f must be negative", ErrInvalidCalibration, c.DistancePenalty)
	}
	if c.ProximityBase < 0 || c.ProximityBonus < 0 {
		return fmt.Errorf("%w: proximity values must be >= 0", ErrInvalidCalibration)
	}

	ceiling := max(c.CategoryBonus, 0) + maxTier + c.ProximityBase + c.ProximityBonus
	if -c.DistancePenalty <= ceiling {
		return fmt.Errorf("%w: distance_penalty %.2f does not dominate bonuses totalling %.2f",
			ErrInvalidCalibration, c.DistancePenalty, ceiling)
	}
	return nil
}

// logCalibrationOverrides logs which constants differ from the defaults.
func logCalibrationOverrides(defaults *Calibration, loaded *Calibration) {
	var overrides []string

	if loaded.CategoryBonus != defaults.CategoryBonus {
		overrides = append(overrides, fmt.Sprintf("category_bonus: %.2f -> %.2f",
			defaults.CategoryBonus, loaded.CategoryBonus))
	}
	if !equalTiers(loaded.BudgetTiers, defaults.BudgetTiers) {
		overrides = append(overrides, fmt.Sprintf("budget_tiers: %v -> %v",
			defaults.BudgetTiers, loaded.BudgetTiers))
	}
	if loaded.BudgetMiss != defaults.BudgetMiss {
		overrides = append(overrides, fmt.Sprintf("budget_miss: %.2f -> %.2f",
			defaults.BudgetMiss, loaded.BudgetMiss))
	}
	if loaded.DistancePenalty != defaults.DistancePenalty {
		overrides = append(overrides, fmt.Sprintf("distance_penalty: %.2f -> %.2f",
			defaults.DistancePenalty, loaded.DistancePenalty))
	}
	if loaded.ProximityBase != defaults.ProximityBase {
		overrides = append(overrides, fmt.Sprintf("proximity_base: %.2f -> %.2f",
			defaults.ProximityBase, loaded.ProximityBase))
	}
	if loaded.ProximityBonus != defaults.ProximityBonus {
		overrides = append(overrides, fmt.Sprintf("proximity_bonus: %.2f -> %.2f",
			defaults.ProximityBonus, loaded.ProximityBonus))
	}

	if len(overrides) > 0 {
		slog.Info("loaded ranking calibration with overrides",
			"overrides", overrides)
	} else {
		slog.Info("loaded ranking calibration (using all defaults)")
	}
}

func equalTiers(a, b []BudgetTier) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
