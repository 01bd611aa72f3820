// Package ranking scores venues against a user's preferences.
//
// A score is the plain sum of four independent signals so every contribution
// can be audited on its own:
//
//	category affinity   +3 when the venue category is a favorite
//	budget proximity    +3 / +2 / +1 / -1 by |price - budget| tier
//	attribute weights   sum of the user's weight for each venue attribute
//	home distance       -999 beyond the max distance, else 1 + closeness in [1, 2]
//
// Basic usage:
//
//	cal, err := ranking.LoadCalibration(cfg.CalibrationPath)
//	if err != nil {
//		logger.Warn("using default calibration", "error", err)
//	}
//	scorer := ranking.NewScorer(cal)
//	score := scorer.Score(&v, userCtx)
//
// Calibration:
//
// The constants above are defaults. A JSON calibration file read at startup
// may override any non-zero value; see configs/ranking.calibration.json.
// Validate rejects calibrations whose distance penalty would no longer
// outweigh every non-attribute bonus combined.
package ranking
