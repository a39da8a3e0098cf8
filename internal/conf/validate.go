package conf

import (
	"math"

	"github.com/kuben-developer/fpmatch/internal/errors"
)

const weightSumTolerance = 1e-6

// Validate checks invariants on loaded Settings, mirroring the teacher's
// conf.Validate pass-over-settings pattern.
func Validate(s *Settings) error {
	if s.SampleRate <= 0 {
		return errors.Newf("sample_rate must be positive, got %d", s.SampleRate).
			Component("conf").Category(errors.CategoryValidation).Build()
	}
	if s.HeadSeconds <= 0 {
		return errors.Newf("head_seconds must be positive, got %d", s.HeadSeconds).
			Component("conf").Category(errors.CategoryValidation).Build()
	}
	if diff := math.Abs(s.FeatureWeights.Sum() - 1.0); diff > weightSumTolerance {
		return errors.Newf("feature_weights must sum to 1.0, got %f", s.FeatureWeights.Sum()).
			Component("conf").Category(errors.CategoryValidation).
			Context("sum", s.FeatureWeights.Sum()).Build()
	}
	if s.MaxFrames <= 0 || s.MaxCells <= 0 {
		return errors.Newf("max_frames and max_cells must be positive").
			Component("conf").Category(errors.CategoryValidation).Build()
	}
	if s.SakoeChibaBand < 0 {
		return errors.Newf("sakoe_chiba_band must be non-negative").
			Component("conf").Category(errors.CategoryValidation).Build()
	}
	if s.MaxWorkers <= 0 {
		return errors.Newf("max_workers must be positive").
			Component("conf").Category(errors.CategoryValidation).Build()
	}
	if s.RetryAttempts <= 0 {
		return errors.Newf("retry_attempts must be positive").
			Component("conf").Category(errors.CategoryValidation).Build()
	}
	if s.CheckpointInterval <= 0 {
		return errors.Newf("checkpoint_interval must be positive").
			Component("conf").Category(errors.CategoryValidation).Build()
	}
	if s.ReferenceDir == "" {
		return errors.Newf("reference_dir must be set").
			Component("conf").Category(errors.CategoryValidation).Build()
	}
	return nil
}
