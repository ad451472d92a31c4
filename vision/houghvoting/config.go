package houghvoting

import (
	"io"
	"os"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/yosuke-furukawa/json5/encoding/json5"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/houghvoting/solver"
)

// Config holds the tunables of the estimator.
type Config struct {
	// PreemptiveBatch is how many more pixels each scoring round may examine per hypothesis.
	PreemptiveBatch int `json:"preemptive_batch"`
	// MinArea is the smallest pixel count a class needs to be considered.
	MinArea         int     `json:"min_area"`
	InlierThreshold float64 `json:"inlier_threshold"`
	// RansacIterations is the number of initial draw slots per image.
	RansacIterations  int `json:"ransac_iterations"`
	MaxSampleAttempts int `json:"max_sample_attempts"`
	// PoseIterations is the evaluation budget of the pose search.
	PoseIterations int `json:"pose_iterations"`
	MaxInliers     int `json:"max_inliers"`
	MinRefinements int `json:"min_refinements"`
	// CapWithReplacement draws the capped inlier set with replacement instead of without.
	CapWithReplacement bool `json:"cap_with_replacement"`
	// Seed roots every random source of a call. Zero picks a fresh seed per call.
	Seed      int64  `json:"seed"`
	Optimizer string `json:"optimizer"`
}

// DefaultConfig returns the configuration the estimator was tuned with.
func DefaultConfig() *Config {
	return &Config{
		PreemptiveBatch:   1000,
		MinArea:           400,
		InlierThreshold:   0.5,
		RansacIterations:  256,
		MaxSampleAttempts: 10000000,
		PoseIterations:    100,
		MaxInliers:        1000,
		MinRefinements:    8,
		Optimizer:         solver.NelderMeadName,
	}
}

// ConvertAttributes decodes attrs over the default configuration and validates the result.
func ConvertAttributes(attrs map[string]interface{}) (*Config, error) {
	cfg := DefaultConfig()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "json", Result: cfg, ErrorUnused: true})
	if err != nil {
		return nil, errors.Wrapf(err, "could not create decoder for houghvoting config")
	}
	if err := decoder.Decode(attrs); err != nil {
		return nil, errors.Wrapf(err, "could not decode houghvoting config")
	}
	if err := cfg.CheckValid(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig reads a JSON5 configuration file over the default configuration. Comments and
// trailing commas are allowed.
func LoadConfig(path string) (*Config, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "error opening config file")
	}
	defer utils.UncheckedErrorFunc(f.Close)
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrap(err, "error reading config file")
	}
	attrs := map[string]interface{}{}
	if err := json5.Unmarshal(data, &attrs); err != nil {
		return nil, errors.Wrap(err, "error parsing config file")
	}
	return ConvertAttributes(attrs)
}

// CheckValid returns every problem with the configuration combined into one error.
func (cfg *Config) CheckValid() error {
	if cfg == nil {
		return errors.New("houghvoting config is nil")
	}
	var err error
	if cfg.PreemptiveBatch <= 0 {
		err = multierr.Append(err, errors.Errorf("preemptive_batch must be positive, got %d", cfg.PreemptiveBatch))
	}
	if cfg.MinArea < 0 {
		err = multierr.Append(err, errors.Errorf("min_area must not be negative, got %d", cfg.MinArea))
	}
	if cfg.InlierThreshold <= 0 {
		err = multierr.Append(err, errors.Errorf("inlier_threshold must be positive, got %v", cfg.InlierThreshold))
	}
	if cfg.RansacIterations < 0 {
		err = multierr.Append(err, errors.Errorf("ransac_iterations must not be negative, got %d", cfg.RansacIterations))
	}
	if cfg.MaxSampleAttempts <= 0 {
		err = multierr.Append(err, errors.Errorf("max_sample_attempts must be positive, got %d", cfg.MaxSampleAttempts))
	}
	if cfg.PoseIterations <= 0 {
		err = multierr.Append(err, errors.Errorf("pose_iterations must be positive, got %d", cfg.PoseIterations))
	}
	if cfg.MaxInliers < minInliersToRefine {
		err = multierr.Append(err, errors.Errorf("max_inliers must be at least %d, got %d", minInliersToRefine, cfg.MaxInliers))
	}
	if cfg.MinRefinements < 0 {
		err = multierr.Append(err, errors.Errorf("min_refinements must not be negative, got %d", cfg.MinRefinements))
	}
	if cfg.Optimizer != "" && cfg.Optimizer != solver.NelderMeadName && cfg.Optimizer != solver.NloptName {
		err = multierr.Append(err, errors.Errorf("unknown optimizer %q", cfg.Optimizer))
	}
	return err
}
