package health

import (
	"github.com/mrz1836/keel/internal/constants"
	keelerrors "github.com/mrz1836/keel/internal/errors"
	"github.com/mrz1836/keel/internal/feature"
)

// Weights are the score deductions per finding, by severity.
type Weights struct {
	Critical int `mapstructure:"critical"`
	Warning  int `mapstructure:"warning"`
	Info     int `mapstructure:"info"`
}

// Options are the effective health_dashboard settings after merging user
// overrides over defaults.
type Options struct {
	// StaleBranchDays is the age in days after which a branch is stale.
	StaleBranchDays int `mapstructure:"stale_branch_days"`

	// LargeFileThresholdMB is the tracked blob size above which a
	// large_object finding is reported.
	LargeFileThresholdMB int `mapstructure:"large_file_threshold_mb"`

	// ScoreWeights controls how much each finding severity deducts from
	// the 0-100 health score.
	ScoreWeights Weights `mapstructure:"score_weights"`
}

// DefaultConfig returns the feature's built-in option values.
func DefaultConfig() map[string]any {
	return map[string]any{
		"stale_branch_days":       constants.DefaultStaleBranchDays,
		"large_file_threshold_mb": constants.DefaultLargeFileThresholdMB,
		"score_weights": map[string]any{
			"critical": 15,
			"warning":  5,
			"info":     1,
		},
	}
}

// ResolveOptions merges user overrides over the defaults and decodes the
// result.
func ResolveOptions(overrides map[string]any) (Options, error) {
	var opts Options
	if err := feature.DecodeConfig(feature.MergeConfig(DefaultConfig(), overrides), &opts); err != nil {
		return Options{}, keelerrors.Wrap(err, "decoding health_dashboard options")
	}
	return opts, nil
}
