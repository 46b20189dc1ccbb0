package backup

import (
	"github.com/mrz1836/keel/internal/constants"
	keelerrors "github.com/mrz1836/keel/internal/errors"
	"github.com/mrz1836/keel/internal/feature"
)

// Options are the effective backup_system settings after merging user
// overrides over defaults.
type Options struct {
	// Remotes are the destination remote names, in backup order.
	Remotes []string `mapstructure:"remotes"`

	// RetentionDays is how long a record stays before it becomes eligible
	// for pruning. Pruning itself is always an explicit operation.
	RetentionDays int `mapstructure:"retention_days"`

	// AllBranches backs up every local branch instead of just the current one.
	AllBranches bool `mapstructure:"all_branches"`
}

// DefaultConfig returns the feature's built-in option values.
func DefaultConfig() map[string]any {
	return map[string]any{
		"remotes":        []string{"origin"},
		"retention_days": constants.DefaultRetentionDays,
		"all_branches":   false,
	}
}

// ResolveOptions merges user overrides over the defaults and decodes the
// result.
func ResolveOptions(overrides map[string]any) (Options, error) {
	var opts Options
	if err := feature.DecodeConfig(feature.MergeConfig(DefaultConfig(), overrides), &opts); err != nil {
		return Options{}, keelerrors.Wrap(err, "decoding backup_system options")
	}
	return opts, nil
}
