// Package workflow provides branch lifecycle automation for KEEL.
// This file defines the feature's configuration options.
package workflow

import (
	"github.com/mrz1836/keel/internal/constants"
	keelerrors "github.com/mrz1836/keel/internal/errors"
	"github.com/mrz1836/keel/internal/feature"
)

// Options are the effective branch_workflows settings after merging user
// overrides over defaults.
type Options struct {
	// DefaultWorkflow selects the workflow model (github_flow, git_flow,
	// gitlab_flow).
	DefaultWorkflow string `mapstructure:"default_workflow"`

	// DeleteAfterMerge removes the session branch after a successful merge.
	DeleteAfterMerge bool `mapstructure:"delete_after_merge"`

	// TagPrefix is prepended to release and hotfix tag names.
	TagPrefix string `mapstructure:"tag_prefix"`

	// PushAfterFinish pushes updated branches to the default remote after a
	// successful finish.
	PushAfterFinish bool `mapstructure:"push_after_finish"`
}

// DefaultConfig returns the feature's built-in option values. Keys mirror
// the Options mapstructure tags so user overrides merge cleanly.
func DefaultConfig() map[string]any {
	return map[string]any{
		"default_workflow":   constants.WorkflowGitHubFlow,
		"delete_after_merge": true,
		"tag_prefix":         "v",
		"push_after_finish":  false,
	}
}

// ResolveOptions merges user overrides over the defaults and decodes the
// result. Unset options keep their default values.
func ResolveOptions(overrides map[string]any) (Options, error) {
	var opts Options
	if err := feature.DecodeConfig(feature.MergeConfig(DefaultConfig(), overrides), &opts); err != nil {
		return Options{}, keelerrors.Wrap(err, "decoding branch_workflows options")
	}
	return opts, nil
}
