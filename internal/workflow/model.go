// Package workflow provides branch lifecycle automation for KEEL.
// This file defines the built-in workflow models.
package workflow

import (
	"fmt"

	"github.com/mrz1836/keel/internal/constants"
	keelerrors "github.com/mrz1836/keel/internal/errors"
)

// Model describes how a workflow structures its branches: where each kind
// of branch comes from, where it merges back, and whether releases are
// tagged. Models are data, not behavior; the engine interprets them.
type Model struct {
	// Name is the model identifier used in configuration.
	Name string

	// Integration is the branch feature work merges into.
	Integration string

	// Stable is the production branch, or empty for single-branch models.
	Stable string

	// Prefixes maps each workflow kind to its branch name prefix.
	Prefixes map[Kind]string

	// TagReleases controls whether finishing a release or hotfix creates
	// an annotated tag.
	TagReleases bool
}

// Prefix returns the branch name prefix for the given kind. Unknown kinds
// get an empty prefix; Kind.Valid is checked before this is reached.
func (m Model) Prefix(kind Kind) string {
	return m.Prefixes[kind]
}

// BranchName builds the full branch name for a kind and short name.
func (m Model) BranchName(kind Kind, name string) string {
	return m.Prefix(kind) + name
}

// BaseBranch returns the branch a new session of the given kind starts from.
// Hotfixes branch from stable when the model has one; everything else
// branches from integration.
func (m Model) BaseBranch(kind Kind) string {
	if kind == KindHotfix && m.Stable != "" {
		return m.Stable
	}
	return m.Integration
}

// ModelFor resolves a model name to its definition. The integration and
// stable branches of single-trunk models follow the configured default
// branch so teams on "master" or "trunk" are not forced onto "main".
func ModelFor(name, defaultBranch string) (Model, error) {
	prefixes := map[Kind]string{
		KindFeature: "feature/",
		KindRelease: "release/",
		KindHotfix:  "hotfix/",
	}

	switch name {
	case constants.WorkflowGitHubFlow:
		return Model{
			Name:        name,
			Integration: defaultBranch,
			Prefixes:    prefixes,
			TagReleases: true,
		}, nil
	case constants.WorkflowGitFlow:
		return Model{
			Name:        name,
			Integration: "develop",
			Stable:      defaultBranch,
			Prefixes:    prefixes,
			TagReleases: true,
		}, nil
	case constants.WorkflowGitLabFlow:
		return Model{
			Name:        name,
			Integration: defaultBranch,
			Stable:      "production",
			Prefixes:    prefixes,
			TagReleases: true,
		}, nil
	default:
		return Model{}, fmt.Errorf("%q: %w", name, keelerrors.ErrUnknownWorkflowModel)
	}
}
