// Package workflow provides branch lifecycle automation for KEEL.
// This file defines session and step record types.
package workflow

import (
	"time"
)

// Kind identifies the type of branch a workflow session manages.
type Kind string

// Workflow kinds.
const (
	// KindFeature is a short-lived branch merged into the integration branch.
	KindFeature Kind = "feature"
	// KindRelease is a branch that is tagged and merged into both the
	// integration and stable branches (where the model has a stable branch).
	KindRelease Kind = "release"
	// KindHotfix is an urgent fix branched from and merged back into the
	// stable branch, then back-merged into integration.
	KindHotfix Kind = "hotfix"
)

// Valid reports whether k is a known workflow kind.
func (k Kind) Valid() bool {
	switch k {
	case KindFeature, KindRelease, KindHotfix:
		return true
	}
	return false
}

// StepID identifies a workflow step in the completed-steps log. Each step
// has a declared inverse used during rollback.
type StepID string

// Workflow step identifiers.
const (
	// StepBranchCreated records the session branch being created from base.
	// Inverse: delete the branch.
	StepBranchCreated StepID = "branch_created"

	// StepMergedIntegration records a merge into the integration branch.
	// Inverse: reset the integration branch to its pre-merge commit.
	StepMergedIntegration StepID = "merged_into_integration"

	// StepMergedStable records a merge into the stable branch.
	// Inverse: reset the stable branch to its pre-merge commit.
	StepMergedStable StepID = "merged_into_stable"

	// StepTagCreated records an annotated tag being created.
	// Inverse: delete the tag.
	StepTagCreated StepID = "tag_created"

	// StepBranchDeleted records the session branch being deleted after merge.
	// Inverse: recreate the branch at its recorded commit.
	StepBranchDeleted StepID = "branch_deleted"

	// StepPushedUpstream records a push to a remote. Pushes have no safe
	// automatic inverse; rollback surfaces a warning instead.
	StepPushedUpstream StepID = "pushed_upstream"

	// StepPushedTag records a tag push to a remote. Like branch pushes it
	// has no safe automatic inverse; rollback surfaces a warning instead.
	StepPushedTag StepID = "pushed_tag"
)

// StepRecord is one entry in a session's completed-steps log. It carries
// everything the inverse operation needs: the affected branch or tag and the
// commit to restore.
type StepRecord struct {
	ID          StepID    `json:"id"`
	Branch      string    `json:"branch,omitempty"`
	PriorSHA    string    `json:"prior_sha,omitempty"`
	Tag         string    `json:"tag,omitempty"`
	Remote      string    `json:"remote,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

// Session is one workflow lifecycle for one branch. At most one in-progress
// session may exist per branch name; the store enforces this.
type Session struct {
	ID             string       `json:"id"`
	Kind           Kind         `json:"kind"`
	BranchName     string       `json:"branch_name"`
	BaseBranch     string       `json:"base_branch"`
	StartedAt      time.Time    `json:"started_at"`
	CompletedSteps []StepRecord `json:"completed_steps"`
	State          State        `json:"state"`
}

// recordStep appends a step to the completed-steps log.
func (s *Session) recordStep(rec StepRecord) {
	s.CompletedSteps = append(s.CompletedSteps, rec)
}
