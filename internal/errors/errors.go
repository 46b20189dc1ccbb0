// Package errors provides centralized error handling for KEEL.
//
// This package defines sentinel errors used for programmatic error categorization
// throughout the application. All error types can be checked using errors.Is().
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import "errors"

// Sentinel errors for error categorization.
// These allow callers to check error types with errors.Is().
// All errors use lowercase descriptions per Go conventions.
var (
	// ErrGitNotFound indicates that the git binary could not be located or
	// started at all. This is an environment failure, not a command failure.
	ErrGitNotFound = errors.New("git binary not found")

	// ErrCommandTimeout indicates that a git invocation did not complete
	// within its configured bound. Repository state must be re-queried, not
	// assumed, after this error.
	ErrCommandTimeout = errors.New("command timed out")

	// ErrGitOperation indicates that a git command ran but failed.
	ErrGitOperation = errors.New("git operation failed")

	// ErrNotGitRepo indicates that a git repository is required but not found.
	ErrNotGitRepo = errors.New("not in a git repository")

	// ErrEmptyValue indicates that a required value was empty.
	ErrEmptyValue = errors.New("value cannot be empty")

	// ErrBranchExists indicates an attempt to create a branch that already exists.
	ErrBranchExists = errors.New("branch already exists")

	// ErrBranchNotFound indicates the requested branch does not exist.
	ErrBranchNotFound = errors.New("branch not found")

	// ErrDirtyWorkingTree indicates uncommitted changes block a workflow
	// operation. The operation is rejected before any mutation.
	ErrDirtyWorkingTree = errors.New("working tree has uncommitted changes")

	// ErrSessionActive indicates a workflow session is already in progress
	// for the requested branch.
	ErrSessionActive = errors.New("workflow session already active for branch")

	// ErrSessionNotFound indicates no workflow session exists for the branch.
	ErrSessionNotFound = errors.New("workflow session not found")

	// ErrBranchInWorkflow indicates an operation was rejected because the
	// branch has an in-progress workflow session. Finish or abort the
	// session first.
	ErrBranchInWorkflow = errors.New("branch has an in-progress workflow session")

	// ErrInvalidTransition indicates a workflow state transition that the
	// state machine does not allow.
	ErrInvalidTransition = errors.New("invalid workflow state transition")

	// ErrMergeConflict indicates a merge could not be completed because of
	// conflicting changes.
	ErrMergeConflict = errors.New("merge conflict")

	// ErrNonFastForward indicates a push was rejected because the remote
	// contains work the local branch does not have.
	ErrNonFastForward = errors.New("non-fast-forward rejection")

	// ErrDivergedBranch indicates a local branch has diverged from the
	// backup being restored and will not be force-overwritten.
	ErrDivergedBranch = errors.New("local branch has diverged")

	// ErrNoDestinations indicates a backup was requested with zero
	// configured destinations.
	ErrNoDestinations = errors.New("no backup destinations configured")

	// ErrRecordNotFound indicates the requested backup record does not exist.
	ErrRecordNotFound = errors.New("backup record not found")

	// ErrUnknownDestination indicates a restore named a destination the
	// backup record was never written to.
	ErrUnknownDestination = errors.New("destination not in backup record")

	// ErrFeatureNotFound indicates an unknown feature name was requested
	// from the registry.
	ErrFeatureNotFound = errors.New("feature not found")

	// ErrConfigInvalid indicates a configuration value failed validation.
	ErrConfigInvalid = errors.New("invalid configuration")

	// ErrUnknownWorkflowModel indicates the configured workflow model name
	// is not one of the known models.
	ErrUnknownWorkflowModel = errors.New("unknown workflow model")

	// ErrUnknownWorkflowKind indicates a workflow kind outside
	// feature/release/hotfix.
	ErrUnknownWorkflowKind = errors.New("unknown workflow kind")

	// ErrTagExists indicates an attempt to create a tag that already exists.
	ErrTagExists = errors.New("tag already exists")

	// ErrStashNotFound indicates the named stash does not exist.
	ErrStashNotFound = errors.New("stash not found")

	// ErrStashExists indicates a named stash with the same name already exists.
	ErrStashExists = errors.New("stash already exists")

	// ErrNothingToStash indicates a stash was requested with a clean
	// working tree.
	ErrNothingToStash = errors.New("no local changes to stash")

	// ErrStashLimit indicates the configured maximum number of named
	// stashes has been reached.
	ErrStashLimit = errors.New("stash limit reached")

	// ErrNoConflicts indicates conflict resolution was requested but the
	// repository has no conflicted files.
	ErrNoConflicts = errors.New("no conflicted files")

	// ErrManualResolution indicates the selected strategy requires the user
	// to edit the file by hand.
	ErrManualResolution = errors.New("manual resolution required")

	// ErrInvalidOutputFormat indicates an invalid output format was specified.
	ErrInvalidOutputFormat = errors.New("invalid output format")

	// ErrUserCanceled indicates the user declined a confirmation prompt.
	ErrUserCanceled = errors.New("operation canceled by user")

	// ErrAlreadyReported indicates an error has already been written to the
	// command's output sink. This ensures a non-zero exit code while
	// preventing duplicate error messages. Commands should silence cobra's
	// error printing when this is returned.
	ErrAlreadyReported = errors.New("error already reported")
)
