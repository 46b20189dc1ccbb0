// Package git provides git operations for KEEL.
// This file implements the CLIRunner core and repository-level queries.
package git

import (
	"context"
	"fmt"

	keelerrors "github.com/mrz1836/keel/internal/errors"
)

// CLIRunner provides typed git operations on top of an Executor.
//
// Methods that mutate or read the repository translate non-zero exits into
// classified errors: merge conflicts wrap ErrMergeConflict, non-fast-forward
// rejections wrap ErrNonFastForward, everything else wraps ErrGitOperation
// with the captured stderr detail.
type CLIRunner struct {
	exec Executor
}

// NewRunner creates a CLIRunner and verifies the executor's working
// directory is inside a git repository.
func NewRunner(ctx context.Context, exec Executor) (*CLIRunner, error) {
	r := &CLIRunner{exec: exec}
	if _, err := r.run(ctx, "checking repository", "rev-parse", "--git-dir"); err != nil {
		return nil, fmt.Errorf("%w: %w", keelerrors.ErrNotGitRepo, err)
	}
	return r, nil
}

// run executes a command and converts a non-zero exit into a classified error.
func (r *CLIRunner) run(ctx context.Context, op string, args ...string) (*CommandResult, error) {
	res, err := r.exec.Run(ctx, args...)
	if err != nil {
		return nil, keelerrors.Wrap(err, op)
	}
	if !res.Succeeded() {
		return res, failureError(op, res)
	}
	return res, nil
}

// runNetwork is run with the larger network timeout for push/fetch.
func (r *CLIRunner) runNetwork(ctx context.Context, op string, args ...string) (*CommandResult, error) {
	res, err := r.exec.RunWith(ctx, RunOpts{Network: true}, args...)
	if err != nil {
		return nil, keelerrors.Wrap(err, op)
	}
	if !res.Succeeded() {
		return res, failureError(op, res)
	}
	return res, nil
}

// failureError builds a classified error from a failed command result.
func failureError(op string, res *CommandResult) error {
	detail := res.Detail()

	sentinel := keelerrors.ErrGitOperation
	switch Classify(detail) {
	case FailureMergeConflict:
		sentinel = keelerrors.ErrMergeConflict
	case FailureNonFastForward:
		sentinel = keelerrors.ErrNonFastForward
	case FailureAuth, FailureNetwork, FailureNotFound, FailureTimeout, FailureUnknown:
		// Keep the generic sentinel; the category is still recoverable from
		// the detail via Classify for callers that need it (backup outcomes).
	}

	if detail == "" {
		return fmt.Errorf("%s: exit code %d: %w", op, res.ExitCode, sentinel)
	}
	return fmt.Errorf("%s: %s: %w", op, detail, sentinel)
}

// GitDir returns the absolute path of the repository's .git directory.
func (r *CLIRunner) GitDir(ctx context.Context) (string, error) {
	res, err := r.run(ctx, "resolving git dir", "rev-parse", "--absolute-git-dir")
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

// TopLevel returns the absolute path of the working tree root.
func (r *CLIRunner) TopLevel(ctx context.Context) (string, error) {
	res, err := r.run(ctx, "resolving worktree root", "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

// CurrentBranch returns the name of the currently checked out branch.
// Returns an error in detached HEAD state.
func (r *CLIRunner) CurrentBranch(ctx context.Context) (string, error) {
	res, err := r.run(ctx, "resolving current branch", "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	if res.Stdout == "HEAD" {
		return "", fmt.Errorf("repository is in detached HEAD state: %w", keelerrors.ErrGitOperation)
	}
	return res.Stdout, nil
}

// RevParse resolves a ref to its commit hash.
func (r *CLIRunner) RevParse(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("ref: %w", keelerrors.ErrEmptyValue)
	}
	res, err := r.run(ctx, fmt.Sprintf("resolving %q", ref), "rev-parse", "--verify", ref)
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

// IsWorkingTreeClean reports whether the working tree and index have no
// uncommitted changes (untracked files included).
func (r *CLIRunner) IsWorkingTreeClean(ctx context.Context) (bool, error) {
	res, err := r.run(ctx, "checking working tree", "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return res.Stdout == "", nil
}
