// Package git provides git operations for KEEL.
// This file implements branch, merge, and tag operations.
package git

import (
	"context"
	"fmt"
	"strings"

	keelerrors "github.com/mrz1836/keel/internal/errors"
)

// BranchExists checks if a local branch exists.
func (r *CLIRunner) BranchExists(ctx context.Context, name string) (bool, error) {
	if name == "" {
		return false, fmt.Errorf("branch name: %w", keelerrors.ErrEmptyValue)
	}
	res, err := r.exec.Run(ctx, "show-ref", "--verify", "--quiet", "refs/heads/"+name)
	if err != nil {
		return false, keelerrors.Wrap(err, "checking branch existence")
	}
	// Non-zero exit means the ref does not exist, which is an answer, not an error.
	return res.Succeeded(), nil
}

// TagExists checks if a tag exists.
func (r *CLIRunner) TagExists(ctx context.Context, name string) (bool, error) {
	if name == "" {
		return false, fmt.Errorf("tag name: %w", keelerrors.ErrEmptyValue)
	}
	res, err := r.exec.Run(ctx, "show-ref", "--verify", "--quiet", "refs/tags/"+name)
	if err != nil {
		return false, keelerrors.Wrap(err, "checking tag existence")
	}
	return res.Succeeded(), nil
}

// CreateBranch creates a new branch from base and checks it out.
func (r *CLIRunner) CreateBranch(ctx context.Context, name, base string) error {
	if name == "" {
		return fmt.Errorf("branch name: %w", keelerrors.ErrEmptyValue)
	}

	exists, err := r.BranchExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("branch %q: %w", name, keelerrors.ErrBranchExists)
	}

	args := []string{"checkout", "-b", name}
	if base != "" {
		args = append(args, base)
	}
	_, err = r.run(ctx, fmt.Sprintf("creating branch %q", name), args...)
	return err
}

// CreateBranchAt creates a branch pointing at the given commit without
// checking it out. Used to restore a deleted branch during rollback.
func (r *CLIRunner) CreateBranchAt(ctx context.Context, name, sha string) error {
	if name == "" || sha == "" {
		return fmt.Errorf("branch name and commit: %w", keelerrors.ErrEmptyValue)
	}
	_, err := r.run(ctx, fmt.Sprintf("recreating branch %q", name), "branch", name, sha)
	return err
}

// Checkout switches the working tree to the given branch.
func (r *CLIRunner) Checkout(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("branch name: %w", keelerrors.ErrEmptyValue)
	}
	_, err := r.run(ctx, fmt.Sprintf("checking out %q", name), "checkout", name)
	return err
}

// DeleteBranch deletes a local branch. With force, unmerged commits are
// discarded (git branch -D).
func (r *CLIRunner) DeleteBranch(ctx context.Context, name string, force bool) error {
	if name == "" {
		return fmt.Errorf("branch name: %w", keelerrors.ErrEmptyValue)
	}
	flag := "-d"
	if force {
		flag = "-D"
	}
	_, err := r.run(ctx, fmt.Sprintf("deleting branch %q", name), "branch", flag, name)
	return err
}

// Merge merges the given branch into the current branch with a merge commit.
// A conflicting merge returns an error wrapping ErrMergeConflict; the caller
// decides whether to abort or resolve.
func (r *CLIRunner) Merge(ctx context.Context, branch, message string) error {
	if branch == "" {
		return fmt.Errorf("branch name: %w", keelerrors.ErrEmptyValue)
	}
	args := []string{"merge", "--no-ff", branch}
	if message != "" {
		args = []string{"merge", "--no-ff", "-m", message, branch}
	}
	_, err := r.run(ctx, fmt.Sprintf("merging %q", branch), args...)
	return err
}

// MergeAbort cancels an in-progress merge. A missing merge is not an error.
func (r *CLIRunner) MergeAbort(ctx context.Context) error {
	_, err := r.run(ctx, "aborting merge", "merge", "--abort")
	if err != nil {
		detail := strings.ToLower(err.Error())
		if strings.Contains(detail, "merge_head missing") || strings.Contains(detail, "no merge to abort") {
			return nil
		}
		return err
	}
	return nil
}

// ResetHard resets the current branch and working tree to the given commit.
func (r *CLIRunner) ResetHard(ctx context.Context, ref string) error {
	if ref == "" {
		return fmt.Errorf("ref: %w", keelerrors.ErrEmptyValue)
	}
	_, err := r.run(ctx, fmt.Sprintf("resetting to %q", ref), "reset", "--hard", ref)
	return err
}

// Tag creates an annotated tag on the current HEAD.
func (r *CLIRunner) Tag(ctx context.Context, name, message string) error {
	if name == "" {
		return fmt.Errorf("tag name: %w", keelerrors.ErrEmptyValue)
	}
	if message == "" {
		message = name
	}
	_, err := r.run(ctx, fmt.Sprintf("tagging %q", name), "tag", "-a", name, "-m", message)
	return err
}

// DeleteTag removes a local tag.
func (r *CLIRunner) DeleteTag(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("tag name: %w", keelerrors.ErrEmptyValue)
	}
	_, err := r.run(ctx, fmt.Sprintf("deleting tag %q", name), "tag", "-d", name)
	return err
}
