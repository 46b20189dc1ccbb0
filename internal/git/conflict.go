// Package git provides git operations for KEEL.
// This file implements conflict inspection and per-file side selection.
package git

import (
	"context"
	"fmt"
	"strings"

	keelerrors "github.com/mrz1836/keel/internal/errors"
)

// ConflictSide selects which side of a conflicted file to keep.
type ConflictSide string

const (
	// ConflictOurs keeps the current branch's version.
	ConflictOurs ConflictSide = "ours"
	// ConflictTheirs keeps the incoming branch's version.
	ConflictTheirs ConflictSide = "theirs"
)

// ConflictedFiles returns the paths currently in the unmerged state.
func (r *CLIRunner) ConflictedFiles(ctx context.Context) ([]string, error) {
	res, err := r.run(ctx, "listing conflicted files", "diff", "--name-only", "--diff-filter=U")
	if err != nil {
		return nil, err
	}
	if res.Stdout == "" {
		return nil, nil
	}
	return strings.Split(res.Stdout, "\n"), nil
}

// CheckoutConflictSide replaces a conflicted file with one side's version.
// The file still has to be staged afterwards to mark it resolved.
func (r *CLIRunner) CheckoutConflictSide(ctx context.Context, path string, side ConflictSide) error {
	if path == "" {
		return fmt.Errorf("path: %w", keelerrors.ErrEmptyValue)
	}
	_, err := r.run(ctx, fmt.Sprintf("taking %s for %q", side, path),
		"checkout", "--"+string(side), "--", path)
	return err
}

// Add stages the given paths.
func (r *CLIRunner) Add(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return fmt.Errorf("paths: %w", keelerrors.ErrEmptyValue)
	}
	args := append([]string{"add", "--"}, paths...)
	_, err := r.run(ctx, "staging files", args...)
	return err
}

// Commit creates a commit with the given message.
func (r *CLIRunner) Commit(ctx context.Context, message string) error {
	if message == "" {
		return fmt.Errorf("commit message: %w", keelerrors.ErrEmptyValue)
	}
	_, err := r.run(ctx, "committing", "commit", "-m", message, "--cleanup=strip")
	return err
}
