// Package git provides git operations for KEEL.
// This file implements stash operations. Stash entries are addressed by
// their commit hash, which stays stable while positional refs like
// "stash@{1}" shift as the stack changes.
package git

import (
	"context"
	"fmt"
	"strings"

	keelerrors "github.com/mrz1836/keel/internal/errors"
)

// StashPush stashes the working tree (untracked files included) and returns
// the stash commit hash. Returns ErrNothingToStash when the tree is clean.
func (r *CLIRunner) StashPush(ctx context.Context, message string) (string, error) {
	args := []string{"stash", "push", "--include-untracked"}
	if message != "" {
		args = append(args, "-m", message)
	}
	res, err := r.run(ctx, "stashing changes", args...)
	if err != nil {
		return "", err
	}
	if strings.Contains(strings.ToLower(res.Stdout), "no local changes") {
		return "", keelerrors.ErrNothingToStash
	}
	return r.RevParse(ctx, "refs/stash")
}

// StashList returns the stash stack, newest first.
func (r *CLIRunner) StashList(ctx context.Context) ([]StashRef, error) {
	res, err := r.run(ctx, "listing stashes", "stash", "list", "--format=%H %gd %s")
	if err != nil {
		return nil, err
	}
	if res.Stdout == "" {
		return nil, nil
	}

	var refs []StashRef
	for _, line := range strings.Split(res.Stdout, "\n") {
		parts := strings.SplitN(line, " ", 3)
		if len(parts) < 2 {
			continue
		}
		ref := StashRef{SHA: parts[0], Ref: parts[1]}
		if len(parts) == 3 {
			ref.Subject = parts[2]
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// StashApply applies a stash by commit hash without dropping it.
func (r *CLIRunner) StashApply(ctx context.Context, sha string) error {
	if sha == "" {
		return fmt.Errorf("stash hash: %w", keelerrors.ErrEmptyValue)
	}
	_, err := r.run(ctx, "applying stash", "stash", "apply", sha)
	return err
}

// StashDrop removes a stash by commit hash. The positional ref is resolved
// at drop time since the stack may have shifted since the hash was recorded.
func (r *CLIRunner) StashDrop(ctx context.Context, sha string) error {
	if sha == "" {
		return fmt.Errorf("stash hash: %w", keelerrors.ErrEmptyValue)
	}

	refs, err := r.StashList(ctx)
	if err != nil {
		return err
	}
	for _, ref := range refs {
		if ref.SHA == sha {
			_, err = r.run(ctx, "dropping stash", "stash", "drop", ref.Ref)
			return err
		}
	}
	return fmt.Errorf("stash %s: %w", sha, keelerrors.ErrStashNotFound)
}
