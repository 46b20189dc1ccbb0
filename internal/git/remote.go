// Package git provides git operations for KEEL.
// This file implements remote operations (push, fetch, remote enumeration).
// These are the slow path: all of them run with the network timeout.
package git

import (
	"context"
	"fmt"
	"strings"

	keelerrors "github.com/mrz1836/keel/internal/errors"
)

// Remotes returns the configured remote names in git's output order.
func (r *CLIRunner) Remotes(ctx context.Context) ([]string, error) {
	res, err := r.run(ctx, "listing remotes", "remote")
	if err != nil {
		return nil, err
	}
	if res.Stdout == "" {
		return nil, nil
	}
	return strings.Split(res.Stdout, "\n"), nil
}

// Push pushes a branch to the given remote.
func (r *CLIRunner) Push(ctx context.Context, remote, branch string) error {
	if remote == "" || branch == "" {
		return fmt.Errorf("remote and branch: %w", keelerrors.ErrEmptyValue)
	}
	_, err := r.runNetwork(ctx, fmt.Sprintf("pushing %q to %q", branch, remote), "push", remote, branch)
	return err
}

// PushTag pushes a tag to the given remote.
func (r *CLIRunner) PushTag(ctx context.Context, remote, tag string) error {
	if remote == "" || tag == "" {
		return fmt.Errorf("remote and tag: %w", keelerrors.ErrEmptyValue)
	}
	_, err := r.runNetwork(ctx, fmt.Sprintf("pushing tag %q to %q", tag, remote), "push", remote, "refs/tags/"+tag)
	return err
}

// FetchBranchFastForward updates a local branch from the remote using the
// refspec form "branch:branch". Git applies this fast-forward-only for
// branches that are not checked out: a diverged local branch is rejected
// rather than overwritten, which is exactly the restore contract.
func (r *CLIRunner) FetchBranchFastForward(ctx context.Context, remote, branch string) error {
	if remote == "" || branch == "" {
		return fmt.Errorf("remote and branch: %w", keelerrors.ErrEmptyValue)
	}
	op := fmt.Sprintf("restoring %q from %q", branch, remote)
	res, err := r.exec.RunWith(ctx, RunOpts{Network: true}, "fetch", remote, branch+":"+branch)
	if err != nil {
		return keelerrors.Wrap(err, op)
	}
	if !res.Succeeded() {
		detail := res.Detail()
		if Classify(detail) == FailureNonFastForward {
			return fmt.Errorf("%s: %s: %w", op, detail, keelerrors.ErrDivergedBranch)
		}
		return failureError(op, res)
	}
	return nil
}
