// Package git provides git operations for KEEL.
// This file implements read-only repository inspection queries used by the
// health analyzer. None of these mutate the repository.
package git

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	keelerrors "github.com/mrz1836/keel/internal/errors"
)

// LocalBranches returns all local branches with their tip commit times.
func (r *CLIRunner) LocalBranches(ctx context.Context) ([]Branch, error) {
	res, err := r.run(ctx, "listing local branches",
		"for-each-ref", "refs/heads", "--format=%(refname:short) %(committerdate:unix)")
	if err != nil {
		return nil, err
	}
	return parseBranchList(res.Stdout, false), nil
}

// RemoteBranches returns all remote-tracking branches with their tip commit
// times. Symbolic HEAD entries are skipped.
func (r *CLIRunner) RemoteBranches(ctx context.Context) ([]Branch, error) {
	res, err := r.run(ctx, "listing remote branches",
		"for-each-ref", "refs/remotes", "--format=%(refname:short) %(committerdate:unix)")
	if err != nil {
		return nil, err
	}
	return parseBranchList(res.Stdout, true), nil
}

// Upstream returns the upstream tracking ref of a branch (e.g. "origin/main").
// Returns empty string without error when the branch has no upstream.
func (r *CLIRunner) Upstream(ctx context.Context, branch string) (string, error) {
	if branch == "" {
		return "", fmt.Errorf("branch name: %w", keelerrors.ErrEmptyValue)
	}
	res, err := r.exec.Run(ctx, "rev-parse", "--abbrev-ref", branch+"@{upstream}")
	if err != nil {
		return "", keelerrors.Wrap(err, "resolving upstream")
	}
	if !res.Succeeded() {
		// No upstream configured is an answer, not an error.
		return "", nil
	}
	return res.Stdout, nil
}

// AheadBehind returns how many commits branch is ahead of and behind ref.
func (r *CLIRunner) AheadBehind(ctx context.Context, branch, ref string) (ahead, behind int, err error) {
	if branch == "" || ref == "" {
		return 0, 0, fmt.Errorf("branch and ref: %w", keelerrors.ErrEmptyValue)
	}
	res, err := r.run(ctx, fmt.Sprintf("comparing %q with %q", branch, ref),
		"rev-list", "--left-right", "--count", ref+"..."+branch)
	if err != nil {
		return 0, 0, err
	}

	fields := strings.Fields(res.Stdout)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("unexpected rev-list output %q: %w", res.Stdout, keelerrors.ErrGitOperation)
	}
	behind, err = strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("parsing behind count %q: %w", fields[0], keelerrors.ErrGitOperation)
	}
	ahead, err = strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("parsing ahead count %q: %w", fields[1], keelerrors.ErrGitOperation)
	}
	return ahead, behind, nil
}

// MergedBranches returns the local branches already merged into the given ref.
func (r *CLIRunner) MergedBranches(ctx context.Context, into string) ([]string, error) {
	if into == "" {
		return nil, fmt.Errorf("ref: %w", keelerrors.ErrEmptyValue)
	}
	res, err := r.run(ctx, "listing merged branches",
		"branch", "--merged", into, "--format=%(refname:short)")
	if err != nil {
		return nil, err
	}
	if res.Stdout == "" {
		return nil, nil
	}
	return strings.Split(res.Stdout, "\n"), nil
}

// TrackedObjects returns every blob tracked at HEAD with its size.
func (r *CLIRunner) TrackedObjects(ctx context.Context) ([]TrackedObject, error) {
	res, err := r.run(ctx, "listing tracked objects", "ls-tree", "-r", "-l", "HEAD")
	if err != nil {
		return nil, err
	}
	return parseTrackedObjects(res.Stdout), nil
}

// parseBranchList parses "name unixtime" lines from for-each-ref output.
func parseBranchList(output string, remote bool) []Branch {
	if output == "" {
		return nil
	}

	var branches []Branch
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		name := fields[0]
		// Skip symbolic entries like "origin/HEAD".
		if remote && strings.HasSuffix(name, "/HEAD") {
			continue
		}
		unix, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			continue
		}
		branches = append(branches, Branch{
			Name:       name,
			IsRemote:   remote,
			LastCommit: time.Unix(unix, 0).UTC(),
		})
	}
	return branches
}

// parseTrackedObjects parses `git ls-tree -r -l HEAD` output.
// Line format: <mode> <type> <sha> <size>\t<path>
func parseTrackedObjects(output string) []TrackedObject {
	if output == "" {
		return nil
	}

	var objects []TrackedObject
	for _, line := range strings.Split(output, "\n") {
		meta, path, found := strings.Cut(line, "\t")
		if !found {
			continue
		}
		fields := strings.Fields(meta)
		if len(fields) != 4 || fields[1] != "blob" {
			continue
		}
		size, err := strconv.ParseInt(fields[3], 10, 64)
		if err != nil {
			// Submodules and symlinks report "-" for size.
			continue
		}
		objects = append(objects, TrackedObject{Path: path, Size: size})
	}
	return objects
}
