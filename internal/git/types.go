// Package git provides git operations for KEEL.
// This file defines shared types returned by repository queries.
package git

import "time"

// Branch describes one local or remote-tracking branch.
type Branch struct {
	// Name is the short ref name (e.g. "feature/login" or "origin/main").
	Name string
	// IsRemote is true for remote-tracking branches.
	IsRemote bool
	// LastCommit is the committer date of the branch tip.
	LastCommit time.Time
}

// TrackedObject describes one blob tracked at HEAD.
type TrackedObject struct {
	// Path is the repository-relative file path.
	Path string
	// Size is the blob size in bytes.
	Size int64
}

// StashRef describes one entry in the git stash reflog.
type StashRef struct {
	// SHA is the stash commit hash. Stable across stack shifts.
	SHA string
	// Ref is the positional name (e.g. "stash@{0}"). Valid only until the
	// stash stack changes.
	Ref string
	// Subject is the stash message line.
	Subject string
}
