// Package conflict implements guided merge conflict resolution: listing
// conflicted files and resolving each by keeping one side. Strategies that
// need a human (manual editing) are surfaced as such rather than guessed at.
package conflict

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	keelerrors "github.com/mrz1836/keel/internal/errors"
	"github.com/mrz1836/keel/internal/git"
)

// Strategy selects how a conflicted file is resolved.
type Strategy string

// Resolution strategies.
const (
	// StrategyOurs keeps the current branch's version.
	StrategyOurs Strategy = "ours"
	// StrategyTheirs keeps the incoming branch's version.
	StrategyTheirs Strategy = "theirs"
	// StrategyManual defers to the user's editor; the resolver only
	// reports it.
	StrategyManual Strategy = "manual"
)

// Valid reports whether s is a known strategy.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyOurs, StrategyTheirs, StrategyManual:
		return true
	}
	return false
}

// GitRunner is the subset of git operations the resolver needs.
// *git.CLIRunner satisfies it.
type GitRunner interface {
	ConflictedFiles(ctx context.Context) ([]string, error)
	CheckoutConflictSide(ctx context.Context, path string, side git.ConflictSide) error
	Add(ctx context.Context, paths ...string) error
	Commit(ctx context.Context, message string) error
	MergeAbort(ctx context.Context) error
}

// mergeCommitMessage concludes a merge whose conflicts were resolved here.
const mergeCommitMessage = "merge: resolve conflicts"

// Resolver lists and resolves merge conflicts.
type Resolver struct {
	git GitRunner
	log zerolog.Logger
}

// NewResolver creates a conflict resolver.
func NewResolver(g GitRunner, log zerolog.Logger) *Resolver {
	return &Resolver{git: g, log: log}
}

// ListConflicted returns the files currently in the unmerged state.
// Returns ErrNoConflicts when the repository has none.
func (r *Resolver) ListConflicted(ctx context.Context) ([]string, error) {
	files, err := r.git.ConflictedFiles(ctx)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, keelerrors.ErrNoConflicts
	}
	return files, nil
}

// Resolve applies a strategy to one conflicted file and stages it. The
// manual strategy never touches the file: it returns ErrManualResolution so
// the caller can hand control to the user.
func (r *Resolver) Resolve(ctx context.Context, path string, strategy Strategy) error {
	if path == "" {
		return fmt.Errorf("path: %w", keelerrors.ErrEmptyValue)
	}
	if !strategy.Valid() {
		return fmt.Errorf("strategy %q: %w", strategy, keelerrors.ErrConfigInvalid)
	}

	var side git.ConflictSide
	switch strategy {
	case StrategyOurs:
		side = git.ConflictOurs
	case StrategyTheirs:
		side = git.ConflictTheirs
	case StrategyManual:
		return fmt.Errorf("%s: %w", path, keelerrors.ErrManualResolution)
	}

	if err := r.git.CheckoutConflictSide(ctx, path, side); err != nil {
		return err
	}
	if err := r.git.Add(ctx, path); err != nil {
		return err
	}
	r.log.Info().Str("path", path).Str("strategy", string(strategy)).Msg("conflict resolved")
	return nil
}

// ResolveAll applies one strategy to every conflicted file. It stops at the
// first failure so the repository is never left half-staged silently.
func (r *Resolver) ResolveAll(ctx context.Context, strategy Strategy) ([]string, error) {
	files, err := r.ListConflicted(ctx)
	if err != nil {
		return nil, err
	}
	var resolved []string
	for _, path := range files {
		if err := r.Resolve(ctx, path, strategy); err != nil {
			return resolved, err
		}
		resolved = append(resolved, path)
	}
	return resolved, nil
}

// CompleteMerge concludes the in-progress merge with a commit. It refuses
// while any file is still conflicted so a half-resolved merge is never
// committed.
func (r *Resolver) CompleteMerge(ctx context.Context) error {
	files, err := r.git.ConflictedFiles(ctx)
	if err != nil {
		return err
	}
	if len(files) > 0 {
		return fmt.Errorf("%d file(s) still conflicted: %w", len(files), keelerrors.ErrMergeConflict)
	}
	if err := r.git.Commit(ctx, mergeCommitMessage); err != nil {
		return err
	}
	r.log.Info().Msg("merge committed")
	return nil
}

// AbortMerge cancels the in-progress merge entirely.
func (r *Resolver) AbortMerge(ctx context.Context) error {
	if err := r.git.MergeAbort(ctx); err != nil {
		return err
	}
	r.log.Info().Msg("merge aborted")
	return nil
}

// DefaultConfig returns the feature's built-in option values.
func DefaultConfig() map[string]any {
	return map[string]any{
		"default_strategy": string(StrategyManual),
	}
}
