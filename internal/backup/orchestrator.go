package backup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mrz1836/keel/internal/clock"
	"github.com/mrz1836/keel/internal/ctxutil"
	keelerrors "github.com/mrz1836/keel/internal/errors"
	"github.com/mrz1836/keel/internal/git"
)

// GitRunner is the subset of git operations the orchestrator needs.
// *git.CLIRunner satisfies it.
type GitRunner interface {
	CurrentBranch(ctx context.Context) (string, error)
	LocalBranches(ctx context.Context) ([]git.Branch, error)
	BranchExists(ctx context.Context, name string) (bool, error)
	Remotes(ctx context.Context) ([]string, error)
	Push(ctx context.Context, remote, branch string) error
	FetchBranchFastForward(ctx context.Context, remote, branch string) error
}

// SessionGuard reports branches that have an in-progress workflow session.
// *workflow.SessionStore satisfies it.
type SessionGuard interface {
	ActiveBranches() ([]string, error)
}

// Orchestrator pushes branches to destination remotes and keeps the backup
// history. Destinations are isolated: one failing destination never stops
// the remaining ones, and every run produces a persisted record reporting
// each destination's outcome.
type Orchestrator struct {
	git      GitRunner
	store    *HistoryStore
	sessions SessionGuard
	opts     Options
	clk      clock.Clock
	log      zerolog.Logger
}

// Params configures a new Orchestrator.
type Params struct {
	Git      GitRunner
	Store    *HistoryStore
	Sessions SessionGuard
	Opts     Options
	Clock    clock.Clock
	Logger   zerolog.Logger
}

// New creates a backup orchestrator. A nil Clock falls back to the system
// clock; a nil Sessions disables the workflow session guard.
func New(p Params) *Orchestrator {
	clk := p.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Orchestrator{
		git:      p.Git,
		store:    p.Store,
		sessions: p.Sessions,
		opts:     p.Opts,
		clk:      clk,
		log:      p.Logger,
	}
}

// Run backs up the given branches to every configured destination. With no
// branches given, the current branch is used (or all local branches when
// the all_branches option is set). Validation happens before any network
// operation: missing branches and branches with an in-progress workflow
// session are rejected outright. After that, each destination is attempted
// independently and the run never returns an error for a destination
// failure; a destination that is not a configured remote fails with a
// not_found outcome without being attempted. The outcome of every
// destination is in the returned record.
func (o *Orchestrator) Run(ctx context.Context, branches []string) (*Record, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}
	if len(o.opts.Remotes) == 0 {
		return nil, keelerrors.ErrNoDestinations
	}

	branches, err := o.resolveBranches(ctx, branches)
	if err != nil {
		return nil, err
	}
	if err := o.rejectBranchesInWorkflow(branches); err != nil {
		return nil, err
	}
	for _, br := range branches {
		exists, err := o.git.BranchExists(ctx, br)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("branch %q: %w", br, keelerrors.ErrBranchNotFound)
		}
	}

	configured, err := o.git.Remotes(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(configured))
	for _, name := range configured {
		known[name] = true
	}

	now := o.clk.Now()
	rec := Record{
		ID:            uuid.NewString(),
		Timestamp:     now,
		Branches:      branches,
		Destinations:  o.opts.Remotes,
		Outcomes:      make(map[string]Outcome, len(o.opts.Remotes)),
		RetainedUntil: now.Add(time.Duration(o.opts.RetentionDays) * 24 * time.Hour),
	}

	for _, dest := range o.opts.Remotes {
		if !known[dest] {
			o.log.Warn().Str("destination", dest).Msg("backup destination is not a configured remote")
			rec.Outcomes[dest] = Outcome{
				Succeeded: false,
				Category:  git.FailureNotFound.String(),
				Detail:    fmt.Sprintf("remote %q is not configured", dest),
			}
			continue
		}
		rec.Outcomes[dest] = o.backupTo(ctx, dest, branches)
	}

	if err := o.store.Append(rec); err != nil {
		return nil, err
	}

	o.log.Info().
		Str("backup_id", rec.ID).
		Strs("branches", branches).
		Str("summary", rec.Summary()).
		Msg("backup run finished")
	return &rec, nil
}

// backupTo pushes every branch to one destination. The destination fails on
// the first failing branch; the error is classified so the outcome tells a
// non-fast-forward rejection apart from a network or auth failure.
func (o *Orchestrator) backupTo(ctx context.Context, dest string, branches []string) Outcome {
	for _, br := range branches {
		if err := o.git.Push(ctx, dest, br); err != nil {
			o.log.Warn().
				Str("destination", dest).
				Str("branch", br).
				Err(err).
				Msg("backup destination failed")
			return Outcome{Succeeded: false, Category: categorize(err), Detail: err.Error()}
		}
	}
	return Outcome{Succeeded: true}
}

// rejectBranchesInWorkflow refuses to back up a branch that has an
// in-progress workflow session: the session's rollback can rewrite the
// branch, and a backup taken mid-session would capture a head the finish is
// allowed to discard.
func (o *Orchestrator) rejectBranchesInWorkflow(branches []string) error {
	if o.sessions == nil {
		return nil
	}
	active, err := o.sessions.ActiveBranches()
	if err != nil {
		return err
	}
	inSession := make(map[string]bool, len(active))
	for _, name := range active {
		inSession[name] = true
	}
	for _, br := range branches {
		if inSession[br] {
			return fmt.Errorf("branch %q: %w", br, keelerrors.ErrBranchInWorkflow)
		}
	}
	return nil
}

// resolveBranches expands an empty branch selection per the options.
func (o *Orchestrator) resolveBranches(ctx context.Context, branches []string) ([]string, error) {
	if len(branches) > 0 {
		return branches, nil
	}
	if o.opts.AllBranches {
		all, err := o.git.LocalBranches(ctx)
		if err != nil {
			return nil, err
		}
		names := make([]string, len(all))
		for i, b := range all {
			names[i] = b.Name
		}
		return names, nil
	}
	current, err := o.git.CurrentBranch(ctx)
	if err != nil {
		return nil, err
	}
	return []string{current}, nil
}

// RestoreResult reports a restore: the destination used as source and the
// per-branch outcomes.
type RestoreResult struct {
	Source   string             `json:"source"`
	Outcomes map[string]Outcome `json:"outcomes"`
}

// Restore fetches the branches of a backup record back from one of its
// destinations. An empty destination picks the first destination that
// succeeded in that record; an explicit destination must be one the record
// was written to. Restores are fast-forward only: a local branch that has
// diverged from the backup is reported as a conflict outcome and left
// untouched, never force-overwritten.
func (o *Orchestrator) Restore(ctx context.Context, recordID, destination string) (*RestoreResult, error) {
	rec, err := o.store.Get(recordID)
	if err != nil {
		return nil, err
	}

	source, err := restoreSource(rec, destination)
	if err != nil {
		return nil, err
	}

	result := &RestoreResult{
		Source:   source,
		Outcomes: make(map[string]Outcome, len(rec.Branches)),
	}
	for _, br := range rec.Branches {
		if err := o.git.FetchBranchFastForward(ctx, source, br); err != nil {
			result.Outcomes[br] = Outcome{Succeeded: false, Category: restoreCategory(err), Detail: err.Error()}
			continue
		}
		result.Outcomes[br] = Outcome{Succeeded: true}
	}

	o.log.Info().
		Str("backup_id", recordID).
		Str("source", source).
		Msg("restore finished")
	return result, nil
}

// restoreSource resolves the destination a restore fetches from.
func restoreSource(rec *Record, destination string) (string, error) {
	if destination != "" {
		for _, dest := range rec.Destinations {
			if dest == destination {
				return destination, nil
			}
		}
		return "", fmt.Errorf("backup %q was not written to %q: %w", rec.ID, destination, keelerrors.ErrUnknownDestination)
	}
	for _, dest := range rec.Destinations {
		if rec.Outcomes[dest].Succeeded {
			return dest, nil
		}
	}
	return "", fmt.Errorf("backup %q has no successful destination: %w", rec.ID, keelerrors.ErrNoDestinations)
}

// EligibleForPruning returns the records whose retention window has passed.
// It never removes anything.
func (o *Orchestrator) EligibleForPruning() ([]Record, error) {
	records, err := o.store.List()
	if err != nil {
		return nil, err
	}
	now := o.clk.Now()
	var eligible []Record
	for _, rec := range records {
		if rec.RetainedUntil.Before(now) {
			eligible = append(eligible, rec)
		}
	}
	return eligible, nil
}

// Prune removes all retention-expired records from the history and returns
// how many were removed. Pruning only happens through this explicit call.
func (o *Orchestrator) Prune() (int, error) {
	records, err := o.store.List()
	if err != nil {
		return 0, err
	}
	now := o.clk.Now()
	kept := records[:0]
	for _, rec := range records {
		if !rec.RetainedUntil.Before(now) {
			kept = append(kept, rec)
		}
	}
	removed := len(records) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := o.store.Replace(kept); err != nil {
		return 0, err
	}
	o.log.Info().Int("removed", removed).Msg("backup history pruned")
	return removed, nil
}

// categorize maps a push error to its stable failure category name.
func categorize(err error) string {
	if errors.Is(err, keelerrors.ErrCommandTimeout) {
		return git.FailureTimeout.String()
	}
	return git.Classify(err.Error()).String()
}

// restoreCategory maps a restore error, giving diverged branches their own
// name since the remediation (manual merge) differs from every other class.
func restoreCategory(err error) string {
	if errors.Is(err, keelerrors.ErrDivergedBranch) {
		return "diverged"
	}
	return categorize(err)
}
