// Package workflow provides branch lifecycle automation for KEEL.
//
// This file implements the Engine, which drives start/finish/abort for
// feature, release, and hotfix branches. Every mutating step is appended to
// the session's completed-steps log before the next step runs; on failure or
// abort the log is replayed in reverse through each step's declared inverse.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mrz1836/keel/internal/clock"
	"github.com/mrz1836/keel/internal/ctxutil"
	keelerrors "github.com/mrz1836/keel/internal/errors"
)

// GitRunner is the subset of git operations the engine needs. *git.CLIRunner
// satisfies it.
type GitRunner interface {
	CurrentBranch(ctx context.Context) (string, error)
	IsWorkingTreeClean(ctx context.Context) (bool, error)
	RevParse(ctx context.Context, ref string) (string, error)
	BranchExists(ctx context.Context, name string) (bool, error)
	TagExists(ctx context.Context, name string) (bool, error)
	CreateBranch(ctx context.Context, name, base string) error
	CreateBranchAt(ctx context.Context, name, sha string) error
	Checkout(ctx context.Context, name string) error
	DeleteBranch(ctx context.Context, name string, force bool) error
	Merge(ctx context.Context, branch, message string) error
	MergeAbort(ctx context.Context) error
	ResetHard(ctx context.Context, ref string) error
	Tag(ctx context.Context, name, message string) error
	DeleteTag(ctx context.Context, name string) error
	Push(ctx context.Context, remote, branch string) error
	PushTag(ctx context.Context, remote, tag string) error
}

// Engine drives workflow sessions against a git repository.
type Engine struct {
	git    GitRunner
	store  *SessionStore
	model  Model
	opts   Options
	remote string
	clk    clock.Clock
	log    zerolog.Logger
}

// Params configures a new Engine.
type Params struct {
	Git    GitRunner
	Store  *SessionStore
	Model  Model
	Opts   Options
	Remote string
	Clock  clock.Clock
	Logger zerolog.Logger
}

// NewEngine creates a workflow engine. A nil Clock falls back to the system
// clock.
func NewEngine(p Params) *Engine {
	clk := p.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Engine{
		git:    p.Git,
		store:  p.Store,
		model:  p.Model,
		opts:   p.Opts,
		remote: p.Remote,
		clk:    clk,
		log:    p.Logger,
	}
}

// Result reports the outcome of a finish or abort.
type Result struct {
	Session *Session

	// FailedStep identifies the step that failed, when State is failed.
	FailedStep StepID

	// RollbackWarnings lists undo operations that could not complete. An
	// empty slice means rollback (if any) fully succeeded.
	RollbackWarnings []string
}

// Start begins a new workflow session: validates, creates the branch from
// its base, and persists the session. All validation happens before any
// repository mutation.
func (e *Engine) Start(ctx context.Context, kind Kind, name string) (*Session, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%q: %w", kind, keelerrors.ErrUnknownWorkflowKind)
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("branch name: %w", keelerrors.ErrEmptyValue)
	}

	branch := e.model.BranchName(kind, name)
	base := e.model.BaseBranch(kind)

	if existing, err := e.store.Get(branch); err == nil && existing != nil {
		return nil, fmt.Errorf("branch %q: %w", branch, keelerrors.ErrSessionActive)
	} else if err != nil && !errors.Is(err, keelerrors.ErrSessionNotFound) {
		return nil, err
	}

	clean, err := e.git.IsWorkingTreeClean(ctx)
	if err != nil {
		return nil, err
	}
	if !clean {
		return nil, keelerrors.ErrDirtyWorkingTree
	}

	if exists, err := e.git.BranchExists(ctx, branch); err != nil {
		return nil, err
	} else if exists {
		return nil, fmt.Errorf("branch %q: %w", branch, keelerrors.ErrBranchExists)
	}
	if exists, err := e.git.BranchExists(ctx, base); err != nil {
		return nil, err
	} else if !exists {
		return nil, fmt.Errorf("base branch %q: %w", base, keelerrors.ErrBranchNotFound)
	}

	if err := e.git.CreateBranch(ctx, branch, base); err != nil {
		return nil, err
	}

	sess := &Session{
		ID:         uuid.NewString(),
		Kind:       kind,
		BranchName: branch,
		BaseBranch: base,
		StartedAt:  e.clk.Now(),
		State:      StateNotStarted,
	}
	sess.recordStep(StepRecord{ID: StepBranchCreated, Branch: branch, CompletedAt: e.clk.Now()})
	if err := sess.transition(StateInProgress); err != nil {
		return nil, err
	}
	if err := e.store.Put(sess); err != nil {
		return nil, err
	}

	e.log.Info().
		Str("kind", string(kind)).
		Str("branch", branch).
		Str("base", base).
		Msg("workflow session started")
	return sess, nil
}

// Finish completes a session: merges, tags, deletes, and pushes per the
// model and options. Each completed step is appended to the session log; if
// a step fails, the steps completed by this finish are rolled back in
// reverse and the session transitions to failed. Steps completed by earlier
// operations (the branch creation in particular) are left intact so no
// committed work is discarded.
func (e *Engine) Finish(ctx context.Context, sess *Session) (*Result, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}
	if sess.State != StateInProgress {
		return nil, fmt.Errorf("session is %s: %w", sess.State, keelerrors.ErrInvalidTransition)
	}

	clean, err := e.git.IsWorkingTreeClean(ctx)
	if err != nil {
		return nil, err
	}
	if !clean {
		return nil, keelerrors.ErrDirtyWorkingTree
	}

	mark := len(sess.CompletedSteps)
	for _, step := range e.buildPlan(sess) {
		rec, err := step.run(ctx)
		if err != nil {
			warnings := e.rollbackFrom(ctx, sess, mark)
			_ = sess.transition(StateFailed)
			_ = e.store.Remove(sess.BranchName)
			e.log.Error().
				Str("branch", sess.BranchName).
				Str("step", string(step.id)).
				Err(err).
				Msg("workflow finish failed, rolled back")
			return &Result{Session: sess, FailedStep: step.id, RollbackWarnings: warnings}, err
		}
		sess.recordStep(*rec)
		if err := e.store.Put(sess); err != nil {
			e.log.Warn().Err(err).Msg("could not persist session progress")
		}
	}

	if err := sess.transition(StateCompleted); err != nil {
		return nil, err
	}
	if err := e.store.Remove(sess.BranchName); err != nil {
		return nil, err
	}

	e.log.Info().
		Str("branch", sess.BranchName).
		Int("steps", len(sess.CompletedSteps)).
		Msg("workflow session completed")
	return &Result{Session: sess}, nil
}

// Abort cancels a session on explicit user request, rolling back every
// completed step in reverse order, including the branch creation. Undo
// failures do not stop the remaining undos; they are collected as warnings.
func (e *Engine) Abort(ctx context.Context, sess *Session) (*Result, error) {
	if sess.State != StateInProgress {
		return nil, fmt.Errorf("session is %s: %w", sess.State, keelerrors.ErrInvalidTransition)
	}

	warnings := e.rollbackFrom(ctx, sess, 0)
	if err := sess.transition(StateAborted); err != nil {
		return nil, err
	}
	if err := e.store.Remove(sess.BranchName); err != nil {
		return nil, err
	}

	e.log.Info().
		Str("branch", sess.BranchName).
		Int("warnings", len(warnings)).
		Msg("workflow session aborted")
	return &Result{Session: sess, RollbackWarnings: warnings}, nil
}

// plannedStep is one forward step of a finish plan.
type plannedStep struct {
	id  StepID
	run func(ctx context.Context) (*StepRecord, error)
}

// buildPlan assembles the ordered finish steps for a session per its kind,
// the model, and the effective options.
func (e *Engine) buildPlan(sess *Session) []plannedStep {
	var plan []plannedStep

	shortName := strings.TrimPrefix(sess.BranchName, e.model.Prefix(sess.Kind))
	tagName := e.opts.TagPrefix + shortName

	tagged := false
	switch sess.Kind {
	case KindFeature:
		plan = append(plan, e.mergeStep(StepMergedIntegration, e.model.Integration, sess.BranchName))
	case KindRelease, KindHotfix:
		if e.model.TagReleases {
			plan = append(plan, e.tagStep(tagName, sess.BranchName))
			tagged = true
		}
		plan = append(plan, e.mergeStep(StepMergedIntegration, e.model.Integration, sess.BranchName))
		if e.model.Stable != "" && e.model.Stable != e.model.Integration {
			plan = append(plan, e.mergeStep(StepMergedStable, e.model.Stable, sess.BranchName))
		}
	}

	if e.opts.DeleteAfterMerge {
		plan = append(plan, e.deleteStep(sess.BranchName))
	}
	if e.opts.PushAfterFinish {
		plan = append(plan, e.pushStep(e.model.Integration))
		if sess.Kind != KindFeature && e.model.Stable != "" && e.model.Stable != e.model.Integration {
			plan = append(plan, e.pushStep(e.model.Stable))
		}
		if tagged {
			plan = append(plan, e.pushTagStep(tagName))
		}
	}
	return plan
}

// mergeStep merges source into target. The target's pre-merge commit is
// recorded first so the inverse can reset to it. A conflicting merge is
// aborted in place before the error is returned.
func (e *Engine) mergeStep(id StepID, target, source string) plannedStep {
	return plannedStep{id: id, run: func(ctx context.Context) (*StepRecord, error) {
		prior, err := e.git.RevParse(ctx, target)
		if err != nil {
			return nil, err
		}
		if err := e.git.Checkout(ctx, target); err != nil {
			return nil, err
		}
		message := fmt.Sprintf("Merge branch '%s' into %s", source, target)
		if err := e.git.Merge(ctx, source, message); err != nil {
			if errors.Is(err, keelerrors.ErrMergeConflict) {
				_ = e.git.MergeAbort(ctx)
			}
			return nil, err
		}
		return &StepRecord{ID: id, Branch: target, PriorSHA: prior, CompletedAt: e.clk.Now()}, nil
	}}
}

// tagStep creates an annotated tag on the session branch head.
func (e *Engine) tagStep(tagName, branch string) plannedStep {
	return plannedStep{id: StepTagCreated, run: func(ctx context.Context) (*StepRecord, error) {
		if exists, err := e.git.TagExists(ctx, tagName); err != nil {
			return nil, err
		} else if exists {
			return nil, fmt.Errorf("tag %q: %w", tagName, keelerrors.ErrTagExists)
		}
		if err := e.git.Checkout(ctx, branch); err != nil {
			return nil, err
		}
		if err := e.git.Tag(ctx, tagName, fmt.Sprintf("Release %s", tagName)); err != nil {
			return nil, err
		}
		return &StepRecord{ID: StepTagCreated, Branch: branch, Tag: tagName, CompletedAt: e.clk.Now()}, nil
	}}
}

// deleteStep removes the session branch after merge, recording its head
// commit so the inverse can recreate it.
func (e *Engine) deleteStep(branch string) plannedStep {
	return plannedStep{id: StepBranchDeleted, run: func(ctx context.Context) (*StepRecord, error) {
		prior, err := e.git.RevParse(ctx, branch)
		if err != nil {
			return nil, err
		}
		if err := e.git.DeleteBranch(ctx, branch, false); err != nil {
			return nil, err
		}
		return &StepRecord{ID: StepBranchDeleted, Branch: branch, PriorSHA: prior, CompletedAt: e.clk.Now()}, nil
	}}
}

// pushStep pushes a branch to the configured remote.
func (e *Engine) pushStep(branch string) plannedStep {
	return plannedStep{id: StepPushedUpstream, run: func(ctx context.Context) (*StepRecord, error) {
		if err := e.git.Push(ctx, e.remote, branch); err != nil {
			return nil, err
		}
		return &StepRecord{ID: StepPushedUpstream, Branch: branch, Remote: e.remote, CompletedAt: e.clk.Now()}, nil
	}}
}

// pushTagStep pushes the tag created earlier in the plan to the configured
// remote.
func (e *Engine) pushTagStep(tagName string) plannedStep {
	return plannedStep{id: StepPushedTag, run: func(ctx context.Context) (*StepRecord, error) {
		if err := e.git.PushTag(ctx, e.remote, tagName); err != nil {
			return nil, err
		}
		return &StepRecord{ID: StepPushedTag, Tag: tagName, Remote: e.remote, CompletedAt: e.clk.Now()}, nil
	}}
}

// rollbackFrom replays completed steps in reverse order starting at index
// from, applying each step's inverse. Exactly one undo attempt is made per
// step; failures are collected as warnings rather than stopping the
// remaining undos. Rollback runs even when the surrounding context was
// canceled: an interrupted operation still gets cleaned up.
func (e *Engine) rollbackFrom(ctx context.Context, sess *Session, from int) []string {
	ctx = context.WithoutCancel(ctx)

	var warnings []string
	steps := sess.CompletedSteps[from:]
	for i := len(steps) - 1; i >= 0; i-- {
		rec := steps[i]
		if err := e.undoStep(ctx, sess, rec); err != nil {
			warnings = append(warnings, fmt.Sprintf("undo %s: %v", rec.ID, err))
			e.log.Warn().
				Str("step", string(rec.ID)).
				Err(err).
				Msg("rollback step failed")
		}
	}
	return warnings
}

// undoStep applies the declared inverse of a single completed step.
func (e *Engine) undoStep(ctx context.Context, sess *Session, rec StepRecord) error {
	switch rec.ID {
	case StepBranchCreated:
		// The branch may be checked out; move off it before deleting.
		if current, err := e.git.CurrentBranch(ctx); err == nil && current == rec.Branch {
			if err := e.git.Checkout(ctx, sess.BaseBranch); err != nil {
				return err
			}
		}
		return e.git.DeleteBranch(ctx, rec.Branch, true)
	case StepMergedIntegration, StepMergedStable:
		if err := e.git.Checkout(ctx, rec.Branch); err != nil {
			return err
		}
		return e.git.ResetHard(ctx, rec.PriorSHA)
	case StepTagCreated:
		return e.git.DeleteTag(ctx, rec.Tag)
	case StepBranchDeleted:
		return e.git.CreateBranchAt(ctx, rec.Branch, rec.PriorSHA)
	case StepPushedUpstream:
		return fmt.Errorf("push of %q to %q cannot be undone automatically: %w",
			rec.Branch, rec.Remote, keelerrors.ErrGitOperation)
	case StepPushedTag:
		return fmt.Errorf("push of tag %q to %q cannot be undone automatically: %w",
			rec.Tag, rec.Remote, keelerrors.ErrGitOperation)
	default:
		return fmt.Errorf("no inverse for step %q: %w", rec.ID, keelerrors.ErrGitOperation)
	}
}
