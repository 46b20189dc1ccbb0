// Package cli provides the command-line interface for keel.
package cli

import (
	"context"
	stderrors "errors"

	"github.com/mrz1836/keel/internal/backup"
	"github.com/mrz1836/keel/internal/conflict"
	"github.com/mrz1836/keel/internal/constants"
	"github.com/mrz1836/keel/internal/errors"
	"github.com/mrz1836/keel/internal/feature"
	"github.com/mrz1836/keel/internal/health"
	"github.com/mrz1836/keel/internal/stash"
	"github.com/mrz1836/keel/internal/tui"
	"github.com/mrz1836/keel/internal/workflow"
)

// newFeatureRegistry wires every feature engine into the registry the
// interactive menu dispatches through. Engines are constructed lazily on
// first selection.
func newFeatureRegistry(flags *GlobalFlags) *feature.Registry {
	reg := feature.NewRegistry()

	reg.Register(constants.FeatureBranchWorkflows, func(_ context.Context) (feature.Manager, error) {
		return &workflowFeature{flags: flags}, nil
	})
	reg.Register(constants.FeatureBackupSystem, func(_ context.Context) (feature.Manager, error) {
		return &backupFeature{flags: flags}, nil
	})
	reg.Register(constants.FeatureHealthDashboard, func(_ context.Context) (feature.Manager, error) {
		return &healthFeature{flags: flags}, nil
	})
	reg.Register(constants.FeatureStashManager, func(_ context.Context) (feature.Manager, error) {
		return &stashFeature{flags: flags}, nil
	})
	reg.Register(constants.FeatureConflictResolver, func(_ context.Context) (feature.Manager, error) {
		return &conflictFeature{flags: flags}, nil
	})

	return reg
}

// workflowFeature exposes the branch workflow engine through the feature
// contract.
type workflowFeature struct {
	flags *GlobalFlags
}

func (f *workflowFeature) Name() string                  { return constants.FeatureBranchWorkflows }
func (f *workflowFeature) DefaultConfig() map[string]any { return workflow.DefaultConfig() }
func (f *workflowFeature) ContextHelp() string {
	return "Guided feature/release/hotfix branches with automatic rollback on failure."
}

func (f *workflowFeature) Menu(ctx context.Context) error {
	action, err := tui.Select("Branch workflows", []string{"start", "finish", "abort", "status"})
	if err != nil {
		return err
	}

	switch action {
	case "start":
		kind, err := tui.Select("Workflow kind", []string{
			string(workflow.KindFeature),
			string(workflow.KindRelease),
			string(workflow.KindHotfix),
		})
		if err != nil {
			return err
		}
		name, err := tui.Input("Branch name", "login-page")
		if err != nil {
			return err
		}
		return runStart(ctx, f.flags, workflow.Kind(kind), name)
	case "finish":
		return runFinish(ctx, f.flags, "")
	case "abort":
		return runAbort(ctx, f.flags, "")
	default:
		return runStatus(ctx, f.flags)
	}
}

// backupFeature exposes the backup orchestrator through the feature
// contract.
type backupFeature struct {
	flags *GlobalFlags
}

func (f *backupFeature) Name() string                  { return constants.FeatureBackupSystem }
func (f *backupFeature) DefaultConfig() map[string]any { return backup.DefaultConfig() }
func (f *backupFeature) ContextHelp() string {
	return "Push branches to every configured remote and keep a per-destination history."
}

func (f *backupFeature) Menu(ctx context.Context) error {
	action, err := tui.Select("Backups", []string{"run", "list", "restore", "prune"})
	if err != nil {
		return err
	}

	switch action {
	case "run":
		return runBackup(ctx, f.flags, nil)
	case "list":
		return runBackupList(ctx, f.flags)
	case "restore":
		id, err := tui.Input("Backup ID", "")
		if err != nil {
			return err
		}
		dest, err := tui.Input("Destination (blank for first successful)", "")
		if err != nil {
			return err
		}
		return runBackupRestore(ctx, f.flags, id, dest)
	default:
		return runBackupPrune(ctx, f.flags, false)
	}
}

// healthFeature exposes the health analyzer through the feature contract.
type healthFeature struct {
	flags *GlobalFlags
}

func (f *healthFeature) Name() string                  { return constants.FeatureHealthDashboard }
func (f *healthFeature) DefaultConfig() map[string]any { return health.DefaultConfig() }
func (f *healthFeature) ContextHelp() string {
	return "Scan for stale branches, large objects, and diverged or unmerged branches."
}

func (f *healthFeature) Menu(ctx context.Context) error {
	return runHealth(ctx, f.flags)
}

// stashFeature exposes the named stash manager through the feature
// contract.
type stashFeature struct {
	flags *GlobalFlags
}

func (f *stashFeature) Name() string                  { return constants.FeatureStashManager }
func (f *stashFeature) DefaultConfig() map[string]any { return stash.DefaultConfig() }
func (f *stashFeature) ContextHelp() string {
	return "Save, apply, and drop stashes by name instead of stash@{N} indexes."
}

func (f *stashFeature) Menu(ctx context.Context) error {
	action, err := tui.Select("Named stashes", []string{"save", "list", "apply", "drop"})
	if err != nil {
		return err
	}

	switch action {
	case "save":
		name, err := tui.Input("Stash name", "wip-login")
		if err != nil {
			return err
		}
		message, err := tui.Input("Message (optional)", "")
		if err != nil {
			return err
		}
		return runStashSave(ctx, f.flags, name, message)
	case "list":
		return runStashList(ctx, f.flags)
	case "apply":
		name, err := tui.Input("Stash name", "")
		if err != nil {
			return err
		}
		return runStashApply(ctx, f.flags, name)
	default:
		name, err := tui.Input("Stash name", "")
		if err != nil {
			return err
		}
		return runStashDrop(ctx, f.flags, name)
	}
}

// conflictFeature exposes the conflict resolver through the feature
// contract.
type conflictFeature struct {
	flags *GlobalFlags
}

func (f *conflictFeature) Name() string                  { return constants.FeatureConflictResolver }
func (f *conflictFeature) DefaultConfig() map[string]any { return conflict.DefaultConfig() }
func (f *conflictFeature) ContextHelp() string {
	return "List conflicted files and resolve each by keeping one side."
}

func (f *conflictFeature) Menu(ctx context.Context) error {
	err := runResolveMenu(ctx, f.flags)
	// Backing out of the resolver menu is not a failure.
	if stderrors.Is(err, errors.ErrUserCanceled) {
		return nil
	}
	return err
}

// runResolveMenu walks the conflicted files one at a time, asking for a
// strategy per file.
func runResolveMenu(ctx context.Context, flags *GlobalFlags) error {
	rt, err := newRuntime(ctx, flags)
	if err != nil {
		return fail(nil, flags, err)
	}

	resolver := rt.conflictResolver()
	files, err := resolver.ListConflicted(ctx)
	if stderrors.Is(err, errors.ErrNoConflicts) {
		rt.out.Success("no conflicted files")
		return nil
	}
	if err != nil {
		return fail(rt, flags, err)
	}

	for _, path := range files {
		strategy, err := chooseStrategy(path)
		if err != nil {
			return err
		}
		if err := runResolveOne(ctx, rt, flags, resolver, path, strategy); err != nil {
			return err
		}
	}
	return nil
}
