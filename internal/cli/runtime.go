package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mrz1836/keel/internal/backup"
	"github.com/mrz1836/keel/internal/config"
	"github.com/mrz1836/keel/internal/conflict"
	"github.com/mrz1836/keel/internal/constants"
	"github.com/mrz1836/keel/internal/errors"
	"github.com/mrz1836/keel/internal/git"
	"github.com/mrz1836/keel/internal/health"
	"github.com/mrz1836/keel/internal/stash"
	"github.com/mrz1836/keel/internal/tui"
	"github.com/mrz1836/keel/internal/workflow"
)

// runtime bundles everything a command handler needs: loaded configuration,
// a git runner bound to the working directory, the repository's .git path
// for state files, and the output sink matching the --output flag.
//
// It is built once per invocation in the command's RunE, after
// PersistentPreRunE has initialized the logger.
type runtime struct {
	cfg    *config.Config
	runner *git.CLIRunner
	gitDir string
	out    tui.Output
	log    zerolog.Logger
}

// newRuntime loads configuration and connects to the repository given by
// --repo, defaulting to the current working directory. Commands that must
// run inside a repository call this; it fails with ErrNotGitRepo outside
// one.
func newRuntime(ctx context.Context, flags *GlobalFlags) (*runtime, error) {
	logger := GetLogger()

	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}

	wd := flags.Repo
	if wd == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "resolving working directory")
		}
		wd = cwd
	}

	exec := git.NewExecutorWithTimeouts(wd, logger, cfg.Git.CommandTimeout, cfg.Git.NetworkTimeout)
	runner, err := git.NewRunner(ctx, exec)
	if err != nil {
		return nil, err
	}

	gitDir, err := runner.GitDir(ctx)
	if err != nil {
		return nil, err
	}

	return &runtime{
		cfg:    cfg,
		runner: runner,
		gitDir: gitDir,
		out:    tui.NewOutput(os.Stdout, flags.Output),
		log:    logger,
	}, nil
}

// workflowEngine builds the branch workflow engine from the effective
// branch_workflows options.
func (rt *runtime) workflowEngine() (*workflow.Engine, error) {
	opts, err := workflow.ResolveOptions(rt.cfg.FeatureOverrides(constants.FeatureBranchWorkflows))
	if err != nil {
		return nil, err
	}
	if rt.cfg.AutoPush {
		opts.PushAfterFinish = true
	}

	model, err := workflow.ModelFor(opts.DefaultWorkflow, rt.cfg.DefaultBranch)
	if err != nil {
		return nil, err
	}

	return workflow.NewEngine(workflow.Params{
		Git:    rt.runner,
		Store:  workflow.NewSessionStore(rt.gitDir),
		Model:  model,
		Opts:   opts,
		Remote: rt.cfg.DefaultRemote,
		Logger: rt.log,
	}), nil
}

// backupOrchestrator builds the backup orchestrator from the effective
// backup_system options.
func (rt *runtime) backupOrchestrator() (*backup.Orchestrator, error) {
	opts, err := backup.ResolveOptions(rt.cfg.FeatureOverrides(constants.FeatureBackupSystem))
	if err != nil {
		return nil, err
	}

	return backup.New(backup.Params{
		Git:      rt.runner,
		Store:    backup.NewHistoryStore(rt.gitDir),
		Sessions: workflow.NewSessionStore(rt.gitDir),
		Opts:     opts,
		Logger:   rt.log,
	}), nil
}

// healthAnalyzer builds the repository health analyzer from the effective
// health_dashboard options.
func (rt *runtime) healthAnalyzer() (*health.Analyzer, error) {
	opts, err := health.ResolveOptions(rt.cfg.FeatureOverrides(constants.FeatureHealthDashboard))
	if err != nil {
		return nil, err
	}

	return health.NewAnalyzer(health.Params{
		Git:           rt.runner,
		Opts:          opts,
		DefaultBranch: rt.cfg.DefaultBranch,
		Logger:        rt.log,
	}), nil
}

// stashManager builds the named stash manager from the effective
// stash_manager options.
func (rt *runtime) stashManager() (*stash.Manager, error) {
	opts, err := stash.ResolveOptions(rt.cfg.FeatureOverrides(constants.FeatureStashManager))
	if err != nil {
		return nil, err
	}

	return stash.NewManager(stash.Params{
		Git:    rt.runner,
		GitDir: rt.gitDir,
		Opts:   opts,
		Logger: rt.log,
	}), nil
}

// conflictResolver builds the conflict resolver.
func (rt *runtime) conflictResolver() *conflict.Resolver {
	return conflict.NewResolver(rt.runner, rt.log)
}

// newStdOutput creates an output sink on stdout for commands that do not
// need a repository runtime.
func newStdOutput(flags *GlobalFlags) tui.Output {
	return tui.NewOutput(os.Stdout, flags.Output)
}

// reported marks an error as already written to the output sink. The
// original error stays unwrappable so exit code mapping still works.
func reported(err error) error {
	return fmt.Errorf("%w: %w", errors.ErrAlreadyReported, err)
}

// handled silences cobra's own error printing for errors the command has
// already reported, while keeping the non-zero exit code.
func handled(cmd *cobra.Command, err error) error {
	if stderrors.Is(err, errors.ErrAlreadyReported) {
		cmd.SilenceErrors = true
	}
	return err
}

// fail writes the error to the output sink and marks it reported. When the
// runtime itself could not be built, a fresh sink is created so JSON mode
// still gets a structured error.
func fail(rt *runtime, flags *GlobalFlags, err error) error {
	if rt != nil {
		rt.out.Error(err)
	} else {
		tui.NewOutput(os.Stderr, flags.Output).Error(err)
	}
	return reported(err)
}
