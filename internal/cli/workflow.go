// Package cli provides the command-line interface for keel.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/keel/internal/signal"
	"github.com/mrz1836/keel/internal/tui"
	"github.com/mrz1836/keel/internal/workflow"
)

// AddStartCommand adds the start command to the root command.
func AddStartCommand(root *cobra.Command, flags *GlobalFlags) {
	root.AddCommand(newStartCmd(flags))
}

// newStartCmd creates the start command.
func newStartCmd(flags *GlobalFlags) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "start <name>",
		Short: "Start a new branch workflow session",
		Long: `Start a new workflow session: creates the branch from its base according
to the configured workflow model and begins tracking completed steps so the
session can be finished or rolled back later.

Examples:
  keel start login-page                # feature branch from the integration branch
  keel start 2.1.0 --kind release      # release branch
  keel start fix-crash --kind hotfix   # hotfix branch from the stable branch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handled(cmd, runStart(cmd.Context(), flags, workflow.Kind(kind), args[0]))
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", string(workflow.KindFeature), "workflow kind (feature|release|hotfix)")

	return cmd
}

// runStart executes the start command.
func runStart(ctx context.Context, flags *GlobalFlags, kind workflow.Kind, name string) error {
	rt, err := newRuntime(ctx, flags)
	if err != nil {
		return fail(nil, flags, err)
	}

	engine, err := rt.workflowEngine()
	if err != nil {
		return fail(rt, flags, err)
	}

	sess, err := engine.Start(ctx, kind, name)
	if err != nil {
		return fail(rt, flags, err)
	}

	if flags.Output == OutputJSON {
		return rt.out.JSON(sess)
	}
	rt.out.Success(fmt.Sprintf("started %s workflow on %s (base: %s)", sess.Kind, sess.BranchName, sess.BaseBranch))
	return nil
}

// AddFinishCommand adds the finish command to the root command.
func AddFinishCommand(root *cobra.Command, flags *GlobalFlags) {
	root.AddCommand(newFinishCmd(flags))
}

// newFinishCmd creates the finish command.
func newFinishCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "finish [branch]",
		Short: "Finish the active workflow session",
		Long: `Finish a workflow session: merges the branch into its targets, tags
releases, and cleans up per the workflow options. If any step fails, the
steps already taken by finish are rolled back and the branch is left intact.

With no argument, the session on the current branch is finished.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			branch := ""
			if len(args) > 0 {
				branch = args[0]
			}
			return handled(cmd, runFinish(cmd.Context(), flags, branch))
		},
	}
}

// runFinish executes the finish command. An interrupt during the merge
// sequence cancels the remaining steps; rollback still runs to completion.
func runFinish(ctx context.Context, flags *GlobalFlags, branch string) error {
	h := signal.NewHandler(ctx)
	defer h.Stop()
	ctx = h.Context()

	rt, err := newRuntime(ctx, flags)
	if err != nil {
		return fail(nil, flags, err)
	}

	engine, err := rt.workflowEngine()
	if err != nil {
		return fail(rt, flags, err)
	}

	sess, err := rt.resolveSession(ctx, branch)
	if err != nil {
		return fail(rt, flags, err)
	}

	res, err := engine.Finish(ctx, sess)
	reportRollbackWarnings(rt.out, res)
	if err != nil {
		if h.WasInterrupted() {
			rt.out.Warning("finish interrupted; completed steps were rolled back")
		}
		return fail(rt, flags, err)
	}

	if flags.Output == OutputJSON {
		return rt.out.JSON(res)
	}
	rt.out.Success(fmt.Sprintf("finished %s workflow on %s", res.Session.Kind, res.Session.BranchName))
	return nil
}

// AddAbortCommand adds the abort command to the root command.
func AddAbortCommand(root *cobra.Command, flags *GlobalFlags) {
	root.AddCommand(newAbortCmd(flags))
}

// newAbortCmd creates the abort command.
func newAbortCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "abort [branch]",
		Short: "Abort a workflow session and undo its steps",
		Long: `Abort a workflow session: replays the session's completed steps in
reverse, including the branch creation itself, then discards the session.

With no argument, the session on the current branch is aborted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			branch := ""
			if len(args) > 0 {
				branch = args[0]
			}
			return handled(cmd, runAbort(cmd.Context(), flags, branch))
		},
	}
}

// runAbort executes the abort command.
func runAbort(ctx context.Context, flags *GlobalFlags, branch string) error {
	rt, err := newRuntime(ctx, flags)
	if err != nil {
		return fail(nil, flags, err)
	}

	engine, err := rt.workflowEngine()
	if err != nil {
		return fail(rt, flags, err)
	}

	sess, err := rt.resolveSession(ctx, branch)
	if err != nil {
		return fail(rt, flags, err)
	}

	if !flags.Yes && flags.Output != OutputJSON {
		ok, err := tui.Confirm(fmt.Sprintf("Abort workflow on %s and undo %d completed step(s)?", sess.BranchName, len(sess.CompletedSteps)))
		if err != nil {
			return fail(rt, flags, err)
		}
		if !ok {
			rt.out.Info("abort canceled")
			return nil
		}
	}

	res, err := engine.Abort(ctx, sess)
	reportRollbackWarnings(rt.out, res)
	if err != nil {
		return fail(rt, flags, err)
	}

	if flags.Output == OutputJSON {
		return rt.out.JSON(res)
	}
	rt.out.Success(fmt.Sprintf("aborted workflow on %s", res.Session.BranchName))
	return nil
}

// AddStatusCommand adds the status command to the root command.
func AddStatusCommand(root *cobra.Command, flags *GlobalFlags) {
	root.AddCommand(newStatusCmd(flags))
}

// newStatusCmd creates the status command.
func newStatusCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show active workflow sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handled(cmd, runStatus(cmd.Context(), flags))
		},
	}
}

// runStatus executes the status command.
func runStatus(ctx context.Context, flags *GlobalFlags) error {
	rt, err := newRuntime(ctx, flags)
	if err != nil {
		return fail(nil, flags, err)
	}

	sessions, err := workflow.NewSessionStore(rt.gitDir).Active()
	if err != nil {
		return fail(rt, flags, err)
	}

	if flags.Output == OutputJSON {
		return rt.out.JSON(sessions)
	}

	if len(sessions) == 0 {
		rt.out.Info("no active workflow sessions")
		return nil
	}

	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, []string{
			s.BranchName,
			string(s.Kind),
			string(s.State),
			s.BaseBranch,
			s.StartedAt.Format("2006-01-02 15:04"),
			fmt.Sprintf("%d", len(s.CompletedSteps)),
		})
	}
	rt.out.Table([]string{"BRANCH", "KIND", "STATE", "BASE", "STARTED", "STEPS"}, rows)
	return nil
}

// resolveSession finds the workflow session for the given branch, defaulting
// to the current branch when none is given.
func (rt *runtime) resolveSession(ctx context.Context, branch string) (*workflow.Session, error) {
	if strings.TrimSpace(branch) == "" {
		current, err := rt.runner.CurrentBranch(ctx)
		if err != nil {
			return nil, err
		}
		branch = current
	}
	return workflow.NewSessionStore(rt.gitDir).Get(branch)
}

// reportRollbackWarnings surfaces undo operations that could not complete.
func reportRollbackWarnings(out tui.Output, res *workflow.Result) {
	if res == nil {
		return
	}
	for _, w := range res.RollbackWarnings {
		out.Warning(w)
	}
}
