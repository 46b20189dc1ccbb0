// Package cli provides the command-line interface for keel.
package cli

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrz1836/keel/internal/conflict"
	"github.com/mrz1836/keel/internal/errors"
	"github.com/mrz1836/keel/internal/tui"
)

// AddResolveCommand adds the resolve command to the root command.
func AddResolveCommand(root *cobra.Command, flags *GlobalFlags) {
	var (
		strategy string
		all      bool
		abort    bool
		conclude bool
	)

	cmd := &cobra.Command{
		Use:   "resolve [file]",
		Short: "Resolve merge conflicts",
		Long: `List and resolve merge conflicts. With no arguments the conflicted files
are listed and, on a terminal, a strategy is chosen interactively per file.

Strategies:
  ours    keep the current branch's version
  theirs  keep the incoming branch's version
  manual  leave the file for hand editing

Examples:
  keel resolve                          # list conflicts, pick per file
  keel resolve auth.go --strategy ours  # keep our side of one file
  keel resolve --all --strategy theirs  # keep their side everywhere
  keel resolve --continue               # commit once everything is resolved
  keel resolve --abort                  # abort the merge entirely`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			return handled(cmd, runResolve(cmd.Context(), flags, path, strategy, all, abort, conclude))
		},
	}

	cmd.Flags().StringVarP(&strategy, "strategy", "s", "", "resolution strategy (ours|theirs|manual)")
	cmd.Flags().BoolVar(&all, "all", false, "apply the strategy to every conflicted file")
	cmd.Flags().BoolVar(&abort, "abort", false, "abort the in-progress merge")
	cmd.Flags().BoolVar(&conclude, "continue", false, "conclude the merge once every conflict is resolved")
	cmd.MarkFlagsMutuallyExclusive("all", "abort", "continue")

	root.AddCommand(cmd)
}

// runResolve executes the resolve command.
func runResolve(ctx context.Context, flags *GlobalFlags, path, strategy string, all, abort, conclude bool) error {
	rt, err := newRuntime(ctx, flags)
	if err != nil {
		return fail(nil, flags, err)
	}

	resolver := rt.conflictResolver()

	if abort {
		if err := resolver.AbortMerge(ctx); err != nil {
			return fail(rt, flags, err)
		}
		rt.out.Success("merge aborted")
		return nil
	}

	if conclude {
		if err := resolver.CompleteMerge(ctx); err != nil {
			return fail(rt, flags, err)
		}
		rt.out.Success("merge committed")
		return nil
	}

	if all {
		return runResolveAll(ctx, rt, flags, resolver, strategy)
	}

	if path != "" {
		return runResolveOne(ctx, rt, flags, resolver, path, strategy)
	}

	return runResolveList(ctx, rt, flags, resolver)
}

// runResolveAll applies one strategy to every conflicted file.
func runResolveAll(ctx context.Context, rt *runtime, flags *GlobalFlags, resolver *conflict.Resolver, strategy string) error {
	resolved, err := resolver.ResolveAll(ctx, conflict.Strategy(strategy))
	for _, p := range resolved {
		rt.out.Success(fmt.Sprintf("resolved %s (%s)", p, strategy))
	}
	if err != nil {
		return fail(rt, flags, err)
	}
	if flags.Output == OutputJSON {
		return rt.out.JSON(resolved)
	}
	rt.out.Info("conclude with: keel resolve --continue")
	return nil
}

// runResolveOne resolves a single file, prompting for a strategy when none
// was given on a terminal.
func runResolveOne(ctx context.Context, rt *runtime, flags *GlobalFlags, resolver *conflict.Resolver, path, strategy string) error {
	if strategy == "" {
		chosen, err := chooseStrategy(path)
		if err != nil {
			return fail(rt, flags, err)
		}
		strategy = chosen
	}

	err := resolver.Resolve(ctx, path, conflict.Strategy(strategy))
	if stderrors.Is(err, errors.ErrManualResolution) {
		rt.out.Info(fmt.Sprintf("%s left for manual editing; run `git add %s` when done", path, path))
		return nil
	}
	if err != nil {
		return fail(rt, flags, err)
	}

	if flags.Output == OutputJSON {
		return rt.out.JSON(map[string]string{"resolved": path, "strategy": strategy})
	}
	rt.out.Success(fmt.Sprintf("resolved %s (%s)", path, strategy))
	return nil
}

// runResolveList lists conflicted files.
func runResolveList(ctx context.Context, rt *runtime, flags *GlobalFlags, resolver *conflict.Resolver) error {
	files, err := resolver.ListConflicted(ctx)
	if stderrors.Is(err, errors.ErrNoConflicts) {
		if flags.Output == OutputJSON {
			return rt.out.JSON([]string{})
		}
		rt.out.Success("no conflicted files")
		return nil
	}
	if err != nil {
		return fail(rt, flags, err)
	}

	if flags.Output == OutputJSON {
		return rt.out.JSON(files)
	}

	rows := make([][]string, 0, len(files))
	for _, f := range files {
		rows = append(rows, []string{f})
	}
	rt.out.Table([]string{"CONFLICTED FILE"}, rows)
	rt.out.Info("resolve with: keel resolve <file> --strategy ours|theirs|manual")
	return nil
}

// chooseStrategy prompts for a resolution strategy for the given file.
func chooseStrategy(path string) (string, error) {
	return tui.Select(
		fmt.Sprintf("How should %s be resolved?", path),
		[]string{
			string(conflict.StrategyOurs),
			string(conflict.StrategyTheirs),
			string(conflict.StrategyManual),
		},
	)
}
