// Package cli provides the command-line interface for keel.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// AddStashCommand adds the stash command tree to the root command.
func AddStashCommand(root *cobra.Command, flags *GlobalFlags) {
	cmd := &cobra.Command{
		Use:   "stash",
		Short: "Manage named stashes",
		Long: `Manage stashes addressed by name instead of stash@{N} indexes. Each
stash records the branch it was taken from and an optional message, and is
applied or dropped by name regardless of how the underlying stash list has
shifted since.`,
	}

	cmd.AddCommand(newStashSaveCmd(flags))
	cmd.AddCommand(newStashListCmd(flags))
	cmd.AddCommand(newStashApplyCmd(flags))
	cmd.AddCommand(newStashDropCmd(flags))

	root.AddCommand(cmd)
}

// newStashSaveCmd creates the stash save command.
func newStashSaveCmd(flags *GlobalFlags) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Stash local changes under a name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handled(cmd, runStashSave(cmd.Context(), flags, args[0], message))
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "optional description")

	return cmd
}

// runStashSave executes the stash save command.
func runStashSave(ctx context.Context, flags *GlobalFlags, name, message string) error {
	rt, err := newRuntime(ctx, flags)
	if err != nil {
		return fail(nil, flags, err)
	}

	mgr, err := rt.stashManager()
	if err != nil {
		return fail(rt, flags, err)
	}

	entry, err := mgr.Save(ctx, name, message)
	if err != nil {
		return fail(rt, flags, err)
	}

	if flags.Output == OutputJSON {
		return rt.out.JSON(entry)
	}
	rt.out.Success(fmt.Sprintf("stashed changes from %s as %q", entry.Branch, entry.Name))
	return nil
}

// newStashListCmd creates the stash list command.
func newStashListCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List named stashes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handled(cmd, runStashList(cmd.Context(), flags))
		},
	}
}

// runStashList executes the stash list command.
func runStashList(ctx context.Context, flags *GlobalFlags) error {
	rt, err := newRuntime(ctx, flags)
	if err != nil {
		return fail(nil, flags, err)
	}

	mgr, err := rt.stashManager()
	if err != nil {
		return fail(rt, flags, err)
	}

	entries, err := mgr.List()
	if err != nil {
		return fail(rt, flags, err)
	}

	if flags.Output == OutputJSON {
		return rt.out.JSON(entries)
	}

	if len(entries) == 0 {
		rt.out.Info("no named stashes")
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.Name,
			e.Branch,
			e.CreatedAt.Format("2006-01-02 15:04"),
			e.Message,
		})
	}
	rt.out.Table([]string{"NAME", "BRANCH", "CREATED", "MESSAGE"}, rows)
	return nil
}

// newStashApplyCmd creates the stash apply command.
func newStashApplyCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <name>",
		Short: "Apply a named stash to the working tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handled(cmd, runStashApply(cmd.Context(), flags, args[0]))
		},
	}
}

// runStashApply executes the stash apply command.
func runStashApply(ctx context.Context, flags *GlobalFlags, name string) error {
	rt, err := newRuntime(ctx, flags)
	if err != nil {
		return fail(nil, flags, err)
	}

	mgr, err := rt.stashManager()
	if err != nil {
		return fail(rt, flags, err)
	}

	entry, err := mgr.Apply(ctx, name)
	if err != nil {
		return fail(rt, flags, err)
	}

	if flags.Output == OutputJSON {
		return rt.out.JSON(entry)
	}
	rt.out.Success(fmt.Sprintf("applied stash %q (from %s)", entry.Name, entry.Branch))
	return nil
}

// newStashDropCmd creates the stash drop command.
func newStashDropCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "drop <name>",
		Short: "Drop a named stash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handled(cmd, runStashDrop(cmd.Context(), flags, args[0]))
		},
	}
}

// runStashDrop executes the stash drop command.
func runStashDrop(ctx context.Context, flags *GlobalFlags, name string) error {
	rt, err := newRuntime(ctx, flags)
	if err != nil {
		return fail(nil, flags, err)
	}

	mgr, err := rt.stashManager()
	if err != nil {
		return fail(rt, flags, err)
	}

	if err := mgr.Drop(ctx, name); err != nil {
		return fail(rt, flags, err)
	}

	if flags.Output == OutputJSON {
		return rt.out.JSON(map[string]string{"dropped": name})
	}
	rt.out.Success(fmt.Sprintf("dropped stash %q", name))
	return nil
}
