// Package cli provides the command-line interface for keel.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/keel/internal/backup"
	"github.com/mrz1836/keel/internal/tui"
)

// AddBackupCommand adds the backup command tree to the root command.
func AddBackupCommand(root *cobra.Command, flags *GlobalFlags) {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Back up branches to configured remotes",
		Long: `Back up branches by pushing them to every configured destination remote.
Destinations are isolated: one unreachable remote never stops the others,
and every run is recorded with a per-destination outcome.`,
	}

	cmd.AddCommand(newBackupRunCmd(flags))
	cmd.AddCommand(newBackupListCmd(flags))
	cmd.AddCommand(newBackupRestoreCmd(flags))
	cmd.AddCommand(newBackupPruneCmd(flags))

	root.AddCommand(cmd)
}

// newBackupRunCmd creates the backup run command.
func newBackupRunCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run [branch...]",
		Short: "Push branches to every backup destination",
		Long: `Push the given branches to every configured destination remote. With no
arguments the current branch is backed up (or all local branches when the
all_branches option is set).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return handled(cmd, runBackup(cmd.Context(), flags, args))
		},
	}
}

// runBackup executes the backup run command. Destination failures do not
// fail the command outright; the record reports each outcome and the exit
// code reflects whether every destination succeeded.
func runBackup(ctx context.Context, flags *GlobalFlags, branches []string) error {
	rt, err := newRuntime(ctx, flags)
	if err != nil {
		return fail(nil, flags, err)
	}

	orch, err := rt.backupOrchestrator()
	if err != nil {
		return fail(rt, flags, err)
	}

	rec, err := orch.Run(ctx, branches)
	if err != nil {
		return fail(rt, flags, err)
	}

	if flags.Output == OutputJSON {
		if err := rt.out.JSON(rec); err != nil {
			return err
		}
	} else {
		reportBackupRecord(rt, rec)
	}

	if !rec.FullySucceeded() {
		return reported(fmt.Errorf("backup incomplete: %s", rec.Summary()))
	}
	return nil
}

// reportBackupRecord prints a human-readable backup summary.
func reportBackupRecord(rt *runtime, rec *backup.Record) {
	for _, dest := range rec.Destinations {
		outcome := rec.Outcomes[dest]
		if outcome.Succeeded {
			rt.out.Success(fmt.Sprintf("%s: backed up %s", dest, strings.Join(rec.Branches, ", ")))
			continue
		}
		rt.out.Warning(fmt.Sprintf("%s: failed (%s): %s", dest, outcome.Category, outcome.Detail))
	}
	rt.out.Info(rec.Summary())
}

// newBackupListCmd creates the backup list command.
func newBackupListCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show backup history, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handled(cmd, runBackupList(cmd.Context(), flags))
		},
	}
}

// runBackupList executes the backup list command.
func runBackupList(ctx context.Context, flags *GlobalFlags) error {
	rt, err := newRuntime(ctx, flags)
	if err != nil {
		return fail(nil, flags, err)
	}

	orch, err := rt.backupOrchestrator()
	if err != nil {
		return fail(rt, flags, err)
	}
	_ = orch // validates backup_system configuration before listing

	records, err := backup.NewHistoryStore(rt.gitDir).List()
	if err != nil {
		return fail(rt, flags, err)
	}

	if flags.Output == OutputJSON {
		return rt.out.JSON(records)
	}

	if len(records) == 0 {
		rt.out.Info("no backups recorded")
		return nil
	}

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			rec.ID,
			rec.Timestamp.Format("2006-01-02 15:04"),
			strings.Join(rec.Branches, ","),
			rec.Summary(),
			rec.RetainedUntil.Format("2006-01-02"),
		})
	}
	rt.out.Table([]string{"ID", "WHEN", "BRANCHES", "OUTCOME", "RETAINED UNTIL"}, rows)
	return nil
}

// newBackupRestoreCmd creates the backup restore command.
func newBackupRestoreCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <backup-id> [destination]",
		Short: "Restore branches from a backup record",
		Long: `Fetch the branches of a backup record back from one of its destinations.
With no destination given, the first destination that succeeded is used.
Restores are fast-forward only: a local branch that has diverged from the
backup is reported and left untouched.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			destination := ""
			if len(args) > 1 {
				destination = args[1]
			}
			return handled(cmd, runBackupRestore(cmd.Context(), flags, args[0], destination))
		},
	}
}

// runBackupRestore executes the backup restore command.
func runBackupRestore(ctx context.Context, flags *GlobalFlags, recordID, destination string) error {
	rt, err := newRuntime(ctx, flags)
	if err != nil {
		return fail(nil, flags, err)
	}

	orch, err := rt.backupOrchestrator()
	if err != nil {
		return fail(rt, flags, err)
	}

	if !flags.Yes && flags.Output != OutputJSON {
		ok, err := tui.Confirm(fmt.Sprintf("Restore branches from backup %s? Local branches are only fast-forwarded, never overwritten.", recordID))
		if err != nil {
			return fail(rt, flags, err)
		}
		if !ok {
			rt.out.Info("restore canceled")
			return nil
		}
	}

	res, err := orch.Restore(ctx, recordID, destination)
	if err != nil {
		return fail(rt, flags, err)
	}

	if flags.Output == OutputJSON {
		return rt.out.JSON(res)
	}

	failed := 0
	for branch, outcome := range res.Outcomes {
		if outcome.Succeeded {
			rt.out.Success(fmt.Sprintf("restored %s from %s", branch, res.Source))
			continue
		}
		failed++
		rt.out.Warning(fmt.Sprintf("%s: not restored (%s): %s", branch, outcome.Category, outcome.Detail))
	}
	if failed > 0 {
		return reported(fmt.Errorf("restore incomplete: %d branch(es) not restored", failed))
	}
	return nil
}

// newBackupPruneCmd creates the backup prune command.
func newBackupPruneCmd(flags *GlobalFlags) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove backup records past their retention period",
		Long: `Remove backup records whose retention period has passed. Records are
never removed automatically; pruning only happens through this command.
Use --dry-run to list eligible records without removing them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handled(cmd, runBackupPrune(cmd.Context(), flags, dryRun))
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list eligible records without removing them")

	return cmd
}

// runBackupPrune executes the backup prune command.
func runBackupPrune(ctx context.Context, flags *GlobalFlags, dryRun bool) error {
	rt, err := newRuntime(ctx, flags)
	if err != nil {
		return fail(nil, flags, err)
	}

	orch, err := rt.backupOrchestrator()
	if err != nil {
		return fail(rt, flags, err)
	}

	if dryRun {
		eligible, err := orch.EligibleForPruning()
		if err != nil {
			return fail(rt, flags, err)
		}
		if flags.Output == OutputJSON {
			return rt.out.JSON(eligible)
		}
		if len(eligible) == 0 {
			rt.out.Info("no backup records eligible for pruning")
			return nil
		}
		for _, rec := range eligible {
			rt.out.Info(fmt.Sprintf("%s (retained until %s)", rec.ID, rec.RetainedUntil.Format("2006-01-02")))
		}
		return nil
	}

	if !flags.Yes && flags.Output != OutputJSON {
		ok, err := tui.Confirm("Remove all backup records past their retention period?")
		if err != nil {
			return fail(rt, flags, err)
		}
		if !ok {
			rt.out.Info("prune canceled")
			return nil
		}
	}

	removed, err := orch.Prune()
	if err != nil {
		return fail(rt, flags, err)
	}

	if flags.Output == OutputJSON {
		return rt.out.JSON(map[string]int{"removed": removed})
	}
	rt.out.Success(fmt.Sprintf("pruned %d backup record(s)", removed))
	return nil
}
