// Package cli provides the command-line interface for keel.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrz1836/keel/internal/health"
)

// AddHealthCommand adds the health command to the root command.
func AddHealthCommand(root *cobra.Command, flags *GlobalFlags) {
	root.AddCommand(newHealthCmd(flags))
}

// newHealthCmd creates the health command.
func newHealthCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Analyze repository health",
		Long: `Scan the repository for stale branches, large tracked objects, diverged
branches, and branches not yet merged into the default branch. The scan is
read-only and every run recomputes the report from the current state.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handled(cmd, runHealth(cmd.Context(), flags))
		},
	}
}

// runHealth executes the health command.
func runHealth(ctx context.Context, flags *GlobalFlags) error {
	rt, err := newRuntime(ctx, flags)
	if err != nil {
		return fail(nil, flags, err)
	}

	analyzer, err := rt.healthAnalyzer()
	if err != nil {
		return fail(rt, flags, err)
	}

	report, err := analyzer.Analyze(ctx)
	if err != nil {
		return fail(rt, flags, err)
	}

	if flags.Output == OutputJSON {
		return rt.out.JSON(report)
	}

	reportHealth(rt, report)
	return nil
}

// reportHealth prints a human-readable health report.
func reportHealth(rt *runtime, report *health.Report) {
	rt.out.Info(fmt.Sprintf("health score: %d/100", report.Score))

	if len(report.Findings) == 0 {
		rt.out.Success("no findings")
		return
	}

	rows := make([][]string, 0, len(report.Findings))
	for _, f := range report.Findings {
		rows = append(rows, []string{
			string(f.Severity),
			string(f.Category),
			f.Subject,
			f.Detail,
		})
	}
	rt.out.Table([]string{"SEVERITY", "CATEGORY", "SUBJECT", "DETAIL"}, rows)

	if n := report.CountBySeverity(health.SeverityCritical); n > 0 {
		rt.out.Warning(fmt.Sprintf("%d critical finding(s) need attention", n))
	}
}
