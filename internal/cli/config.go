// Package cli provides the command-line interface for keel.
package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/keel/internal/config"
	"github.com/mrz1836/keel/internal/errors"
)

// AddConfigCommand adds the config command tree to the root command.
func AddConfigCommand(root *cobra.Command, flags *GlobalFlags) {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and change keel configuration",
		Long: `Show the effective configuration or change feature options. Settings are
layered: environment variables override the project config (.keel/config.yaml),
which overrides the global config (~/.keel/config.yaml), which overrides the
built-in defaults.`,
	}

	cmd.AddCommand(newConfigShowCmd(flags))
	cmd.AddCommand(newConfigSetCmd(flags))

	root.AddCommand(cmd)
}

// newConfigShowCmd creates the config show command.
func newConfigShowCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handled(cmd, runConfigShow(cmd.Context(), flags))
		},
	}
}

// runConfigShow executes the config show command. It only needs the loaded
// configuration, so it works outside a repository too.
func runConfigShow(ctx context.Context, flags *GlobalFlags) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return fail(nil, flags, err)
	}

	out := newStdOutput(flags)
	if flags.Output == OutputJSON {
		return out.JSON(cfg)
	}

	rows := [][]string{
		{"name", cfg.Name},
		{"email", cfg.Email},
		{"default_branch", cfg.DefaultBranch},
		{"default_remote", cfg.DefaultRemote},
		{"auto_push", strconv.FormatBool(cfg.AutoPush)},
		{"show_emoji", strconv.FormatBool(cfg.ShowEmoji)},
		{"git.command_timeout", cfg.Git.CommandTimeout.String()},
		{"git.network_timeout", cfg.Git.NetworkTimeout.String()},
	}
	rows = append(rows, featureOverrideRows(cfg)...)
	out.Table([]string{"KEY", "VALUE"}, rows)
	return nil
}

// featureOverrideRows flattens advanced_features into sorted key/value rows.
func featureOverrideRows(cfg *config.Config) [][]string {
	var rows [][]string
	for feature, options := range cfg.AdvancedFeatures {
		for key, value := range options {
			rows = append(rows, []string{
				fmt.Sprintf("advanced_features.%s.%s", feature, key),
				fmt.Sprintf("%v", value),
			})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i][0] < rows[j][0] })
	return rows
}

// newConfigSetCmd creates the config set command.
func newConfigSetCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "set <feature.key> <value>",
		Short: "Set a feature option in the project config",
		Long: `Set one feature option in the project configuration file. The key is the
feature name and option joined by a dot.

Examples:
  keel config set backup_system.retention_days 30
  keel config set branch_workflows.default_workflow git_flow
  keel config set stash_manager.max_stashes 50`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handled(cmd, runConfigSet(cmd.Context(), flags, args[0], args[1]))
		},
	}
}

// runConfigSet executes the config set command.
func runConfigSet(ctx context.Context, flags *GlobalFlags, key, raw string) error {
	feature, option, ok := strings.Cut(key, ".")
	if !ok || feature == "" || option == "" {
		return fail(nil, flags, fmt.Errorf("%w: key must be <feature>.<option>", errors.ErrConfigInvalid))
	}

	rt, err := newRuntime(ctx, flags)
	if err != nil {
		return fail(nil, flags, err)
	}

	root, err := rt.runner.TopLevel(ctx)
	if err != nil {
		return fail(rt, flags, err)
	}

	if err := config.SetFeatureOption(root, feature, option, parseOptionValue(raw)); err != nil {
		return fail(rt, flags, err)
	}

	if flags.Output == OutputJSON {
		return rt.out.JSON(map[string]string{"feature": feature, "key": option, "value": raw})
	}
	rt.out.Success(fmt.Sprintf("set %s.%s = %s", feature, option, raw))
	return nil
}

// parseOptionValue converts a raw flag value into the most specific YAML
// type: bool, int, or string.
func parseOptionValue(raw string) any {
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	return raw
}
