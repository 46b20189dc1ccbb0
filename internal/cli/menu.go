// Package cli provides the command-line interface for keel.
package cli

import (
	stderrors "errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrz1836/keel/internal/errors"
	"github.com/mrz1836/keel/internal/tui"
)

// menuExit is the menu entry that leaves the interactive loop.
const menuExit = "exit"

// AddMenuCommand adds the menu command to the root command. The menu also
// runs when keel is invoked without a subcommand.
func AddMenuCommand(root *cobra.Command, flags *GlobalFlags) {
	root.AddCommand(&cobra.Command{
		Use:   "menu",
		Short: "Open the interactive feature menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMenu(cmd, flags)
		},
	})
}

// runMenu runs the interactive feature menu. It loops until the user picks
// exit or cancels a prompt, so several operations can be run in one
// invocation.
func runMenu(cmd *cobra.Command, flags *GlobalFlags) error {
	if flags.Output == OutputJSON {
		return fmt.Errorf("%w: the interactive menu requires text output", errors.ErrInvalidOutputFormat)
	}

	ctx := cmd.Context()
	registry := newFeatureRegistry(flags)

	for {
		names := registry.Names()
		choices := make([]string, 0, len(names)+1)
		choices = append(choices, names...)
		choices = append(choices, menuExit)

		choice, err := tui.Select("What would you like to do?", choices)
		if stderrors.Is(err, errors.ErrUserCanceled) {
			return nil
		}
		if err != nil {
			return err
		}
		if choice == menuExit {
			return nil
		}

		mgr, err := registry.Get(ctx, choice)
		if err != nil {
			return err
		}

		if err := mgr.Menu(ctx); err != nil {
			if stderrors.Is(err, errors.ErrUserCanceled) {
				continue
			}
			return handled(cmd, err)
		}
	}
}
