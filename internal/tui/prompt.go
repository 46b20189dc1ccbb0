package tui

import (
	"errors"

	"github.com/charmbracelet/huh"

	keelerrors "github.com/mrz1836/keel/internal/errors"
)

// Confirm asks a yes/no question. A user abort (ctrl-c, esc) returns
// ErrUserCanceled so callers can exit cleanly without treating it as a
// failure.
func Confirm(title string) (bool, error) {
	var confirmed bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Affirmative("Yes").
			Negative("No").
			Value(&confirmed),
	))
	if err := form.Run(); err != nil {
		return false, promptError(err)
	}
	return confirmed, nil
}

// Select asks the user to pick one of the given options.
func Select(title string, options []string) (string, error) {
	var choice string
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title(title).
			Options(huh.NewOptions(options...)...).
			Value(&choice),
	))
	if err := form.Run(); err != nil {
		return "", promptError(err)
	}
	return choice, nil
}

// Input asks the user for a line of text.
func Input(title, placeholder string) (string, error) {
	var value string
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title(title).
			Placeholder(placeholder).
			Value(&value),
	))
	if err := form.Run(); err != nil {
		return "", promptError(err)
	}
	return value, nil
}

func promptError(err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		return keelerrors.ErrUserCanceled
	}
	return keelerrors.Wrap(err, "running prompt")
}
