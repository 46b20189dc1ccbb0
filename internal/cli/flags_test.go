package cli

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mrz1836/keel/internal/errors"
)

func TestIsValidOutputFormat(t *testing.T) {
	assert.True(t, IsValidOutputFormat(OutputText))
	assert.True(t, IsValidOutputFormat(OutputJSON))
	assert.False(t, IsValidOutputFormat("yaml"))
	assert.False(t, IsValidOutputFormat(""))
}

func TestExitCodeForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil error", err: nil, want: ExitSuccess},
		{name: "generic error", err: stderrors.New("boom"), want: ExitError},
		{name: "invalid output format", err: errors.ErrInvalidOutputFormat, want: ExitInvalidInput},
		{name: "empty value", err: errors.ErrEmptyValue, want: ExitInvalidInput},
		{name: "invalid config", err: errors.ErrConfigInvalid, want: ExitInvalidInput},
		{name: "unknown workflow kind", err: errors.ErrUnknownWorkflowKind, want: ExitInvalidInput},
		{name: "unknown workflow model", err: errors.ErrUnknownWorkflowModel, want: ExitInvalidInput},
		{name: "unknown backup destination", err: errors.ErrUnknownDestination, want: ExitInvalidInput},
		{name: "wrapped input error", err: fmt.Errorf("context: %w", errors.ErrEmptyValue), want: ExitInvalidInput},
		{name: "reported git error", err: reported(errors.ErrMergeConflict), want: ExitError},
		{name: "reported input error", err: reported(errors.ErrConfigInvalid), want: ExitInvalidInput},
		{name: "cobra unknown flag", err: stderrors.New(`unknown flag: --frobnicate`), want: ExitInvalidInput},
		{name: "cobra exclusive flags", err: stderrors.New(`if any flags in the group [verbose quiet] are set none of the others can be`), want: ExitInvalidInput},
		{name: "merge conflict", err: errors.ErrMergeConflict, want: ExitError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExitCodeForError(tc.err))
		})
	}
}

func TestHandledSilencesReportedErrors(t *testing.T) {
	t.Run("reported error silences cobra", func(t *testing.T) {
		cmd := newRootCmd(&GlobalFlags{}, BuildInfo{})
		err := handled(cmd, reported(stderrors.New("boom")))
		assert.Error(t, err)
		assert.True(t, cmd.SilenceErrors)
	})

	t.Run("plain error is printed by cobra", func(t *testing.T) {
		cmd := newRootCmd(&GlobalFlags{}, BuildInfo{})
		err := handled(cmd, stderrors.New("boom"))
		assert.Error(t, err)
		assert.False(t, cmd.SilenceErrors)
	})

	t.Run("nil passes through", func(t *testing.T) {
		cmd := newRootCmd(&GlobalFlags{}, BuildInfo{})
		assert.NoError(t, handled(cmd, nil))
	})
}
