package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, "context"))
	})

	t.Run("preserves sentinel in chain", func(t *testing.T) {
		err := Wrap(ErrGitOperation, "pushing branch")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrGitOperation)
		assert.Equal(t, "pushing branch: git operation failed", err.Error())
	})
}

func TestWrapf(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		assert.NoError(t, Wrapf(nil, "context %s", "value"))
	})

	t.Run("formats message and preserves chain", func(t *testing.T) {
		err := Wrapf(ErrBranchNotFound, "branch %q", "feature/login")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrBranchNotFound)
		assert.Contains(t, err.Error(), `branch "feature/login"`)
	})

	t.Run("double wrap keeps sentinel reachable", func(t *testing.T) {
		err := Wrap(Wrapf(ErrSessionActive, "branch %s", "hotfix/crash"), "starting workflow")
		assert.True(t, stderrors.Is(err, ErrSessionActive))
	})
}
