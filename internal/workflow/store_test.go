package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	keelerrors "github.com/mrz1836/keel/internal/errors"
)

func TestSessionStore(t *testing.T) {
	t.Run("put then get round trips", func(t *testing.T) {
		store := NewSessionStore(t.TempDir())

		in := &Session{
			ID:         "abc",
			Kind:       KindFeature,
			BranchName: "feature/login",
			BaseBranch: "main",
			StartedAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			State:      StateInProgress,
			CompletedSteps: []StepRecord{
				{ID: StepBranchCreated, Branch: "feature/login"},
			},
		}
		require.NoError(t, store.Put(in))

		out, err := store.Get("feature/login")
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("get missing session", func(t *testing.T) {
		store := NewSessionStore(t.TempDir())
		_, err := store.Get("feature/nope")
		assert.ErrorIs(t, err, keelerrors.ErrSessionNotFound)
	})

	t.Run("remove frees the branch", func(t *testing.T) {
		store := NewSessionStore(t.TempDir())
		require.NoError(t, store.Put(&Session{BranchName: "feature/x", State: StateInProgress}))
		require.NoError(t, store.Remove("feature/x"))

		_, err := store.Get("feature/x")
		assert.ErrorIs(t, err, keelerrors.ErrSessionNotFound)
	})

	t.Run("remove missing is a no-op", func(t *testing.T) {
		store := NewSessionStore(t.TempDir())
		assert.NoError(t, store.Remove("feature/ghost"))
	})

	t.Run("active lists sessions sorted by branch", func(t *testing.T) {
		store := NewSessionStore(t.TempDir())
		require.NoError(t, store.Put(&Session{BranchName: "release/2.0", State: StateInProgress}))
		require.NoError(t, store.Put(&Session{BranchName: "feature/a", State: StateInProgress}))

		active, err := store.Active()
		require.NoError(t, err)
		require.Len(t, active, 2)
		assert.Equal(t, "feature/a", active[0].BranchName)
		assert.Equal(t, "release/2.0", active[1].BranchName)
	})

	t.Run("active branches lists names sorted", func(t *testing.T) {
		store := NewSessionStore(t.TempDir())
		require.NoError(t, store.Put(&Session{BranchName: "release/2.0", State: StateInProgress}))
		require.NoError(t, store.Put(&Session{BranchName: "feature/a", State: StateInProgress}))

		branches, err := store.ActiveBranches()
		require.NoError(t, err)
		assert.Equal(t, []string{"feature/a", "release/2.0"}, branches)
	})

	t.Run("active branches on empty store", func(t *testing.T) {
		store := NewSessionStore(t.TempDir())
		branches, err := store.ActiveBranches()
		require.NoError(t, err)
		assert.Empty(t, branches)
	})
}
