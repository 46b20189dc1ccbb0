package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	keelerrors "github.com/mrz1836/keel/internal/errors"
)

func TestIsValidTransition(t *testing.T) {
	tests := []struct {
		name  string
		from  State
		to    State
		valid bool
	}{
		{name: "not started to in progress", from: StateNotStarted, to: StateInProgress, valid: true},
		{name: "in progress to completed", from: StateInProgress, to: StateCompleted, valid: true},
		{name: "in progress to aborted", from: StateInProgress, to: StateAborted, valid: true},
		{name: "in progress to failed", from: StateInProgress, to: StateFailed, valid: true},
		{name: "not started to completed skips in progress", from: StateNotStarted, to: StateCompleted, valid: false},
		{name: "completed is terminal", from: StateCompleted, to: StateInProgress, valid: false},
		{name: "aborted is terminal", from: StateAborted, to: StateInProgress, valid: false},
		{name: "failed is terminal", from: StateFailed, to: StateInProgress, valid: false},
		{name: "self transition", from: StateInProgress, to: StateInProgress, valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidTransition(tt.from, tt.to))
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(StateNotStarted))
	assert.False(t, IsTerminal(StateInProgress))
	assert.True(t, IsTerminal(StateCompleted))
	assert.True(t, IsTerminal(StateAborted))
	assert.True(t, IsTerminal(StateFailed))
}

func TestSession_Transition(t *testing.T) {
	sess := &Session{State: StateNotStarted}

	require.NoError(t, sess.transition(StateInProgress))
	assert.Equal(t, StateInProgress, sess.State)

	err := sess.transition(StateNotStarted)
	require.ErrorIs(t, err, keelerrors.ErrInvalidTransition)
	assert.Equal(t, StateInProgress, sess.State, "failed transition must not change state")
}

func TestKind_Valid(t *testing.T) {
	assert.True(t, KindFeature.Valid())
	assert.True(t, KindRelease.Valid())
	assert.True(t, KindHotfix.Valid())
	assert.False(t, Kind("bugfix").Valid())
	assert.False(t, Kind("").Valid())
}
