// Package workflow provides branch lifecycle automation for KEEL.
//
// This file implements the session state machine, which enforces valid state
// transitions. The machine is deliberately small:
//
//	NotStarted → InProgress
//	InProgress → Completed, Aborted, Failed
//
// Completed, Aborted, and Failed are terminal.
package workflow

import (
	"fmt"

	keelerrors "github.com/mrz1836/keel/internal/errors"
)

// State is the lifecycle state of a workflow session.
type State string

// Session lifecycle states.
const (
	// StateNotStarted is the zero state before any repository mutation.
	StateNotStarted State = "not_started"
	// StateInProgress means the branch exists and the session owns it.
	StateInProgress State = "in_progress"
	// StateCompleted means finish ran all steps successfully.
	StateCompleted State = "completed"
	// StateAborted means the user canceled and rollback was attempted.
	StateAborted State = "aborted"
	// StateFailed means a finish sub-step failed and rollback was attempted.
	StateFailed State = "failed"
)

// validTransitions defines all allowed state transitions.
//
//nolint:gochecknoglobals // Read-only lookup table
var validTransitions = map[State][]State{
	StateNotStarted: {StateInProgress},
	StateInProgress: {StateCompleted, StateAborted, StateFailed},
}

// IsValidTransition checks if a transition from one state to another is
// allowed. Returns false for transitions from terminal states or to the
// same state.
func IsValidTransition(from, to State) bool {
	if from == to {
		return false
	}
	for _, target := range validTransitions[from] {
		if target == to {
			return true
		}
	}
	return false
}

// IsTerminal returns true for states where no further transitions are allowed.
func IsTerminal(s State) bool {
	_, hasTargets := validTransitions[s]
	return !hasTargets
}

// transition moves the session to a new state, enforcing the machine.
func (s *Session) transition(to State) error {
	if !IsValidTransition(s.State, to) {
		return fmt.Errorf("%s -> %s: %w", s.State, to, keelerrors.ErrInvalidTransition)
	}
	s.State = to
	return nil
}
