// Package workflow provides branch lifecycle automation for KEEL.
// This file implements session persistence.
package workflow

import (
	"fmt"
	"sort"

	"github.com/mrz1836/keel/internal/constants"
	keelerrors "github.com/mrz1836/keel/internal/errors"
	"github.com/mrz1836/keel/internal/statefile"
)

// SessionStore persists in-progress sessions under .git/keel/sessions.json,
// keyed by branch name. Only in-progress sessions are stored; terminal
// sessions are removed so the branch name is free for a new session.
type SessionStore struct {
	path string
}

// NewSessionStore creates a store rooted at the given .git directory.
func NewSessionStore(gitDir string) *SessionStore {
	return &SessionStore{path: statefile.PathIn(gitDir, constants.SessionsFileName)}
}

// load reads the full session map. A missing file yields an empty map.
func (s *SessionStore) load() (map[string]*Session, error) {
	sessions := make(map[string]*Session)
	if _, err := statefile.Load(s.path, &sessions); err != nil {
		return nil, keelerrors.Wrap(err, "loading sessions")
	}
	return sessions, nil
}

// Get returns the in-progress session for a branch, or ErrSessionNotFound.
func (s *SessionStore) Get(branch string) (*Session, error) {
	sessions, err := s.load()
	if err != nil {
		return nil, err
	}
	sess, ok := sessions[branch]
	if !ok {
		return nil, fmt.Errorf("branch %q: %w", branch, keelerrors.ErrSessionNotFound)
	}
	return sess, nil
}

// Put stores a session under its branch name.
func (s *SessionStore) Put(sess *Session) error {
	sessions, err := s.load()
	if err != nil {
		return err
	}
	sessions[sess.BranchName] = sess
	return keelerrors.Wrap(statefile.Save(s.path, sessions), "saving sessions")
}

// Remove deletes the session for a branch. Removing a missing session is
// not an error.
func (s *SessionStore) Remove(branch string) error {
	sessions, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := sessions[branch]; !ok {
		return nil
	}
	delete(sessions, branch)
	return keelerrors.Wrap(statefile.Save(s.path, sessions), "saving sessions")
}

// Active returns all in-progress sessions ordered by branch name.
func (s *SessionStore) Active() ([]*Session, error) {
	sessions, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]*Session, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, sess)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BranchName < out[j].BranchName })
	return out, nil
}

// ActiveBranches returns the sorted branch names with an in-progress
// session. Other features consult this to keep their hands off branches
// mid-workflow.
func (s *SessionStore) ActiveBranches() ([]string, error) {
	sessions, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(sessions))
	for branch := range sessions {
		out = append(out, branch)
	}
	sort.Strings(out)
	return out, nil
}
