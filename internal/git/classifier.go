// Package git provides git operations for KEEL.
// This file classifies git failure output into known categories.
package git

import "strings"

// FailureCategory represents the classification of a git failure.
// Classification is pattern-matching over stderr text: the remediation
// differs per category (re-authenticate, retry later, pull first, resolve
// conflicts), so engines surface it alongside the raw detail.
type FailureCategory int

const (
	// FailureUnknown indicates the failure could not be classified.
	FailureUnknown FailureCategory = iota
	// FailureAuth indicates an authentication or permission error.
	FailureAuth
	// FailureNetwork indicates a network connectivity error.
	FailureNetwork
	// FailureMergeConflict indicates conflicting changes blocked a merge.
	FailureMergeConflict
	// FailureNonFastForward indicates a non-fast-forward push rejection.
	FailureNonFastForward
	// FailureNotFound indicates a missing branch, remote, or ref.
	FailureNotFound
	// FailureTimeout indicates the invocation exceeded its time bound.
	// This category is assigned by callers from ErrCommandTimeout, never
	// from stderr matching.
	FailureTimeout
)

// String returns a stable machine-readable name for the category.
func (c FailureCategory) String() string {
	switch c {
	case FailureUnknown:
		return "unknown"
	case FailureAuth:
		return "authentication"
	case FailureNetwork:
		return "network"
	case FailureMergeConflict:
		return "merge_conflict"
	case FailureNonFastForward:
		return "non_fast_forward"
	case FailureNotFound:
		return "not_found"
	case FailureTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// PatternMatcher checks if a string contains any of a list of patterns.
// It performs case-insensitive matching on the lowercased input.
type PatternMatcher struct {
	patterns []string
}

// NewPatternMatcher creates a new PatternMatcher with the given patterns.
// All patterns should be lowercase for consistent matching.
func NewPatternMatcher(patterns ...string) *PatternMatcher {
	return &PatternMatcher{patterns: patterns}
}

// Matches returns true if the input string contains any of the patterns.
// The input is lowercased before matching.
func (m *PatternMatcher) Matches(s string) bool {
	return m.matchesLower(strings.ToLower(s))
}

func (m *PatternMatcher) matchesLower(lower string) bool {
	for _, pattern := range m.patterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// Failure pattern matchers shared across the package.
//
//nolint:gochecknoglobals // Package-level immutable pattern matchers
var (
	authPatterns = NewPatternMatcher(
		"authentication failed",
		"could not read username",
		"permission denied",
		"invalid username or password",
		"access denied",
		"fatal: authentication failed",
		"authentication required",
		"bad credentials",
		"invalid token",
		"token expired",
	)

	networkPatterns = NewPatternMatcher(
		"could not resolve host",
		"connection refused",
		"network is unreachable",
		"connection timed out",
		"operation timed out",
		"unable to access",
		"no route to host",
		"failed to connect",
		"connection reset",
	)

	mergeConflictPatterns = NewPatternMatcher(
		"merge conflict",
		"automatic merge failed",
		"fix conflicts",
		"needs merge",
		"you have unmerged files",
		"could not apply",
	)

	nonFastForwardPatterns = NewPatternMatcher(
		"non-fast-forward",
		"not possible to fast-forward",
		"failed to push some refs",
		"updates were rejected",
		"fetch first",
		"tip of your current branch is behind",
		"rejected because the remote contains work",
		"rejected (would clobber",
	)

	notFoundPatterns = NewPatternMatcher(
		"not found",
		"no such",
		"repository not found",
		"does not exist",
		"unknown revision",
		"not a valid ref",
		"couldn't find remote ref",
	)
)

// Classifier classifies git failure output. It consolidates the package
// pattern matchers into a single struct for easier testing and extension.
type Classifier struct {
	auth           *PatternMatcher
	network        *PatternMatcher
	mergeConflict  *PatternMatcher
	nonFastForward *PatternMatcher
	notFound       *PatternMatcher
}

// defaultClassifier is the package-level classifier using standard patterns.
//
//nolint:gochecknoglobals // Singleton classifier for package use
var defaultClassifier = &Classifier{
	auth:           authPatterns,
	network:        networkPatterns,
	mergeConflict:  mergeConflictPatterns,
	nonFastForward: nonFastForwardPatterns,
	notFound:       notFoundPatterns,
}

// Classify determines the failure category from stderr text.
// Returns FailureUnknown if the text matches no known pattern.
//
// Classification priority (first match wins):
//  1. Authentication (actionable, user can fix credentials)
//  2. Network (often transient, retry may help)
//  3. Merge conflict (requires resolution, never retried blindly)
//  4. Non-fast-forward (requires pull/rebase first)
//  5. Not found (general, last resort)
func Classify(detail string) FailureCategory {
	return defaultClassifier.Classify(detail)
}

// Classify determines the failure category from stderr text.
// See the package-level Classify for classification priority.
func (c *Classifier) Classify(detail string) FailureCategory {
	lower := strings.ToLower(detail)
	switch {
	case c.auth.matchesLower(lower):
		return FailureAuth
	case c.network.matchesLower(lower):
		return FailureNetwork
	case c.mergeConflict.matchesLower(lower):
		return FailureMergeConflict
	case c.nonFastForward.matchesLower(lower):
		return FailureNonFastForward
	case c.notFound.matchesLower(lower):
		return FailureNotFound
	default:
		return FailureUnknown
	}
}
