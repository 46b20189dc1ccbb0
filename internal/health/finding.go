// Package health implements the repository health analyzer: a strictly
// read-only scan producing categorized findings and an overall score. The
// analyzer recomputes everything on each run and holds no state between
// runs, so two analyses of an unchanged repository yield identical reports.
package health

import "time"

// Category classifies a finding.
type Category string

// Finding categories.
const (
	// CategoryStaleBranch flags a branch with no commits inside the
	// staleness window.
	CategoryStaleBranch Category = "stale_branch"

	// CategoryLargeObject flags a tracked blob above the size threshold.
	CategoryLargeObject Category = "large_object"

	// CategoryDivergedBranch flags a branch both ahead of and behind its
	// upstream.
	CategoryDivergedBranch Category = "diverged_branch"

	// CategoryUnmergedBranch flags a branch not merged into the default
	// branch.
	CategoryUnmergedBranch Category = "unmerged_branch"
)

// Severity grades a finding. Severity is always a pure function of the
// measured value and the configured threshold.
type Severity string

// Severity levels.
const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// severityRank orders severities for report sorting and score weighting.
//
//nolint:gochecknoglobals // Read-only lookup table
var severityRank = map[Severity]int{
	SeverityInfo:     0,
	SeverityWarning:  1,
	SeverityCritical: 2,
}

// Finding is one observation about the repository. Measured carries the
// raw quantity behind the finding (age in days, size in bytes, commits
// behind) so output layers can render it without re-deriving.
type Finding struct {
	Category Category `json:"category"`
	Subject  string   `json:"subject"`
	Severity Severity `json:"severity"`
	Detail   string   `json:"detail"`
	Measured int64    `json:"measured"`
}

// Report is the result of one analysis run.
type Report struct {
	GeneratedAt time.Time `json:"generated_at"`
	Findings    []Finding `json:"findings"`
	Score       int       `json:"score"`
}

// CountBySeverity returns how many findings carry the given severity.
func (r *Report) CountBySeverity(s Severity) int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == s {
			n++
		}
	}
	return n
}

// StalenessSeverity grades a branch age against the staleness threshold.
// Ages at three times the threshold or more are critical.
func StalenessSeverity(ageDays, thresholdDays int) Severity {
	if ageDays >= 3*thresholdDays {
		return SeverityCritical
	}
	return SeverityWarning
}

// ObjectSizeSeverity grades a blob size against the large-object threshold.
// Sizes at five times the threshold or more are critical.
func ObjectSizeSeverity(size, threshold int64) Severity {
	if size >= 5*threshold {
		return SeverityCritical
	}
	return SeverityWarning
}
