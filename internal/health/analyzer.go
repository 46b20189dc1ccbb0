package health

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mrz1836/keel/internal/clock"
	"github.com/mrz1836/keel/internal/ctxutil"
	"github.com/mrz1836/keel/internal/git"
)

// GitRunner is the read-only subset of git operations the analyzer needs.
// *git.CLIRunner satisfies it.
type GitRunner interface {
	LocalBranches(ctx context.Context) ([]git.Branch, error)
	RemoteBranches(ctx context.Context) ([]git.Branch, error)
	Upstream(ctx context.Context, branch string) (string, error)
	AheadBehind(ctx context.Context, branch, ref string) (ahead, behind int, err error)
	MergedBranches(ctx context.Context, into string) ([]string, error)
	TrackedObjects(ctx context.Context) ([]git.TrackedObject, error)
}

// Analyzer scans a repository and produces a health report. It only runs
// read queries; nothing in this package mutates the repository.
type Analyzer struct {
	git           GitRunner
	opts          Options
	defaultBranch string
	clk           clock.Clock
	log           zerolog.Logger
}

// Params configures a new Analyzer.
type Params struct {
	Git           GitRunner
	Opts          Options
	DefaultBranch string
	Clock         clock.Clock
	Logger        zerolog.Logger
}

// NewAnalyzer creates a health analyzer. A nil Clock falls back to the
// system clock.
func NewAnalyzer(p Params) *Analyzer {
	clk := p.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Analyzer{
		git:           p.Git,
		opts:          p.Opts,
		defaultBranch: p.DefaultBranch,
		clk:           clk,
		log:           p.Logger,
	}
}

// Analyze runs every check and returns the report. Findings are ordered by
// severity (critical first), then category, then subject, so repeated runs
// over an unchanged repository produce byte-identical reports.
func (a *Analyzer) Analyze(ctx context.Context) (*Report, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	var findings []Finding

	branches, err := a.git.LocalBranches(ctx)
	if err != nil {
		return nil, err
	}
	remotes, err := a.git.RemoteBranches(ctx)
	if err != nil {
		return nil, err
	}

	// The staleness scan covers remote-tracking branches too; the upstream
	// and merge checks below apply to local branches only since a
	// remote-tracking ref has no upstream of its own.
	all := make([]git.Branch, 0, len(branches)+len(remotes))
	all = append(all, branches...)
	all = append(all, remotes...)

	stale, err := a.staleBranches(all)
	if err != nil {
		return nil, err
	}
	findings = append(findings, stale...)

	diverged, err := a.divergedBranches(ctx, branches)
	if err != nil {
		return nil, err
	}
	findings = append(findings, diverged...)

	unmerged, err := a.unmergedBranches(ctx, branches)
	if err != nil {
		return nil, err
	}
	findings = append(findings, unmerged...)

	large, err := a.largeObjects(ctx)
	if err != nil {
		return nil, err
	}
	findings = append(findings, large...)

	sort.Slice(findings, func(i, j int) bool {
		if severityRank[findings[i].Severity] != severityRank[findings[j].Severity] {
			return severityRank[findings[i].Severity] > severityRank[findings[j].Severity]
		}
		if findings[i].Category != findings[j].Category {
			return findings[i].Category < findings[j].Category
		}
		return findings[i].Subject < findings[j].Subject
	})

	report := &Report{
		GeneratedAt: a.clk.Now(),
		Findings:    findings,
		Score:       a.score(findings),
	}
	a.log.Debug().
		Int("findings", len(findings)).
		Int("score", report.Score).
		Msg("health analysis finished")
	return report, nil
}

// staleBranches flags branches whose last commit is older than the
// staleness window. The default branch and its remote-tracking refs are
// exempt: they age whenever the team slows down and that says nothing about
// hygiene.
func (a *Analyzer) staleBranches(branches []git.Branch) ([]Finding, error) {
	now := a.clk.Now()
	var findings []Finding
	for _, b := range branches {
		if b.Name == a.defaultBranch {
			continue
		}
		if b.IsRemote && strings.HasSuffix(b.Name, "/"+a.defaultBranch) {
			continue
		}
		ageDays := int(now.Sub(b.LastCommit).Hours() / 24)
		if ageDays < a.opts.StaleBranchDays {
			continue
		}
		findings = append(findings, Finding{
			Category: CategoryStaleBranch,
			Subject:  b.Name,
			Severity: StalenessSeverity(ageDays, a.opts.StaleBranchDays),
			Detail:   fmt.Sprintf("no commits in %d days (threshold %d)", ageDays, a.opts.StaleBranchDays),
			Measured: int64(ageDays),
		})
	}
	return findings, nil
}

// divergedBranches flags branches both ahead of and behind their upstream.
// Branches without an upstream are skipped.
func (a *Analyzer) divergedBranches(ctx context.Context, branches []git.Branch) ([]Finding, error) {
	var findings []Finding
	for _, b := range branches {
		upstream, err := a.git.Upstream(ctx, b.Name)
		if err != nil {
			return nil, err
		}
		if upstream == "" {
			continue
		}
		ahead, behind, err := a.git.AheadBehind(ctx, b.Name, upstream)
		if err != nil {
			return nil, err
		}
		if ahead == 0 || behind == 0 {
			continue
		}
		findings = append(findings, Finding{
			Category: CategoryDivergedBranch,
			Subject:  b.Name,
			Severity: SeverityWarning,
			Detail:   fmt.Sprintf("%d ahead and %d behind %s", ahead, behind, upstream),
			Measured: int64(behind),
		})
	}
	return findings, nil
}

// unmergedBranches flags branches not merged into the default branch. These
// are informational: an active feature branch is expected to show up here.
func (a *Analyzer) unmergedBranches(ctx context.Context, branches []git.Branch) ([]Finding, error) {
	merged, err := a.git.MergedBranches(ctx, a.defaultBranch)
	if err != nil {
		return nil, err
	}
	mergedSet := make(map[string]bool, len(merged))
	for _, name := range merged {
		mergedSet[name] = true
	}

	var findings []Finding
	for _, b := range branches {
		if b.Name == a.defaultBranch || mergedSet[b.Name] {
			continue
		}
		findings = append(findings, Finding{
			Category: CategoryUnmergedBranch,
			Subject:  b.Name,
			Severity: SeverityInfo,
			Detail:   fmt.Sprintf("not merged into %s", a.defaultBranch),
		})
	}
	return findings, nil
}

// largeObjects flags tracked blobs above the size threshold.
func (a *Analyzer) largeObjects(ctx context.Context) ([]Finding, error) {
	objects, err := a.git.TrackedObjects(ctx)
	if err != nil {
		return nil, err
	}
	threshold := int64(a.opts.LargeFileThresholdMB) * 1024 * 1024

	var findings []Finding
	for _, obj := range objects {
		if obj.Size < threshold {
			continue
		}
		findings = append(findings, Finding{
			Category: CategoryLargeObject,
			Subject:  obj.Path,
			Severity: ObjectSizeSeverity(obj.Size, threshold),
			Detail:   fmt.Sprintf("%d MB tracked blob (threshold %d MB)", obj.Size/(1024*1024), a.opts.LargeFileThresholdMB),
			Measured: obj.Size,
		})
	}
	return findings, nil
}

// score folds the findings into a 0-100 health score using the configured
// per-severity weights.
func (a *Analyzer) score(findings []Finding) int {
	score := 100
	for _, f := range findings {
		switch f.Severity {
		case SeverityCritical:
			score -= a.opts.ScoreWeights.Critical
		case SeverityWarning:
			score -= a.opts.ScoreWeights.Warning
		case SeverityInfo:
			score -= a.opts.ScoreWeights.Info
		}
	}
	if score < 0 {
		score = 0
	}
	return score
}
