package health

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/keel/internal/clock"
	"github.com/mrz1836/keel/internal/git"
)

// fakeGit serves canned read-only query results.
type fakeGit struct {
	branches  []git.Branch
	remotes   []git.Branch
	upstreams map[string]string
	ahead     map[string]int
	behind    map[string]int
	merged    []string
	objects   []git.TrackedObject
}

func (f *fakeGit) LocalBranches(context.Context) ([]git.Branch, error) { return f.branches, nil }

func (f *fakeGit) RemoteBranches(context.Context) ([]git.Branch, error) { return f.remotes, nil }

func (f *fakeGit) Upstream(_ context.Context, branch string) (string, error) {
	return f.upstreams[branch], nil
}

func (f *fakeGit) AheadBehind(_ context.Context, branch, _ string) (int, int, error) {
	return f.ahead[branch], f.behind[branch], nil
}

func (f *fakeGit) MergedBranches(context.Context, string) ([]string, error) { return f.merged, nil }

func (f *fakeGit) TrackedObjects(context.Context) ([]git.TrackedObject, error) {
	return f.objects, nil
}

var analysisTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestAnalyzer(t *testing.T, fg *fakeGit, opts Options) *Analyzer {
	t.Helper()
	return NewAnalyzer(Params{
		Git:           fg,
		Opts:          opts,
		DefaultBranch: "main",
		Clock:         clock.Fixed{Time: analysisTime},
		Logger:        zerolog.Nop(),
	})
}

func defaultTestOpts() Options {
	opts, _ := ResolveOptions(nil)
	return opts
}

func daysAgo(n int) time.Time {
	return analysisTime.Add(-time.Duration(n) * 24 * time.Hour)
}

func findingsIn(report *Report, cat Category) []Finding {
	var out []Finding
	for _, f := range report.Findings {
		if f.Category == cat {
			out = append(out, f)
		}
	}
	return out
}

func TestAnalyzer_StaleBranches(t *testing.T) {
	ctx := context.Background()

	t.Run("branch past the threshold is flagged exactly once", func(t *testing.T) {
		fg := &fakeGit{
			branches: []git.Branch{
				{Name: "main", LastCommit: daysAgo(2)},
				{Name: "feature/old", LastCommit: daysAgo(45)},
				{Name: "feature/fresh", LastCommit: daysAgo(3)},
			},
			merged: []string{"feature/old", "feature/fresh"},
		}
		report, err := newTestAnalyzer(t, fg, defaultTestOpts()).Analyze(ctx)
		require.NoError(t, err)

		stale := findingsIn(report, CategoryStaleBranch)
		require.Len(t, stale, 1)
		assert.Equal(t, "feature/old", stale[0].Subject)
		assert.Equal(t, SeverityWarning, stale[0].Severity)
		assert.Equal(t, int64(45), stale[0].Measured)
	})

	t.Run("default branch is never stale", func(t *testing.T) {
		fg := &fakeGit{
			branches: []git.Branch{{Name: "main", LastCommit: daysAgo(200)}},
			merged:   []string{"main"},
		}
		report, err := newTestAnalyzer(t, fg, defaultTestOpts()).Analyze(ctx)
		require.NoError(t, err)
		assert.Empty(t, report.Findings)
		assert.Equal(t, 100, report.Score)
	})

	t.Run("stale remote-tracking branch is flagged", func(t *testing.T) {
		fg := &fakeGit{
			branches: []git.Branch{{Name: "main", LastCommit: daysAgo(2)}},
			remotes: []git.Branch{
				{Name: "origin/feature/dead", IsRemote: true, LastCommit: daysAgo(60)},
				{Name: "origin/fresh", IsRemote: true, LastCommit: daysAgo(1)},
			},
			merged: []string{"main"},
		}
		report, err := newTestAnalyzer(t, fg, defaultTestOpts()).Analyze(ctx)
		require.NoError(t, err)

		stale := findingsIn(report, CategoryStaleBranch)
		require.Len(t, stale, 1)
		assert.Equal(t, "origin/feature/dead", stale[0].Subject)

		// Remote-tracking refs have no upstream of their own; only the
		// staleness scan covers them.
		assert.Empty(t, findingsIn(report, CategoryDivergedBranch))
		assert.Empty(t, findingsIn(report, CategoryUnmergedBranch))
	})

	t.Run("remote default branch is never stale", func(t *testing.T) {
		fg := &fakeGit{
			branches: []git.Branch{{Name: "main", LastCommit: daysAgo(2)}},
			remotes:  []git.Branch{{Name: "origin/main", IsRemote: true, LastCommit: daysAgo(300)}},
			merged:   []string{"main"},
		}
		report, err := newTestAnalyzer(t, fg, defaultTestOpts()).Analyze(ctx)
		require.NoError(t, err)
		assert.Empty(t, report.Findings)
	})

	t.Run("very old branch escalates to critical", func(t *testing.T) {
		fg := &fakeGit{
			branches: []git.Branch{{Name: "feature/ancient", LastCommit: daysAgo(120)}},
			merged:   []string{"feature/ancient"},
		}
		report, err := newTestAnalyzer(t, fg, defaultTestOpts()).Analyze(ctx)
		require.NoError(t, err)

		stale := findingsIn(report, CategoryStaleBranch)
		require.Len(t, stale, 1)
		assert.Equal(t, SeverityCritical, stale[0].Severity)
	})
}

func TestAnalyzer_DivergedBranches(t *testing.T) {
	fg := &fakeGit{
		branches: []git.Branch{
			{Name: "main", LastCommit: daysAgo(1)},
			{Name: "feature/split", LastCommit: daysAgo(1)},
			{Name: "feature/ahead-only", LastCommit: daysAgo(1)},
			{Name: "feature/local-only", LastCommit: daysAgo(1)},
		},
		upstreams: map[string]string{
			"feature/split":      "origin/feature/split",
			"feature/ahead-only": "origin/feature/ahead-only",
		},
		ahead:  map[string]int{"feature/split": 2, "feature/ahead-only": 3},
		behind: map[string]int{"feature/split": 5},
		merged: []string{"feature/split", "feature/ahead-only", "feature/local-only"},
	}

	report, err := newTestAnalyzer(t, fg, defaultTestOpts()).Analyze(context.Background())
	require.NoError(t, err)

	diverged := findingsIn(report, CategoryDivergedBranch)
	require.Len(t, diverged, 1, "ahead-only and upstream-less branches are not diverged")
	assert.Equal(t, "feature/split", diverged[0].Subject)
	assert.Equal(t, int64(5), diverged[0].Measured)
	assert.Contains(t, diverged[0].Detail, "2 ahead and 5 behind")
}

func TestAnalyzer_UnmergedBranches(t *testing.T) {
	fg := &fakeGit{
		branches: []git.Branch{
			{Name: "main", LastCommit: daysAgo(1)},
			{Name: "feature/done", LastCommit: daysAgo(1)},
			{Name: "feature/wip", LastCommit: daysAgo(1)},
		},
		merged: []string{"main", "feature/done"},
	}

	report, err := newTestAnalyzer(t, fg, defaultTestOpts()).Analyze(context.Background())
	require.NoError(t, err)

	unmerged := findingsIn(report, CategoryUnmergedBranch)
	require.Len(t, unmerged, 1)
	assert.Equal(t, "feature/wip", unmerged[0].Subject)
	assert.Equal(t, SeverityInfo, unmerged[0].Severity)
}

func TestAnalyzer_LargeObjects(t *testing.T) {
	const mb = 1024 * 1024
	fg := &fakeGit{
		branches: []git.Branch{{Name: "main", LastCommit: daysAgo(1)}},
		merged:   []string{"main"},
		objects: []git.TrackedObject{
			{Path: "README.md", Size: 4 * 1024},
			{Path: "assets/video.mp4", Size: 25 * mb},
			{Path: "data/dump.sql", Size: 80 * mb},
		},
	}

	report, err := newTestAnalyzer(t, fg, defaultTestOpts()).Analyze(context.Background())
	require.NoError(t, err)

	large := findingsIn(report, CategoryLargeObject)
	require.Len(t, large, 2)
	byPath := map[string]Finding{}
	for _, f := range large {
		byPath[f.Subject] = f
	}
	assert.Equal(t, SeverityWarning, byPath["assets/video.mp4"].Severity)
	assert.Equal(t, SeverityCritical, byPath["data/dump.sql"].Severity, "5x threshold escalates")
}

func TestAnalyzer_Idempotent(t *testing.T) {
	fg := &fakeGit{
		branches: []git.Branch{
			{Name: "main", LastCommit: daysAgo(1)},
			{Name: "feature/old", LastCommit: daysAgo(45)},
			{Name: "feature/wip", LastCommit: daysAgo(2)},
		},
		merged:  []string{"feature/old"},
		objects: []git.TrackedObject{{Path: "big.bin", Size: 30 * 1024 * 1024}},
	}
	a := newTestAnalyzer(t, fg, defaultTestOpts())

	first, err := a.Analyze(context.Background())
	require.NoError(t, err)
	second, err := a.Analyze(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second, "unchanged repository must yield an identical report")
}

func TestAnalyzer_OrderingAndScore(t *testing.T) {
	fg := &fakeGit{
		// zeta is stale critical, alpha stale warning, feature/wip unmerged info.
		branches: []git.Branch{
			{Name: "main", LastCommit: daysAgo(1)},
			{Name: "zeta", LastCommit: daysAgo(120)},
			{Name: "alpha", LastCommit: daysAgo(45)},
			{Name: "feature/wip", LastCommit: daysAgo(1)},
		},
		merged: []string{"zeta", "alpha"},
	}

	report, err := newTestAnalyzer(t, fg, defaultTestOpts()).Analyze(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Findings, 3)
	assert.Equal(t, SeverityCritical, report.Findings[0].Severity)
	assert.Equal(t, "zeta", report.Findings[0].Subject)
	assert.Equal(t, SeverityWarning, report.Findings[1].Severity)
	assert.Equal(t, SeverityInfo, report.Findings[2].Severity)

	// 100 - 15 (critical) - 5 (warning) - 1 (info)
	assert.Equal(t, 79, report.Score)
	assert.Equal(t, analysisTime, report.GeneratedAt)
}

func TestAnalyzer_ScoreFloor(t *testing.T) {
	branches := []git.Branch{{Name: "main", LastCommit: daysAgo(1)}}
	var merged []string
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		branches = append(branches, git.Branch{Name: name, LastCommit: daysAgo(400)})
		merged = append(merged, name)
	}
	fg := &fakeGit{branches: branches, merged: merged}

	report, err := newTestAnalyzer(t, fg, defaultTestOpts()).Analyze(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Score, "score never goes negative")
}
