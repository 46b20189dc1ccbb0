package git

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	keelerrors "github.com/mrz1836/keel/internal/errors"
)

func newTestRunner(t *testing.T, exec *mockExecutor) *CLIRunner {
	t.Helper()
	r, err := NewRunner(context.Background(), exec)
	require.NoError(t, err)
	return r
}

func TestNewRunner_NotARepository(t *testing.T) {
	exec := &mockExecutor{}
	exec.onFailure("rev-parse --git-dir", "fatal: not a git repository")

	_, err := NewRunner(context.Background(), exec)
	assert.ErrorIs(t, err, keelerrors.ErrNotGitRepo)
}

func TestCurrentBranch(t *testing.T) {
	t.Run("returns branch name", func(t *testing.T) {
		exec := &mockExecutor{}
		exec.onSuccess("rev-parse --abbrev-ref HEAD", "feature/login")
		r := newTestRunner(t, exec)

		branch, err := r.CurrentBranch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "feature/login", branch)
	})

	t.Run("detached HEAD is an error", func(t *testing.T) {
		exec := &mockExecutor{}
		exec.onSuccess("rev-parse --abbrev-ref HEAD", "HEAD")
		r := newTestRunner(t, exec)

		_, err := r.CurrentBranch(context.Background())
		assert.ErrorIs(t, err, keelerrors.ErrGitOperation)
	})
}

func TestBranchExists(t *testing.T) {
	t.Run("existing branch", func(t *testing.T) {
		exec := &mockExecutor{}
		exec.onSuccess("show-ref --verify --quiet refs/heads/main", "")
		r := newTestRunner(t, exec)

		exists, err := r.BranchExists(context.Background(), "main")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("missing branch is an answer not an error", func(t *testing.T) {
		exec := &mockExecutor{}
		exec.onFailure("show-ref --verify --quiet refs/heads/gone", "")
		r := newTestRunner(t, exec)

		exists, err := r.BranchExists(context.Background(), "gone")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("empty name rejected", func(t *testing.T) {
		r := newTestRunner(t, &mockExecutor{})
		_, err := r.BranchExists(context.Background(), "")
		assert.ErrorIs(t, err, keelerrors.ErrEmptyValue)
	})
}

func TestCreateBranch(t *testing.T) {
	t.Run("rejects existing branch before mutation", func(t *testing.T) {
		exec := &mockExecutor{}
		exec.onSuccess("show-ref --verify --quiet refs/heads/feature/login", "")
		r := newTestRunner(t, exec)

		err := r.CreateBranch(context.Background(), "feature/login", "main")
		assert.ErrorIs(t, err, keelerrors.ErrBranchExists)
		assert.False(t, exec.called("checkout -b"))
	})

	t.Run("creates from base", func(t *testing.T) {
		exec := &mockExecutor{}
		exec.onFailure("show-ref --verify --quiet refs/heads/feature/login", "")
		r := newTestRunner(t, exec)

		require.NoError(t, r.CreateBranch(context.Background(), "feature/login", "main"))
		assert.True(t, exec.called("checkout -b feature/login main"))
	})
}

func TestMerge_ClassifiesConflict(t *testing.T) {
	exec := &mockExecutor{}
	exec.onFailure("merge", "CONFLICT (content): Merge conflict in main.go\nAutomatic merge failed; fix conflicts and then commit the result.")
	r := newTestRunner(t, exec)

	err := r.Merge(context.Background(), "feature/login", "")
	assert.ErrorIs(t, err, keelerrors.ErrMergeConflict)
}

func TestPush_ClassifiesNonFastForward(t *testing.T) {
	exec := &mockExecutor{}
	exec.onFailure("push mirror main", "! [rejected] main -> main (non-fast-forward)\nerror: failed to push some refs")
	r := newTestRunner(t, exec)

	err := r.Push(context.Background(), "mirror", "main")
	assert.ErrorIs(t, err, keelerrors.ErrNonFastForward)
}

func TestPush_UsesNetworkTimeout(t *testing.T) {
	exec := &mockExecutor{}
	r := newTestRunner(t, exec)

	require.NoError(t, r.Push(context.Background(), "origin", "main"))
	require.Len(t, exec.runOpts, 1)
	assert.True(t, exec.runOpts[0].Network, "pushes run on the network timeout path")
}

func TestFetchBranchFastForward_Diverged(t *testing.T) {
	exec := &mockExecutor{}
	exec.onFailure("fetch backup main:main", "! [rejected] main -> main (non-fast-forward)")
	r := newTestRunner(t, exec)

	err := r.FetchBranchFastForward(context.Background(), "backup", "main")
	assert.ErrorIs(t, err, keelerrors.ErrDivergedBranch)
}

func TestMergeAbort_NoMergeInProgress(t *testing.T) {
	exec := &mockExecutor{}
	exec.onFailure("merge --abort", "fatal: There is no merge to abort (MERGE_HEAD missing).")
	r := newTestRunner(t, exec)

	assert.NoError(t, r.MergeAbort(context.Background()))
}

func TestIsWorkingTreeClean(t *testing.T) {
	t.Run("clean", func(t *testing.T) {
		exec := &mockExecutor{}
		exec.onSuccess("status --porcelain", "")
		r := newTestRunner(t, exec)

		clean, err := r.IsWorkingTreeClean(context.Background())
		require.NoError(t, err)
		assert.True(t, clean)
	})

	t.Run("dirty", func(t *testing.T) {
		exec := &mockExecutor{}
		exec.onSuccess("status --porcelain", " M main.go\n?? notes.txt")
		r := newTestRunner(t, exec)

		clean, err := r.IsWorkingTreeClean(context.Background())
		require.NoError(t, err)
		assert.False(t, clean)
	})
}

func TestUpstream_NoneConfigured(t *testing.T) {
	exec := &mockExecutor{}
	exec.onFailure("rev-parse --abbrev-ref topic@{upstream}", "fatal: no upstream configured for branch 'topic'")
	r := newTestRunner(t, exec)

	upstream, err := r.Upstream(context.Background(), "topic")
	require.NoError(t, err)
	assert.Empty(t, upstream)
}

func TestAheadBehind(t *testing.T) {
	exec := &mockExecutor{}
	exec.onSuccess("rev-list --left-right --count main...topic", "2\t5")
	r := newTestRunner(t, exec)

	ahead, behind, err := r.AheadBehind(context.Background(), "topic", "main")
	require.NoError(t, err)
	assert.Equal(t, 5, ahead)
	assert.Equal(t, 2, behind)
}
