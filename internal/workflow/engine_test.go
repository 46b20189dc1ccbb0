package workflow

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/keel/internal/clock"
	"github.com/mrz1836/keel/internal/constants"
	keelerrors "github.com/mrz1836/keel/internal/errors"
)

// fakeGit simulates a repository as a map of branch heads. Every mutating
// call is recorded in ops so tests can assert order, and failOn lets tests
// script a failure for a specific operation.
type fakeGit struct {
	branches map[string]string
	tags     map[string]bool
	current  string
	dirty    bool
	ops      []string
	failOn   map[string]error
}

func newFakeGit(current string, branches ...string) *fakeGit {
	fg := &fakeGit{
		branches: make(map[string]string),
		tags:     make(map[string]bool),
		current:  current,
		failOn:   make(map[string]error),
	}
	for _, b := range branches {
		fg.branches[b] = "sha-" + b
	}
	return fg
}

func (f *fakeGit) record(op string) error {
	f.ops = append(f.ops, op)
	return f.failOn[op]
}

func (f *fakeGit) CurrentBranch(context.Context) (string, error) { return f.current, nil }

func (f *fakeGit) IsWorkingTreeClean(context.Context) (bool, error) { return !f.dirty, nil }

func (f *fakeGit) RevParse(_ context.Context, ref string) (string, error) {
	if sha, ok := f.branches[ref]; ok {
		return sha, nil
	}
	return "", fmt.Errorf("unknown ref %q: %w", ref, keelerrors.ErrGitOperation)
}

func (f *fakeGit) BranchExists(_ context.Context, name string) (bool, error) {
	_, ok := f.branches[name]
	return ok, nil
}

func (f *fakeGit) TagExists(_ context.Context, name string) (bool, error) {
	return f.tags[name], nil
}

func (f *fakeGit) CreateBranch(_ context.Context, name, base string) error {
	if err := f.record("create-branch " + name); err != nil {
		return err
	}
	f.branches[name] = f.branches[base]
	f.current = name
	return nil
}

func (f *fakeGit) CreateBranchAt(_ context.Context, name, sha string) error {
	if err := f.record("create-branch-at " + name + " " + sha); err != nil {
		return err
	}
	f.branches[name] = sha
	return nil
}

func (f *fakeGit) Checkout(_ context.Context, name string) error {
	if err := f.record("checkout " + name); err != nil {
		return err
	}
	if _, ok := f.branches[name]; !ok {
		return fmt.Errorf("branch %q: %w", name, keelerrors.ErrBranchNotFound)
	}
	f.current = name
	return nil
}

func (f *fakeGit) DeleteBranch(_ context.Context, name string, _ bool) error {
	if err := f.record("delete-branch " + name); err != nil {
		return err
	}
	delete(f.branches, name)
	return nil
}

func (f *fakeGit) Merge(_ context.Context, branch, _ string) error {
	if err := f.record("merge " + branch + " into " + f.current); err != nil {
		return err
	}
	f.branches[f.current] = "merge-" + branch + "-into-" + f.current
	return nil
}

func (f *fakeGit) MergeAbort(context.Context) error { return f.record("merge-abort") }

func (f *fakeGit) ResetHard(_ context.Context, ref string) error {
	if err := f.record("reset-hard " + ref); err != nil {
		return err
	}
	f.branches[f.current] = ref
	return nil
}

func (f *fakeGit) Tag(_ context.Context, name, _ string) error {
	if err := f.record("tag " + name); err != nil {
		return err
	}
	f.tags[name] = true
	return nil
}

func (f *fakeGit) DeleteTag(_ context.Context, name string) error {
	if err := f.record("delete-tag " + name); err != nil {
		return err
	}
	delete(f.tags, name)
	return nil
}

func (f *fakeGit) Push(_ context.Context, remote, branch string) error {
	return f.record("push " + remote + " " + branch)
}

func (f *fakeGit) PushTag(_ context.Context, remote, tag string) error {
	return f.record("push-tag " + remote + " " + tag)
}

func newTestEngine(t *testing.T, fg *fakeGit, modelName string, opts Options) *Engine {
	t.Helper()
	model, err := ModelFor(modelName, "main")
	require.NoError(t, err)
	return NewEngine(Params{
		Git:    fg,
		Store:  NewSessionStore(t.TempDir()),
		Model:  model,
		Opts:   opts,
		Remote: "origin",
		Clock:  clock.Fixed{Time: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
		Logger: zerolog.Nop(),
	})
}

func defaultOpts() Options {
	opts, _ := ResolveOptions(nil)
	return opts
}

func stepIDs(recs []StepRecord) []StepID {
	ids := make([]StepID, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	return ids
}

func TestEngine_Start(t *testing.T) {
	ctx := context.Background()

	t.Run("creates branch and persists session", func(t *testing.T) {
		fg := newFakeGit("main", "main")
		e := newTestEngine(t, fg, constants.WorkflowGitHubFlow, defaultOpts())

		sess, err := e.Start(ctx, KindFeature, "login")
		require.NoError(t, err)

		assert.Equal(t, StateInProgress, sess.State)
		assert.Equal(t, "feature/login", sess.BranchName)
		assert.Equal(t, "main", sess.BaseBranch)
		assert.NotEmpty(t, sess.ID)
		assert.Equal(t, []StepID{StepBranchCreated}, stepIDs(sess.CompletedSteps))
		assert.Contains(t, fg.branches, "feature/login")

		stored, err := e.store.Get("feature/login")
		require.NoError(t, err)
		assert.Equal(t, sess.ID, stored.ID)
	})

	t.Run("rejects dirty working tree before mutation", func(t *testing.T) {
		fg := newFakeGit("main", "main")
		fg.dirty = true
		e := newTestEngine(t, fg, constants.WorkflowGitHubFlow, defaultOpts())

		_, err := e.Start(ctx, KindFeature, "login")
		require.ErrorIs(t, err, keelerrors.ErrDirtyWorkingTree)
		assert.Empty(t, fg.ops, "no git mutation on rejected start")
	})

	t.Run("rejects second session for same branch", func(t *testing.T) {
		fg := newFakeGit("main", "main")
		e := newTestEngine(t, fg, constants.WorkflowGitHubFlow, defaultOpts())

		_, err := e.Start(ctx, KindFeature, "login")
		require.NoError(t, err)
		opsAfterFirst := len(fg.ops)

		_, err = e.Start(ctx, KindFeature, "login")
		require.ErrorIs(t, err, keelerrors.ErrSessionActive)
		assert.Len(t, fg.ops, opsAfterFirst, "rejected start must not touch the repository")
	})

	t.Run("rejects existing branch without session", func(t *testing.T) {
		fg := newFakeGit("main", "main", "feature/login")
		e := newTestEngine(t, fg, constants.WorkflowGitHubFlow, defaultOpts())

		_, err := e.Start(ctx, KindFeature, "login")
		assert.ErrorIs(t, err, keelerrors.ErrBranchExists)
	})

	t.Run("rejects missing base branch", func(t *testing.T) {
		fg := newFakeGit("trunk", "trunk")
		e := newTestEngine(t, fg, constants.WorkflowGitHubFlow, defaultOpts())

		_, err := e.Start(ctx, KindFeature, "login")
		assert.ErrorIs(t, err, keelerrors.ErrBranchNotFound)
	})

	t.Run("rejects unknown kind and empty name", func(t *testing.T) {
		fg := newFakeGit("main", "main")
		e := newTestEngine(t, fg, constants.WorkflowGitHubFlow, defaultOpts())

		_, err := e.Start(ctx, Kind("bugfix"), "x")
		assert.ErrorIs(t, err, keelerrors.ErrUnknownWorkflowKind)

		_, err = e.Start(ctx, KindFeature, "  ")
		assert.ErrorIs(t, err, keelerrors.ErrEmptyValue)
	})
}

func TestEngine_Finish_Feature(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path merges, deletes, completes", func(t *testing.T) {
		fg := newFakeGit("main", "main")
		e := newTestEngine(t, fg, constants.WorkflowGitHubFlow, defaultOpts())

		sess, err := e.Start(ctx, KindFeature, "login")
		require.NoError(t, err)

		res, err := e.Finish(ctx, sess)
		require.NoError(t, err)

		assert.Equal(t, StateCompleted, res.Session.State)
		assert.Equal(t,
			[]StepID{StepBranchCreated, StepMergedIntegration, StepBranchDeleted},
			stepIDs(res.Session.CompletedSteps))
		assert.Empty(t, res.RollbackWarnings)

		assert.NotContains(t, fg.branches, "feature/login")
		assert.Equal(t, "merge-feature/login-into-main", fg.branches["main"])

		_, err = e.store.Get("feature/login")
		assert.ErrorIs(t, err, keelerrors.ErrSessionNotFound)
	})

	t.Run("merge conflict fails, aborts merge, keeps the branch", func(t *testing.T) {
		fg := newFakeGit("main", "main")
		e := newTestEngine(t, fg, constants.WorkflowGitHubFlow, defaultOpts())

		sess, err := e.Start(ctx, KindFeature, "login")
		require.NoError(t, err)

		fg.failOn["merge feature/login into main"] = fmt.Errorf("conflict in auth.go: %w", keelerrors.ErrMergeConflict)

		res, err := e.Finish(ctx, sess)
		require.ErrorIs(t, err, keelerrors.ErrMergeConflict)

		assert.Equal(t, StateFailed, res.Session.State)
		assert.Equal(t, StepMergedIntegration, res.FailedStep)
		assert.Empty(t, res.RollbackWarnings)
		assert.Contains(t, fg.ops, "merge-abort")

		assert.Contains(t, fg.branches, "feature/login", "failed finish must not discard the branch")
		assert.Equal(t, "sha-main", fg.branches["main"], "integration branch untouched")

		_, err = e.store.Get("feature/login")
		assert.ErrorIs(t, err, keelerrors.ErrSessionNotFound)
	})

	t.Run("rejects dirty working tree", func(t *testing.T) {
		fg := newFakeGit("main", "main")
		e := newTestEngine(t, fg, constants.WorkflowGitHubFlow, defaultOpts())

		sess, err := e.Start(ctx, KindFeature, "login")
		require.NoError(t, err)

		fg.dirty = true
		_, err = e.Finish(ctx, sess)
		assert.ErrorIs(t, err, keelerrors.ErrDirtyWorkingTree)
	})

	t.Run("rejects terminal session", func(t *testing.T) {
		fg := newFakeGit("main", "main")
		e := newTestEngine(t, fg, constants.WorkflowGitHubFlow, defaultOpts())

		_, err := e.Finish(ctx, &Session{State: StateCompleted, BranchName: "feature/x"})
		assert.ErrorIs(t, err, keelerrors.ErrInvalidTransition)
	})

	t.Run("push after finish pushes integration", func(t *testing.T) {
		fg := newFakeGit("main", "main")
		opts := defaultOpts()
		opts.PushAfterFinish = true
		e := newTestEngine(t, fg, constants.WorkflowGitHubFlow, opts)

		sess, err := e.Start(ctx, KindFeature, "login")
		require.NoError(t, err)

		res, err := e.Finish(ctx, sess)
		require.NoError(t, err)

		assert.Equal(t,
			[]StepID{StepBranchCreated, StepMergedIntegration, StepBranchDeleted, StepPushedUpstream},
			stepIDs(res.Session.CompletedSteps))
		assert.Contains(t, fg.ops, "push origin main")
	})
}

func TestEngine_Finish_Release_GitFlow(t *testing.T) {
	ctx := context.Background()

	fg := newFakeGit("develop", "develop", "main")
	e := newTestEngine(t, fg, constants.WorkflowGitFlow, defaultOpts())

	sess, err := e.Start(ctx, KindRelease, "2.0")
	require.NoError(t, err)
	assert.Equal(t, "develop", sess.BaseBranch)

	res, err := e.Finish(ctx, sess)
	require.NoError(t, err)

	assert.Equal(t,
		[]StepID{StepBranchCreated, StepTagCreated, StepMergedIntegration, StepMergedStable, StepBranchDeleted},
		stepIDs(res.Session.CompletedSteps))
	assert.True(t, fg.tags["v2.0"])
	assert.Equal(t, "merge-release/2.0-into-develop", fg.branches["develop"])
	assert.Equal(t, "merge-release/2.0-into-main", fg.branches["main"])
	assert.NotContains(t, fg.branches, "release/2.0")
}

func TestEngine_Finish_Release_PushesTag(t *testing.T) {
	ctx := context.Background()

	fg := newFakeGit("develop", "develop", "main")
	opts := defaultOpts()
	opts.PushAfterFinish = true
	e := newTestEngine(t, fg, constants.WorkflowGitFlow, opts)

	sess, err := e.Start(ctx, KindRelease, "2.0")
	require.NoError(t, err)

	res, err := e.Finish(ctx, sess)
	require.NoError(t, err)

	ids := stepIDs(res.Session.CompletedSteps)
	assert.Contains(t, ids, StepPushedTag)
	assert.Contains(t, fg.ops, "push origin develop")
	assert.Contains(t, fg.ops, "push origin main")
	assert.Contains(t, fg.ops, "push-tag origin v2.0")

	// Feature finishes plan no tag, so no tag push either.
	fg2 := newFakeGit("main", "main")
	e2 := newTestEngine(t, fg2, constants.WorkflowGitHubFlow, opts)
	sess2, err := e2.Start(ctx, KindFeature, "login")
	require.NoError(t, err)
	_, err = e2.Finish(ctx, sess2)
	require.NoError(t, err)
	assert.NotContains(t, fg2.ops, "push-tag origin vlogin")
}

func TestEngine_Finish_Release_TagCollision(t *testing.T) {
	fg := newFakeGit("develop", "develop", "main")
	e := newTestEngine(t, fg, constants.WorkflowGitFlow, defaultOpts())

	sess, err := e.Start(context.Background(), KindRelease, "2.0")
	require.NoError(t, err)

	fg.tags["v2.0"] = true
	res, err := e.Finish(context.Background(), sess)
	require.ErrorIs(t, err, keelerrors.ErrTagExists)
	assert.Equal(t, StepTagCreated, res.FailedStep)
	assert.Contains(t, fg.branches, "release/2.0")
}

func TestEngine_Abort(t *testing.T) {
	ctx := context.Background()

	t.Run("replays every completed step in reverse", func(t *testing.T) {
		fg := newFakeGit("release/2.0", "develop", "main", "release/2.0")
		fg.tags["v2.0"] = true
		e := newTestEngine(t, fg, constants.WorkflowGitFlow, defaultOpts())

		sess := &Session{
			ID:         "abc",
			Kind:       KindRelease,
			BranchName: "release/2.0",
			BaseBranch: "develop",
			State:      StateInProgress,
			CompletedSteps: []StepRecord{
				{ID: StepBranchCreated, Branch: "release/2.0"},
				{ID: StepMergedIntegration, Branch: "develop", PriorSHA: "sha-develop-pre"},
				{ID: StepTagCreated, Tag: "v2.0"},
			},
		}
		require.NoError(t, e.store.Put(sess))

		res, err := e.Abort(ctx, sess)
		require.NoError(t, err)

		assert.Equal(t, StateAborted, res.Session.State)
		assert.Empty(t, res.RollbackWarnings)
		assert.Equal(t, []string{
			"delete-tag v2.0",
			"checkout develop",
			"reset-hard sha-develop-pre",
			"delete-branch release/2.0",
		}, fg.ops, "undo order must reverse the completed-steps log")

		assert.False(t, fg.tags["v2.0"])
		assert.Equal(t, "sha-develop-pre", fg.branches["develop"])
		assert.NotContains(t, fg.branches, "release/2.0")

		_, err = e.store.Get("release/2.0")
		assert.ErrorIs(t, err, keelerrors.ErrSessionNotFound)
	})

	t.Run("undo failure is a warning, remaining undos still run", func(t *testing.T) {
		fg := newFakeGit("release/2.0", "develop", "main", "release/2.0")
		fg.tags["v2.0"] = true
		fg.failOn["delete-tag v2.0"] = errors.New("tag is checked out")
		e := newTestEngine(t, fg, constants.WorkflowGitFlow, defaultOpts())

		sess := &Session{
			Kind:       KindRelease,
			BranchName: "release/2.0",
			BaseBranch: "develop",
			State:      StateInProgress,
			CompletedSteps: []StepRecord{
				{ID: StepBranchCreated, Branch: "release/2.0"},
				{ID: StepTagCreated, Tag: "v2.0"},
			},
		}

		res, err := e.Abort(ctx, sess)
		require.NoError(t, err)

		require.Len(t, res.RollbackWarnings, 1)
		assert.Contains(t, res.RollbackWarnings[0], "tag_created")
		assert.NotContains(t, fg.branches, "release/2.0", "later undos run despite earlier failure")
	})

	t.Run("pushed steps cannot be undone and warn", func(t *testing.T) {
		fg := newFakeGit("feature/login", "main", "feature/login")
		e := newTestEngine(t, fg, constants.WorkflowGitHubFlow, defaultOpts())

		sess := &Session{
			Kind:       KindFeature,
			BranchName: "feature/login",
			BaseBranch: "main",
			State:      StateInProgress,
			CompletedSteps: []StepRecord{
				{ID: StepBranchCreated, Branch: "feature/login"},
				{ID: StepPushedUpstream, Branch: "feature/login", Remote: "origin"},
			},
		}

		res, err := e.Abort(ctx, sess)
		require.NoError(t, err)

		require.Len(t, res.RollbackWarnings, 1)
		assert.Contains(t, res.RollbackWarnings[0], "cannot be undone")
		assert.NotContains(t, fg.branches, "feature/login")
		assert.Equal(t, "main", fg.current, "moved off the branch before deleting it")
	})

	t.Run("rejects terminal session", func(t *testing.T) {
		fg := newFakeGit("main", "main")
		e := newTestEngine(t, fg, constants.WorkflowGitHubFlow, defaultOpts())

		_, err := e.Abort(ctx, &Session{State: StateAborted, BranchName: "feature/x"})
		assert.ErrorIs(t, err, keelerrors.ErrInvalidTransition)
	})
}

func TestEngine_Abort_AfterInterrupt(t *testing.T) {
	// Rollback must run even when the triggering context is already canceled.
	fg := newFakeGit("feature/login", "main", "feature/login")
	e := newTestEngine(t, fg, constants.WorkflowGitHubFlow, defaultOpts())

	sess := &Session{
		Kind:       KindFeature,
		BranchName: "feature/login",
		BaseBranch: "main",
		State:      StateInProgress,
		CompletedSteps: []StepRecord{
			{ID: StepBranchCreated, Branch: "feature/login"},
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := e.Abort(ctx, sess)
	require.NoError(t, err)
	assert.Empty(t, res.RollbackWarnings)
	assert.NotContains(t, fg.branches, "feature/login")
}
