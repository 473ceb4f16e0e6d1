package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/cli-worker/internal/core"
	"github.com/hugo-lorenzo-mato/cli-worker/internal/testutil"
)

func TestStatus_ReadsReport(t *testing.T) {
	f := newFixture(t)
	want := filepath.Join(f.base, "task-1", ".openclaw", "kimi-reports", "task-1.json")
	testutil.TempFile(t, filepath.Dir(want), filepath.Base(want),
		`{"execution":{"status":"completed"},"artifacts":{"test_status":"passed"}}`)

	r, path, err := f.svc.Status(context.Background(), StatusRequest{TaskID: "task-1"})
	require.NoError(t, err)
	assert.Equal(t, want, path)
	assert.Equal(t, "completed", r.Status())
	assert.Equal(t, "passed", r.Artifacts.TestStatus)
}

func TestStatus_ProviderSelectsSubdir(t *testing.T) {
	f := newFixture(t)
	f.svc.registry.Register(testutil.NewMockProvider(core.ProviderOpenCode))

	_, path, err := f.svc.Status(context.Background(), StatusRequest{TaskID: "t", Provider: "opencode"})
	assert.True(t, core.IsCategory(err, core.ErrCatNotFound))
	assert.Equal(t, filepath.Join(f.base, "t", ".openclaw", "opencode-reports", "t.json"), path)
}

func TestStatus_RejectsTraversal(t *testing.T) {
	f := newFixture(t)

	for _, id := range []string{"../etc", "a/b", ""} {
		_, _, err := f.svc.Status(context.Background(), StatusRequest{TaskID: id})
		var de *core.DomainError
		require.ErrorAs(t, err, &de, id)
		assert.Equal(t, core.CodeInvalidTaskID, de.Code)
	}
}

func TestStatus_WaitTimesOut(t *testing.T) {
	f := newFixture(t)

	start := time.Now()
	_, _, err := f.svc.Status(context.Background(), StatusRequest{TaskID: "slow", Wait: 100 * time.Millisecond})
	assert.True(t, core.IsCategory(err, core.ErrCatNotFound))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestWorktreeLifecycle(t *testing.T) {
	f := newFixture(t)
	f.mock.OnRun(okRun())
	repo := testutil.NewGitRepo(t)
	ctx := context.Background()

	res, err := f.svc.Execute(ctx, ExecuteRequest{Prompt: "p", Cwd: repo.Path})
	require.NoError(t, err)

	list, err := f.svc.ListWorktrees(ctx, repo.Path, "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "task-123", list[0].TaskID)

	path, err := f.svc.RemoveWorktree(ctx, "task-123")
	require.NoError(t, err)
	assert.Equal(t, res.WorktreePath, path)
	assert.NoDirExists(t, path)

	_, err = f.svc.RemoveWorktree(ctx, "task-123")
	assert.True(t, core.IsCategory(err, core.ErrCatNotFound))
}

func TestRemoveWorktree_InvalidID(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.RemoveWorktree(context.Background(), "../../home")
	assert.True(t, core.IsCategory(err, core.ErrCatValidation))
}

func TestCleanup_UsesClockAndDefault(t *testing.T) {
	f := newFixture(t)
	f.mock.OnRun(okRun())
	repo := testutil.NewGitRepo(t)
	ctx := context.Background()

	_, err := f.svc.Execute(ctx, ExecuteRequest{Prompt: "p", Cwd: repo.Path})
	require.NoError(t, err)

	// Nothing is older than the default 24h yet.
	result, err := f.svc.Cleanup(ctx, repo.Path, "", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Removed)

	f.svc.WithClock(func() time.Time { return time.Now().Add(48 * time.Hour) })
	result, err = f.svc.Cleanup(ctx, repo.Path, "", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Removed)
	assert.Empty(t, result.Failures)
}

func TestListWorktrees_NotARepo(t *testing.T) {
	testutil.RequireGit(t)
	f := newFixture(t)

	_, err := f.svc.ListWorktrees(context.Background(), testutil.TempDir(t), "")
	var de *core.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, core.CodeNotGitRepo, de.Code)
}
