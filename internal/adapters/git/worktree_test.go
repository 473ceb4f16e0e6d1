package git

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hugo-lorenzo-mato/cli-worker/internal/core"
	"github.com/hugo-lorenzo-mato/cli-worker/internal/testutil"
)

func newTestManager(t *testing.T) (*WorktreeManager, *testutil.GitRepo) {
	t.Helper()
	repo := testutil.NewGitRepo(t)
	client, err := NewClient(repo.Path)
	testutil.AssertNoError(t, err)
	base := filepath.Join(testutil.TempDir(t), "worktrees")
	return NewWorktreeManager(client, base, nil), repo
}

func TestWorktreeManager_Create(t *testing.T) {
	m, repo := newTestManager(t)
	ctx := context.Background()

	wt, err := m.Create(ctx, "task-1", "")
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, wt.Path, filepath.Join(m.BaseDir(), "task-1"))
	testutil.AssertEqual(t, wt.Branch, "openclaw/task-1")
	testutil.AssertEqual(t, wt.BaseCommit, repo.Head())
	if _, err := os.Stat(filepath.Join(wt.Path, "README.md")); err != nil {
		t.Errorf("worktree not checked out: %v", err)
	}

	branches, err := repo.Run("branch", "--list", "openclaw/task-1")
	testutil.AssertNoError(t, err)
	testutil.AssertContains(t, branches, "openclaw/task-1")
}

func TestWorktreeManager_CreateRejectsDuplicates(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.Create(ctx, "dup", "")
	testutil.AssertNoError(t, err)

	_, err = m.Create(ctx, "dup", "")
	testutil.AssertError(t, err)
	if !core.IsCategory(err, core.ErrCatWorkspace) {
		t.Errorf("expected workspace error, got %v", err)
	}
}

func TestWorktreeManager_CreateRejectsUnsafeIDs(t *testing.T) {
	m, _ := newTestManager(t)

	for _, id := range []string{"", "../escape", "a/b", "-flag", "has space"} {
		_, err := m.Create(context.Background(), id, "")
		if !core.IsCategory(err, core.ErrCatValidation) {
			t.Errorf("Create(%q) error = %v, want validation", id, err)
		}
	}
	if _, err := os.Stat(m.BaseDir()); err == nil {
		t.Error("base dir should not be created for rejected ids")
	}
}

func TestWorktreeManager_CreateBadBaseRef(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.Create(context.Background(), "task-x", "does-not-exist")
	testutil.AssertError(t, err)
	var de *core.DomainError
	if !asDomain(err, &de) || de.Code != core.CodeWorktreeCreateFailed {
		t.Errorf("error = %v, want %s", err, core.CodeWorktreeCreateFailed)
	}
}

func TestWorktreeManager_ListAndRemove(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	for _, id := range []string{"a1", "b2"} {
		_, err := m.Create(ctx, id, "")
		testutil.AssertNoError(t, err)
	}

	list, err := m.List(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertLen(t, list, 2)

	ids := []string{list[0].TaskID, list[1].TaskID}
	testutil.AssertContains(t, strings.Join(ids, ","), "a1")
	testutil.AssertContains(t, strings.Join(ids, ","), "b2")
	for _, wt := range list {
		testutil.AssertFalse(t, wt.ModTime.IsZero(), "mod time filled")
	}

	testutil.AssertNoError(t, m.Remove(ctx, list[0].Path))
	if _, err := os.Stat(list[0].Path); !os.IsNotExist(err) {
		t.Errorf("worktree still present: %v", err)
	}

	list, err = m.List(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertLen(t, list, 1)
}

func TestWorktreeManager_RemoveMissing(t *testing.T) {
	m, _ := newTestManager(t)

	err := m.Remove(context.Background(), filepath.Join(m.BaseDir(), "gone"))
	if !core.IsCategory(err, core.ErrCatNotFound) {
		t.Errorf("error = %v, want not found", err)
	}
}

func TestWorktreeManager_RemoveNonWorktree(t *testing.T) {
	m, _ := newTestManager(t)
	plain := testutil.TempDir(t)

	err := m.Remove(context.Background(), plain)
	if !core.IsCategory(err, core.ErrCatWorkspace) {
		t.Errorf("error = %v, want workspace", err)
	}
}

func TestWorktreeManager_Cleanup(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	old, err := m.Create(ctx, "old-task", "")
	testutil.AssertNoError(t, err)
	fresh, err := m.Create(ctx, "fresh-task", "")
	testutil.AssertNoError(t, err)

	testutil.SetModTime(t, old.Path, 48*time.Hour)

	result, err := m.Cleanup(ctx, 24*time.Hour, time.Now())
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, result.Removed, 1)
	testutil.AssertLen(t, result.Failures, 0)

	if _, err := os.Stat(old.Path); !os.IsNotExist(err) {
		t.Error("old worktree should be removed")
	}
	if _, err := os.Stat(fresh.Path); err != nil {
		t.Error("fresh worktree should remain")
	}
}

func TestWorktreeManager_CleanupSkipsVanished(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	wt, err := m.Create(ctx, "vanished", "")
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, os.RemoveAll(wt.Path))

	result, err := m.Cleanup(ctx, 0, time.Now().Add(time.Hour))
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, result.Removed, 0)
	testutil.AssertLen(t, result.Failures, 0)
}

func TestParseWorktreeList(t *testing.T) {
	output := strings.Join([]string{
		"/repo                      abc123 [main]",
		"/base/t-1                  def456 [openclaw/t-1]",
		"/base/t-2/nested           def456 [openclaw/t-2]",
		"/base                      000000 [weird]",
		"/basement/t-3              111111 [x]",
		"rel/t-4                    222222 [y]",
		"",
	}, "\n")

	got := ParseWorktreeList(output, "/base", "/repo")
	testutil.AssertLen(t, got, 2)
	testutil.AssertEqual(t, got[0].Path, "/base/t-1")
	testutil.AssertEqual(t, got[0].TaskID, "t-1")
	testutil.AssertEqual(t, got[1].Path, "/base/t-2/nested")
	testutil.AssertEqual(t, got[1].TaskID, "t-2")

	rel := ParseWorktreeList("base/t-5 333 [z]\n", "/repo/base", "/repo")
	testutil.AssertLen(t, rel, 1)
	testutil.AssertEqual(t, rel[0].TaskID, "t-5")

	testutil.AssertLen(t, ParseWorktreeList("", "/base", "/repo"), 0)
}
