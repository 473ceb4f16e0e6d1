package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/hugo-lorenzo-mato/cli-worker/internal/core"
	"github.com/hugo-lorenzo-mato/cli-worker/internal/testutil"
)

func TestWrite_Layout(t *testing.T) {
	dir := testutil.TempDir(t)
	task := core.TaskInput{
		Prompt:        "p",
		RelevantFiles: []string{"a.go", "a.go"},
	}

	path, err := Write("task-1", task, dir, "", "abc123")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, path, filepath.Join(dir, ".openclaw", "task.manifest.json"))

	data, err := os.ReadFile(path)
	testutil.AssertNoError(t, err)
	testutil.AssertContains(t, string(data), "\n  \"protocol_version\": \"1.0\"")

	var raw map[string]any
	testutil.AssertNoError(t, json.Unmarshal(data, &raw))
	ctx := raw["context"].(map[string]any)
	testutil.AssertLen(t, ctx["relevant_files"].([]any), 2)
	_, hasConstraints := ctx["constraints"]
	testutil.AssertFalse(t, hasConstraints, "empty lists omitted")

	m, err := Read(path)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, m.TaskID, "task-1")
	testutil.AssertEqual(t, m.ExecutionContext.WorktreePath, dir)
	testutil.AssertEqual(t, m.ExecutionContext.GitBase, "abc123")
	testutil.AssertEqual(t, m.ExecutionContext.ReportPath,
		filepath.Join(dir, ".openclaw", "kimi-reports", "task-1.json"))
}

func TestWrite_Overwrites(t *testing.T) {
	dir := testutil.TempDir(t)

	_, err := Write("t1", core.TaskInput{Prompt: "p"}, dir, "/r1.json", "")
	testutil.AssertNoError(t, err)
	path, err := Write("t1", core.TaskInput{Prompt: "p"}, dir, "/r2.json", "")
	testutil.AssertNoError(t, err)

	m, err := Read(path)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, m.ExecutionContext.ReportPath, "/r2.json")
}

func TestWrite_RejectsUnsafeTaskID(t *testing.T) {
	_, err := Write("../x", core.TaskInput{Prompt: "p"}, testutil.TempDir(t), "", "")
	if !core.IsCategory(err, core.ErrCatValidation) {
		t.Errorf("error = %v, want validation", err)
	}
}

func TestRead_Missing(t *testing.T) {
	_, err := Read(filepath.Join(testutil.TempDir(t), "nope.json"))
	if !core.IsCategory(err, core.ErrCatNotFound) {
		t.Errorf("error = %v, want not found", err)
	}
}

func TestValidate(t *testing.T) {
	valid := `{"protocol_version":"1.0","task_id":"t","context":{},"execution_context":{"worktree_path":"/w"}}`

	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", valid, false},
		{"not json", `{`, true},
		{"array", `[]`, true},
		{"wrong version", `{"protocol_version":"2.0","task_id":"t","context":{},"execution_context":{"worktree_path":"/w"}}`, true},
		{"numeric version", `{"protocol_version":1.0,"task_id":"t","context":{},"execution_context":{"worktree_path":"/w"}}`, true},
		{"numeric task id", `{"protocol_version":"1.0","task_id":1,"context":{},"execution_context":{"worktree_path":"/w"}}`, true},
		{"context not object", `{"protocol_version":"1.0","task_id":"t","context":[],"execution_context":{"worktree_path":"/w"}}`, true},
		{"missing execution context", `{"protocol_version":"1.0","task_id":"t","context":{}}`, true},
		{"missing worktree path", `{"protocol_version":"1.0","task_id":"t","context":{},"execution_context":{}}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate([]byte(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !core.IsCategory(err, core.ErrCatParse) {
				t.Errorf("expected parse category, got %v", err)
			}
		})
	}
}

func TestReportPath(t *testing.T) {
	got := ReportPath("/w", "claude-reports", "abc")
	testutil.AssertEqual(t, got, filepath.Join("/w", ".openclaw", "claude-reports", "abc.json"))
}
