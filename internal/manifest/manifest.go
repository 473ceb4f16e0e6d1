// Package manifest writes the files an agent finds in its worktree: the
// task manifest under .openclaw/ and the AGENTS.md instructions.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"

	"github.com/hugo-lorenzo-mato/cli-worker/internal/core"
	"github.com/hugo-lorenzo-mato/cli-worker/internal/fsutil"
	"github.com/hugo-lorenzo-mato/cli-worker/internal/validation"
)

// ProtocolVersion is the only manifest version understood.
const ProtocolVersion = "1.0"

// Well-known locations inside a worktree.
const (
	Dir                  = ".openclaw"
	FileName             = "task.manifest.json"
	InstructionsFileName = "AGENTS.md"
	DefaultReportSubdir  = "kimi-reports"
)

// Manifest describes a task to the agent running in the worktree.
type Manifest struct {
	ProtocolVersion  string           `json:"protocol_version"`
	TaskID           string           `json:"task_id"`
	Context          Context          `json:"context"`
	ExecutionContext ExecutionContext `json:"execution_context"`
}

// Context carries the optional task hints.
type Context struct {
	RelevantFiles   []string `json:"relevant_files,omitempty"`
	Constraints     []string `json:"constraints,omitempty"`
	SuccessCriteria []string `json:"success_criteria,omitempty"`
}

// ExecutionContext tells the agent where it runs and where to report.
type ExecutionContext struct {
	WorktreePath string `json:"worktree_path"`
	GitBase      string `json:"git_base,omitempty"`
	ReportPath   string `json:"report_path,omitempty"`
}

// Path returns the manifest location inside worktreePath.
func Path(worktreePath string) string {
	return filepath.Join(worktreePath, Dir, FileName)
}

// ReportPath returns <worktree>/.openclaw/<subdir>/<taskID>.json.
func ReportPath(worktreePath, subdir, taskID string) string {
	return filepath.Join(worktreePath, Dir, subdir, taskID+".json")
}

// Write serializes the manifest for taskID into the worktree, replacing any
// previous one, and returns its path. An empty reportPath defaults to the
// kimi-reports location.
func Write(taskID string, task core.TaskInput, worktreePath, reportPath, gitBase string) (string, error) {
	if !validation.IsSafeTaskID(taskID) {
		return "", core.ErrValidation(core.CodeInvalidTaskID, "invalid task id").WithDetail("task_id", taskID)
	}
	if reportPath == "" {
		reportPath = ReportPath(worktreePath, DefaultReportSubdir, taskID)
	}

	m := Manifest{
		ProtocolVersion: ProtocolVersion,
		TaskID:          taskID,
		Context: Context{
			RelevantFiles:   task.RelevantFiles,
			Constraints:     task.Constraints,
			SuccessCriteria: task.SuccessCriteria,
		},
		ExecutionContext: ExecutionContext{
			WorktreePath: worktreePath,
			GitBase:      gitBase,
			ReportPath:   reportPath,
		},
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling manifest: %w", err)
	}

	path := Path(worktreePath)
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return "", core.ErrIO(core.CodeWriteFailed, "writing task manifest").
			WithDetail("path", path).
			WithCause(err)
	}
	return path, nil
}

// Read loads and validates a manifest.
func Read(path string) (*Manifest, error) {
	data, err := fsutil.ReadFileScoped(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, core.ErrNotFound("manifest", path)
		}
		return nil, core.ErrIO(core.CodeReadFailed, "reading task manifest").WithCause(err)
	}
	if err := Validate(data); err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, core.ErrParse(core.CodeInvalidManifest, "decoding task manifest").WithCause(err)
	}
	return &m, nil
}

// Validate checks that raw is a supported manifest document.
func Validate(raw []byte) error {
	if !gjson.ValidBytes(raw) {
		return core.ErrParse(core.CodeInvalidManifest, "manifest is not valid JSON")
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return core.ErrParse(core.CodeInvalidManifest, "manifest is not an object")
	}

	switch {
	case doc.Get("protocol_version").String() != ProtocolVersion || doc.Get("protocol_version").Type != gjson.String:
		return core.ErrParse(core.CodeInvalidManifest,
			fmt.Sprintf("unsupported protocol version %s", doc.Get("protocol_version").Raw))
	case doc.Get("task_id").Type != gjson.String:
		return core.ErrParse(core.CodeInvalidManifest, "task_id must be a string")
	case !doc.Get("context").IsObject():
		return core.ErrParse(core.CodeInvalidManifest, "context must be an object")
	case !doc.Get("execution_context").IsObject():
		return core.ErrParse(core.CodeInvalidManifest, "execution_context must be an object")
	case doc.Get("execution_context.worktree_path").Type != gjson.String:
		return core.ErrParse(core.CodeInvalidManifest, "execution_context.worktree_path must be a string")
	}
	return nil
}
