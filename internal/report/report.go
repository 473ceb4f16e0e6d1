// Package report reads the completion report an agent leaves in its worktree.
package report

import (
	"errors"
	"os"

	"github.com/tidwall/gjson"

	"github.com/hugo-lorenzo-mato/cli-worker/internal/core"
	"github.com/hugo-lorenzo-mato/cli-worker/internal/fsutil"
)

// Report is an agent's completion report. Every field is optional; values
// of an unexpected type are dropped rather than rejected.
type Report struct {
	ProtocolVersion string          `json:"protocol_version,omitempty" yaml:"protocol_version,omitempty"`
	TaskID          string          `json:"task_id,omitempty" yaml:"task_id,omitempty"`
	Execution       *Execution      `json:"execution,omitempty" yaml:"execution,omitempty"`
	CognitiveState  *CognitiveState `json:"cognitive_state,omitempty" yaml:"cognitive_state,omitempty"`
	Artifacts       *Artifacts      `json:"artifacts,omitempty" yaml:"artifacts,omitempty"`
}

// Execution describes how the run ended.
type Execution struct {
	Status          string   `json:"status,omitempty" yaml:"status,omitempty"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty" yaml:"duration_seconds,omitempty"`
	SessionID       string   `json:"session_id,omitempty" yaml:"session_id,omitempty"`
}

// CognitiveState is the agent's own assessment.
type CognitiveState struct {
	Confidence     *float64 `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	CertaintyLevel string   `json:"certainty_level,omitempty" yaml:"certainty_level,omitempty"`
	Blockers       []string `json:"blockers,omitempty" yaml:"blockers,omitempty"`
	Assumptions    []string `json:"assumptions,omitempty" yaml:"assumptions,omitempty"`
}

// Artifacts lists what the agent changed.
type Artifacts struct {
	FilesModified []string `json:"files_modified,omitempty" yaml:"files_modified,omitempty"`
	FilesCreated  []string `json:"files_created,omitempty" yaml:"files_created,omitempty"`
	FilesDeleted  []string `json:"files_deleted,omitempty" yaml:"files_deleted,omitempty"`
	TestStatus    string   `json:"test_status,omitempty" yaml:"test_status,omitempty"`
	GitSHA        string   `json:"git_sha,omitempty" yaml:"git_sha,omitempty"`
}

// Status returns execution.status, or "" when absent.
func (r *Report) Status() string {
	if r == nil || r.Execution == nil {
		return ""
	}
	return r.Execution.Status
}

// Parse reads the report at path.
func Parse(path string) (*Report, error) {
	data, err := fsutil.ReadFileScoped(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, core.ErrNotFound("report", path)
		}
		return nil, core.ErrIO(core.CodeReadFailed, "reading report").
			WithDetail("path", path).
			WithCause(err)
	}
	return ParseBytes(data)
}

// ParseBytes decodes a report document.
func ParseBytes(data []byte) (*Report, error) {
	if !gjson.ValidBytes(data) {
		return nil, core.ErrParse(core.CodeParseFailed, "report is not valid JSON")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, core.ErrParse(core.CodeInvalidReport, "invalid report: not an object")
	}

	r := &Report{
		ProtocolVersion: str(doc.Get("protocol_version")),
		TaskID:          str(doc.Get("task_id")),
	}

	if e := doc.Get("execution"); e.IsObject() {
		r.Execution = &Execution{
			Status:          str(e.Get("status")),
			DurationSeconds: num(e.Get("duration_seconds")),
			SessionID:       str(e.Get("session_id")),
		}
	}
	if c := doc.Get("cognitive_state"); c.IsObject() {
		r.CognitiveState = &CognitiveState{
			Confidence:     num(c.Get("confidence")),
			CertaintyLevel: str(c.Get("certainty_level")),
			Blockers:       strs(c.Get("blockers")),
			Assumptions:    strs(c.Get("assumptions")),
		}
	}
	if a := doc.Get("artifacts"); a.IsObject() {
		r.Artifacts = &Artifacts{
			FilesModified: strs(a.Get("files_modified")),
			FilesCreated:  strs(a.Get("files_created")),
			FilesDeleted:  strs(a.Get("files_deleted")),
			TestStatus:    str(a.Get("test_status")),
			GitSHA:        str(a.Get("git_sha")),
		}
	}
	return r, nil
}

func str(v gjson.Result) string {
	if v.Type != gjson.String {
		return ""
	}
	return v.Str
}

func num(v gjson.Result) *float64 {
	if v.Type != gjson.Number {
		return nil
	}
	n := v.Num
	return &n
}

// strs returns v as a string slice, or nil unless every element is a string.
func strs(v gjson.Result) []string {
	if !v.IsArray() {
		return nil
	}
	items := v.Array()
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item.Type != gjson.String {
			return nil
		}
		out = append(out, item.Str)
	}
	return out
}
