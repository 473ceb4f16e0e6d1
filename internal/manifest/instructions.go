package manifest

import (
	"bytes"
	"embed"
	"fmt"
	"path/filepath"
	"text/template"

	"github.com/hugo-lorenzo-mato/cli-worker/internal/core"
	"github.com/hugo-lorenzo-mato/cli-worker/internal/fsutil"
)

//go:embed templates/*.md.tmpl
var templatesFS embed.FS

var instructionsTmpl = template.Must(
	template.New("agents.md.tmpl").ParseFS(templatesFS, "templates/agents.md.tmpl"),
)

type instructionsData struct {
	Title string
	Task  core.TaskInput
}

// RenderInstructions renders the AGENTS.md document for task.
func RenderInstructions(task core.TaskInput, title string) (string, error) {
	var buf bytes.Buffer
	if err := instructionsTmpl.Execute(&buf, instructionsData{Title: title, Task: task}); err != nil {
		return "", fmt.Errorf("rendering instructions: %w", err)
	}
	return buf.String(), nil
}

// WriteInstructions writes doc as AGENTS.md at the worktree root and
// returns its path.
func WriteInstructions(worktreePath, doc string) (string, error) {
	path := filepath.Join(worktreePath, InstructionsFileName)
	if err := fsutil.WriteFileAtomic(path, []byte(doc), 0o644); err != nil {
		return "", core.ErrIO(core.CodeWriteFailed, "writing instructions").
			WithDetail("path", path).
			WithCause(err)
	}
	return path, nil
}
