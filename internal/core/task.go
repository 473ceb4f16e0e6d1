package core

import "strings"

// TaskInput describes one unit of work handed to an agent.
type TaskInput struct {
	Prompt          string
	RelevantFiles   []string
	Constraints     []string
	SuccessCriteria []string
	WorktreePath    string
	TaskID          string
	ReportPath      string
}

// Validate checks the fields every task needs before side effects happen.
func (t TaskInput) Validate() error {
	if strings.TrimSpace(t.Prompt) == "" {
		return ErrValidation(CodeEmptyPrompt, "prompt cannot be empty")
	}
	return nil
}

// SplitList splits a comma-separated flag value, dropping blanks.
// Order is kept and duplicates are not removed.
func SplitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
