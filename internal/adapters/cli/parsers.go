package cli

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/hugo-lorenzo-mato/cli-worker/internal/core"
)

// parseLine validates one stdout line as JSON. Blank lines and invalid
// JSON report ok=false.
func parseLine(line string) (gjson.Result, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || !gjson.Valid(trimmed) {
		return gjson.Result{}, false
	}
	return gjson.Parse(trimmed), true
}

// truthy mirrors loose JSON truthiness: null, false, 0 and "" are false.
func truthy(r gjson.Result) bool {
	switch r.Type {
	case gjson.Null:
		return false
	case gjson.False:
		return false
	case gjson.Number:
		return r.Num != 0
	case gjson.String:
		return r.Str != ""
	case gjson.True, gjson.JSON:
		return true
	default:
		return false
	}
}

// stringify renders a JSON value as text. Strings lose their quotes;
// everything else keeps its raw JSON form.
func stringify(r gjson.Result) string {
	if r.Type == gjson.String {
		return r.Str
	}
	return r.Raw
}

// =============================================================================
// Kimi Stream Parser
// =============================================================================

// ParseKimiStream parses `kimi --output-format=stream-json` output. Each line
// is one message; the last assistant message carries the answer:
//
//	{"role":"assistant","content":[{"type":"think","think":"..."},{"type":"text","text":"Done."}]}
//	{"role":"tool","content":"..."}
func ParseKimiStream(lines []string) core.ParseResult {
	var (
		events []any
		final  string
	)

	for _, line := range lines {
		obj, ok := parseLine(line)
		if !ok {
			continue
		}
		events = append(events, obj.Value())

		if !obj.IsObject() || obj.Get("role").String() != "assistant" {
			continue
		}
		content := obj.Get("content")
		if !content.Exists() {
			continue
		}
		final = kimiContentText(content)
	}

	return core.ParseResult{FinalText: final, Events: events}
}

// kimiContentText returns string content as-is, or the text of the last
// text part of an array. Anything else yields "".
func kimiContentText(content gjson.Result) string {
	if content.Type == gjson.String {
		return content.Str
	}
	if !content.IsArray() {
		return ""
	}
	text := ""
	content.ForEach(func(_, part gjson.Result) bool {
		if !part.IsObject() || part.Get("type").String() != "text" {
			return true
		}
		if t := part.Get("text"); t.Type == gjson.String {
			text = t.Str
		}
		return true
	})
	return text
}

// =============================================================================
// Claude Stream Parser
// =============================================================================

// ParseClaudeStream parses `claude --output-format stream-json` output.
// Answer text arrives as partial deltas:
//
//	{"type":"stream_event","event":{"type":"content_block_delta","delta":{"type":"text_delta","text":"Hel"}}}
//	{"type":"result","subtype":"success","result":"Hello"}
//
// When no deltas were streamed, the last result event supplies the text.
func ParseClaudeStream(lines []string) core.ParseResult {
	var (
		events     []any
		sb         strings.Builder
		sawDelta   bool
		lastResult string
	)

	for _, line := range lines {
		obj, ok := parseLine(line)
		if !ok {
			continue
		}
		events = append(events, obj.Value())
		if !obj.IsObject() {
			continue
		}

		switch obj.Get("type").String() {
		case "stream_event":
			if obj.Get("event.delta.type").String() != "text_delta" {
				continue
			}
			if text := obj.Get("event.delta.text"); text.Type == gjson.String {
				sb.WriteString(text.Str)
				sawDelta = true
			}
		case "result":
			if r := obj.Get("result"); r.Type == gjson.String {
				lastResult = r.Str
			}
		}
	}

	final := sb.String()
	if !sawDelta {
		final = lastResult
	}
	return core.ParseResult{FinalText: final, Events: events}
}

// =============================================================================
// OpenCode Output Parser
// =============================================================================

// ParseOpenCodeOutput parses `opencode run --format json` output. The format
// is loosely specified, so each JSON object line contributes the first of
// delta.text, content, message.content, result or text that it carries.
// Lines that are not JSON are kept verbatim. With nothing extracted, the
// raw lines joined by newlines are the answer.
func ParseOpenCodeOutput(lines []string) core.ParseResult {
	var (
		events    []any
		fragments []string
	)

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		obj, ok := parseLine(line)
		if !ok {
			fragments = append(fragments, line)
			continue
		}
		events = append(events, obj.Value())
		if !obj.IsObject() {
			continue
		}
		if text, ok := openCodeFragment(obj); ok {
			fragments = append(fragments, text)
		}
	}

	var final string
	if len(fragments) > 0 {
		final = strings.Join(fragments, "")
	} else {
		final = strings.Join(lines, "\n")
	}
	return core.ParseResult{FinalText: final, Events: events}
}

func openCodeFragment(obj gjson.Result) (string, bool) {
	if v := obj.Get("delta.text"); truthy(v) {
		return stringify(v), true
	}
	if v := obj.Get("content"); v.Type == gjson.String {
		return v.Str, true
	}
	if v := obj.Get("message.content"); truthy(v) {
		return stringify(v), true
	}
	if v := obj.Get("result"); v.Type == gjson.String {
		return v.Str, true
	}
	if v := obj.Get("text"); v.Type == gjson.String {
		return v.Str, true
	}
	return "", false
}
