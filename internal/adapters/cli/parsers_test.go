package cli

import (
	"testing"
)

func TestParseKimiStream(t *testing.T) {
	tests := []struct {
		name       string
		lines      []string
		wantText   string
		wantEvents int
	}{
		{
			name: "last assistant wins",
			lines: []string{
				`{"role":"assistant","content":"first"}`,
				`{"role":"tool","content":"ignored"}`,
				`{"role":"assistant","content":[{"type":"think","think":"hmm"},{"type":"text","text":"a"},{"type":"text","text":"b"}]}`,
			},
			wantText:   "b",
			wantEvents: 3,
		},
		{
			name: "array without text resets answer",
			lines: []string{
				`{"role":"assistant","content":"earlier"}`,
				`{"role":"assistant","content":[{"type":"think","think":"x"}]}`,
			},
			wantText:   "",
			wantEvents: 2,
		},
		{
			name: "non-string text ignored",
			lines: []string{
				`{"role":"assistant","content":[{"type":"text","text":"ok"},{"type":"text","text":5}]}`,
			},
			wantText:   "ok",
			wantEvents: 1,
		},
		{
			name: "assistant without content keeps previous",
			lines: []string{
				`{"role":"assistant","content":"kept"}`,
				`{"role":"assistant"}`,
			},
			wantText:   "kept",
			wantEvents: 2,
		},
		{
			name:       "blank and invalid lines skipped",
			lines:      []string{"", "   ", "not json", `{"role":"assistant","content":"done"}`},
			wantText:   "done",
			wantEvents: 1,
		},
		{
			name:       "non-object json recorded but ignored",
			lines:      []string{`[1,2]`, `"str"`},
			wantText:   "",
			wantEvents: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseKimiStream(tt.lines)
			if got.FinalText != tt.wantText {
				t.Errorf("FinalText = %q, want %q", got.FinalText, tt.wantText)
			}
			if len(got.Events) != tt.wantEvents {
				t.Errorf("len(Events) = %d, want %d", len(got.Events), tt.wantEvents)
			}
		})
	}
}

func TestParseKimiStream_EventsHoldParsedValues(t *testing.T) {
	got := ParseKimiStream([]string{`{"role":"assistant","content":"x"}`})
	obj, ok := got.Events[0].(map[string]any)
	if !ok {
		t.Fatalf("event type = %T, want map", got.Events[0])
	}
	if obj["role"] != "assistant" {
		t.Errorf("role = %v", obj["role"])
	}
}

func TestParseClaudeStream(t *testing.T) {
	delta := func(text string) string {
		return `{"type":"stream_event","event":{"type":"content_block_delta","delta":{"type":"text_delta","text":"` + text + `"}}}`
	}

	tests := []struct {
		name     string
		lines    []string
		wantText string
	}{
		{
			name:     "deltas concatenated",
			lines:    []string{delta("Hel"), delta("lo"), `{"type":"result","result":"ignored"}`},
			wantText: "Hello",
		},
		{
			name: "other delta types skipped",
			lines: []string{
				`{"type":"stream_event","event":{"delta":{"type":"input_json_delta","partial_json":"{}"}}}`,
				delta("x"),
			},
			wantText: "x",
		},
		{
			name:     "result used without deltas",
			lines:    []string{`{"type":"system","subtype":"init"}`, `{"type":"result","result":"first"}`, `{"type":"result","result":"final"}`},
			wantText: "final",
		},
		{
			name:     "nothing recognized",
			lines:    []string{"garbage", `{"type":"assistant"}`},
			wantText: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseClaudeStream(tt.lines)
			if got.FinalText != tt.wantText {
				t.Errorf("FinalText = %q, want %q", got.FinalText, tt.wantText)
			}
		})
	}
}

func TestParseOpenCodeOutput(t *testing.T) {
	tests := []struct {
		name       string
		lines      []string
		wantText   string
		wantEvents int
	}{
		{
			name:       "delta text first",
			lines:      []string{`{"delta":{"text":"a"},"content":"b"}`, `{"delta":{"text":"c"}}`},
			wantText:   "ac",
			wantEvents: 2,
		},
		{
			name:       "content string",
			lines:      []string{`{"content":"hello"}`},
			wantText:   "hello",
			wantEvents: 1,
		},
		{
			name:       "empty delta falls to message content",
			lines:      []string{`{"delta":{"text":""},"message":{"content":"m"}}`},
			wantText:   "m",
			wantEvents: 1,
		},
		{
			name:       "result then text",
			lines:      []string{`{"result":"r"}`, `{"text":"t"}`},
			wantText:   "rt",
			wantEvents: 2,
		},
		{
			name:       "non-json lines kept verbatim",
			lines:      []string{"plain output", `{"text":"!"}`},
			wantText:   "plain output!",
			wantEvents: 1,
		},
		{
			name:       "non-object json contributes nothing",
			lines:      []string{`42`, `{"other":1}`},
			wantText:   "42\n{\"other\":1}",
			wantEvents: 2,
		},
		{
			name:       "no lines",
			lines:      nil,
			wantText:   "",
			wantEvents: 0,
		},
		{
			name:       "numeric delta stringified",
			lines:      []string{`{"delta":{"text":7}}`},
			wantText:   "7",
			wantEvents: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseOpenCodeOutput(tt.lines)
			if got.FinalText != tt.wantText {
				t.Errorf("FinalText = %q, want %q", got.FinalText, tt.wantText)
			}
			if len(got.Events) != tt.wantEvents {
				t.Errorf("len(Events) = %d, want %d", len(got.Events), tt.wantEvents)
			}
		})
	}
}
