package core

import (
	"reflect"
	"testing"
)

func TestTaskInput_Validate(t *testing.T) {
	if err := (TaskInput{Prompt: "fix the bug"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, prompt := range []string{"", "   ", "\n\t"} {
		err := TaskInput{Prompt: prompt}.Validate()
		if !IsCategory(err, ErrCatValidation) {
			t.Fatalf("prompt %q: expected validation error, got %v", prompt, err)
		}
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a.go", []string{"a.go"}},
		{"a.go, b.go ,,c.go", []string{"a.go", "b.go", "c.go"}},
		{"x,x", []string{"x", "x"}},
	}
	for _, tt := range tests {
		if got := SplitList(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitList(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
