package core

import "testing"

func TestParseProviderID(t *testing.T) {
	tests := []struct {
		in   string
		want ProviderID
		ok   bool
	}{
		{"kimi", ProviderKimi, true},
		{"claude", ProviderClaude, true},
		{"opencode", ProviderOpenCode, true},
		{"Claude", "", false},
		{"", "", false},
		{"gemini", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseProviderID(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Fatalf("ParseProviderID(%q) = %q, %v", tt.in, got, ok)
			}
		})
	}
}

func TestRunResult_ExitStatus(t *testing.T) {
	zero, three := 0, 3

	var nilResult *RunResult
	if nilResult.ExitStatus() != 1 || nilResult.Succeeded() {
		t.Fatalf("nil result should map to failure")
	}
	if (&RunResult{}).ExitStatus() != 1 {
		t.Fatalf("signal-terminated run should map to 1")
	}
	if (&RunResult{ExitCode: &three}).ExitStatus() != 3 {
		t.Fatalf("expected child exit code")
	}
	if !(&RunResult{ExitCode: &zero}).Succeeded() {
		t.Fatalf("exit 0 should succeed")
	}
}

func TestVerifyResult_AuthError(t *testing.T) {
	v := VerifyResult{Reason: ReasonCredentialsMissing, Detail: "no token"}
	err := v.AuthError(ProviderKimi, "run kimi login")

	if err.Category != ErrCatAuth || err.Code != CodeCredentialsMissing {
		t.Fatalf("unexpected error: %v", err)
	}
	if err.Detail("hint") != "run kimi login" {
		t.Fatalf("hint not carried: %v", err.Details)
	}
	if err.Detail("reason") != ReasonCredentialsMissing {
		t.Fatalf("reason not carried: %v", err.Details)
	}

	unknown := VerifyResult{Reason: ReasonRunFailed}.AuthError(ProviderClaude, "")
	if unknown.Code != CodeProbeFailed {
		t.Fatalf("run_failed should map to probe failure, got %s", unknown.Code)
	}
}
