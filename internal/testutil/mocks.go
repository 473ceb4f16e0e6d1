package testutil

import (
	"context"
	"sync"

	"github.com/hugo-lorenzo-mato/cli-worker/internal/core"
)

// MockProvider implements core.Provider for testing.
type MockProvider struct {
	id          core.ProviderID
	verifyFunc  func(context.Context) core.VerifyResult
	runFunc     func(ctx context.Context, prompt, workDir string, opts core.RunOptions) (*core.RunResult, error)
	parseFunc   func([]string) core.ParseResult
	calls       []MockCall
	mu          sync.Mutex
	reportSub   string
	displayName string
}

// MockCall records a call to the mock.
type MockCall struct {
	Method  string
	Prompt  string
	WorkDir string
}

// NewMockProvider creates a mock that verifies OK and exits 0 with no output.
func NewMockProvider(id core.ProviderID) *MockProvider {
	return &MockProvider{
		id:          id,
		reportSub:   string(id) + "-reports",
		displayName: "Mock " + string(id),
	}
}

// OnVerify sets the verify behavior.
func (m *MockProvider) OnVerify(fn func(context.Context) core.VerifyResult) *MockProvider {
	m.verifyFunc = fn
	return m
}

// OnRun sets the run behavior.
func (m *MockProvider) OnRun(fn func(ctx context.Context, prompt, workDir string, opts core.RunOptions) (*core.RunResult, error)) *MockProvider {
	m.runFunc = fn
	return m
}

// OnParse sets the parse behavior.
func (m *MockProvider) OnParse(fn func([]string) core.ParseResult) *MockProvider {
	m.parseFunc = fn
	return m
}

// Calls returns a copy of the recorded calls.
func (m *MockProvider) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times method was invoked.
func (m *MockProvider) CallCount(method string) int {
	n := 0
	for _, c := range m.Calls() {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (m *MockProvider) record(c MockCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, c)
}

// ID implements core.Provider.
func (m *MockProvider) ID() core.ProviderID { return m.id }

// DisplayName implements core.Provider.
func (m *MockProvider) DisplayName() string { return m.displayName }

// ReportSubdir implements core.Provider.
func (m *MockProvider) ReportSubdir() string { return m.reportSub }

// InstructionsTitle implements core.Provider.
func (m *MockProvider) InstructionsTitle() string { return "Mock Worker - Task Instructions" }

// RemediationHint implements core.Provider.
func (m *MockProvider) RemediationHint() string { return "fix the mock" }

// Verify implements core.Provider.
func (m *MockProvider) Verify(ctx context.Context) core.VerifyResult {
	m.record(MockCall{Method: "Verify"})
	if m.verifyFunc != nil {
		return m.verifyFunc(ctx)
	}
	return core.VerifyResult{OK: true}
}

// Run implements core.Provider.
func (m *MockProvider) Run(ctx context.Context, prompt, workDir string, opts core.RunOptions) (*core.RunResult, error) {
	m.record(MockCall{Method: "Run", Prompt: prompt, WorkDir: workDir})
	if m.runFunc != nil {
		return m.runFunc(ctx, prompt, workDir, opts)
	}
	zero := 0
	return &core.RunResult{ExitCode: &zero}, nil
}

// ParseOutput implements core.Provider.
func (m *MockProvider) ParseOutput(lines []string) core.ParseResult {
	if m.parseFunc != nil {
		return m.parseFunc(lines)
	}
	out := ""
	for _, l := range lines {
		out += l
	}
	return core.ParseResult{FinalText: out}
}

var _ core.Provider = (*MockProvider)(nil)
