package testutil

import (
	"flag"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

var update = flag.Bool("update", false, "update golden files")

var (
	uuidPattern = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)
	hashPattern = regexp.MustCompile(`[0-9a-f]{40}`)
)

// Golden provides golden file testing utilities.
type Golden struct {
	t       *testing.T
	baseDir string
}

// NewGolden creates a new golden file helper rooted at baseDir.
func NewGolden(t *testing.T, baseDir string) *Golden {
	return &Golden{
		t:       t,
		baseDir: baseDir,
	}
}

// AssertString compares actual against <baseDir>/<name>.golden.
// Run tests with -update to rewrite the file.
func (g *Golden) AssertString(name, actual string) {
	g.t.Helper()

	goldenPath := filepath.Join(g.baseDir, name+".golden")

	if *update {
		if err := os.MkdirAll(filepath.Dir(goldenPath), 0o755); err != nil {
			g.t.Fatalf("creating golden directory: %v", err)
		}
		if err := os.WriteFile(goldenPath, []byte(actual), 0o644); err != nil {
			g.t.Fatalf("writing golden file: %v", err)
		}
		g.t.Logf("updated golden file: %s", goldenPath)
		return
	}

	expected, err := os.ReadFile(goldenPath)
	if err != nil {
		g.t.Fatalf("reading golden file %s: %v", goldenPath, err)
	}

	if Normalize(actual) != Normalize(string(expected)) {
		g.t.Errorf("output mismatch for %s:\n--- expected ---\n%s\n--- actual ---\n%s",
			name, expected, actual)
	}
}

// Normalize normalizes line endings and trailing whitespace for comparison.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}

	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

// ScrubPaths replaces basePath with a stable placeholder.
func ScrubPaths(s, basePath string) string {
	return strings.ReplaceAll(s, basePath, "[WORKDIR]")
}

// ScrubUUIDs replaces task identifiers.
func ScrubUUIDs(s string) string {
	return uuidPattern.ReplaceAllString(s, "[UUID]")
}

// ScrubHashes replaces git commit hashes.
func ScrubHashes(s string) string {
	return hashPattern.ReplaceAllString(s, "[HASH]")
}
