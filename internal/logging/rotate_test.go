package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultLogDir(t *testing.T) {
	t.Setenv("OPENCLAW_LOG_DIR", "/var/log/openclaw")
	if got := DefaultLogDir(); got != "/var/log/openclaw" {
		t.Errorf("DefaultLogDir() = %q", got)
	}

	t.Setenv("OPENCLAW_LOG_DIR", "")
	if got := DefaultLogDir(); !strings.HasSuffix(got, filepath.Join(".openclaw", "logs")) {
		t.Errorf("DefaultLogDir() = %q", got)
	}
}

func TestRotatingFile_AppendsAcrossOpens(t *testing.T) {
	dir := t.TempDir()

	rf, err := OpenRotatingFile(dir, LogFileName, 0)
	if err != nil {
		t.Fatalf("OpenRotatingFile: %v", err)
	}
	if _, err := rf.Write([]byte("one\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	rf.Close()

	rf, err = OpenRotatingFile(dir, LogFileName, 0)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	rf.Write([]byte("two\n"))
	rf.Close()

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "one\ntwo\n" {
		t.Errorf("content = %q", data)
	}
}

func TestRotatingFile_RotatesAtThreshold(t *testing.T) {
	dir := t.TempDir()

	rf, err := OpenRotatingFile(dir, LogFileName, 10)
	if err != nil {
		t.Fatalf("OpenRotatingFile: %v", err)
	}
	defer rf.Close()
	rf.now = func() time.Time { return time.UnixMilli(1700000000000) }

	rf.Write([]byte("0123456789")) // reaches the limit
	rf.Write([]byte("next\n"))     // rotates first

	rotated := filepath.Join(dir, LogFileName+".1700000000000.bak")
	old, err := os.ReadFile(rotated)
	if err != nil {
		t.Fatalf("rotated file missing: %v", err)
	}
	if string(old) != "0123456789" {
		t.Errorf("rotated content = %q", old)
	}

	current, _ := os.ReadFile(rf.Path())
	if string(current) != "next\n" {
		t.Errorf("current content = %q", current)
	}
}

func TestRotatingFile_WriteAfterClose(t *testing.T) {
	rf, err := OpenRotatingFile(t.TempDir(), LogFileName, 0)
	if err != nil {
		t.Fatalf("OpenRotatingFile: %v", err)
	}
	rf.Close()
	if _, err := rf.Write([]byte("x")); err == nil {
		t.Error("expected error writing to closed file")
	}
	if err := rf.Close(); err != nil {
		t.Errorf("second Close should be a no-op: %v", err)
	}
}
