package fsutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadFileScoped_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(p, []byte("hello"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	b, err := ReadFileScoped(p)
	if err != nil {
		t.Fatalf("ReadFileScoped error: %v", err)
	}
	if string(b) != "hello" {
		t.Fatalf("unexpected content: %q", string(b))
	}
}

func TestReadFileScoped_RejectsInvalidPath(t *testing.T) {
	for _, p := range []string{"", ".", string(filepath.Separator)} {
		if _, err := ReadFileScoped(p); err == nil {
			t.Fatalf("expected error for %q", p)
		}
	}
}

func TestReadFileScoped_Missing(t *testing.T) {
	dir := t.TempDir()
	if _, err := ReadFileScoped(filepath.Join(dir, "nope.json")); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	if _, err := ReadFileScoped(filepath.Join(dir, "nodir", "nope.json")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestWriteFileAtomic_CreatesParents(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, ".openclaw", "kimi-reports", "x.json")

	if err := WriteFileAtomic(p, []byte(`{"a":1}`), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}
	got, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != `{"a":1}` {
		t.Fatalf("content = %q", got)
	}
	if !IsDir(filepath.Dir(p)) {
		t.Fatal("parent should be a directory")
	}
}

func TestWriteFileAtomic_Overwrites(t *testing.T) {
	p := filepath.Join(t.TempDir(), "AGENTS.md")
	if err := WriteFileAtomic(p, []byte("old content that is longer"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(p, []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, _ := os.ReadFile(p)
	if string(got) != "new" {
		t.Fatalf("content = %q", got)
	}
	entries, _ := os.ReadDir(filepath.Dir(p))
	if len(entries) != 1 {
		t.Fatalf("expected no leftover temp files, got %d entries", len(entries))
	}
}

func TestExistsAndIsDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	os.WriteFile(file, nil, 0o644)

	if !Exists(file) || IsDir(file) {
		t.Error("file checks wrong")
	}
	if !Exists(dir) || !IsDir(dir) {
		t.Error("dir checks wrong")
	}
	if Exists(filepath.Join(dir, "missing")) {
		t.Error("missing path should not exist")
	}
}
