package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	// LogFileName is the name of the durable log file.
	LogFileName = "cli-worker.log"

	// DefaultMaxLogBytes is the size at which the log file is rotated.
	DefaultMaxLogBytes int64 = 10 * 1024 * 1024
)

// DefaultLogDir returns $OPENCLAW_LOG_DIR or ~/.openclaw/logs.
func DefaultLogDir() string {
	if dir := os.Getenv("OPENCLAW_LOG_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".openclaw", "logs")
	}
	return filepath.Join(home, ".openclaw", "logs")
}

// RotatingFile is an append-only log file that is renamed to
// <name>.<unix millis>.bak once it reaches maxBytes.
type RotatingFile struct {
	mu       sync.Mutex
	path     string
	maxBytes int64
	now      func() time.Time
	file     *os.File
	size     int64
}

// OpenRotatingFile opens (creating if needed) dir/name for appending.
func OpenRotatingFile(dir, name string, maxBytes int64) (*RotatingFile, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxLogBytes
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	rf := &RotatingFile{
		path:     filepath.Join(dir, name),
		maxBytes: maxBytes,
		now:      time.Now,
	}
	if err := rf.open(); err != nil {
		return nil, err
	}
	return rf, nil
}

// Path returns the active log file path.
func (rf *RotatingFile) Path() string {
	return rf.path
}

func (rf *RotatingFile) open() error {
	// #nosec G304 -- path is built from the configured log directory
	f, err := os.OpenFile(rf.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	rf.file = f
	rf.size = info.Size()
	return nil
}

// Write appends p, rotating first when the file has reached its limit.
func (rf *RotatingFile) Write(p []byte) (int, error) {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.file == nil {
		return 0, os.ErrClosed
	}
	if rf.size >= rf.maxBytes {
		if err := rf.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := rf.file.Write(p)
	rf.size += int64(n)
	return n, err
}

func (rf *RotatingFile) rotate() error {
	if err := rf.file.Close(); err != nil {
		return fmt.Errorf("closing log file: %w", err)
	}
	rf.file = nil
	rotated := fmt.Sprintf("%s.%d.bak", rf.path, rf.now().UnixMilli())
	if err := os.Rename(rf.path, rotated); err != nil {
		if reopenErr := rf.open(); reopenErr != nil {
			return reopenErr
		}
		return fmt.Errorf("rotating log file: %w", err)
	}
	return rf.open()
}

// Close closes the underlying file.
func (rf *RotatingFile) Close() error {
	rf.mu.Lock()
	defer rf.mu.Unlock()
	if rf.file == nil {
		return nil
	}
	err := rf.file.Close()
	rf.file = nil
	return err
}
