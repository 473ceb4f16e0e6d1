package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/hugo-lorenzo-mato/cli-worker/internal/core"
)

// DefaultTimeout bounds every git invocation.
const DefaultTimeout = 30 * time.Second

// Client wraps git CLI operations.
type Client struct {
	repoPath string
	timeout  time.Duration
}

// NewClient creates a new git client.
func NewClient(repoPath string) (*Client, error) {
	absPath, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	client := &Client{
		repoPath: absPath,
		timeout:  DefaultTimeout,
	}

	if err := client.verifyRepo(); err != nil {
		return nil, err
	}

	return client, nil
}

// verifyRepo checks if path is a git repository.
func (c *Client) verifyRepo() error {
	_, err := c.run(context.Background(), "rev-parse", "--git-dir")
	if err != nil {
		return core.ErrValidation(core.CodeNotGitRepo, fmt.Sprintf("%s is not a git repository", c.repoPath)).
			WithCause(err)
	}
	return nil
}

// run executes a git command in the repository.
func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	return c.runIn(ctx, c.repoPath, args...)
}

// runIn executes a git command with dir as its working directory.
func (c *Client) runIn(ctx context.Context, dir string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", core.ErrTimeout("git command timed out")
		}
		return "", fmt.Errorf("git %s: %s: %w", strings.Join(args, " "), strings.TrimSpace(stderr.String()), err)
	}

	return strings.TrimSpace(stdout.String()), nil
}

// RevParse resolves ref to a commit hash.
func (c *Client) RevParse(ctx context.Context, ref string) (string, error) {
	return c.run(ctx, "rev-parse", "--verify", ref+"^{commit}")
}

// RepoPath returns the absolute repository path.
func (c *Client) RepoPath() string {
	return c.repoPath
}

// WithTimeout sets the per-command timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.timeout = d
	return c
}

// IsRepo reports whether path has a .git entry (directory or file).
func IsRepo(path string) bool {
	_, err := os.Stat(filepath.Join(path, ".git"))
	return err == nil
}

// RepoPath resolves the --repo flag against cwd; without a flag, cwd is
// the repository.
func RepoPath(cwd, flag string) string {
	if flag == "" {
		return cwd
	}
	if filepath.IsAbs(flag) {
		return filepath.Clean(flag)
	}
	return filepath.Join(cwd, flag)
}
