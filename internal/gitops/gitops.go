package gitops

import (
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// GitRunner provides git commands. Interface for testing.
type GitRunner interface {
	Run(dir string, args ...string) (string, error)
}

// ExecGit implements GitRunner using exec.Command.
type ExecGit struct{}

func (g *ExecGit) Run(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return strings.TrimSpace(string(out)), fmt.Errorf("git %s: %s: %w", strings.Join(args, " "), strings.TrimSpace(string(out)), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// GhRunner provides gh CLI commands. Interface for testing.
type GhRunner interface {
	Run(dir string, args ...string) (string, error)
}

// ExecGh runs gh commands via exec.
type ExecGh struct{}

func (r *ExecGh) Run(dir string, args ...string) (string, error) {
	cmd := exec.Command("gh", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return strings.TrimSpace(string(out)), fmt.Errorf("gh %s: %s: %w", strings.Join(args, " "), strings.TrimSpace(string(out)), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// RepositoryState is the working-tree cleanliness snapshot.
type RepositoryState struct {
	Clean  bool
	Detail string // porcelain output when dirty
}

// Client provides version-control operations on one repository.
type Client struct {
	git         GitRunner
	gh          GhRunner
	dir         string
	remote      string
	pushRetries int
	backoff     time.Duration
}

// NewClient creates a version-control client for the repository at dir.
func NewClient(git GitRunner, gh GhRunner, dir, remote string, pushRetries int) *Client {
	if remote == "" {
		remote = "origin"
	}
	if pushRetries < 1 {
		pushRetries = 1
	}
	return &Client{
		git:         git,
		gh:          gh,
		dir:         dir,
		remote:      remote,
		pushRetries: pushRetries,
		backoff:     2 * time.Second,
	}
}

// SetBackoff overrides the push retry backoff (for testing).
func (c *Client) SetBackoff(d time.Duration) {
	c.backoff = d
}

// Status reports whether the working tree is clean.
func (c *Client) Status() (RepositoryState, error) {
	out, err := c.git.Run(c.dir, "status", "--porcelain")
	if err != nil {
		return RepositoryState{}, fmt.Errorf("git status: %w", err)
	}
	return RepositoryState{Clean: out == "", Detail: out}, nil
}

// StageAll stages every working-tree change.
func (c *Client) StageAll() error {
	if _, err := c.git.Run(c.dir, "add", "-A"); err != nil {
		return fmt.Errorf("stage changes: %w", err)
	}
	return nil
}

// Commit commits staged changes with the given message.
func (c *Client) Commit(message string) error {
	if message == "" {
		return fmt.Errorf("commit message is required")
	}
	if _, err := c.git.Run(c.dir, "commit", "-m", message); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// CurrentBranch returns the checked-out branch name.
func (c *Client) CurrentBranch() (string, error) {
	out, err := c.git.Run(c.dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("current branch: %w", err)
	}
	if out == "" {
		return "", fmt.Errorf("could not determine current branch")
	}
	return out, nil
}

// Push pushes the current branch to the configured remote. Pushing is
// idempotent (an up-to-date push succeeds), so transient failures are
// retried a bounded number of times with backoff.
func (c *Client) Push() error {
	branch, err := c.CurrentBranch()
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= c.pushRetries; attempt++ {
		_, lastErr = c.git.Run(c.dir, "push", c.remote, branch)
		if lastErr == nil {
			return nil
		}
		if attempt < c.pushRetries {
			time.Sleep(c.backoff * time.Duration(attempt))
		}
	}
	return fmt.Errorf("push %s %s after %d attempts: %w", c.remote, branch, c.pushRetries, lastErr)
}

// OpenRequest creates a pull request via the gh CLI and returns its URL.
func (c *Client) OpenRequest(base, title, body string) (string, error) {
	if c.gh == nil {
		return "", fmt.Errorf("gh runner not configured")
	}
	out, err := c.gh.Run(c.dir, "pr", "create", "--base", base, "--title", title, "--body", body)
	if err != nil {
		return "", fmt.Errorf("create pull request: %w", err)
	}
	return out, nil
}
