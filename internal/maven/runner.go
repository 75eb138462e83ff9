package maven

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// CommandRunner abstracts command execution for testability.
type CommandRunner interface {
	Run(ctx context.Context, dir string, command string) (stdout string, stderr string, exitCode int, err error)
}

// ExecRunner implements CommandRunner by shelling out.
type ExecRunner struct{}

func (e *ExecRunner) Run(ctx context.Context, dir string, command string) (string, string, int, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = dir

	var stdoutBuf, stderrBuf strings.Builder
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return stdoutBuf.String(), stderrBuf.String(), -1, fmt.Errorf("exec: %w", err)
		}
	}
	return stdoutBuf.String(), stderrBuf.String(), exitCode, nil
}

// CompileError is one compiler diagnostic parsed from the build log.
// Maven's compiler plugin reports locations as /path/Foo.java:[line,col].
type CompileError struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Message string `json:"message"`
}

// Status is the outcome of one build harness run.
type Status struct {
	OK            bool           `json:"ok"`
	Diagnostic    string         `json:"diagnostic,omitempty"`
	CompileErrors []CompileError `json:"compile_errors,omitempty"`
	Duration      time.Duration  `json:"duration"`
}

// HasCompileError reports whether the build diagnostic carries the
// compile-error signature.
func (s *Status) HasCompileError() bool {
	return !s.OK && len(s.CompileErrors) > 0
}

// Runner runs the Maven build and classifies its outcome.
type Runner struct {
	cmd     CommandRunner
	dir     string
	command string
	timeout time.Duration
}

// NewRunner creates a build runner for the given project directory.
func NewRunner(cmd CommandRunner, dir string, command string, timeout time.Duration) *Runner {
	if command == "" {
		command = "mvn clean verify"
	}
	if timeout <= 0 {
		timeout = 20 * time.Minute
	}
	return &Runner{cmd: cmd, dir: dir, command: command, timeout: timeout}
}

const (
	successMarker = "[INFO] BUILD SUCCESS"
	failureMarker = "[INFO] BUILD FAILURE"
	compileMarker = "COMPILATION ERROR"
)

var compileErrRe = regexp.MustCompile(`(?m)^\[ERROR\]\s+(\S+\.java):\[(\d+),(\d+)\]\s*(.*)$`)

// Run executes the build and classifies the result. An execution failure
// (command not runnable, timeout) is returned as an error — the harness
// being unreachable is not a remediable build failure.
func (r *Runner) Run(ctx context.Context) (*Status, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	stdout, stderr, _, err := r.cmd.Run(ctx, r.dir, r.command)
	elapsed := time.Since(start)

	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("build timed out after %s", r.timeout)
	}
	if err != nil {
		return nil, fmt.Errorf("run build %q: %w", r.command, err)
	}

	output := stdout + "\n" + stderr
	status := &Status{Duration: elapsed}

	switch {
	case strings.Contains(output, successMarker):
		status.OK = true
	case strings.Contains(output, failureMarker):
		status.Diagnostic = tail(output, 60)
		status.CompileErrors = parseCompileErrors(output)
	default:
		status.Diagnostic = "build did not complete: " + tail(output, 20)
	}

	return status, nil
}

// parseCompileErrors extracts compiler diagnostics from a failed build log.
// Locations are returned in log order. A COMPILATION ERROR section without
// parseable locations still counts as one compile error so triage sees the
// signature.
func parseCompileErrors(output string) []CompileError {
	var errs []CompileError
	for _, m := range compileErrRe.FindAllStringSubmatch(output, -1) {
		line, _ := strconv.Atoi(m[2])
		col, _ := strconv.Atoi(m[3])
		errs = append(errs, CompileError{
			File:    m[1],
			Line:    line,
			Column:  col,
			Message: strings.TrimSpace(m[4]),
		})
	}
	if len(errs) == 0 && strings.Contains(output, compileMarker) {
		errs = append(errs, CompileError{Message: "compilation error (location not reported)"})
	}
	return errs
}

// tail returns the last n lines of s, trimmed.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
