package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrGeneration is returned when the external generator fails to produce
// usable content.
var ErrGeneration = errors.New("patch generation failed")

// Request kinds.
const (
	KindCompileFix   = "compile_fix"
	KindTestFix      = "test_fix"
	KindCoverageTest = "coverage_test"
)

// Request describes one patch generation task. It is written to the
// generator command's stdin as JSON.
type Request struct {
	Kind           string `json:"kind"`
	TargetClass    string `json:"target_class"`
	TargetFile     string `json:"target_file"`
	CurrentContent string `json:"current_content"`

	// Remediation context, depending on kind.
	FailureDetail  string   `json:"failure_detail,omitempty"`
	UncoveredLines []int    `json:"uncovered_lines,omitempty"`
	BoundaryHints  []string `json:"boundary_hints,omitempty"`

	// The paired file, when both source and test are relevant.
	PairedFile    string `json:"paired_file,omitempty"`
	PairedContent string `json:"paired_content,omitempty"`
}

// Generator produces the complete replacement content for a target file.
// Implementations are opaque to the loop: it never inspects how the patch
// was computed.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// ExecGenerator runs a configured external command. The request is piped in
// as JSON; the command must print the full replacement file content on
// stdout and exit zero.
type ExecGenerator struct {
	command string
	dir     string
	timeout time.Duration
}

// NewExecGenerator creates a generator running command in dir.
func NewExecGenerator(command, dir string, timeout time.Duration) *ExecGenerator {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &ExecGenerator{command: command, dir: dir, timeout: timeout}
}

func (g *ExecGenerator) Generate(ctx context.Context, req Request) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", g.command)
	cmd.Dir = g.dir
	cmd.Stdin = strings.NewReader(string(payload))

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("generator timed out after %s: %w", g.timeout, ErrGeneration)
		}
		return "", fmt.Errorf("generator %q: %s: %w", g.command, strings.TrimSpace(stderr.String()), ErrGeneration)
	}

	content := stdout.String()
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("generator %q produced empty output: %w", g.command, ErrGeneration)
	}
	return content, nil
}
