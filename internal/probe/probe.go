package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mstanton/mend/internal/maven"
	"github.com/mstanton/mend/internal/report"
)

// ErrProbe marks a fatal probe failure: the build harness or a report
// endpoint is unreachable. This is not a remediable condition.
var ErrProbe = errors.New("probe failed")

// BuildRunner runs the build harness.
type BuildRunner interface {
	Run(ctx context.Context) (*maven.Status, error)
}

// TestReporter reads Surefire results.
type TestReporter interface {
	Summary() (report.TestSummary, error)
	List() ([]report.TestFailure, error)
}

// CoverageReporter reads JaCoCo results.
type CoverageReporter interface {
	Summary() (report.CoverageSummary, error)
	List() ([]report.CoverageGap, error)
}

// Snapshot is the immutable state picture one pass triages on. Dashboard,
// Failures and Gaps are nil when the build carries the compile-error
// signature — the reports are stale or missing then.
type Snapshot struct {
	Build     *maven.Status        `json:"build"`
	Dashboard *report.Dashboard    `json:"dashboard,omitempty"`
	Failures  []report.TestFailure `json:"failures,omitempty"`
	Gaps      []report.CoverageGap `json:"gaps,omitempty"`
	Taken     time.Time            `json:"taken"`
}

// Probe queries the build harness and report collaborators.
type Probe struct {
	build    BuildRunner
	tests    TestReporter
	coverage CoverageReporter
}

// New creates a Probe over the given collaborators.
func New(build BuildRunner, tests TestReporter, coverage CoverageReporter) *Probe {
	return &Probe{build: build, tests: tests, coverage: coverage}
}

// Probe produces a fresh snapshot. Any collaborator error is wrapped in
// ErrProbe; callers must treat it as fatal for the whole loop.
func (p *Probe) Probe(ctx context.Context) (*Snapshot, error) {
	status, err := p.build.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProbe, err)
	}

	snap := &Snapshot{Build: status, Taken: time.Now().UTC()}

	// An unbuildable tree invalidates every other signal; the dashboard is
	// not queried when the compile-error signature is present.
	if status.HasCompileError() {
		return snap, nil
	}

	testSum, err := p.tests.Summary()
	if err != nil {
		return nil, fmt.Errorf("%w: test summary: %v", ErrProbe, err)
	}
	covSum, err := p.coverage.Summary()
	if err != nil {
		return nil, fmt.Errorf("%w: coverage summary: %v", ErrProbe, err)
	}
	snap.Dashboard = &report.Dashboard{Tests: testSum, Coverage: covSum}

	if snap.Failures, err = p.tests.List(); err != nil {
		return nil, fmt.Errorf("%w: test failures: %v", ErrProbe, err)
	}
	if snap.Gaps, err = p.coverage.List(); err != nil {
		return nil, fmt.Errorf("%w: coverage gaps: %v", ErrProbe, err)
	}
	return snap, nil
}

// Target keys give every remediation target a stable identity across passes,
// used for regression and oscillation tracking.

// CompileKey identifies a compile-error target by file.
func CompileKey(file string) string {
	if file == "" {
		file = "unknown"
	}
	return "compile:" + file
}

// TestKey identifies a failing test case.
func TestKey(class, method string) string {
	return "test:" + class + "#" + method
}

// CoverageKey identifies a class with uncovered lines.
func CoverageKey(class string) string {
	return "cover:" + class
}

// TargetKeys returns the keys of every remediation target visible in the
// snapshot, in report order.
func (s *Snapshot) TargetKeys() []string {
	var keys []string
	if s.Build != nil {
		for _, ce := range s.Build.CompileErrors {
			keys = append(keys, CompileKey(ce.File))
		}
	}
	for _, f := range s.Failures {
		keys = append(keys, TestKey(f.TestClass, f.TestMethod))
	}
	for _, g := range s.Gaps {
		keys = append(keys, CoverageKey(g.SourceClass))
	}
	return keys
}
