package triage

import (
	"github.com/mstanton/mend/internal/probe"
)

// Workflow is the remediation workflow selected for one pass.
type Workflow string

const (
	FixCompileError Workflow = "fix_compile_error"
	FixTestFailure  Workflow = "fix_test_failure"
	ImproveCoverage Workflow = "improve_coverage"
	None            Workflow = "none"
)

// Decide selects the next workflow from a snapshot. It is a pure function:
// identical snapshots always yield identical decisions. Priority, first
// match wins:
//
//  1. compile error — an unbuildable tree invalidates all other signals
//  2. test failures or errors
//  3. line coverage below 100%
//  4. nothing left: terminal
func Decide(s *probe.Snapshot) Workflow {
	if s.Build != nil && s.Build.HasCompileError() {
		return FixCompileError
	}
	// The probe attaches a dashboard whenever the compile-error signature is
	// absent; a snapshot without one has nothing else to triage.
	if s.Dashboard == nil {
		return FixCompileError
	}
	if s.Dashboard.Tests.Failures > 0 || s.Dashboard.Tests.Errors > 0 {
		return FixTestFailure
	}
	if s.Dashboard.Coverage.LinePercent < 100.0 {
		return ImproveCoverage
	}
	return None
}
