package triage

import (
	"testing"

	"github.com/mstanton/mend/internal/maven"
	"github.com/mstanton/mend/internal/probe"
	"github.com/mstanton/mend/internal/report"
)

func snapshot(compileErr bool, failures, errors int, line float64) *probe.Snapshot {
	s := &probe.Snapshot{Build: &maven.Status{OK: !compileErr}}
	if compileErr {
		s.Build.CompileErrors = []maven.CompileError{{File: "A.java", Line: 1}}
		return s
	}
	s.Dashboard = &report.Dashboard{
		Tests:    report.TestSummary{Total: 10, Failures: failures, Errors: errors},
		Coverage: report.CoverageSummary{LinePercent: line},
	}
	return s
}

func TestDecide(t *testing.T) {
	cases := []struct {
		name string
		snap *probe.Snapshot
		want Workflow
	}{
		{"compile error wins", snapshot(true, 0, 0, 0), FixCompileError},
		{"failures before coverage", snapshot(false, 3, 0, 50.0), FixTestFailure},
		{"errors count as failures", snapshot(false, 0, 1, 100.0), FixTestFailure},
		{"coverage gap", snapshot(false, 0, 0, 99.9), ImproveCoverage},
		{"terminal", snapshot(false, 0, 0, 100.0), None},
		{"failed build without dashboard", &probe.Snapshot{Build: &maven.Status{OK: false}}, FixCompileError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Decide(tc.snap); got != tc.want {
				t.Errorf("Decide() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDecideIsDeterministic(t *testing.T) {
	s := snapshot(false, 1, 0, 80.0)
	first := Decide(s)
	for i := 0; i < 5; i++ {
		if got := Decide(s); got != first {
			t.Fatalf("decision changed on repeat: %v then %v", first, got)
		}
	}
}
