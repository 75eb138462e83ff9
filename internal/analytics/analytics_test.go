package analytics

import (
	"testing"

	"github.com/mstanton/mend/internal/db"
)

func seededDB(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := d.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	_ = d.LogEvent("run-1", "started", "")
	_ = d.LogPass("run-1", 1, "fix_test_failure", "test:com.acme.CalcTest#testAdd", "applied", "", "fix")
	_ = d.LogPass("run-1", 2, "improve_coverage", "cover:com.acme.Calc", "failed", "generation failed", "")
	_ = d.LogPass("run-1", 3, "improve_coverage", "cover:com.acme.Calc", "applied", "", "add tests")
	_ = d.LogPass("run-1", 4, "none", "", "skipped", "", "")
	_ = d.LogProbe("run-1", 1, db.ProbeMetrics{BuildOK: true, Tests: 10, Failures: 1, LinePercent: 87.2})
	_ = d.LogProbe("run-1", 2, db.ProbeMetrics{BuildOK: true, Tests: 10, LinePercent: 90.0})
	_ = d.LogProbe("run-1", 3, db.ProbeMetrics{BuildOK: true, Tests: 10, LinePercent: 90.0})
	_ = d.LogProbe("run-1", 4, db.ProbeMetrics{BuildOK: true, Tests: 12, LinePercent: 100.0})
	_ = d.LogEvent("run-1", "published", "")
	_ = d.LogEvent("run-1", "completed", "")

	_ = d.LogEvent("run-2", "started", "")
	_ = d.LogPass("run-2", 1, "fix_compile_error", "compile:Parser.java", "applied", "", "fix compile")
	_ = d.LogEvent("run-2", "halted", "regression_detected")
	return d
}

func TestQueryRunSummaries(t *testing.T) {
	d := seededDB(t)

	summaries, err := QueryRunSummaries(d, "")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("summaries = %d, want 2", len(summaries))
	}

	byRun := map[string]RunSummary{}
	for _, s := range summaries {
		byRun[s.RunID] = s
	}

	r1 := byRun["run-1"]
	if r1.Passes != 4 || r1.Applied != 2 || r1.Failed != 1 || r1.Skipped != 1 {
		t.Errorf("run-1 = %+v", r1)
	}
	if r1.Final != "completed" {
		t.Errorf("run-1 final = %q", r1.Final)
	}
	if byRun["run-2"].Final != "halted" {
		t.Errorf("run-2 final = %q", byRun["run-2"].Final)
	}
}

func TestQueryWorkflowStats(t *testing.T) {
	d := seededDB(t)

	stats, err := QueryWorkflowStats(d, "")
	if err != nil {
		t.Fatalf("query: %v", err)
	}

	byWf := map[string]WorkflowStats{}
	for _, s := range stats {
		byWf[s.Workflow] = s
	}
	if _, ok := byWf["none"]; ok {
		t.Error("terminal passes counted as a workflow")
	}
	cov := byWf["improve_coverage"]
	if cov.Total != 2 || cov.AppliedPct != 50.0 || cov.FailedPct != 50.0 {
		t.Errorf("improve_coverage = %+v", cov)
	}
	if byWf["fix_compile_error"].AppliedPct != 100.0 {
		t.Errorf("fix_compile_error = %+v", byWf["fix_compile_error"])
	}
}

func TestQueryConvergence(t *testing.T) {
	d := seededDB(t)

	points, err := QueryConvergence(d, "run-1")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(points) != 4 {
		t.Fatalf("points = %d", len(points))
	}
	if points[0].Failures != 1 || points[0].LinePercent != 87.2 {
		t.Errorf("first = %+v", points[0])
	}
	if points[3].LinePercent != 100.0 {
		t.Errorf("last = %+v", points[3])
	}
}

func TestQueryPassDurations(t *testing.T) {
	d := seededDB(t)

	durations, err := QueryPassDurations(d, "")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	byRun := map[string]PassDuration{}
	for _, pd := range durations {
		byRun[pd.RunID] = pd
	}
	// run-1 has 4 passes, so 3 intervals; run-2 has a single pass and no
	// interval at all.
	if byRun["run-1"].Count != 3 {
		t.Errorf("run-1 = %+v", byRun["run-1"])
	}
	if _, ok := byRun["run-2"]; ok {
		t.Error("single-pass run produced an interval")
	}
}

func TestHelpers(t *testing.T) {
	if got := pct(1, 3); got != 33.3 {
		t.Errorf("pct = %v", got)
	}
	if got := pct(1, 0); got != 0 {
		t.Errorf("pct zero total = %v", got)
	}
	if got := avg([]float64{1, 2, 3}); got != 2.0 {
		t.Errorf("avg = %v", got)
	}
	if got := percentile([]float64{1, 2, 3, 4}, 50); got != 2.5 {
		t.Errorf("p50 = %v", got)
	}
	if got := percentile(nil, 95); got != 0 {
		t.Errorf("p95 empty = %v", got)
	}
}
