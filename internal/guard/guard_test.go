package guard

import (
	"strings"
	"testing"

	"github.com/mstanton/mend/internal/maven"
	"github.com/mstanton/mend/internal/probe"
	"github.com/mstanton/mend/internal/report"
	"github.com/mstanton/mend/internal/triage"
)

// snap builds a snapshot with the given line coverage and failing tests,
// each named "Class#method".
func snap(line float64, failing ...string) *probe.Snapshot {
	s := &probe.Snapshot{
		Build: &maven.Status{OK: len(failing) == 0},
		Dashboard: &report.Dashboard{
			Tests:    report.TestSummary{Total: 10, Failures: len(failing)},
			Coverage: report.CoverageSummary{LinePercent: line},
		},
	}
	for _, name := range failing {
		class, method, _ := strings.Cut(name, "#")
		s.Failures = append(s.Failures, report.TestFailure{TestClass: class, TestMethod: method})
	}
	return s
}

func applied(pass int, target string) Record {
	return Record{Pass: pass, Workflow: triage.FixTestFailure, Target: target, Outcome: Applied}
}

func TestRegressionWhenAppliedTargetPersists(t *testing.T) {
	g := New(25, 3)
	target := probe.TestKey("com.acme.CalcTest", "testAdd")

	if halt := g.Observe(1, snap(90, "com.acme.CalcTest#testAdd")); halt != nil {
		t.Fatalf("pass 1 halt: %+v", halt)
	}
	g.Append(applied(1, target))

	halt := g.Observe(2, snap(90, "com.acme.CalcTest#testAdd"))
	if halt == nil || halt.Reason != RegressionDetected {
		t.Fatalf("halt = %+v, want RegressionDetected", halt)
	}
}

func TestNoRegressionWhenTargetResolved(t *testing.T) {
	g := New(25, 3)
	target := probe.TestKey("com.acme.CalcTest", "testAdd")

	g.Observe(1, snap(90, "com.acme.CalcTest#testAdd"))
	g.Append(applied(1, target))

	if halt := g.Observe(2, snap(95)); halt != nil {
		t.Fatalf("halt = %+v, want nil", halt)
	}
}

func TestNoRegressionAfterFailedPass(t *testing.T) {
	g := New(25, 3)

	g.Observe(1, snap(90, "com.acme.CalcTest#testAdd"))
	g.Append(Record{Pass: 1, Workflow: triage.FixTestFailure,
		Target: probe.TestKey("com.acme.CalcTest", "testAdd"), Outcome: Failed})

	// The target persisting after a failed pass is expected, not regression.
	if halt := g.Observe(2, snap(90, "com.acme.CalcTest#testAdd")); halt != nil {
		t.Fatalf("halt = %+v, want nil", halt)
	}
}

func TestOscillation(t *testing.T) {
	g := New(25, 10)
	tKey := probe.TestKey("com.acme.CalcTest", "testAdd")
	uKey := probe.TestKey("com.acme.OtherTest", "testMul")

	// Target T alternates present/absent over four observations. Each pass
	// resolves its own target, so regression never fires, and metrics keep
	// moving so stagnation stays quiet.
	if halt := g.Observe(1, snap(80, "com.acme.CalcTest#testAdd")); halt != nil {
		t.Fatalf("pass 1: %+v", halt)
	}
	g.Append(applied(1, tKey))

	if halt := g.Observe(2, snap(82, "com.acme.OtherTest#testMul")); halt != nil {
		t.Fatalf("pass 2: %+v", halt)
	}
	g.Append(applied(2, uKey))

	if halt := g.Observe(3, snap(84, "com.acme.CalcTest#testAdd")); halt != nil {
		t.Fatalf("pass 3: %+v", halt)
	}
	g.Append(applied(3, tKey))

	halt := g.Observe(4, snap(86, "com.acme.OtherTest#testMul"))
	if halt == nil || halt.Reason != OscillationDetected {
		t.Fatalf("halt = %+v, want OscillationDetected", halt)
	}
	if !strings.Contains(halt.Detail, tKey) {
		t.Errorf("detail %q does not name the target", halt.Detail)
	}
}

func TestStagnation(t *testing.T) {
	g := New(25, 2)

	g.Observe(1, snap(90, "com.acme.ATest#a"))
	g.Append(applied(1, probe.TestKey("com.acme.ATest", "a")))

	// Same metrics, different target: no regression, streak = 1.
	if halt := g.Observe(2, snap(90, "com.acme.BTest#b")); halt != nil {
		t.Fatalf("pass 2: %+v", halt)
	}
	g.Append(applied(2, probe.TestKey("com.acme.BTest", "b")))

	halt := g.Observe(3, snap(90, "com.acme.CTest#c"))
	if halt == nil || halt.Reason != StagnationDetected {
		t.Fatalf("halt = %+v, want StagnationDetected", halt)
	}
}

func TestStagnationResetsWhenMetricsMove(t *testing.T) {
	g := New(25, 2)

	g.Observe(1, snap(90, "com.acme.ATest#a"))
	g.Append(applied(1, probe.TestKey("com.acme.ATest", "a")))

	g.Observe(2, snap(90, "com.acme.BTest#b"))
	g.Append(applied(2, probe.TestKey("com.acme.BTest", "b")))

	// Metrics improved: the streak resets before hitting the threshold.
	if halt := g.Observe(3, snap(95, "com.acme.CTest#c")); halt != nil {
		t.Fatalf("halt = %+v, want nil", halt)
	}
}

func TestIterationCap(t *testing.T) {
	g := New(2, 3)

	if halt := g.Observe(1, snap(50)); halt != nil {
		t.Fatalf("pass 1: %+v", halt)
	}
	if halt := g.Observe(2, snap(60)); halt != nil {
		t.Fatalf("pass 2: %+v", halt)
	}
	halt := g.Observe(3, snap(70))
	if halt == nil || halt.Reason != IterationCapExceeded {
		t.Fatalf("halt = %+v, want IterationCapExceeded", halt)
	}
}

func TestSummary(t *testing.T) {
	g := New(25, 3)
	if got := g.Summary(); got != "no passes recorded" {
		t.Errorf("empty summary = %q", got)
	}

	g.Append(applied(1, "test:com.acme.CalcTest#testAdd"))
	g.Append(Record{Pass: 2, Workflow: triage.ImproveCoverage, Target: "cover:com.acme.Calc",
		Outcome: Failed, Detail: "generation failed"})

	summary := g.Summary()
	if !strings.Contains(summary, "pass 1: fix_test_failure test:com.acme.CalcTest#testAdd -> applied") {
		t.Errorf("summary missing pass 1: %q", summary)
	}
	if !strings.Contains(summary, "generation failed") {
		t.Errorf("summary missing detail: %q", summary)
	}
	if len(g.History()) != 2 {
		t.Errorf("history = %d", len(g.History()))
	}
}
