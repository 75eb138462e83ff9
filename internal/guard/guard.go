package guard

import (
	"fmt"
	"strings"
	"time"

	"github.com/mstanton/mend/internal/probe"
	"github.com/mstanton/mend/internal/triage"
)

// Outcome classifies what a pass did.
type Outcome string

const (
	Applied Outcome = "applied"
	Skipped Outcome = "skipped"
	Failed  Outcome = "failed"
)

// Record is one append-only history entry. The guard owns the history;
// nothing else mutates it.
type Record struct {
	Pass          int             `json:"pass"`
	Workflow      triage.Workflow `json:"workflow"`
	Target        string          `json:"target"`
	Outcome       Outcome         `json:"outcome"`
	Detail        string          `json:"detail,omitempty"`
	CommitMessage string          `json:"commit_message,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

// HaltReason names why the guard stopped the loop.
type HaltReason string

const (
	RegressionDetected   HaltReason = "regression_detected"
	OscillationDetected  HaltReason = "oscillation_detected"
	StagnationDetected   HaltReason = "stagnation_detected"
	IterationCapExceeded HaltReason = "iteration_cap_exceeded"
)

// Halt carries a halt reason plus the diagnostic detail for the report.
type Halt struct {
	Reason HaltReason
	Detail string
}

// oscillationWindow is the number of consecutive observations of a target
// whose presence must strictly alternate: two full fixed/broken cycles.
const oscillationWindow = 4

type metrics struct {
	failures int
	errors   int
	line     float64
}

// Guard watches snapshots and pass outcomes for signs the loop is not
// converging. All state is in memory and discarded when the run ends.
type Guard struct {
	maxPasses  int
	stagnation int

	history  []Record
	presence map[string][]bool
	order    []string

	lastMetrics *metrics
	unchanged   int
}

// New creates a guard. maxPasses caps total passes; stagnationThreshold is
// the number of consecutive applied-but-unchanged passes tolerated.
func New(maxPasses, stagnationThreshold int) *Guard {
	return &Guard{
		maxPasses:  maxPasses,
		stagnation: stagnationThreshold,
		presence:   make(map[string][]bool),
	}
}

// Observe evaluates the snapshot for pass against the accumulated history,
// before the pass executes. A non-nil Halt means the loop must stop without
// publishing.
func (g *Guard) Observe(pass int, snap *probe.Snapshot) *Halt {
	current := make(map[string]bool)
	for _, key := range snap.TargetKeys() {
		current[key] = true
	}
	g.track(current)
	g.trackMetrics(snap)

	if halt := g.checkRegression(current); halt != nil {
		return halt
	}
	if halt := g.checkOscillation(); halt != nil {
		return halt
	}
	if halt := g.checkStagnation(); halt != nil {
		return halt
	}
	if pass > g.maxPasses {
		return &Halt{
			Reason: IterationCapExceeded,
			Detail: fmt.Sprintf("pass %d exceeds maximum of %d", pass, g.maxPasses),
		}
	}
	return nil
}

// Append records the outcome of the pass that just executed.
func (g *Guard) Append(rec Record) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	g.history = append(g.history, rec)
}

// History returns the append-only pass history.
func (g *Guard) History() []Record {
	return g.history
}

// Summary renders the history as a human-readable diagnostic, one pass per
// line.
func (g *Guard) Summary() string {
	if len(g.history) == 0 {
		return "no passes recorded"
	}
	var b strings.Builder
	for _, r := range g.history {
		fmt.Fprintf(&b, "pass %d: %s %s -> %s", r.Pass, r.Workflow, r.Target, r.Outcome)
		if r.Detail != "" {
			fmt.Fprintf(&b, " (%s)", r.Detail)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// track appends one presence observation for every target ever seen.
func (g *Guard) track(current map[string]bool) {
	for key := range current {
		if _, seen := g.presence[key]; !seen {
			g.order = append(g.order, key)
		}
	}
	for _, key := range g.order {
		g.presence[key] = append(g.presence[key], current[key])
	}
}

func (g *Guard) trackMetrics(snap *probe.Snapshot) {
	if snap.Dashboard == nil {
		g.lastMetrics = nil
		g.unchanged = 0
		return
	}
	cur := &metrics{
		failures: snap.Dashboard.Tests.Failures,
		errors:   snap.Dashboard.Tests.Errors,
		line:     snap.Dashboard.Coverage.LinePercent,
	}
	if g.lastMetrics != nil && *cur == *g.lastMetrics && g.lastOutcome() == Applied {
		g.unchanged++
	} else {
		g.unchanged = 0
	}
	g.lastMetrics = cur
}

func (g *Guard) lastOutcome() Outcome {
	if len(g.history) == 0 {
		return ""
	}
	return g.history[len(g.history)-1].Outcome
}

// checkRegression fires when the target the previous pass marked applied is
// still failing in this snapshot: the committed change did not take.
func (g *Guard) checkRegression(current map[string]bool) *Halt {
	if len(g.history) == 0 {
		return nil
	}
	last := g.history[len(g.history)-1]
	if last.Outcome != Applied || last.Target == "" {
		return nil
	}
	if current[last.Target] {
		return &Halt{
			Reason: RegressionDetected,
			Detail: fmt.Sprintf("target %s still failing after applied fix in pass %d", last.Target, last.Pass),
		}
	}
	return nil
}

// checkOscillation fires when a target's presence strictly alternates over
// the last two fixed/broken cycles.
func (g *Guard) checkOscillation() *Halt {
	for _, key := range g.order {
		obs := g.presence[key]
		if len(obs) < oscillationWindow {
			continue
		}
		window := obs[len(obs)-oscillationWindow:]
		alternating := true
		for i := 1; i < len(window); i++ {
			if window[i] == window[i-1] {
				alternating = false
				break
			}
		}
		if alternating {
			return &Halt{
				Reason: OscillationDetected,
				Detail: fmt.Sprintf("target %s alternated across the last %d passes", key, oscillationWindow),
			}
		}
	}
	return nil
}

func (g *Guard) checkStagnation() *Halt {
	if g.unchanged >= g.stagnation {
		return &Halt{
			Reason: StagnationDetected,
			Detail: fmt.Sprintf("metrics unchanged across %d consecutive applied passes", g.unchanged),
		}
	}
	return nil
}
