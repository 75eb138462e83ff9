package loop

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/mstanton/mend/internal/db"
	"github.com/mstanton/mend/internal/gitops"
	"github.com/mstanton/mend/internal/guard"
	"github.com/mstanton/mend/internal/probe"
	"github.com/mstanton/mend/internal/triage"
	"github.com/mstanton/mend/internal/workflow"
)

// State classifies how a run ended.
type State string

const (
	// Success: all terminal conditions held and the result was published.
	Success State = "success"
	// Blocked: the guard or a fatal pass error stopped the loop; nothing
	// was published.
	Blocked State = "blocked"
	// Aborted: a structural failure (probe, dirty tree, cancellation) ended
	// the run before it could conclude.
	Aborted State = "aborted"
)

// Abort and block reasons surfaced in Termination.Reason. Guard halts use
// the guard.HaltReason value directly.
const (
	ReasonInconsistentState = "inconsistent_state"
	ReasonProbeFailed       = "probe_failed"
	ReasonApplyFailed       = "apply_failed"
	ReasonPublishFailed     = "publish_failed"
	ReasonCancelled         = "cancelled"
)

// Termination is the final report of a run.
type Termination struct {
	State       State          `json:"state"`
	Published   bool           `json:"published"`
	Reason      string         `json:"reason,omitempty"`
	Diagnostic  string         `json:"diagnostic,omitempty"`
	Passes      int            `json:"passes"`
	PullRequest string         `json:"pull_request,omitempty"`
	History     []guard.Record `json:"history"`
}

// Prober produces state snapshots.
type Prober interface {
	Probe(ctx context.Context) (*probe.Snapshot, error)
}

// Runner executes one remediation workflow.
type Runner interface {
	Execute(ctx context.Context, wf triage.Workflow, snap *probe.Snapshot) (*workflow.Result, error)
}

// Publisher is the version-control surface the loop itself touches:
// cleanliness at the boundaries and publication at the end. Per-pass
// staging and committing belong to the executor.
type Publisher interface {
	Status() (gitops.RepositoryState, error)
	Push() error
	OpenRequest(base, title, body string) (string, error)
}

// Options configures one run.
type Options struct {
	RunID      string
	CreatePR   bool
	BaseBranch string
	PRTitle    string
}

// Engine drives the remediation loop: probe, triage, execute, record,
// repeat, until triage yields terminal or the guard halts. Passes are
// strictly sequential; cancellation is honored only at pass boundaries so
// a commit is never abandoned halfway.
type Engine struct {
	probe    Prober
	exec     Runner
	guard    *guard.Guard
	vc       Publisher
	ledger   *db.DB
	opts     Options
	progress io.Writer
}

// New creates an engine. ledger may be nil; audit logging is best-effort
// and never affects control flow.
func New(p Prober, exec Runner, g *guard.Guard, vc Publisher, ledger *db.DB, opts Options) *Engine {
	if opts.RunID == "" {
		opts.RunID = time.Now().UTC().Format("run-20060102-150405")
	}
	return &Engine{probe: p, exec: exec, guard: g, vc: vc, ledger: ledger, opts: opts, progress: io.Discard}
}

// RunID returns the identifier this run logs under.
func (e *Engine) RunID() string {
	return e.opts.RunID
}

// SetProgress directs human-readable progress output to w.
func (e *Engine) SetProgress(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	e.progress = w
}

func (e *Engine) logf(format string, args ...interface{}) {
	fmt.Fprintf(e.progress, "  → "+format+"\n", args...)
}

// Run executes the loop to termination. It always returns a Termination;
// errors are folded into it so callers get one complete report.
func (e *Engine) Run(ctx context.Context) *Termination {
	state, err := e.vc.Status()
	if err != nil {
		return e.abort(0, ReasonInconsistentState, fmt.Sprintf("repository state unavailable: %v", err))
	}
	if !state.Clean {
		return e.abort(0, ReasonInconsistentState, "working tree dirty at startup:\n"+state.Detail)
	}
	e.logEvent("started", "")

	for pass := 1; ; pass++ {
		if ctx.Err() != nil {
			return e.abort(pass-1, ReasonCancelled, ctx.Err().Error())
		}

		e.logf("pass %d: probing", pass)
		snap, err := e.probe.Probe(ctx)
		if err != nil {
			return e.abort(pass-1, ReasonProbeFailed, err.Error())
		}
		e.logProbe(pass, snap)

		if halt := e.guard.Observe(pass, snap); halt != nil {
			e.logEvent("halted", string(halt.Reason)+": "+halt.Detail)
			e.logf("halted: %s", halt.Reason)
			return &Termination{
				State:      Blocked,
				Reason:     string(halt.Reason),
				Diagnostic: halt.Detail + "\n\nhistory:\n" + e.guard.Summary(),
				Passes:     pass - 1,
				History:    e.guard.History(),
			}
		}

		wf := triage.Decide(snap)
		e.logf("pass %d: %s", pass, wf)

		if wf == triage.None {
			e.record(guard.Record{Pass: pass, Workflow: wf, Outcome: guard.Skipped, Detail: "terminal conditions reached"})
			return e.complete(snap, pass)
		}

		res, err := e.exec.Execute(ctx, wf, snap)
		if err != nil {
			e.record(guard.Record{Pass: pass, Workflow: wf, Outcome: guard.Failed, Detail: err.Error()})
			e.logEvent("halted", ReasonApplyFailed+": "+err.Error())
			return &Termination{
				State:      Blocked,
				Reason:     ReasonApplyFailed,
				Diagnostic: err.Error() + "\n\nhistory:\n" + e.guard.Summary(),
				Passes:     pass,
				History:    e.guard.History(),
			}
		}
		e.record(guard.Record{
			Pass:          pass,
			Workflow:      res.Workflow,
			Target:        res.Target,
			Outcome:       res.Outcome,
			Detail:        res.Detail,
			CommitMessage: res.CommitMessage,
		})
	}
}

// complete is the completion gate. It re-checks the terminal conditions
// against the latest snapshot and the live tree, then publishes exactly
// once.
func (e *Engine) complete(snap *probe.Snapshot, pass int) *Termination {
	d := snap.Dashboard
	if d == nil || d.Tests.Failures != 0 || d.Tests.Errors != 0 || d.Coverage.LinePercent != 100.0 {
		return e.abort(pass, ReasonInconsistentState, "terminal conditions no longer hold at the completion gate")
	}

	state, err := e.vc.Status()
	if err != nil {
		return e.abort(pass, ReasonInconsistentState, fmt.Sprintf("repository state unavailable: %v", err))
	}
	if !state.Clean {
		return e.abort(pass, ReasonInconsistentState, "working tree dirty at completion gate:\n"+state.Detail)
	}

	if err := e.vc.Push(); err != nil {
		e.logEvent("halted", ReasonPublishFailed+": "+err.Error())
		return &Termination{
			State:      Blocked,
			Reason:     ReasonPublishFailed,
			Diagnostic: err.Error(),
			Passes:     pass,
			History:    e.guard.History(),
		}
	}
	e.logEvent("published", "")
	e.logf("published")

	term := &Termination{
		State:     Success,
		Published: true,
		Passes:    pass,
		History:   e.guard.History(),
	}
	if e.opts.CreatePR {
		url, err := e.vc.OpenRequest(e.opts.BaseBranch, e.opts.PRTitle, e.guard.Summary())
		if err != nil {
			// The push already landed; a failed PR does not unwind it.
			term.Diagnostic = fmt.Sprintf("pull request not created: %v", err)
			e.logEvent("pr_failed", err.Error())
		} else {
			term.PullRequest = url
			e.logEvent("pr_created", url)
		}
	}
	e.logEvent("completed", "")
	return term
}

func (e *Engine) abort(passes int, reason, diagnostic string) *Termination {
	e.logEvent("aborted", reason+": "+diagnostic)
	e.logf("aborted: %s", reason)
	return &Termination{
		State:      Aborted,
		Reason:     reason,
		Diagnostic: diagnostic,
		Passes:     passes,
		History:    e.guard.History(),
	}
}

// record appends to the in-memory history and mirrors to the ledger.
func (e *Engine) record(rec guard.Record) {
	e.guard.Append(rec)
	if e.ledger != nil {
		_ = e.ledger.LogPass(e.opts.RunID, rec.Pass, string(rec.Workflow), rec.Target,
			string(rec.Outcome), rec.Detail, rec.CommitMessage)
	}
}

func (e *Engine) logProbe(pass int, snap *probe.Snapshot) {
	if e.ledger == nil {
		return
	}
	m := db.ProbeMetrics{}
	if snap.Build != nil {
		m.BuildOK = snap.Build.OK
		m.CompileError = snap.Build.HasCompileError()
	}
	if snap.Dashboard != nil {
		m.Tests = snap.Dashboard.Tests.Total
		m.Failures = snap.Dashboard.Tests.Failures
		m.Errors = snap.Dashboard.Tests.Errors
		m.Skipped = snap.Dashboard.Tests.Skipped
		m.LinePercent = snap.Dashboard.Coverage.LinePercent
		m.BranchPercent = snap.Dashboard.Coverage.BranchPercent
		m.MethodPercent = snap.Dashboard.Coverage.MethodPercent
	}
	_ = e.ledger.LogProbe(e.opts.RunID, pass, m)
}

func (e *Engine) logEvent(event, detail string) {
	if e.ledger == nil {
		return
	}
	_ = e.ledger.LogEvent(e.opts.RunID, event, detail)
}
