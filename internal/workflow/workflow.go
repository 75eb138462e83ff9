package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/mstanton/mend/internal/generate"
	"github.com/mstanton/mend/internal/guard"
	"github.com/mstanton/mend/internal/locate"
	"github.com/mstanton/mend/internal/probe"
	"github.com/mstanton/mend/internal/triage"
)

// ErrApply marks a rejected write or commit. Unlike locate and generation
// failures this is fatal: the loop halts pending diagnosis rather than
// risking a half-applied change.
var ErrApply = errors.New("apply failed")

// Resolver maps class names to files. Implemented by locate.Locator.
type Resolver interface {
	FindSource(fqn string) (string, error)
	FindTest(fqn string) (string, error)
	TestPathFor(fqn string) string
}

// FileStore reads and writes whole files. Patches are always the entire
// file content, never a partial diff.
type FileStore interface {
	Read(path string) (string, error)
	Write(path, content string) error
}

// VersionControl is the subset of git operations a pass needs.
type VersionControl interface {
	StageAll() error
	Commit(message string) error
}

// Result describes what one pass did. Exactly one Result is produced per
// executed workflow.
type Result struct {
	Workflow      triage.Workflow `json:"workflow"`
	Target        string          `json:"target"`
	Outcome       guard.Outcome   `json:"outcome"`
	Detail        string          `json:"detail,omitempty"`
	CommitMessage string          `json:"commit_message,omitempty"`
}

// Executor runs the three remediation workflows. Each run selects one
// target, obtains a replacement file from the generator, writes it back,
// and commits — at most one commit per pass.
type Executor struct {
	loc        Resolver
	store      FileStore
	gen        generate.Generator
	vc         VersionControl
	projectDir string
	progress   io.Writer
}

// NewExecutor creates a workflow executor over the given collaborators.
func NewExecutor(loc Resolver, store FileStore, gen generate.Generator, vc VersionControl, projectDir string) *Executor {
	return &Executor{loc: loc, store: store, gen: gen, vc: vc, projectDir: projectDir, progress: io.Discard}
}

// SetProgress directs human-readable progress output to w.
func (e *Executor) SetProgress(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	e.progress = w
}

func (e *Executor) logf(format string, args ...interface{}) {
	fmt.Fprintf(e.progress, "  → "+format+"\n", args...)
}

// Execute runs one workflow against the snapshot. Target-scoped failures
// (nothing to locate, generation refused) come back as a failed Result with
// a nil error; a non-nil error wraps ErrApply and must halt the loop.
func (e *Executor) Execute(ctx context.Context, wf triage.Workflow, snap *probe.Snapshot) (*Result, error) {
	switch wf {
	case triage.FixCompileError:
		return e.fixCompile(ctx, snap)
	case triage.FixTestFailure:
		return e.fixTest(ctx, snap)
	case triage.ImproveCoverage:
		return e.improveCoverage(ctx, snap)
	default:
		return nil, fmt.Errorf("workflow %q is not executable", wf)
	}
}

func (e *Executor) fixCompile(ctx context.Context, snap *probe.Snapshot) (*Result, error) {
	res := &Result{Workflow: triage.FixCompileError}
	if snap.Build == nil || len(snap.Build.CompileErrors) == 0 {
		res.Outcome = guard.Failed
		res.Detail = "build failed but no compile error was parsed from the diagnostic"
		return res, nil
	}

	ce := snap.Build.CompileErrors[0]
	res.Target = probe.CompileKey(ce.File)
	if ce.File == "" {
		res.Outcome = guard.Failed
		res.Detail = "compiler output carried no file location"
		return res, nil
	}

	path := ce.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(e.projectDir, path)
	}
	e.logf("fixing compile error in %s:%d", filepath.Base(path), ce.Line)

	content, err := e.store.Read(path)
	if err != nil {
		res.Outcome = guard.Failed
		res.Detail = fmt.Sprintf("read %s: %v", path, err)
		return res, nil
	}

	detail := fmt.Sprintf("%s:[%d,%d] %s", ce.File, ce.Line, ce.Column, ce.Message)
	if ce.Message == "" && snap.Build.Diagnostic != "" {
		detail = snap.Build.Diagnostic
	}
	patched, err := e.gen.Generate(ctx, generate.Request{
		Kind:           generate.KindCompileFix,
		TargetClass:    strings.TrimSuffix(filepath.Base(path), ".java"),
		TargetFile:     path,
		CurrentContent: content,
		FailureDetail:  detail,
	})
	if err != nil {
		res.Outcome = guard.Failed
		res.Detail = err.Error()
		return res, nil
	}

	msg := fmt.Sprintf("fix compile error in %s:%d", filepath.Base(path), ce.Line)
	if err := e.apply(path, patched, msg); err != nil {
		return nil, err
	}
	res.Outcome = guard.Applied
	res.CommitMessage = msg
	return res, nil
}

func (e *Executor) fixTest(ctx context.Context, snap *probe.Snapshot) (*Result, error) {
	res := &Result{Workflow: triage.FixTestFailure}
	if len(snap.Failures) == 0 {
		res.Outcome = guard.Failed
		res.Detail = "dashboard reports failures but the report listed none"
		return res, nil
	}

	f := snap.Failures[0]
	res.Target = probe.TestKey(f.TestClass, f.TestMethod)
	e.logf("fixing failing test %s#%s", f.TestClass, f.TestMethod)

	srcFqn := locate.SourceClassFor(f.TestClass)
	srcPath, err := e.loc.FindSource(srcFqn)
	if err != nil {
		res.Outcome = guard.Failed
		res.Detail = err.Error()
		return res, nil
	}
	srcContent, err := e.store.Read(srcPath)
	if err != nil {
		res.Outcome = guard.Failed
		res.Detail = fmt.Sprintf("read %s: %v", srcPath, err)
		return res, nil
	}

	req := generate.Request{
		Kind:           generate.KindTestFix,
		TargetClass:    srcFqn,
		TargetFile:     srcPath,
		CurrentContent: srcContent,
		FailureDetail:  strings.TrimSpace(f.Message + "\n" + f.Detail),
	}
	if testPath, err := e.loc.FindTest(f.TestClass); err == nil {
		if testContent, err := e.store.Read(testPath); err == nil {
			req.PairedFile = testPath
			req.PairedContent = testContent
		}
	}

	patched, err := e.gen.Generate(ctx, req)
	if err != nil {
		res.Outcome = guard.Failed
		res.Detail = err.Error()
		return res, nil
	}

	msg := fmt.Sprintf("fix failing test %s#%s", f.TestClass, f.TestMethod)
	if err := e.apply(srcPath, patched, msg); err != nil {
		return nil, err
	}
	res.Outcome = guard.Applied
	res.CommitMessage = msg
	return res, nil
}

func (e *Executor) improveCoverage(ctx context.Context, snap *probe.Snapshot) (*Result, error) {
	res := &Result{Workflow: triage.ImproveCoverage}
	if len(snap.Gaps) == 0 {
		res.Outcome = guard.Failed
		res.Detail = "coverage below target but the report listed no gaps"
		return res, nil
	}

	gap := snap.Gaps[0]
	res.Target = probe.CoverageKey(gap.SourceClass)
	e.logf("covering %d lines in %s", len(gap.UncoveredLines), gap.SourceClass)

	srcPath, err := e.loc.FindSource(gap.SourceClass)
	if err != nil {
		res.Outcome = guard.Failed
		res.Detail = err.Error()
		return res, nil
	}
	srcContent, err := e.store.Read(srcPath)
	if err != nil {
		res.Outcome = guard.Failed
		res.Detail = fmt.Sprintf("read %s: %v", srcPath, err)
		return res, nil
	}

	// Existing test file is extended; otherwise a new one is created at the
	// conventional path.
	testPath, err := e.loc.FindTest(gap.SourceClass)
	testContent := ""
	if err != nil {
		testPath = e.loc.TestPathFor(gap.SourceClass)
	} else if testContent, err = e.store.Read(testPath); err != nil {
		res.Outcome = guard.Failed
		res.Detail = fmt.Sprintf("read %s: %v", testPath, err)
		return res, nil
	}

	patched, err := e.gen.Generate(ctx, generate.Request{
		Kind:           generate.KindCoverageTest,
		TargetClass:    locate.TestClassFor(gap.SourceClass),
		TargetFile:     testPath,
		CurrentContent: testContent,
		UncoveredLines: gap.UncoveredLines,
		BoundaryHints:  generate.DefaultBoundaryHints(),
		PairedFile:     srcPath,
		PairedContent:  srcContent,
	})
	if err != nil {
		res.Outcome = guard.Failed
		res.Detail = err.Error()
		return res, nil
	}

	msg := fmt.Sprintf("add tests for %d uncovered lines in %s", len(gap.UncoveredLines), gap.SourceClass)
	if err := e.apply(testPath, patched, msg); err != nil {
		return nil, err
	}
	res.Outcome = guard.Applied
	res.CommitMessage = msg
	return res, nil
}

// apply writes the full replacement content and commits it. Every failure
// here is fatal: a rejected write or commit leaves the tree in a state the
// loop cannot reason about.
func (e *Executor) apply(path, content, commitMsg string) error {
	if err := e.store.Write(path, content); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrApply, path, err)
	}
	if err := e.vc.StageAll(); err != nil {
		return fmt.Errorf("%w: %v", ErrApply, err)
	}
	if err := e.vc.Commit(commitMsg); err != nil {
		return fmt.Errorf("%w: %v", ErrApply, err)
	}
	return nil
}
