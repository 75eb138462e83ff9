package maven

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type fakeCmd struct {
	stdout   string
	stderr   string
	exitCode int
	err      error
	gotDir   string
	gotCmd   string
}

func (f *fakeCmd) Run(ctx context.Context, dir string, command string) (string, string, int, error) {
	f.gotDir = dir
	f.gotCmd = command
	return f.stdout, f.stderr, f.exitCode, f.err
}

func TestRunBuildSuccess(t *testing.T) {
	cmd := &fakeCmd{stdout: "[INFO] Scanning...\n[INFO] BUILD SUCCESS\n[INFO] Total time: 12s"}
	r := NewRunner(cmd, "/work/app", "mvn clean verify", time.Minute)

	status, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !status.OK {
		t.Error("expected OK status")
	}
	if status.HasCompileError() {
		t.Error("success must not carry compile errors")
	}
	if cmd.gotDir != "/work/app" || cmd.gotCmd != "mvn clean verify" {
		t.Errorf("ran %q in %q", cmd.gotCmd, cmd.gotDir)
	}
}

func TestRunBuildFailureWithCompileError(t *testing.T) {
	log := strings.Join([]string{
		"[INFO] Compiling 14 source files",
		"[ERROR] COMPILATION ERROR :",
		"[ERROR] /work/app/src/main/java/com/acme/Parser.java:[42,8] ';' expected",
		"[ERROR] /work/app/src/main/java/com/acme/Parser.java:[57,1] reached end of file while parsing",
		"[INFO] BUILD FAILURE",
	}, "\n")
	cmd := &fakeCmd{stdout: log, exitCode: 1}
	r := NewRunner(cmd, "/work/app", "", 0)

	status, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if status.OK {
		t.Fatal("expected failed status")
	}
	if !status.HasCompileError() {
		t.Fatal("expected compile-error signature")
	}
	if len(status.CompileErrors) != 2 {
		t.Fatalf("compile errors = %d, want 2", len(status.CompileErrors))
	}
	first := status.CompileErrors[0]
	if first.File != "/work/app/src/main/java/com/acme/Parser.java" || first.Line != 42 || first.Column != 8 {
		t.Errorf("first error = %+v", first)
	}
	if first.Message != "';' expected" {
		t.Errorf("message = %q", first.Message)
	}
	if status.Diagnostic == "" {
		t.Error("diagnostic should carry the log tail")
	}
}

func TestRunBuildFailureTestsOnly(t *testing.T) {
	log := "[ERROR] Tests run: 10, Failures: 2\n[INFO] BUILD FAILURE"
	cmd := &fakeCmd{stdout: log, exitCode: 1}
	r := NewRunner(cmd, "/work/app", "", 0)

	status, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if status.OK || status.HasCompileError() {
		t.Errorf("want plain failure, got ok=%v compile=%v", status.OK, status.HasCompileError())
	}
}

func TestRunBuildCompileSectionWithoutLocations(t *testing.T) {
	log := "[ERROR] COMPILATION ERROR :\n[INFO] BUILD FAILURE"
	cmd := &fakeCmd{stdout: log, exitCode: 1}
	r := NewRunner(cmd, "/work/app", "", 0)

	status, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !status.HasCompileError() {
		t.Fatal("signature should still be detected without locations")
	}
}

func TestRunBuildIncomplete(t *testing.T) {
	cmd := &fakeCmd{stdout: "mvn: command output garbled"}
	r := NewRunner(cmd, "/work/app", "", 0)

	status, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if status.OK {
		t.Error("incomplete build must not be OK")
	}
	if !strings.Contains(status.Diagnostic, "did not complete") {
		t.Errorf("diagnostic = %q", status.Diagnostic)
	}
}

func TestRunExecErrorIsFatal(t *testing.T) {
	cmd := &fakeCmd{err: errors.New("sh: not found")}
	r := NewRunner(cmd, "/work/app", "", 0)

	if _, err := r.Run(context.Background()); err == nil {
		t.Fatal("expected error when the harness is unreachable")
	}
}

func TestTail(t *testing.T) {
	s := "a\nb\nc\nd"
	if got := tail(s, 2); got != "c\nd" {
		t.Errorf("tail = %q", got)
	}
	if got := tail(s, 10); got != s {
		t.Errorf("tail = %q", got)
	}
}
