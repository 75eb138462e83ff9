package generate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestExecGeneratorPipesRequestAndReturnsOutput(t *testing.T) {
	// The command echoes the request's target_class field back, proving the
	// JSON made it to stdin.
	g := NewExecGenerator(`grep -o '"target_class":"[^"]*"'`, t.TempDir(), time.Minute)

	out, err := g.Generate(context.Background(), Request{
		Kind:        KindTestFix,
		TargetClass: "com.acme.Calc",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(out, "com.acme.Calc") {
		t.Errorf("output = %q", out)
	}
}

func TestExecGeneratorNonZeroExit(t *testing.T) {
	g := NewExecGenerator("exit 3", t.TempDir(), time.Minute)

	_, err := g.Generate(context.Background(), Request{Kind: KindCompileFix})
	if !errors.Is(err, ErrGeneration) {
		t.Fatalf("err = %v, want ErrGeneration", err)
	}
}

func TestExecGeneratorEmptyOutput(t *testing.T) {
	g := NewExecGenerator("true", t.TempDir(), time.Minute)

	_, err := g.Generate(context.Background(), Request{Kind: KindCoverageTest})
	if !errors.Is(err, ErrGeneration) {
		t.Fatalf("err = %v, want ErrGeneration", err)
	}
}

func TestExecGeneratorTimeout(t *testing.T) {
	g := NewExecGenerator("sleep 5", t.TempDir(), 50*time.Millisecond)

	start := time.Now()
	_, err := g.Generate(context.Background(), Request{Kind: KindCompileFix})
	if !errors.Is(err, ErrGeneration) {
		t.Fatalf("err = %v, want ErrGeneration", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("timeout did not take effect")
	}
}
