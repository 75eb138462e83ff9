package gitops

import (
	"errors"
	"strings"
	"testing"
	"time"
)

type fakeGit struct {
	calls   [][]string
	outputs map[string]string // keyed by first arg
	fails   map[string]int    // remaining failures per first arg
}

func newFakeGit() *fakeGit {
	return &fakeGit{outputs: make(map[string]string), fails: make(map[string]int)}
}

func (f *fakeGit) Run(dir string, args ...string) (string, error) {
	f.calls = append(f.calls, args)
	key := args[0]
	if n := f.fails[key]; n > 0 {
		f.fails[key] = n - 1
		return "", errors.New("remote hung up")
	}
	return f.outputs[key], nil
}

func (f *fakeGit) count(verb string) int {
	n := 0
	for _, c := range f.calls {
		if c[0] == verb {
			n++
		}
	}
	return n
}

func TestStatusClean(t *testing.T) {
	git := newFakeGit()
	c := NewClient(git, nil, "/repo", "", 1)

	state, err := c.Status()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !state.Clean {
		t.Error("expected clean tree")
	}
}

func TestStatusDirty(t *testing.T) {
	git := newFakeGit()
	git.outputs["status"] = " M src/main/java/com/acme/Calc.java"
	c := NewClient(git, nil, "/repo", "", 1)

	state, err := c.Status()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if state.Clean {
		t.Error("expected dirty tree")
	}
	if !strings.Contains(state.Detail, "Calc.java") {
		t.Errorf("detail = %q", state.Detail)
	}
}

func TestCommitRequiresMessage(t *testing.T) {
	c := NewClient(newFakeGit(), nil, "/repo", "", 1)
	if err := c.Commit(""); err == nil {
		t.Fatal("expected error for empty message")
	}
}

func TestPushRetriesThenSucceeds(t *testing.T) {
	git := newFakeGit()
	git.outputs["rev-parse"] = "mend/remediation"
	git.fails["push"] = 2
	c := NewClient(git, nil, "/repo", "origin", 3)
	c.SetBackoff(time.Millisecond)

	if err := c.Push(); err != nil {
		t.Fatalf("push: %v", err)
	}
	if got := git.count("push"); got != 3 {
		t.Errorf("push attempts = %d, want 3", got)
	}
}

func TestPushExhaustsRetries(t *testing.T) {
	git := newFakeGit()
	git.outputs["rev-parse"] = "main"
	git.fails["push"] = 10
	c := NewClient(git, nil, "/repo", "origin", 2)
	c.SetBackoff(time.Millisecond)

	err := c.Push()
	if err == nil {
		t.Fatal("expected push failure")
	}
	if !strings.Contains(err.Error(), "after 2 attempts") {
		t.Errorf("err = %v", err)
	}
}

type fakeGh struct {
	args []string
	out  string
	err  error
}

func (f *fakeGh) Run(dir string, args ...string) (string, error) {
	f.args = args
	return f.out, f.err
}

func TestOpenRequest(t *testing.T) {
	gh := &fakeGh{out: "https://github.com/acme/app/pull/7"}
	c := NewClient(newFakeGit(), gh, "/repo", "", 1)

	url, err := c.OpenRequest("main", "Automated remediation", "details")
	if err != nil {
		t.Fatalf("open request: %v", err)
	}
	if url != "https://github.com/acme/app/pull/7" {
		t.Errorf("url = %q", url)
	}
	want := []string{"pr", "create", "--base", "main", "--title", "Automated remediation", "--body", "details"}
	if strings.Join(gh.args, " ") != strings.Join(want, " ") {
		t.Errorf("args = %v", gh.args)
	}
}

func TestOpenRequestWithoutGh(t *testing.T) {
	c := NewClient(newFakeGit(), nil, "/repo", "", 1)
	if _, err := c.OpenRequest("main", "t", "b"); err == nil {
		t.Fatal("expected error when gh is not configured")
	}
}
