package report

import (
	"os"
	"path/filepath"
	"testing"
)

const passingSuite = `<?xml version="1.0" encoding="UTF-8"?>
<testsuite name="com.acme.CalcTest" tests="3" failures="0" errors="0" skipped="0">
  <testcase name="testAdd" classname="com.acme.CalcTest"/>
  <testcase name="testSub" classname="com.acme.CalcTest"/>
  <testcase name="testMul" classname="com.acme.CalcTest"/>
</testsuite>`

const failingSuite = `<?xml version="1.0" encoding="UTF-8"?>
<testsuite name="com.acme.ParserTest" tests="4" failures="1" errors="1" skipped="1">
  <testcase name="testParse" classname="com.acme.ParserTest">
    <failure message="expected 4 but was 5">java.lang.AssertionError: expected 4 but was 5
	at com.acme.ParserTest.testParse(ParserTest.java:21)</failure>
  </testcase>
  <testcase name="testEmpty" classname="com.acme.ParserTest">
    <error message="null">java.lang.NullPointerException
	at com.acme.Parser.parse(Parser.java:33)</error>
  </testcase>
  <testcase name="testOk" classname="com.acme.ParserTest"/>
</testsuite>`

func writeSurefireDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func TestSurefireSummary(t *testing.T) {
	dir := writeSurefireDir(t, map[string]string{
		"TEST-com.acme.CalcTest.xml":   passingSuite,
		"TEST-com.acme.ParserTest.xml": failingSuite,
	})

	sum, err := NewSurefireReader(dir).Summary()
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	want := TestSummary{Total: 7, Passed: 4, Failures: 1, Errors: 1, Skipped: 1}
	if sum != want {
		t.Errorf("summary = %+v, want %+v", sum, want)
	}
}

func TestSurefireListOrderAndContent(t *testing.T) {
	dir := writeSurefireDir(t, map[string]string{
		"TEST-com.acme.ParserTest.xml": failingSuite,
	})

	failures, err := NewSurefireReader(dir).List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(failures) != 2 {
		t.Fatalf("failures = %d, want 2", len(failures))
	}

	first := failures[0]
	if first.TestClass != "com.acme.ParserTest" || first.TestMethod != "testParse" {
		t.Errorf("first = %+v", first)
	}
	if first.Kind != "failure" || first.Message != "expected 4 but was 5" {
		t.Errorf("first = %+v", first)
	}
	if first.Detail == "" {
		t.Error("first failure should carry the stack trace")
	}

	second := failures[1]
	if second.Kind != "error" || second.TestMethod != "testEmpty" {
		t.Errorf("second = %+v", second)
	}
}

func TestSurefireSkipsMalformedReports(t *testing.T) {
	dir := writeSurefireDir(t, map[string]string{
		"TEST-com.acme.CalcTest.xml": passingSuite,
		"TEST-broken.xml":            "<testsuite",
	})

	sum, err := NewSurefireReader(dir).Summary()
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Total != 3 {
		t.Errorf("total = %d, want 3 (malformed file skipped)", sum.Total)
	}
}

func TestSurefireFallbackToAnyXML(t *testing.T) {
	dir := writeSurefireDir(t, map[string]string{
		"results.xml": passingSuite,
	})

	sum, err := NewSurefireReader(dir).Summary()
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Total != 3 {
		t.Errorf("total = %d, want 3", sum.Total)
	}
}

func TestSurefireMissingDir(t *testing.T) {
	if _, err := NewSurefireReader(filepath.Join(t.TempDir(), "nope")).Summary(); err == nil {
		t.Fatal("expected error for missing report directory")
	}
}
