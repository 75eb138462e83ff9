package report

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const jacocoXML = `<?xml version="1.0" encoding="UTF-8"?>
<report name="sample">
  <package name="com/acme">
    <class name="com/acme/Calc">
      <sourcefile name="Calc.java">
        <line nr="10" mi="0" ci="3"/>
        <line nr="12" mi="2" ci="0"/>
        <line nr="14" mi="1" ci="0"/>
        <line nr="12" mi="2" ci="0"/>
      </sourcefile>
    </class>
    <class name="com/acme/Parser">
      <sourcefile name="Parser.java">
        <line nr="5" mi="0" ci="2"/>
      </sourcefile>
    </class>
  </package>
  <counter type="INSTRUCTION" missed="3" covered="5"/>
  <counter type="LINE" missed="2" covered="6"/>
  <counter type="BRANCH" missed="1" covered="3"/>
  <counter type="METHOD" missed="0" covered="4"/>
</report>`

func writeJacoco(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jacoco.xml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write jacoco: %v", err)
	}
	return path
}

func TestJacocoSummary(t *testing.T) {
	sum, err := NewJacocoReader(writeJacoco(t, jacocoXML)).Summary()
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.LinePercent != 75.0 {
		t.Errorf("line = %v, want 75", sum.LinePercent)
	}
	if sum.BranchPercent != 75.0 {
		t.Errorf("branch = %v, want 75", sum.BranchPercent)
	}
	if sum.MethodPercent != 100.0 {
		t.Errorf("method = %v, want 100", sum.MethodPercent)
	}
}

func TestJacocoSummaryEmptyReportIsFullCoverage(t *testing.T) {
	sum, err := NewJacocoReader(writeJacoco(t, `<report name="empty"/>`)).Summary()
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.LinePercent != 100.0 {
		t.Errorf("line = %v, want 100", sum.LinePercent)
	}
}

func TestJacocoListGaps(t *testing.T) {
	gaps, err := NewJacocoReader(writeJacoco(t, jacocoXML)).List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(gaps) != 1 {
		t.Fatalf("gaps = %d, want 1 (fully covered class excluded)", len(gaps))
	}
	if gaps[0].SourceClass != "com.acme.Calc" {
		t.Errorf("class = %q", gaps[0].SourceClass)
	}
	if !reflect.DeepEqual(gaps[0].UncoveredLines, []int{12, 14}) {
		t.Errorf("lines = %v, want [12 14] (deduplicated, sorted)", gaps[0].UncoveredLines)
	}
}

func TestJacocoMissingReport(t *testing.T) {
	if _, err := NewJacocoReader(filepath.Join(t.TempDir(), "jacoco.xml")).Summary(); err == nil {
		t.Fatal("expected error for missing report")
	}
}

func TestJacocoMalformedReport(t *testing.T) {
	if _, err := NewJacocoReader(writeJacoco(t, "<report")).List(); err == nil {
		t.Fatal("expected error for malformed report")
	}
}

func TestClassFqn(t *testing.T) {
	tests := []struct {
		pkg, class, want string
	}{
		{"com/acme", "com/acme/Calc", "com.acme.Calc"},
		{"com/acme", "com/acme/Outer$Inner", "com.acme.Outer$Inner"},
		{"", "Calc", "Calc"},
	}
	for _, tt := range tests {
		if got := classFqn(tt.pkg, tt.class); got != tt.want {
			t.Errorf("classFqn(%q, %q) = %q, want %q", tt.pkg, tt.class, got, tt.want)
		}
	}
}
