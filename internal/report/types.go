package report

// TestSummary aggregates test counts across all Surefire reports.
type TestSummary struct {
	Total    int `json:"total"`
	Passed   int `json:"passed"`
	Failures int `json:"failures"`
	Errors   int `json:"errors"`
	Skipped  int `json:"skipped"`
}

// CoverageSummary holds project-level coverage percentages from JaCoCo.
type CoverageSummary struct {
	LinePercent   float64 `json:"line_percent"`
	BranchPercent float64 `json:"branch_percent"`
	MethodPercent float64 `json:"method_percent"`
}

// Dashboard is the combined quality view the triage decision reads.
type Dashboard struct {
	Tests    TestSummary     `json:"test_run_summary"`
	Coverage CoverageSummary `json:"code_coverage_summary"`
}

// TestFailure is a single failing or erroring test case, in report order.
type TestFailure struct {
	TestClass  string `json:"test_class"`
	TestMethod string `json:"test_method"`
	Kind       string `json:"kind"` // "failure" or "error"
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
}

// CoverageGap lists the uncovered lines of one source class, sorted ascending.
type CoverageGap struct {
	SourceClass    string `json:"source_class"`
	UncoveredLines []int  `json:"uncovered_lines"`
}

// Violation is one PMD finding.
type Violation struct {
	File        string `json:"file"`
	Line        int    `json:"line"`
	Rule        string `json:"rule"`
	Priority    int    `json:"priority"`
	Description string `json:"description"`
}
