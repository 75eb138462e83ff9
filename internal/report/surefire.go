package report

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SurefireReader parses Surefire XML reports from a report directory.
type SurefireReader struct {
	dir string
}

// NewSurefireReader creates a reader for the given surefire-reports directory.
func NewSurefireReader(dir string) *SurefireReader {
	return &SurefireReader{dir: dir}
}

type surefireSuite struct {
	Name      string         `xml:"name,attr"`
	Tests     int            `xml:"tests,attr"`
	Failures  int            `xml:"failures,attr"`
	Errors    int            `xml:"errors,attr"`
	Skipped   int            `xml:"skipped,attr"`
	TestCases []surefireCase `xml:"testcase"`
}

type surefireCase struct {
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Failure   *surefireFail `xml:"failure"`
	Error     *surefireFail `xml:"error"`
}

type surefireFail struct {
	Message string `xml:"message,attr"`
	Body    string `xml:",chardata"`
}

// reportFiles returns the report file paths in stable order. TEST-*.xml is
// preferred; any .xml in the directory is accepted as a fallback.
func (r *SurefireReader) reportFiles() ([]string, error) {
	if _, err := os.Stat(r.dir); err != nil {
		return nil, fmt.Errorf("surefire reports directory %s: %w", r.dir, err)
	}
	files, err := filepath.Glob(filepath.Join(r.dir, "TEST-*.xml"))
	if err != nil {
		return nil, fmt.Errorf("glob surefire reports: %w", err)
	}
	if len(files) == 0 {
		files, err = filepath.Glob(filepath.Join(r.dir, "*.xml"))
		if err != nil {
			return nil, fmt.Errorf("glob surefire reports: %w", err)
		}
	}
	sort.Strings(files)
	return files, nil
}

// parseSuites parses every readable report file, skipping malformed XML.
func (r *SurefireReader) parseSuites() ([]surefireSuite, error) {
	files, err := r.reportFiles()
	if err != nil {
		return nil, err
	}

	var suites []surefireSuite
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			continue
		}
		var suite surefireSuite
		if err := xml.Unmarshal(data, &suite); err != nil {
			continue
		}
		suites = append(suites, suite)
	}
	return suites, nil
}

// Summary aggregates test counts across all report files.
func (r *SurefireReader) Summary() (TestSummary, error) {
	suites, err := r.parseSuites()
	if err != nil {
		return TestSummary{}, err
	}

	var sum TestSummary
	for _, s := range suites {
		sum.Total += s.Tests
		sum.Failures += s.Failures
		sum.Errors += s.Errors
		sum.Skipped += s.Skipped
	}
	sum.Passed = sum.Total - (sum.Failures + sum.Errors + sum.Skipped)
	return sum, nil
}

// List returns all failing and erroring test cases in report order.
func (r *SurefireReader) List() ([]TestFailure, error) {
	suites, err := r.parseSuites()
	if err != nil {
		return nil, err
	}

	var failures []TestFailure
	for _, suite := range suites {
		for _, tc := range suite.TestCases {
			className := tc.ClassName
			if className == "" {
				className = suite.Name
			}
			if tc.Failure != nil {
				failures = append(failures, newFailure(className, tc.Name, "failure", tc.Failure))
			}
			if tc.Error != nil {
				failures = append(failures, newFailure(className, tc.Name, "error", tc.Error))
			}
		}
	}
	return failures, nil
}

func newFailure(class, method, kind string, f *surefireFail) TestFailure {
	return TestFailure{
		TestClass:  class,
		TestMethod: method,
		Kind:       kind,
		Message:    f.Message,
		Detail:     strings.TrimSpace(f.Body),
	}
}
