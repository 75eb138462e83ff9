package report

import (
	"encoding/xml"
	"fmt"
	"os"
	"sort"
	"strings"
)

// JacocoReader parses a JaCoCo XML report.
type JacocoReader struct {
	path string
}

// NewJacocoReader creates a reader for the given jacoco.xml path.
func NewJacocoReader(path string) *JacocoReader {
	return &JacocoReader{path: path}
}

type jacocoReport struct {
	Counters []jacocoCounter `xml:"counter"`
	Packages []jacocoPackage `xml:"package"`
}

type jacocoCounter struct {
	Type    string `xml:"type,attr"`
	Missed  int    `xml:"missed,attr"`
	Covered int    `xml:"covered,attr"`
}

type jacocoPackage struct {
	Name    string        `xml:"name,attr"`
	Classes []jacocoClass `xml:"class"`
}

type jacocoClass struct {
	Name  string       `xml:"name,attr"`
	Lines []jacocoLine `xml:"sourcefile>line"`
}

type jacocoLine struct {
	Nr int `xml:"nr,attr"`
	Mi int `xml:"mi,attr"`
}

func (r *JacocoReader) parse() (*jacocoReport, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("jacoco report %s: %w", r.path, err)
	}
	var rep jacocoReport
	if err := xml.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("parse jacoco report: %w", err)
	}
	return &rep, nil
}

// Summary returns project-level coverage percentages from the report's
// top-level counters. A counter with no lines at all counts as 100%.
func (r *JacocoReader) Summary() (CoverageSummary, error) {
	rep, err := r.parse()
	if err != nil {
		return CoverageSummary{}, err
	}

	sum := CoverageSummary{LinePercent: 100.0, BranchPercent: 100.0, MethodPercent: 100.0}
	for _, c := range rep.Counters {
		pct := percent(c.Covered, c.Missed)
		switch c.Type {
		case "LINE":
			sum.LinePercent = pct
		case "BRANCH":
			sum.BranchPercent = pct
		case "METHOD":
			sum.MethodPercent = pct
		}
	}
	return sum, nil
}

// List returns one CoverageGap per class with missed instructions, in report
// order. Uncovered line numbers are deduplicated and sorted ascending.
func (r *JacocoReader) List() ([]CoverageGap, error) {
	rep, err := r.parse()
	if err != nil {
		return nil, err
	}

	var gaps []CoverageGap
	for _, pkg := range rep.Packages {
		for _, cls := range pkg.Classes {
			seen := make(map[int]bool)
			var lines []int
			for _, ln := range cls.Lines {
				if ln.Mi > 0 && ln.Nr > 0 && !seen[ln.Nr] {
					seen[ln.Nr] = true
					lines = append(lines, ln.Nr)
				}
			}
			if len(lines) == 0 {
				continue
			}
			sort.Ints(lines)
			gaps = append(gaps, CoverageGap{
				SourceClass:    classFqn(pkg.Name, cls.Name),
				UncoveredLines: lines,
			})
		}
	}
	return gaps, nil
}

// classFqn builds a dotted fully-qualified class name from JaCoCo's
// slash-separated package and class attributes.
func classFqn(pkg, class string) string {
	simple := class
	if i := strings.LastIndex(class, "/"); i >= 0 {
		simple = class[i+1:]
	}
	if pkg == "" {
		return simple
	}
	return strings.ReplaceAll(pkg, "/", ".") + "." + simple
}

func percent(covered, missed int) float64 {
	total := covered + missed
	if total == 0 {
		return 100.0
	}
	return float64(covered) / float64(total) * 100.0
}
