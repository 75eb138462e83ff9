package report

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mstanton/mend/internal/maven"
)

// PMDAnalyzer runs static analysis and parses the resulting pmd.xml report.
// The analysis command's exit code is ignored — pmd:check exits non-zero on
// violations; the report is the source of truth either way.
type PMDAnalyzer struct {
	cmd        maven.CommandRunner
	dir        string
	command    string
	reportPath string
	timeout    time.Duration
}

// NewPMDAnalyzer creates an analyzer for the given project directory.
func NewPMDAnalyzer(cmd maven.CommandRunner, dir, command, reportPath string, timeout time.Duration) *PMDAnalyzer {
	if command == "" {
		command = "mvn pmd:check"
	}
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &PMDAnalyzer{cmd: cmd, dir: dir, command: command, reportPath: reportPath, timeout: timeout}
}

type pmdReport struct {
	Files []pmdFile `xml:"file"`
}

type pmdFile struct {
	Name       string         `xml:"name,attr"`
	Violations []pmdViolation `xml:"violation"`
}

type pmdViolation struct {
	BeginLine int    `xml:"beginline,attr"`
	Rule      string `xml:"rule,attr"`
	Priority  int    `xml:"priority,attr"`
	Body      string `xml:",chardata"`
}

// Analyze runs the analysis command and returns the parsed violations in
// report order.
func (a *PMDAnalyzer) Analyze(ctx context.Context) ([]Violation, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if _, _, _, err := a.cmd.Run(ctx, a.dir, a.command); err != nil {
		return nil, fmt.Errorf("run analysis %q: %w", a.command, err)
	}
	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("analysis timed out after %s", a.timeout)
	}

	return a.Parse()
}

// Parse reads an existing pmd.xml report without re-running analysis.
func (a *PMDAnalyzer) Parse() ([]Violation, error) {
	data, err := os.ReadFile(a.reportPath)
	if err != nil {
		return nil, fmt.Errorf("pmd report %s: %w", a.reportPath, err)
	}

	var rep pmdReport
	if err := xml.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("parse pmd report: %w", err)
	}

	var violations []Violation
	for _, f := range rep.Files {
		for _, v := range f.Violations {
			violations = append(violations, Violation{
				File:        f.Name,
				Line:        v.BeginLine,
				Rule:        v.Rule,
				Priority:    v.Priority,
				Description: strings.TrimSpace(v.Body),
			})
		}
	}
	return violations, nil
}
