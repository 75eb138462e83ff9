package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/mstanton/mend/internal/report"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print test and coverage results from existing reports",
	Long: `Reads the Surefire and JaCoCo reports already on disk without running
the build. Useful for inspecting the last build's results.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadValidConfig()
		if err != nil {
			return err
		}

		tests := report.NewSurefireReader(reportPath(cfg, cfg.Reports.SurefireDir))
		coverage := report.NewJacocoReader(reportPath(cfg, cfg.Reports.JacocoReport))

		testSum, err := tests.Summary()
		if err != nil {
			return err
		}
		covSum, err := coverage.Summary()
		if err != nil {
			return err
		}
		failures, err := tests.List()
		if err != nil {
			return err
		}
		gaps, err := coverage.List()
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		if format == "json" {
			payload := struct {
				Dashboard report.Dashboard     `json:"dashboard"`
				Failures  []report.TestFailure `json:"failures"`
				Gaps      []report.CoverageGap `json:"gaps"`
			}{report.Dashboard{Tests: testSum, Coverage: covSum}, failures, gaps}
			data, _ := json.MarshalIndent(payload, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "tests: %d total, %d passed, %d failures, %d errors, %d skipped\n",
			testSum.Total, testSum.Passed, testSum.Failures, testSum.Errors, testSum.Skipped)
		fmt.Fprintf(w, "coverage: %.1f%% line, %.1f%% branch, %.1f%% method\n",
			covSum.LinePercent, covSum.BranchPercent, covSum.MethodPercent)

		if len(failures) > 0 {
			fmt.Fprintln(w)
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TEST\tKIND\tMESSAGE")
			for _, f := range failures {
				msg := f.Message
				if len(msg) > 60 {
					msg = msg[:57] + "..."
				}
				fmt.Fprintf(tw, "%s#%s\t%s\t%s\n", f.TestClass, f.TestMethod, f.Kind, msg)
			}
			tw.Flush()
		}
		if len(gaps) > 0 {
			fmt.Fprintln(w)
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CLASS\tUNCOVERED LINES")
			for _, g := range gaps {
				fmt.Fprintf(tw, "%s\t%s\n", g.SourceClass, joinLines(g.UncoveredLines, 12))
			}
			tw.Flush()
		}
		return nil
	},
}

// joinLines renders up to max line numbers, eliding the rest.
func joinLines(lines []int, max int) string {
	var parts []string
	for i, n := range lines {
		if i == max {
			parts = append(parts, fmt.Sprintf("... (%d more)", len(lines)-max))
			break
		}
		parts = append(parts, fmt.Sprintf("%d", n))
	}
	return strings.Join(parts, ",")
}

func init() {
	reportCmd.Flags().String("format", "text", "Output format: text or json")
}
