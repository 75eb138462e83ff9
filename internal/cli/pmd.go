package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/mstanton/mend/internal/maven"
	"github.com/mstanton/mend/internal/report"
	"github.com/spf13/cobra"
)

var pmdCmd = &cobra.Command{
	Use:   "pmd",
	Short: "Run static analysis and print the violations",
	Long: `Runs the configured analysis command (mvn pmd:check by default) and
prints the violations from the resulting report. The command's exit code
is ignored; the report is the source of truth. Violations are advisory:
they never drive the remediation loop.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadValidConfig()
		if err != nil {
			return err
		}

		analyzer := report.NewPMDAnalyzer(&maven.ExecRunner{}, cfg.Project.Dir,
			cfg.Build.AnalysisCommand, reportPath(cfg, cfg.Reports.PMDReport),
			cfg.BuildTimeout(10*time.Minute))

		var violations []report.Violation
		if parseOnly, _ := cmd.Flags().GetBool("parse-only"); parseOnly {
			violations, err = analyzer.Parse()
		} else {
			violations, err = analyzer.Analyze(cmd.Context())
		}
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		if format == "json" {
			data, _ := json.MarshalIndent(violations, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		if len(violations) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No violations.")
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "FILE\tLINE\tPRIO\tRULE\tDESCRIPTION")
		for _, v := range violations {
			desc := v.Description
			if len(desc) > 60 {
				desc = desc[:57] + "..."
			}
			fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", v.File, v.Line, v.Priority, v.Rule, desc)
		}
		tw.Flush()
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d violation(s)\n", len(violations))
		return nil
	},
}

func init() {
	pmdCmd.Flags().Bool("parse-only", false, "Parse the existing report without re-running analysis")
	pmdCmd.Flags().String("format", "text", "Output format: text or json")
}
