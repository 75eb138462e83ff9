package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Run one state probe and print the snapshot",
	Long: `Runs the build harness once, reads the test and coverage reports, and
prints the resulting snapshot without changing anything.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadValidConfig()
		if err != nil {
			return err
		}

		snap, err := newProbe(cfg).Probe(cmd.Context())
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		if format == "json" {
			data, _ := json.MarshalIndent(snap, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		w := cmd.OutOrStdout()
		if snap.Build.OK {
			fmt.Fprintf(w, "build: OK (%s)\n", snap.Build.Duration.Round(time.Second))
		} else {
			fmt.Fprintf(w, "build: FAILED (%s)\n", snap.Build.Duration.Round(time.Second))
		}
		for _, ce := range snap.Build.CompileErrors {
			fmt.Fprintf(w, "  compile error %s:[%d,%d] %s\n", ce.File, ce.Line, ce.Column, ce.Message)
		}
		if snap.Dashboard == nil {
			return nil
		}

		t := snap.Dashboard.Tests
		fmt.Fprintf(w, "tests: %d total, %d passed, %d failures, %d errors, %d skipped\n",
			t.Total, t.Passed, t.Failures, t.Errors, t.Skipped)
		fmt.Fprintf(w, "coverage: %.1f%% line, %.1f%% branch, %.1f%% method\n",
			snap.Dashboard.Coverage.LinePercent,
			snap.Dashboard.Coverage.BranchPercent,
			snap.Dashboard.Coverage.MethodPercent)

		for _, f := range snap.Failures {
			fmt.Fprintf(w, "  FAIL %s#%s: %s\n", f.TestClass, f.TestMethod, f.Message)
		}
		for _, g := range snap.Gaps {
			fmt.Fprintf(w, "  GAP  %s: %d uncovered lines\n", g.SourceClass, len(g.UncoveredLines))
		}
		return nil
	},
}

func init() {
	probeCmd.Flags().String("format", "text", "Output format: text or json")
}
