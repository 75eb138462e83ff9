package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/mstanton/mend/internal/analytics"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate run statistics from the ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		ledger, err := openLedger()
		if err != nil {
			return err
		}
		defer ledger.Close()

		since, _ := cmd.Flags().GetString("since")

		runs, err := analytics.QueryRunSummaries(ledger, since)
		if err != nil {
			return err
		}
		workflows, err := analytics.QueryWorkflowStats(ledger, since)
		if err != nil {
			return err
		}
		durations, err := analytics.QueryPassDurations(ledger, since)
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		if format == "json" {
			payload := struct {
				Runs      []analytics.RunSummary    `json:"runs"`
				Workflows []analytics.WorkflowStats `json:"workflows"`
				Durations []analytics.PassDuration  `json:"pass_durations"`
			}{runs, workflows, durations}
			data, _ := json.MarshalIndent(payload, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		w := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(w, "No runs recorded.")
			return nil
		}

		fmt.Fprintln(w, "Runs:")
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "RUN\tPASSES\tAPPLIED\tFAILED\tMINUTES\tFINAL")
		for _, r := range runs {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.1f\t%s\n", r.RunID, r.Passes, r.Applied, r.Failed, r.Minutes, r.Final)
		}
		tw.Flush()

		if len(workflows) > 0 {
			fmt.Fprintln(w, "\nWorkflows:")
			tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "WORKFLOW\tTOTAL\tAPPLIED%\tFAILED%")
			for _, ws := range workflows {
				fmt.Fprintf(tw, "%s\t%d\t%.1f\t%.1f\n", ws.Workflow, ws.Total, ws.AppliedPct, ws.FailedPct)
			}
			tw.Flush()
		}

		if len(durations) > 0 {
			fmt.Fprintln(w, "\nPass durations (minutes):")
			tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tCOUNT\tAVG\tP50\tP95")
			for _, pd := range durations {
				fmt.Fprintf(tw, "%s\t%d\t%.1f\t%.1f\t%.1f\n", pd.RunID, pd.Count, pd.Avg, pd.P50, pd.P95)
			}
			tw.Flush()
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().String("since", "", "Only include data at or after this timestamp (e.g. 2026-08-01)")
	statsCmd.Flags().String("format", "text", "Output format: text or json")
}
