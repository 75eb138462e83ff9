package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show pass history from the ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		ledger, err := openLedger()
		if err != nil {
			return err
		}
		defer ledger.Close()

		runID, _ := cmd.Flags().GetString("run")
		if runID == "" {
			if runID, err = ledger.LatestRunID(); err != nil {
				return err
			}
			if runID == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
				return nil
			}
		}

		limit, _ := cmd.Flags().GetInt("limit")
		records, err := ledger.ListPasses(runID, limit)
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		if format == "json" {
			data, _ := json.MarshalIndent(records, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		if len(records) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No passes recorded for %s.\n", runID)
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "run %s\n", runID)
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "PASS\tWORKFLOW\tOUTCOME\tTARGET\tDETAIL")
		for _, r := range records {
			detail := r.Detail
			if detail == "" {
				detail = r.CommitMessage
			}
			if len(detail) > 50 {
				detail = detail[:47] + "..."
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.Pass, r.Workflow, r.Outcome, r.Target, detail)
		}
		tw.Flush()
		return nil
	},
}

func init() {
	historyCmd.Flags().String("run", "", "Run ID to show (default: most recent)")
	historyCmd.Flags().Int("limit", 0, "Maximum passes to show (0 = all)")
	historyCmd.Flags().String("format", "text", "Output format: text or json")
}
