package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mstanton/mend/internal/loop"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the remediation loop to termination",
	Long: `Runs remediation passes until the project builds cleanly, every test
passes, and line coverage reaches 100%, then pushes the accumulated
commits. The loop halts early if it stops making progress.

Interrupting the run (Ctrl-C) finishes the pass in flight and stops at
the next pass boundary, so no commit is left half-made.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadValidConfig()
		if err != nil {
			return err
		}

		ledger, err := openLedger()
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: ledger unavailable, run will not be recorded: %v\n", err)
			ledger = nil
		} else {
			defer ledger.Close()
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		engine := newEngine(cfg, ledger, cmd.OutOrStdout())
		fmt.Fprintf(cmd.OutOrStdout(), "mend run %s on %s\n", engine.RunID(), cfg.Project.Dir)

		term := engine.Run(ctx)

		format, _ := cmd.Flags().GetString("format")
		if format == "json" {
			data, _ := json.MarshalIndent(term, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
		} else {
			printTermination(cmd, term)
		}

		if term.State != loop.Success {
			return fmt.Errorf("run ended %s: %s", term.State, term.Reason)
		}
		return nil
	},
}

func printTermination(cmd *cobra.Command, term *loop.Termination) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "\nstate:     %s\n", term.State)
	fmt.Fprintf(w, "published: %v\n", term.Published)
	fmt.Fprintf(w, "passes:    %d\n", term.Passes)
	if term.Reason != "" {
		fmt.Fprintf(w, "reason:    %s\n", term.Reason)
	}
	if term.PullRequest != "" {
		fmt.Fprintf(w, "pr:        %s\n", term.PullRequest)
	}
	if term.Diagnostic != "" {
		fmt.Fprintf(w, "\n%s\n", term.Diagnostic)
	}
}

func init() {
	runCmd.Flags().String("format", "text", "Output format for the final report: text or json")
}
