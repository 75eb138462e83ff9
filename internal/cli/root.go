package cli

import (
	"github.com/spf13/cobra"
)

var version = "dev"

func SetVersion(v string) {
	version = v
}

var (
	configFile string
	dbPath     string
)

var rootCmd = &cobra.Command{
	Use:   "mend",
	Short: "mend — autonomous build and coverage remediation",
	Long: `mend drives a managed Maven codebase to a green build, zero test
failures, and full line coverage, one committed change at a time.

Each pass probes build/test/coverage state, triages the most urgent
problem, asks the configured generator for a patch, and commits it. The
loop halts on regression, oscillation, stagnation, or the pass cap, and
publishes (push, optionally a PR) only when every condition is met.

Pass history is mirrored to a SQLite ledger in ~/.mend/ for inspection.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "f", "", "path to mend config file (default: ./mend.yaml, ~/.mend/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to the ledger database (default: ~/.mend/mend.db)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(triageCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(pmdCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}
