package cli

import (
	"fmt"

	"github.com/mstanton/mend/internal/triage"
	"github.com/spf13/cobra"
)

var triageCmd = &cobra.Command{
	Use:   "triage",
	Short: "Probe once and print the workflow the loop would run next",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadValidConfig()
		if err != nil {
			return err
		}

		snap, err := newProbe(cfg).Probe(cmd.Context())
		if err != nil {
			return err
		}

		wf := triage.Decide(snap)
		fmt.Fprintln(cmd.OutOrStdout(), wf)

		if wf == triage.None {
			fmt.Fprintln(cmd.OutOrStdout(), "nothing to remediate; a run would publish")
		}
		return nil
	},
}
