package cli

import (
	"github.com/mstanton/mend/internal/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-only dashboard API over the ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")
		if port == 0 {
			// Port comes from config when available; the server works without
			// a config file otherwise.
			if cfg, err := loadConfig(); err == nil {
				port = cfg.Web.Port
			} else {
				port = 8713
			}
		}

		ledger, err := openLedger()
		if err != nil {
			return err
		}
		defer ledger.Close()

		return web.NewServer(ledger, port).Start()
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "Port to listen on (default: config web.port)")
}
