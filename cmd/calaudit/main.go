package main

import (
	"os"

	"github.com/spf13/cobra"

	appLog "calaudit/internal/log"
)

const version = "0.1.0"

func main() {
	defer appLog.Sync()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. A fresh tree per call keeps flag state
// out of package globals.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "calaudit",
		Short:        "Audit calendar exports for meeting load",
		Long:         "calaudit reads Outlook CSV, Google Calendar CSV and ICS exports and reports where meeting time goes.",
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "calaudit.yaml", "Path to config file")
	root.PersistentFlags().String("log-level", "", "Log level (DEBUG, INFO, WARN, ERROR); overrides config")

	root.AddCommand(newAuditCmd(), newServeCmd())
	return root
}
