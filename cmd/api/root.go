package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "helpdesk-sla",
	Short: "Helpdesk ticket lifecycle and SLA engine",
	Long: `helpdesk-sla serves the ticket API, keeps cached SLA statuses fresh
and provides maintenance commands for migrations and development tokens.
Configuration is read from the environment and an optional .env file.`,
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
