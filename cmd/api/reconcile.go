package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run one SLA reconciliation sweep and exit",
	Long:  "Re-evaluates every open ticket once. Intended for an external scheduler such as cron.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApplication(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.sla.ReconcileNow(cmd.Context())
		if err != nil {
			return err
		}
		a.logger.Info("sla sweep finished",
			zap.Int("scanned", result.Scanned),
			zap.Int("updated", result.Updated))
		fmt.Fprintf(cmd.OutOrStdout(), "scanned=%d updated=%d\n", result.Scanned, result.Updated)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}
