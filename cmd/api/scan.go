package main

import (
	"context"
	"encoding/json"
	"os/signal"
	"syscall"
	"taskManager/internal/app"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one notification scan cycle",
	Long:  "Runs a single notification scan against the configured store, publishes the events and prints them as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a := app.New(cfg)
		if err := a.Init(ctx); err != nil {
			return err
		}
		defer a.Shutdown()

		events := a.Worker().ScanOnce(ctx)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(events)
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
