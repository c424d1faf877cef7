/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/transportmanager/apiserver/config"
	"github.com/transportmanager/apiserver/internal/server"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Starts the transport backend server",
	Long: `Starts the transport backend server. Usage:

	transport server
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		log := newLogger(cfg)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv, err := server.New(ctx, cfg, log)
		if err != nil {
			log.Error(ctx, "server.start_failed", err)
			return err
		}
		if err := srv.Start(ctx); err != nil {
			log.Error(ctx, "server.error", err)
			return err
		}
		log.Info(ctx, "server.stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
