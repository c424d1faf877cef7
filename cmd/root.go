/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/transportmanager/apiserver/config"
	"github.com/transportmanager/apiserver/internal/logger"
)

const serviceName = "transport-apiserver"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "transport",
	Short: "Transport Manager API server",
	Long: `Transport Manager API server: user administration and authentication
backed by PostgreSQL or SQLite.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) *logger.Logger {
	return logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.LogLevel),
		Format:      cfg.LogFormat,
	})
}
