/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/transportmanager/apiserver/config"
	"github.com/transportmanager/apiserver/internal/db"
)

// migrateCmd represents the migrate command.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all up migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrations(cmd, db.Up)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert all migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrations(cmd, db.Down)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
}

func runMigrations(cmd *cobra.Command, dir db.Direction) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	conn, err := db.Open(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("open database failed: %w", err)
	}
	defer conn.Close()

	return db.Migrate(conn, cfg.Database.Driver, dir)
}
