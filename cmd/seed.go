/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/transportmanager/apiserver/config"
	"github.com/transportmanager/apiserver/internal/db"
	"github.com/transportmanager/apiserver/internal/services"
	"github.com/transportmanager/apiserver/internal/store"
	"github.com/transportmanager/apiserver/types"
)

var (
	seedName     string
	seedEmail    string
	seedPassword string
)

// seedCmd groups data bootstrap commands.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed initial data",
}

var seedAdminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Create an active administrator",
	Long: `Creates an active administrator so a fresh database satisfies the
"at least one active admin" rule. Usage:

	transport seed admin --name "Admin" --email admin@example.com --password secret
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}

		conn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("open database failed: %w", err)
		}
		defer conn.Close()

		passwords, err := services.NewPasswordScheme(cfg.Auth.PasswordScheme)
		if err != nil {
			return err
		}
		userService := services.NewUserService(store.NewUserRepository(conn), passwords)

		user, err := userService.Create(cmd.Context(), services.CreateUserInput{
			Name:     seedName,
			Email:    seedEmail,
			Password: seedPassword,
			Role:     types.RoleAdmin,
		})
		if err != nil {
			return fmt.Errorf("seed admin failed: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "created admin %d <%s>\n", user.ID, user.Email)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.AddCommand(seedAdminCmd)

	seedAdminCmd.Flags().StringVar(&seedName, "name", "Administrator", "display name")
	seedAdminCmd.Flags().StringVar(&seedEmail, "email", "", "login email")
	seedAdminCmd.Flags().StringVar(&seedPassword, "password", "", "login password")
	_ = seedAdminCmd.MarkFlagRequired("email")
	_ = seedAdminCmd.MarkFlagRequired("password")
}
