package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xavierca1/ligue-reviews/internal/config"
	"github.com/xavierca1/ligue-reviews/internal/infra/database"
)

func main() {
	var databaseURL string

	rootCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the ligue-reviews database schema",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if databaseURL != "" {
				return nil
			}
			cfg, err := config.Load("")
			if err != nil {
				return err
			}
			databaseURL = cfg.Database.URL
			if databaseURL == "" {
				return errors.New("database url is required (--database-url or DATABASE_URL)")
			}
			return nil
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "Postgres connection URL (defaults to DATABASE_URL)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := database.RunMigrations(databaseURL); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := database.RollbackMigrations(databaseURL); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "rolled back one migration")
			return nil
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, dirty, err := database.MigrationVersion(databaseURL)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", v, dirty)
			return nil
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
