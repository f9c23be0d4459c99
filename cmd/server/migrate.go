package main

import (
	"github.com/Stewz00/wordwave-auth/internal/config"
	"github.com/Stewz00/wordwave-auth/internal/database"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			url, err := config.DatabaseURL()
			if err != nil {
				return oops.Code("CONFIG_INVALID").Wrap(err)
			}
			if err := migrateUp(url); err != nil {
				return err
			}
			cmd.Println("Migrations completed successfully")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back every migration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(m *database.Migrator) error {
				if err := m.Down(); err != nil {
					return err
				}
				cmd.Println("Migrations rolled back")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(m *database.Migrator) error {
				v, dirty, err := m.Version()
				if err != nil {
					return err
				}
				cmd.Printf("version %d (dirty: %t)\n", v, dirty)
				return nil
			})
		},
	})

	return cmd
}

func migrateUp(dbURL string) error {
	m, err := database.NewMigrator(dbURL)
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up()
}

func withMigrator(fn func(*database.Migrator) error) error {
	url, err := config.DatabaseURL()
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}
	m, err := database.NewMigrator(url)
	if err != nil {
		return err
	}
	defer m.Close()
	return fn(m)
}
