package main

import (
	"fmt"

	"github.com/bissquit/rental-portal/internal/pkg/postgres"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// migrator is the subset of *postgres.Migrator used by the CLI.
type migrator interface {
	Up() error
	Down() error
	Version() (version uint, dirty bool, err error)
	Close() error
}

// newMigrator is replaced in tests.
var newMigrator = func(databaseURL string) (migrator, error) {
	return postgres.NewMigrator(databaseURL)
}

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(
		migrateSubcommand("up", "Apply all pending migrations", func(cmd *cobra.Command, m migrator) error {
			if err := migrateUp(m); err != nil {
				return err
			}
			cmd.Println("Migrations applied")
			return nil
		}),
		migrateSubcommand("down", "Roll back all migrations, dropping every table", func(cmd *cobra.Command, m migrator) error {
			if err := m.Down(); err != nil {
				return err
			}
			cmd.Println("Migrations rolled back")
			return nil
		}),
		migrateSubcommand("version", "Print the applied schema version", func(cmd *cobra.Command, m migrator) error {
			v, dirty, err := m.Version()
			if err != nil {
				return err
			}
			if dirty {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d (dirty)\n", v)
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d\n", v)
			return err
		}),
	)

	return cmd
}

func migrateSubcommand(use, short string, run func(*cobra.Command, migrator) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return withMigrator(cfg.Database.URL, func(m migrator) error {
				return run(cmd, m)
			})
		},
	}
}

func migrateUp(m migrator) error {
	return m.Up()
}

func withMigrator(databaseURL string, fn func(migrator) error) (err error) {
	m, err := newMigrator(databaseURL)
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "open migrator").Wrap(err)
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return fn(m)
}
