package main

import (
	"log/slog"
	"os"

	"github.com/bissquit/rental-portal/internal/app"
	"github.com/bissquit/rental-portal/internal/config"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the rental portal CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rental-portal",
		Short: "Rental portal API server",
		Long: `rental-portal serves the property rental marketplace API:
account signup and login with session tokens, property listings
and booking requests, backed by PostgreSQL.`,
		SilenceUsage: true,
	}

	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// loadConfig reads the configuration for cmd and installs the process logger.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}

	logger := app.NewLogger(cfg.Log, os.Stdout)
	slog.SetDefault(logger)
	return cfg, logger, nil
}
