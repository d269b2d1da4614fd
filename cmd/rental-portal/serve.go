package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/bissquit/rental-portal/internal/app"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	var migrateFirst bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and metrics servers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, migrateFirst)
		},
	}

	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func runServe(cmd *cobra.Command, migrateFirst bool) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if migrateFirst {
		if err := withMigrator(cfg.Database.URL, migrateUp); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		return oops.Code("STARTUP_FAILED").Wrap(err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runErr := make(chan error, 1)
	go func() {
		runErr <- application.Run()
	}()

	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err = <-runErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	return errors.Join(err, application.Shutdown(shutdownCtx))
}
