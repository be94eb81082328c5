package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dtroode/securemail-server/internal/config"
	"github.com/dtroode/securemail-server/internal/envelope"
	"github.com/dtroode/securemail-server/internal/logger"
	"github.com/dtroode/securemail-server/internal/repository/postgres"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		log.Fatalf("securemail: %v", err)
	}
}

func newRootCommand() *cobra.Command {
	var envFiles []string

	loadConfig := func() (*config.Config, *logger.Logger, error) {
		cfg, err := config.NewConfig(envFiles...)
		if err != nil {
			return nil, nil, err
		}
		return cfg, logger.New(cfg.LogLevel), nil
	}

	root := &cobra.Command{
		Use:           "securemail",
		Short:         "securemail server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "env files to load before reading the environment")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "run the gRPC server",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, lg, err := loadConfig()
				if err != nil {
					return err
				}
				logAppVersion(lg)
				return serve(cmd.Context(), cfg, lg)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "apply database migrations and exit",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, lg, err := loadConfig()
				if err != nil {
					return err
				}
				conn, err := postgres.NewConnection(cmd.Context(), cfg.Database.DSN)
				if err != nil {
					return err
				}
				lg.Info("migrations applied")
				return conn.Close()
			},
		},
		&cobra.Command{
			Use:   "keygen",
			Short: "print a new secret key and its key id",
			RunE: func(cmd *cobra.Command, _ []string) error {
				key, err := envelope.GenerateKey()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "key:    %s\nkey id: %s\n", key, envelope.Fingerprint(key)[:8])
				return nil
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "print build information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "Build version: %s\nBuild date: %s\nBuild commit: %s\n",
					buildVersion, buildDate, buildCommit)
			},
		},
	)

	return root
}

func logAppVersion(lg *logger.Logger) {
	lg.Info("securemail server",
		"version", buildVersion,
		"date", buildDate,
		"commit", buildCommit)
}
