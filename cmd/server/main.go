package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/otadrift/otadrift/internal/config"
	"github.com/otadrift/otadrift/internal/config/firebase"
	"github.com/otadrift/otadrift/internal/logging"
	"github.com/otadrift/otadrift/internal/repository"
	"github.com/otadrift/otadrift/internal/server"
	"github.com/otadrift/otadrift/internal/telemetry"
	"github.com/otadrift/otadrift/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "otadrift",
		Short:        "Over-the-air bundle update server",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd(), migrateCmd(), versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the update server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			logger := logging.GetGlobalLogger()
			defer logger.Close()

			logger.Info("Starting server in %s mode (%s)", cfg.Environment, version.GetVersionString())

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			shutdownTracing, err := telemetry.Init(ctx, "otadrift", cfg.OTLPEndpoint)
			if err != nil {
				return fmt.Errorf("initializing tracing: %w", err)
			}

			if needsFirebase(cfg) {
				if err := firebase.InitializeFirebase(ctx, cfg.FirebaseCredentialsFile, cfg.FirebaseStorageBucket); err != nil {
					return fmt.Errorf("initializing firebase: %w", err)
				}
			}

			srv, err := server.NewServer(ctx, cfg)
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			logger.Info("Shutting down")
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("Graceful shutdown failed: %v", err)
			}
			if err := shutdownTracing(shutdownCtx); err != nil {
				logger.Warn("Tracing shutdown failed: %v", err)
			}
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations (postgres store only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			logger := logging.GetGlobalLogger()
			defer logger.Close()

			if cfg.BundleStore != config.StorePostgres {
				return fmt.Errorf("migrations only apply to the postgres store, configured store is %q", cfg.BundleStore)
			}

			repo, err := repository.NewPostgresRepository(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer repo.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			if err := repo.RunMigrations(ctx); err != nil {
				return fmt.Errorf("running migrations: %w", err)
			}

			logger.Info("Migrations applied")
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.Info())
		},
	}
}

// setup loads configuration and initializes the global logger
func setup() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if err := logging.InitLogger(&logging.Config{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     7,
	}); err != nil {
		return nil, err
	}

	return cfg, nil
}

// needsFirebase reports whether any configured backend requires the Firebase app
func needsFirebase(cfg *config.Config) bool {
	return cfg.BundleStore == config.StoreFirestore || cfg.FileStorage == config.StorageFirebase
}
