package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/heimdex/detectq/internal/api"
	"github.com/heimdex/detectq/internal/config"
	"github.com/heimdex/detectq/internal/logging"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP query service",
		RunE:  runServe,
	}
	cmd.Flags().Int("port", 0, "port to listen on (overrides "+config.EnvPort+")")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	startTime := time.Now()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	port := cfg.Port()
	if p, _ := cmd.Flags().GetInt("port"); p != 0 {
		port = p
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting detectq", "version", config.Version, "port", port)

	a, err := newApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	server := api.NewServer(api.ServerConfig{
		Port:           port,
		Resolver:       a.resolver,
		Prober:         a.db,
		AllowedOrigins: cfg.AllowedOrigins(),
		Logger:         logging.WithComponent(logger, "api"),
		StartTime:      startTime,
		Version:        config.Version,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("detectq stopped")
	return nil
}
