package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/solatis/smartplaylist/internal/core/api"
	"github.com/solatis/smartplaylist/internal/core/auth"
	"github.com/solatis/smartplaylist/internal/core/config"
	"github.com/solatis/smartplaylist/internal/core/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gRPC playlist API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "0.0.0.0", "gRPC server host")
	serveCmd.Flags().Int("port", 50061, "gRPC server port")
	serveCmd.Flags().Duration("refresh-interval", 0, "refresh every stored playlist on this interval (0 disables)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env, err := setup(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	cfg := env.cfg
	if cmd.Flags().Changed("host") {
		cfg.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		cfg.Port, _ = cmd.Flags().GetInt("port")
	}
	refreshInterval, _ := cmd.Flags().GetDuration("refresh-interval")

	store, err := env.openStore()
	if err != nil {
		return err
	}

	secrets, err := config.HMACSecrets()
	if err != nil {
		return fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	if len(secrets) == 0 {
		return fmt.Errorf("no HMAC secrets configured (set SP_HMAC_SECRET environment variable)")
	}

	authenticator := auth.NewAuthenticator(secrets, store.Queries(), env.logger)

	service, err := api.NewPlaylistService(store, cfg, env.logger)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	grpcServer, err := server.NewGRPCServer(cfg, api.NewGRPCHandler(service), authenticator, env.logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	if refreshInterval > 0 {
		go refreshLoop(ctx, service, refreshInterval, env.logger)
	}

	env.logger.Info().
		Str("version", Version).
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Msg("starting SmartPlaylist API")

	errChan := make(chan error, 1)
	go func() {
		errChan <- grpcServer.Start(ctx)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		env.logger.Info().Msg("shutting down gracefully")
		return grpcServer.Shutdown(context.Background())
	}
}

// refreshLoop runs RefreshAll on every tick until ctx ends.
// A failed pass is retried on the next tick.
func refreshLoop(ctx context.Context, service *api.PlaylistService, interval time.Duration, logger zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := service.RefreshAll(ctx); err != nil && ctx.Err() == nil {
				logger.Error().Err(err).Msg("scheduled refresh failed")
			}
		}
	}
}
