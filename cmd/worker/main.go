package main

import (
	"context"
	"os/signal"
	"syscall"

	"traffic-worker-go/internal/api"
	"traffic-worker-go/internal/config"
	"traffic-worker-go/internal/logging"
	"traffic-worker-go/internal/services"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg)
	logger := logging.NewServiceLogger(cfg, "main")

	logger.Info().
		Str("version", cfg.Version).
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Str("perception", cfg.PerceptionGRPCURL).
		Bool("nats_enabled", cfg.NatsEnabled).
		Msg("Starting traffic worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := services.NewServiceContainer(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create services")
	}
	container.Start(ctx)

	server := api.NewServer(cfg, api.Deps{
		Cameras:  container.CameraManager,
		Videos:   container.Videos,
		Store:    container.Store,
		Stats:    container.LiveFeed,
		History:  container.History,
		LiveFeed: container.Hub.ServeWS,
		Metrics:  container.Metrics.Handler(),
	})

	go func() {
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("API server failed")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("API server forced to shutdown")
	}
	if err := container.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Services did not shut down cleanly")
	} else {
		logger.Info().Msg("Traffic worker stopped")
	}
}
