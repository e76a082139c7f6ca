// Package main is the entry point of the mediation placement service
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/thenexusengine/tne_mediation/internal/config"
	"github.com/thenexusengine/tne_mediation/pkg/logger"
)

func main() {
	cfg := ParseConfig()

	logger.Init(logger.DefaultConfig())
	log := logger.Log

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	server, err := NewServer(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
}
