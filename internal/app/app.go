// Package app wires together the room registry and the HTTP transport.
package app

import (
	"context"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/Lesoorub/SecureChat/internal/config"
	"github.com/Lesoorub/SecureChat/internal/relay"
	transporthttp "github.com/Lesoorub/SecureChat/internal/transport/http"
)

// App is the running relay server.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	registry        *relay.Registry
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) *App {
	registry := relay.NewRegistry(relay.Options{
		SweepInterval:    cfg.SweepInterval,
		HandshakeTimeout: cfg.HandshakeTimeout,
		AuthDelay:        cfg.AuthDelay,
	}, logger)

	server := transporthttp.NewServer(registry, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		registry:        registry,
		log:             logger,
	}
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go a.registry.Run(ctx)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.registry.Close()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		// Dispose rooms first so blocked join handlers unwind and
		// Shutdown does not wait out its timeout on live sockets.
		a.registry.Close()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-serverErr
	}
}
