package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/allisson/msc/internal/app"
	"github.com/allisson/msc/internal/config"
)

const shutdownTimeout = 30 * time.Second

// RunServer starts the API server, the optional metrics server and the background
// cleanup loops for sessions and replay entries. Blocks until receiving SIGINT/SIGTERM
// or until any of them fails, then shuts everything down.
func RunServer(ctx context.Context, version string) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	gin.SetMode(cfg.GetGinMode())

	container := app.NewContainer(cfg)

	logger := container.Logger()
	logger.Info("starting server",
		slog.String("version", version),
		slog.String("aead_algorithm", cfg.AEADAlgorithm),
		slog.String("replay_store", cfg.ReplayStore),
	)

	defer closeContainer(container, logger)

	// Initializes every dependency, master key derivation included.
	server, err := container.HTTPServer()
	if err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	metricsServer, err := container.MetricsServer()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics server: %w", err)
	}

	registry, err := container.SessionRegistry()
	if err != nil {
		return fmt.Errorf("failed to initialize session registry: %w", err)
	}

	replayUseCase, err := container.ReplayUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize replay use case: %w", err)
	}

	masterKey, err := container.MasterKey()
	if err != nil {
		return fmt.Errorf("failed to initialize master key: %w", err)
	}
	logger.Info("master key ready", slog.String("fingerprint", masterKey.Fingerprint()))

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Start(gctx); err != nil {
			return fmt.Errorf("api server error: %w", err)
		}
		return nil
	})

	if metricsServer != nil {
		g.Go(func() error {
			if err := metricsServer.Start(gctx); err != nil {
				return fmt.Errorf("metrics server error: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		registry.Run(gctx, cfg.SessionCleanupInterval)
		return nil
	})

	g.Go(func() error {
		runReplayPurger(gctx, replayUseCase, cfg.ReplayPurgeInterval, logger)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		var shutdownErrors []error

		if err := server.Shutdown(shutdownCtx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("api server shutdown: %w", err))
		}

		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
			}
		}

		return errors.Join(shutdownErrors...)
	})

	return g.Wait()
}
