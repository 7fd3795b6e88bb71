package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	envelopeUseCase "github.com/allisson/msc/internal/envelope/usecase"
)

// RunPurgeReplayNonces deletes remembered request ids whose replay window has passed.
// Only useful with REPLAY_STORE=database; the memory store lives and dies with the server.
func RunPurgeReplayNonces(
	ctx context.Context,
	replayUseCase envelopeUseCase.ReplayUseCase,
	logger *slog.Logger,
	w io.Writer,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	logger.Info("purging expired replay nonces")

	count, err := replayUseCase.Purge(ctx)
	if err != nil {
		return fmt.Errorf("failed to purge replay nonces: %w", err)
	}

	if format == "json" {
		if err := writeJSON(w, map[string]any{"count": count}); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintf(w, "Successfully purged %d expired replay nonce(s)\n", count)
	}

	logger.Info("purge completed", slog.Int64("count", count))
	return nil
}

// runReplayPurger calls Purge every interval until ctx is done. Failures are logged and
// retried on the next tick.
func runReplayPurger(
	ctx context.Context,
	replayUseCase envelopeUseCase.ReplayUseCase,
	interval time.Duration,
	logger *slog.Logger,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := replayUseCase.Purge(ctx)
			if err != nil {
				logger.Error("failed to purge replay nonces", slog.Any("error", err))
				continue
			}
			if count > 0 {
				logger.Debug("purged replay nonces", slog.Int64("count", count))
			}
		}
	}
}
