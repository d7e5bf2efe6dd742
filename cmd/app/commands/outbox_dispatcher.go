package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/allisson/orders/internal/app"
	"github.com/allisson/orders/internal/config"
)

// RunOutboxDispatcher starts the outbox polling loop. The dispatcher claims
// pending events with row locks, so multiple instances can run concurrently
// without double-delivery. Blocks until receiving SIGINT/SIGTERM.
func RunOutboxDispatcher(ctx context.Context) error {
	cfg := config.Load()

	container := app.NewContainer(cfg)

	logger := container.Logger()
	logger.Info("starting outbox dispatcher",
		slog.Duration("interval", cfg.OutboxInterval),
		slog.Int("batch_size", cfg.OutboxBatchSize),
	)

	defer closeContainer(container, logger)

	outboxUseCase, err := container.OutboxUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize outbox use case: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := outboxUseCase.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("outbox dispatcher error: %w", err)
	}

	logger.Info("outbox dispatcher stopped")
	return nil
}
