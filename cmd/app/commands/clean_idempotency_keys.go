package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/allisson/orders/internal/app"
	"github.com/allisson/orders/internal/config"
)

// IdempotencyKeyCleaner frees idempotency keys past the retention window.
type IdempotencyKeyCleaner interface {
	ClearExpiredIdempotencyKeys(ctx context.Context) (int64, error)
}

// RunCleanIdempotencyKeys clears idempotency keys older than the configured
// retention window. Orders keep their data; only the key binding is removed,
// so the key value becomes reusable. Supports text/JSON output formats.
//
// Requirements: Database must be migrated and accessible.
func RunCleanIdempotencyKeys(ctx context.Context, format string) error {
	cfg := config.Load()

	container := app.NewContainer(cfg)

	logger := container.Logger()
	logger.Info("cleaning expired idempotency keys",
		slog.Duration("ttl", cfg.IdempotencyKeyTTL),
	)

	defer closeContainer(container, logger)

	orderUseCase, err := container.OrderUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize order use case: %w", err)
	}

	return cleanIdempotencyKeys(ctx, orderUseCase, logger, os.Stdout, format)
}

// cleanIdempotencyKeys executes the cleanup and writes the result to out.
func cleanIdempotencyKeys(
	ctx context.Context,
	cleaner IdempotencyKeyCleaner,
	logger *slog.Logger,
	out io.Writer,
	format string,
) error {
	count, err := cleaner.ClearExpiredIdempotencyKeys(ctx)
	if err != nil {
		return fmt.Errorf("failed to clean idempotency keys: %w", err)
	}

	if format == "json" {
		result := map[string]interface{}{
			"count": count,
		}
		jsonBytes, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(out, string(jsonBytes))
	} else {
		fmt.Fprintf(out, "Successfully cleared %d expired idempotency key(s)\n", count)
	}

	logger.Info("cleanup completed", slog.Int64("count", count))
	return nil
}
