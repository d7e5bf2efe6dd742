// Package usecase implements the outbox dispatcher: a polling loop that
// delivers pending events to a publisher and tracks retries. Polling uses row
// locks with SKIP LOCKED so multiple dispatcher instances never double-deliver.
package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/allisson/orders/internal/database"
	"github.com/allisson/orders/internal/outbox/domain"
)

// Config holds outbox dispatcher configuration.
type Config struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

// OutboxEventRepository defines outbox event repository operations.
type OutboxEventRepository interface {
	GetPendingEvents(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	Update(ctx context.Context, event *domain.OutboxEvent) error
}

// EventPublisher delivers one event to the outside world. Implementations own
// the transport; a returned error schedules a retry on the next poll.
type EventPublisher interface {
	Publish(ctx context.Context, event *domain.OutboxEvent) error
}

// UseCase defines the interface for the outbox dispatcher.
type UseCase interface {
	Start(ctx context.Context) error
	ProcessEvents(ctx context.Context) error
}

// OutboxUseCase implements the dispatcher loop over the outbox table.
type OutboxUseCase struct {
	config    Config
	txManager database.TxManager
	events    OutboxEventRepository
	publisher EventPublisher
	logger    *slog.Logger
}

// NewOutboxUseCase creates a new OutboxUseCase.
func NewOutboxUseCase(
	config Config,
	txManager database.TxManager,
	events OutboxEventRepository,
	publisher EventPublisher,
	logger *slog.Logger,
) *OutboxUseCase {
	return &OutboxUseCase{
		config:    config,
		txManager: txManager,
		events:    events,
		publisher: publisher,
		logger:    logger,
	}
}

// Start runs the polling loop until the context is cancelled.
func (uc *OutboxUseCase) Start(ctx context.Context) error {
	if uc.logger != nil {
		uc.logger.Info("starting outbox dispatcher",
			slog.Duration("interval", uc.config.Interval),
			slog.Int("batch_size", uc.config.BatchSize),
		)
	}

	ticker := time.NewTicker(uc.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if uc.logger != nil {
				uc.logger.Info("stopping outbox dispatcher")
			}
			return ctx.Err()
		case <-ticker.C:
			if err := uc.ProcessEvents(ctx); err != nil {
				if uc.logger != nil {
					uc.logger.Error("failed to process outbox events", slog.Any("error", err))
				}
			}
		}
	}
}

// ProcessEvents delivers one batch of pending events. The batch is claimed
// with SKIP LOCKED inside a transaction, so the locks held here exclude other
// dispatcher instances until the status updates commit.
func (uc *OutboxUseCase) ProcessEvents(ctx context.Context) error {
	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		events, err := uc.events.GetPendingEvents(ctx, uc.config.BatchSize)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}

		if uc.logger != nil {
			uc.logger.Info("processing outbox events", slog.Int("count", len(events)))
		}

		for _, event := range events {
			if err := uc.publisher.Publish(ctx, event); err != nil {
				if uc.logger != nil {
					uc.logger.Error("failed to publish event",
						slog.String("event_id", event.ID.String()),
						slog.String("event_type", event.EventType),
						slog.Int("retries", event.Retries+1),
						slog.Any("error", err),
					)
				}

				event.MarkFailed(err, uc.config.MaxRetries)
				if err := uc.events.Update(ctx, event); err != nil {
					return err
				}
				continue
			}

			event.MarkProcessed(time.Now().UTC())
			if err := uc.events.Update(ctx, event); err != nil {
				return err
			}
		}

		return nil
	})
}

// LoggingEventPublisher is the default publisher: it logs the event payload.
// A message broker integration replaces this at wiring time.
type LoggingEventPublisher struct {
	logger *slog.Logger
}

// NewLoggingEventPublisher creates a new LoggingEventPublisher.
func NewLoggingEventPublisher(logger *slog.Logger) *LoggingEventPublisher {
	return &LoggingEventPublisher{logger: logger}
}

// Publish decodes the payload and logs it.
func (p *LoggingEventPublisher) Publish(_ context.Context, event *domain.OutboxEvent) error {
	var payload map[string]any
	if err := json.Unmarshal([]byte(event.Payload), &payload); err != nil {
		return err
	}

	if p.logger != nil {
		p.logger.Info("publishing event",
			slog.String("event_id", event.ID.String()),
			slog.String("aggregate_type", event.AggregateType),
			slog.String("aggregate_id", event.AggregateID),
			slog.String("event_type", event.EventType),
			slog.Any("payload", payload),
		)
	}
	return nil
}
