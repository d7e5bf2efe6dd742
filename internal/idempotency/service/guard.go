// Package service implements the two-tier idempotency guard. A fast TTL store
// is the primary check; the unique idempotency key column on the orders table
// is the durable fallback that wins any race the fast store missed.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/orders/internal/errors"
	"github.com/allisson/orders/internal/idempotency/domain"
)

// Store is the fast, TTL-native primary check. Implementations must provide
// atomic insert-if-absent semantics.
type Store interface {
	// PutIfAbsent atomically inserts the record when no live record exists for
	// its key. Returns the already-present record when insertion lost.
	PutIfAbsent(record *domain.Record) (existing *domain.Record, inserted bool)
	// Complete flips the record for key to COMPLETED and binds the order id.
	Complete(key string, orderID uuid.UUID)
	// Delete removes the record for key so the key can be retried.
	Delete(key string)
}

// DurableIndex resolves a key against committed orders. It exists purely to
// recover races the fast store lost (e.g., a crash between commit and
// Complete, or a fast store restart), not to be the primary path.
type DurableIndex interface {
	GetOrderIDByIdempotencyKey(ctx context.Context, key string) (uuid.UUID, error)
}

// BeginResult reports the outcome of claiming an idempotency key.
type BeginResult struct {
	// IsNew is true when the caller holds the key and must execute the request.
	IsNew bool
	// OrderID is the previously-created order when IsNew is false.
	OrderID *uuid.UUID
}

// Guard deduplicates order-creation requests by client-supplied key.
type Guard struct {
	store        Store
	durable      DurableIndex
	ttl          time.Duration
	waitInterval time.Duration
	waitAttempts int
	logger       *slog.Logger
}

// NewGuard creates a Guard. ttl is the key retention window; a concurrent
// holder of the same key is polled waitAttempts times at waitInterval before
// the caller receives ErrKeyInFlight.
func NewGuard(
	store Store,
	durable DurableIndex,
	ttl time.Duration,
	logger *slog.Logger,
) *Guard {
	return &Guard{
		store:        store,
		durable:      durable,
		ttl:          ttl,
		waitInterval: 100 * time.Millisecond,
		waitAttempts: 20,
		logger:       logger,
	}
}

// Begin claims the key. Exactly one of the concurrent callers for a key
// observes IsNew=true and proceeds to reservation; the others either receive
// the bound order once it commits or ErrKeyInFlight after the wait budget.
func (g *Guard) Begin(ctx context.Context, key string) (BeginResult, error) {
	for attempt := 0; ; attempt++ {
		record := &domain.Record{
			Key:       key,
			State:     domain.RecordStatePending,
			ExpiresAt: time.Now().UTC().Add(g.ttl),
		}

		existing, inserted := g.store.PutIfAbsent(record)
		if inserted {
			return g.reconcileDurable(ctx, key)
		}

		if existing.State == domain.RecordStateCompleted {
			return BeginResult{IsNew: false, OrderID: existing.OrderID}, nil
		}

		// A concurrent request holds the key; wait for it to complete or
		// release instead of racing a duplicate creation.
		if attempt >= g.waitAttempts {
			return BeginResult{}, domain.ErrKeyInFlight
		}

		select {
		case <-ctx.Done():
			return BeginResult{}, ctx.Err()
		case <-time.After(g.waitInterval):
		}
	}
}

// reconcileDurable checks the durable fallback after winning the fast store.
// A hit means a prior process committed the order but never completed the
// marker; the existing order is returned instead of re-executing side effects.
func (g *Guard) reconcileDurable(ctx context.Context, key string) (BeginResult, error) {
	orderID, err := g.durable.GetOrderIDByIdempotencyKey(ctx, key)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return BeginResult{IsNew: true}, nil
		}
		g.store.Delete(key)
		return BeginResult{}, err
	}

	g.store.Complete(key, orderID)
	if g.logger != nil {
		g.logger.Info("idempotency key reconciled from durable store",
			slog.String("key", key),
			slog.String("order_id", orderID.String()),
		)
	}
	return BeginResult{IsNew: false, OrderID: &orderID}, nil
}

// Complete binds the committed order to the key. Call only after the creating
// transaction commits.
func (g *Guard) Complete(key string, orderID uuid.UUID) {
	g.store.Complete(key, orderID)
}

// Release frees the key after a rolled-back attempt so retries are safe.
func (g *Guard) Release(key string) {
	g.store.Delete(key)
}
