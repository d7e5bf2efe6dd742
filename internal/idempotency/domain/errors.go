package domain

import (
	"github.com/allisson/orders/internal/errors"
)

// Idempotency-specific error definitions.
var (
	// ErrKeyInFlight indicates a concurrent request with the same key is
	// mid-flight. Callers wait and retry; two requests with the same key never
	// both reach the reservation phase.
	ErrKeyInFlight = errors.Wrap(errors.ErrConflict, "request with this idempotency key is being processed")
)
