// Package domain defines the idempotency record used to deduplicate order
// creation requests by a client-supplied key.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// RecordState represents the progress of the request bound to a key.
type RecordState string

const (
	// RecordStatePending marks a key whose request is mid-flight.
	RecordStatePending RecordState = "PENDING"
	// RecordStateCompleted marks a key whose order committed.
	RecordStateCompleted RecordState = "COMPLETED"
)

// Record tracks one idempotency key. Created on first sight of the key,
// flipped to COMPLETED once the order commits, expired after the TTL.
type Record struct {
	Key       string
	State     RecordState
	OrderID   *uuid.UUID
	ExpiresAt time.Time
}

// Expired reports whether the record's retention window has passed.
func (r *Record) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
