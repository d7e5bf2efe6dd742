package service

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/orders/internal/idempotency/domain"
)

// MemoryStore is an in-process TTL store for idempotency records. Expired
// records are treated as absent and pruned lazily on access, so no janitor
// goroutine is required.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*domain.Record
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*domain.Record),
	}
}

// PutIfAbsent atomically inserts the record when no live record exists for its
// key. An expired record counts as absent.
func (s *MemoryStore) PutIfAbsent(record *domain.Record) (*domain.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := s.records[record.Key]; ok && !existing.Expired(now) {
		copied := *existing
		return &copied, false
	}

	copied := *record
	s.records[record.Key] = &copied
	return nil, true
}

// Complete flips the record for key to COMPLETED and binds the order id.
// No-op when the key is unknown (e.g., already expired).
func (s *MemoryStore) Complete(key string, orderID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[key]
	if !ok {
		return
	}
	record.State = domain.RecordStateCompleted
	record.OrderID = &orderID
}

// Delete removes the record for key.
func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
}

// Len returns the number of records currently held, expired included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
