package store

import (
	"context"
	"sync"
	"time"

	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
)

// MemoryNonceStore is an in-memory implementation of the NonceStore interface.
// It is suitable for single-instance deployments and tests.
type MemoryNonceStore struct {
	records map[string]core.NonceRecord
	clock   ports.Clock
	mu      sync.Mutex
}

// NewMemoryNonceStore creates a new in-memory nonce store
func NewMemoryNonceStore(clock ports.Clock) *MemoryNonceStore {
	return &MemoryNonceStore{
		records: make(map[string]core.NonceRecord),
		clock:   clock,
	}
}

func nonceKey(address, nonce string) string {
	return address + ":" + nonce
}

// Put stores a new unused challenge record; an existing pair is never overwritten
func (s *MemoryNonceStore) Put(ctx context.Context, record core.NonceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := nonceKey(record.Address, record.Nonce)
	if _, exists := s.records[key]; exists {
		return duplicateChallenge()
	}
	record.Used = false
	s.records[key] = record
	return nil
}

// Consume marks the record as used if it is still valid
func (s *MemoryNonceStore) Consume(ctx context.Context, address, nonce string) (core.NonceRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := nonceKey(address, nonce)
	record, exists := s.records[key]
	if !exists || !record.ValidAt(s.clock.Now()) {
		return core.NonceRecord{}, false, nil
	}

	record.Used = true
	s.records[key] = record
	return record, true, nil
}

// Sweep removes records that expired before the cutoff
func (s *MemoryNonceStore) Sweep(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for key, record := range s.records {
		if record.ExpiresAt.Before(before) {
			delete(s.records, key)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored records, used or not
func (s *MemoryNonceStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

var (
	_ ports.NonceStore   = (*MemoryNonceStore)(nil)
	_ ports.NonceSweeper = (*MemoryNonceStore)(nil)
)
