package store

import (
	"context"
	"sync"

	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
)

// MemoryIdentityStore keeps identities in maps guarded by a single lock.
// The address index enforces the same uniqueness a database constraint would.
type MemoryIdentityStore struct {
	byID      map[string]core.Identity
	byAddress map[string]string
	mu        sync.RWMutex
}

// NewMemoryIdentityStore creates a new in-memory identity store
func NewMemoryIdentityStore() *MemoryIdentityStore {
	return &MemoryIdentityStore{
		byID:      make(map[string]core.Identity),
		byAddress: make(map[string]string),
	}
}

func (s *MemoryIdentityStore) FindByAddress(ctx context.Context, address string) (core.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byAddress[address]
	if !ok {
		return core.Identity{}, core.ErrIdentityNotFound
	}
	return s.byID[id], nil
}

func (s *MemoryIdentityStore) FindByID(ctx context.Context, id string) (core.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	identity, ok := s.byID[id]
	if !ok {
		return core.Identity{}, core.ErrIdentityNotFound
	}
	return identity, nil
}

func (s *MemoryIdentityStore) Create(ctx context.Context, identity core.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byAddress[identity.WalletAddress]; exists {
		return core.ErrIdentityExists
	}
	if _, exists := s.byID[identity.ID]; exists {
		return core.ErrIdentityExists
	}
	s.byID[identity.ID] = identity
	s.byAddress[identity.WalletAddress] = identity.ID
	return nil
}

// Len returns the number of stored identities
func (s *MemoryIdentityStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

var _ ports.IdentityStore = (*MemoryIdentityStore)(nil)
