package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
)

// IdentityResolver maps a verified wallet address to its identity,
// provisioning one with the baseline role on first login
type IdentityResolver struct {
	store ports.IdentityStore
	clock ports.Clock
}

// NewIdentityResolver creates an identity resolver
func NewIdentityResolver(store ports.IdentityStore, clock ports.Clock) *IdentityResolver {
	return &IdentityResolver{store: store, clock: clock}
}

// Resolve returns the identity for address and whether it was created by this call
func (r *IdentityResolver) Resolve(ctx context.Context, address string) (core.Identity, bool, error) {
	address, err := core.NormalizeAddress(address)
	if err != nil {
		return core.Identity{}, false, err
	}

	identity, err := r.store.FindByAddress(ctx, address)
	if err == nil {
		return identity, false, nil
	}
	if !errors.Is(err, core.ErrIdentityNotFound) {
		return core.Identity{}, false, storageErr("find identity", err)
	}

	identity = core.Identity{
		ID:            uuid.New().String(),
		WalletAddress: address,
		CreatedAt:     r.clock.Now().UTC(),
		Role:          core.DefaultRole,
	}
	err = r.store.Create(ctx, identity)
	if err == nil {
		return identity, true, nil
	}
	if !errors.Is(err, core.ErrIdentityExists) {
		return core.Identity{}, false, storageErr("create identity", err)
	}

	// A concurrent first login created it; the stored row is canonical
	existing, err := r.store.FindByAddress(ctx, address)
	if err != nil {
		return core.Identity{}, false, storageErr("refetch identity", err)
	}
	return existing, false, nil
}

// Lookup returns an existing identity by ID
func (r *IdentityResolver) Lookup(ctx context.Context, id string) (core.Identity, error) {
	identity, err := r.store.FindByID(ctx, id)
	if errors.Is(err, core.ErrIdentityNotFound) {
		return core.Identity{}, err
	}
	if err != nil {
		return core.Identity{}, storageErr("find identity", err)
	}
	return identity, nil
}
