package ports

import (
	"context"
	"time"

	"github.com/layer-3/walletauth/core"
)

// NonceStore persists outstanding challenges keyed by (address, nonce)
type NonceStore interface {
	// Put stores a new, unused record
	Put(ctx context.Context, record core.NonceRecord) error

	// Consume atomically marks a valid record as used. Missing, expired and
	// already used records all yield found=false without mutation. At most one
	// caller observes found=true for a given (address, nonce).
	Consume(ctx context.Context, address, nonce string) (record core.NonceRecord, found bool, err error)
}

// NonceSweeper removes records that expired before a cutoff
type NonceSweeper interface {
	Sweep(ctx context.Context, before time.Time) (int64, error)
}

// IdentityStore is a uniqueness-constrained identity table keyed by wallet address
type IdentityStore interface {
	// FindByAddress returns core.ErrIdentityNotFound when absent
	FindByAddress(ctx context.Context, address string) (core.Identity, error)

	// FindByID returns core.ErrIdentityNotFound when absent
	FindByID(ctx context.Context, id string) (core.Identity, error)

	// Create returns core.ErrIdentityExists on a wallet address conflict
	Create(ctx context.Context, identity core.Identity) error
}
