package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"io"
	"time"

	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
)

// NonceBytes is the amount of entropy in every challenge nonce
const NonceBytes = 32

// Challenge is what a client receives and signs
type Challenge struct {
	Address   string
	Nonce     string
	Message   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ChallengeIssuer generates nonces and the message text a wallet signs
type ChallengeIssuer struct {
	store    ports.NonceStore
	clock    ports.Clock
	random   io.Reader
	template core.MessageTemplate
	ttl      time.Duration
}

// NewChallengeIssuer creates a challenge issuer. A nil random source means crypto/rand.
func NewChallengeIssuer(store ports.NonceStore, clock ports.Clock, random io.Reader, template core.MessageTemplate, ttl time.Duration) *ChallengeIssuer {
	if random == nil {
		random = rand.Reader
	}
	if ttl <= 0 {
		ttl = core.DefaultChallengeTTL
	}
	return &ChallengeIssuer{
		store:    store,
		clock:    clock,
		random:   random,
		template: template,
		ttl:      ttl,
	}
}

// Issue records a fresh challenge for address and returns the message to sign
func (i *ChallengeIssuer) Issue(ctx context.Context, address string) (Challenge, error) {
	address, err := core.NormalizeAddress(address)
	if err != nil {
		return Challenge{}, err
	}

	nonceBytes := make([]byte, NonceBytes)
	if _, err := io.ReadFull(i.random, nonceBytes); err != nil {
		return Challenge{}, storageErr("generate nonce", err)
	}

	// Second precision keeps the rendered timestamp identical after any backend round trip
	now := i.clock.Now().UTC().Truncate(time.Second)
	record := core.NonceRecord{
		Address:   address,
		Nonce:     hex.EncodeToString(nonceBytes),
		CreatedAt: now,
		ExpiresAt: now.Add(i.ttl),
	}

	if err := i.store.Put(ctx, record); err != nil {
		return Challenge{}, storageErr("store challenge", err)
	}

	return Challenge{
		Address:   record.Address,
		Nonce:     record.Nonce,
		Message:   i.template.ComposeRecord(record),
		IssuedAt:  record.CreatedAt,
		ExpiresAt: record.ExpiresAt,
	}, nil
}
