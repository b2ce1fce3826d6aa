package service

import (
	"context"
	"strings"

	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/internal/eth"
	"github.com/layer-3/walletauth/ports"
)

// SignatureVerifier checks a signed challenge against the stored record
type SignatureVerifier struct {
	store    ports.NonceStore
	template core.MessageTemplate
}

// NewSignatureVerifier creates a verifier using the same template the issuer used
func NewSignatureVerifier(store ports.NonceStore, template core.MessageTemplate) *SignatureVerifier {
	return &SignatureVerifier{store: store, template: template}
}

// Verify consumes the challenge and checks that signature over its message
// recovers to address. The challenge is spent whatever the signature outcome,
// and the error never says why a challenge was rejected.
func (v *SignatureVerifier) Verify(ctx context.Context, address, signature, nonce string) (bool, error) {
	address, err := core.NormalizeAddress(address)
	if err != nil {
		return false, err
	}
	nonce = strings.ToLower(strings.TrimSpace(nonce))

	record, found, err := v.store.Consume(ctx, address, nonce)
	if err != nil {
		return false, storageErr("consume challenge", err)
	}
	if !found {
		return false, core.ErrChallengeInvalidOrExpired
	}

	message := v.template.ComposeRecord(record)
	if !eth.VerifyPersonalSignature(message, signature, address) {
		return false, core.ErrSignatureMismatch
	}

	return true, nil
}
