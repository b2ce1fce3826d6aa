package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/layer-3/walletauth/adapters/store"
	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueRecordsChallenge(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(testTime.Add(750 * time.Millisecond))
	nonces := store.NewMemoryNonceStore(clk)
	issuer := NewChallengeIssuer(nonces, clk, repeatReader(0xab), testTemplate, 2*time.Minute)

	w := newWallet(t)
	challenge, err := issuer.Issue(ctx, w.checksumAddress())
	require.NoError(t, err)

	assert.Equal(t, w.address, challenge.Address)
	assert.Equal(t, strings.Repeat("ab", NonceBytes), challenge.Nonce)
	assert.Equal(t, testTime, challenge.IssuedAt, "issued at is truncated to the second")
	assert.Equal(t, testTime.Add(2*time.Minute), challenge.ExpiresAt)
	assert.Equal(t, testTemplate.Compose(w.address, challenge.Nonce, testTime), challenge.Message)
	assert.Contains(t, challenge.Message, challenge.Nonce)
	assert.Contains(t, challenge.Message, w.address)

	record, found, err := nonces.Consume(ctx, w.address, challenge.Nonce)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, challenge.Message, testTemplate.ComposeRecord(record))
}

func TestIssueUsesFreshRandomNonces(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(testTime)
	issuer := NewChallengeIssuer(store.NewMemoryNonceStore(clk), clk, nil, testTemplate, 0)
	w := newWallet(t)

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		challenge, err := issuer.Issue(ctx, w.address)
		require.NoError(t, err)
		assert.Len(t, challenge.Nonce, 2*NonceBytes)
		_, dup := seen[challenge.Nonce]
		require.False(t, dup, "nonce repeated")
		seen[challenge.Nonce] = struct{}{}
		assert.Equal(t, testTime.Add(core.DefaultChallengeTTL), challenge.ExpiresAt)
	}
}

func TestIssueRejectsMalformedAddress(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(testTime)
	nonces := store.NewMemoryNonceStore(clk)
	issuer := NewChallengeIssuer(nonces, clk, nil, testTemplate, 0)

	for _, address := range []string{"", "0x1234", "abcdef0123456789abcdef0123456789abcd123456", "0xgggggggggggggggggggggggggggggggggggggggg"} {
		_, err := issuer.Issue(ctx, address)
		assert.ErrorIs(t, err, core.ErrInvalidAddress, address)
	}
	assert.Equal(t, 0, nonces.Len())
}

func TestIssueFailures(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(testTime)
	w := newWallet(t)

	_, err := NewChallengeIssuer(failingNonceStore{}, clk, nil, testTemplate, 0).Issue(ctx, w.address)
	assert.ErrorIs(t, err, core.ErrStorage)
	assert.ErrorIs(t, err, errBackend)

	nonces := store.NewMemoryNonceStore(clk)
	_, err = NewChallengeIssuer(nonces, clk, failingReader{}, testTemplate, 0).Issue(ctx, w.address)
	assert.ErrorIs(t, err, core.ErrStorage)
	assert.Equal(t, 0, nonces.Len())
}
