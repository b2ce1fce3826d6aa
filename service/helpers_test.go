package service

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/walletauth/adapters/store"
	"github.com/layer-3/walletauth/adapters/tokenizer"
	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/internal/clock"
	"github.com/layer-3/walletauth/internal/eth"
	"github.com/layer-3/walletauth/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

var (
	testTime     = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	testTemplate = core.MessageTemplate{Domain: "app.example", Statement: "Sign in to app.example."}
	errBackend   = errors.New("connection refused")
)

type wallet struct {
	key     *ecdsa.PrivateKey
	address string
}

func newWallet(t *testing.T) wallet {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return wallet{key: key, address: eth.AddressOf(key)}
}

func (w wallet) checksumAddress() string {
	return crypto.PubkeyToAddress(w.key.PublicKey).Hex()
}

func (w wallet) sign(t *testing.T, message string) string {
	t.Helper()
	sig, err := eth.SignPersonalMessage(w.key, []byte(message))
	require.NoError(t, err)
	return sig
}

// repeatReader yields the same byte forever
type repeatReader byte

func (r repeatReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(r)
	}
	return len(p), nil
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

type failingNonceStore struct{}

func (failingNonceStore) Put(context.Context, core.NonceRecord) error { return errBackend }
func (failingNonceStore) Consume(context.Context, string, string) (core.NonceRecord, bool, error) {
	return core.NonceRecord{}, false, errBackend
}

// scriptedIdentityStore replays the lost-race sequence: the first lookup
// misses, creation hits the unique constraint, the refetch finds the winner.
type scriptedIdentityStore struct {
	mu        sync.Mutex
	winner    core.Identity
	lookups   int
	creates   int
	findErr   error
	createErr error
}

func (s *scriptedIdentityStore) FindByAddress(ctx context.Context, address string) (core.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	if s.findErr != nil {
		return core.Identity{}, s.findErr
	}
	if s.lookups == 1 {
		return core.Identity{}, core.ErrIdentityNotFound
	}
	return s.winner, nil
}

func (s *scriptedIdentityStore) FindByID(ctx context.Context, id string) (core.Identity, error) {
	return s.winner, nil
}

func (s *scriptedIdentityStore) Create(ctx context.Context, identity core.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	if s.createErr != nil {
		return s.createErr
	}
	return core.ErrIdentityExists
}

type recordingPublisher struct {
	mu      sync.Mutex
	created []core.Identity
	logins  []core.SessionGrant
	err     error
}

func (p *recordingPublisher) PublishIdentityCreated(ctx context.Context, identity core.Identity) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, identity)
	return p.err
}

func (p *recordingPublisher) PublishLogin(ctx context.Context, grant core.SessionGrant) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logins = append(p.logins, grant)
	return p.err
}

type failingSessionIssuer struct{}

func (failingSessionIssuer) IssueSession(context.Context, core.Identity) (core.SessionGrant, error) {
	return core.SessionGrant{}, errors.New("hsm unavailable")
}

func (failingSessionIssuer) ParseSession(context.Context, string) (core.SessionGrant, error) {
	return core.SessionGrant{}, core.ErrInvalidSession
}

type harness struct {
	clock      *clock.Fake
	nonces     *store.MemoryNonceStore
	identities *store.MemoryIdentityStore
	events     *recordingPublisher
	metrics    *metrics.Metrics
	logHook    *test.Hook
	service    *AuthService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clk := clock.NewFake(testTime)
	nonces := store.NewMemoryNonceStore(clk)
	identities := store.NewMemoryIdentityStore()

	key, err := tokenizer.GenerateSigningKey()
	require.NoError(t, err)
	sessions := tokenizer.NewJWTTokenizer(key, tokenizer.Config{Issuer: "test", TTL: time.Hour}, clk)

	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	h := &harness{
		clock:      clk,
		nonces:     nonces,
		identities: identities,
		events:     &recordingPublisher{},
		metrics:    metrics.New(prometheus.NewRegistry()),
		logHook:    hook,
	}
	h.service = NewAuthService(
		NewChallengeIssuer(nonces, clk, nil, testTemplate, core.DefaultChallengeTTL),
		NewSignatureVerifier(nonces, testTemplate),
		NewIdentityResolver(identities, clk),
		sessions,
		h.events,
		log,
		h.metrics,
	)
	return h
}

func (h *harness) logContains(substr string) bool {
	for _, entry := range h.logHook.AllEntries() {
		if strings.Contains(entry.Message, substr) {
			return true
		}
	}
	return false
}
