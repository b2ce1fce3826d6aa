package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/walletauth/adapters/store"
	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/internal/clock"
	"github.com/layer-3/walletauth/internal/config"
	"github.com/layer-3/walletauth/internal/eth"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignCommand(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	message := "walletauth wants you to sign in with your wallet:\n" + eth.AddressOf(key)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"sign", "--key", hex.EncodeToString(crypto.FromECDSA(key)), "--message", message})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		signMessage, signMessageFile, signKey = "", "", ""
	})
	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, out.String(), eth.AddressOf(key))
	match := regexp.MustCompile(`signature: (0x[0-9a-f]{130})`).FindStringSubmatch(out.String())
	require.Len(t, match, 2)
	assert.True(t, eth.VerifyPersonalSignature(message, match[1], eth.AddressOf(key)))
}

func TestReadSignMessageRequiresExactlyOneSource(t *testing.T) {
	t.Cleanup(func() { signMessage, signMessageFile = "", "" })

	signMessage, signMessageFile = "", ""
	_, err := readSignMessage()
	assert.Error(t, err)

	signMessage, signMessageFile = "a", "b"
	_, err = readSignMessage()
	assert.Error(t, err)
}

func TestBuildApp(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Nonce.Backend = config.BackendRedis
	cfg.Redis.URL = "redis://" + mr.Addr()
	cfg.Identity.Backend = config.BackendSQLite
	cfg.Identity.DSN = filepath.Join(t.TempDir(), "identities.db")
	cfg.Events.Enabled = true

	log, _ := test.NewNullLogger()
	a, err := buildApp(context.Background(), cfg, logrus.NewEntry(log))
	require.NoError(t, err)
	t.Cleanup(a.Close)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	ctx := context.Background()

	challenge, err := a.service.CreateChallenge(ctx, eth.AddressOf(key))
	require.NoError(t, err)
	signature, err := eth.SignPersonalMessage(key, []byte(challenge.Message))
	require.NoError(t, err)

	result, err := a.service.Login(ctx, eth.AddressOf(key), signature, challenge.Nonce)
	require.NoError(t, err)
	assert.True(t, result.NewIdentity)
	assert.NotEmpty(t, result.Grant.Token)

	// Events went to the redis stream
	assert.Contains(t, mr.Keys(), "walletauth.login")
}

func TestBuildAppFailsOnUnreachableRedis(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Nonce.Backend = config.BackendRedis
	cfg.Redis.URL = "redis://127.0.0.1:1/0"

	log, _ := test.NewNullLogger()
	_, err = buildApp(context.Background(), cfg, logrus.NewEntry(log))
	assert.Error(t, err)
}

func TestRunSweeper(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	clk := clock.NewFake(now)
	nonces := store.NewMemoryNonceStore(clk)
	require.NoError(t, nonces.Put(ctx, core.NonceRecord{
		Address:   "0x" + hex.EncodeToString(make([]byte, 20)),
		Nonce:     "00",
		CreatedAt: now.Add(-time.Hour),
		ExpiresAt: now.Add(-time.Hour + core.DefaultChallengeTTL),
	}))

	log, _ := test.NewNullLogger()
	go runSweeper(ctx, nonces, clk, 5*time.Millisecond, log)

	assert.Eventually(t, func() bool { return nonces.Len() == 0 }, 2*time.Second, 5*time.Millisecond)
}
