package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIdentity(t *testing.T) core.Identity {
	return core.Identity{
		ID:            uuid.NewString(),
		WalletAddress: "0x" + randomHex(t, 20),
		CreatedAt:     baseTime,
		Role:          core.DefaultRole,
	}
}

func runIdentityStoreContract(t *testing.T, s ports.IdentityStore) {
	ctx := context.Background()

	identity := newIdentity(t)
	_, err := s.FindByAddress(ctx, identity.WalletAddress)
	assert.ErrorIs(t, err, core.ErrIdentityNotFound)

	require.NoError(t, s.Create(ctx, identity))

	byAddress, err := s.FindByAddress(ctx, identity.WalletAddress)
	require.NoError(t, err)
	assert.Equal(t, identity.ID, byAddress.ID)
	assert.Equal(t, core.RoleUser, byAddress.Role)
	assert.True(t, identity.CreatedAt.Equal(byAddress.CreatedAt))

	byID, err := s.FindByID(ctx, identity.ID)
	require.NoError(t, err)
	assert.Equal(t, identity.WalletAddress, byID.WalletAddress)

	_, err = s.FindByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, core.ErrIdentityNotFound)

	duplicate := newIdentity(t)
	duplicate.WalletAddress = identity.WalletAddress
	assert.ErrorIs(t, s.Create(ctx, duplicate), core.ErrIdentityExists)

	// The original row is untouched
	again, err := s.FindByAddress(ctx, identity.WalletAddress)
	require.NoError(t, err)
	assert.Equal(t, identity.ID, again.ID)
}

func TestMemoryIdentityStore(t *testing.T) {
	s := NewMemoryIdentityStore()
	runIdentityStoreContract(t, s)
	assert.Equal(t, 1, s.Len())
}

func TestGormIdentityStoreSQLite(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	db, err := OpenIdentityDB("sqlite", filepath.Join(t.TempDir(), "identities.db"), log)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	s := NewGormIdentityStore(db)
	require.NoError(t, s.Migrate())
	runIdentityStoreContract(t, s)

	var count int64
	require.NoError(t, db.Model(&IdentityModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestOpenIdentityDBRejectsUnknownBackend(t *testing.T) {
	_, err := OpenIdentityDB("mysql", "", logrus.New())
	assert.Error(t, err)
}

func TestGormIdentityModelCreatedAtIsUTC(t *testing.T) {
	m := IdentityModel{ID: "id", WalletAddress: "0x00", Role: "user", CreatedAt: baseTime.In(time.FixedZone("X", 3600))}
	assert.Equal(t, time.UTC, m.toCore().CreatedAt.Location())
}
