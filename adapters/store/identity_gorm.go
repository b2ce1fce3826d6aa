package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// IdentityModel is the persisted form of core.Identity
type IdentityModel struct {
	ID            string `gorm:"type:varchar(36);primaryKey"`
	WalletAddress string `gorm:"size:42;not null;uniqueIndex"`
	Role          string `gorm:"size:32;not null"`
	CreatedAt     time.Time
}

func (IdentityModel) TableName() string {
	return "wallet_identities"
}

func (m IdentityModel) toCore() core.Identity {
	return core.Identity{
		ID:            m.ID,
		WalletAddress: m.WalletAddress,
		Role:          core.Role(m.Role),
		CreatedAt:     m.CreatedAt.UTC(),
	}
}

// OpenIdentityDB opens a gorm connection for the given backend ("postgres" or "sqlite").
// Driver errors are translated so unique violations surface as gorm.ErrDuplicatedKey.
func OpenIdentityDB(backend, dsn string, log logrus.FieldLogger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch backend {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported identity backend %q", backend)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(log, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("open identity database: %w: %w", core.ErrStorage, err)
	}
	return db, nil
}

// GormIdentityStore is a gorm implementation of the IdentityStore interface
type GormIdentityStore struct {
	db *gorm.DB
}

// NewGormIdentityStore creates a new gorm identity store
func NewGormIdentityStore(db *gorm.DB) *GormIdentityStore {
	return &GormIdentityStore{db: db}
}

// Migrate creates the identity table and its unique address index
func (s *GormIdentityStore) Migrate() error {
	if err := s.db.AutoMigrate(&IdentityModel{}); err != nil {
		return fmt.Errorf("migrate identity table: %w: %w", core.ErrStorage, err)
	}
	return nil
}

func (s *GormIdentityStore) FindByAddress(ctx context.Context, address string) (core.Identity, error) {
	return s.find(ctx, "wallet_address = ?", address)
}

func (s *GormIdentityStore) FindByID(ctx context.Context, id string) (core.Identity, error) {
	return s.find(ctx, "id = ?", id)
}

func (s *GormIdentityStore) find(ctx context.Context, query string, arg string) (core.Identity, error) {
	var model IdentityModel
	err := s.db.WithContext(ctx).Where(query, arg).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.Identity{}, core.ErrIdentityNotFound
	}
	if err != nil {
		return core.Identity{}, fmt.Errorf("find identity: %w: %w", core.ErrStorage, err)
	}
	return model.toCore(), nil
}

func (s *GormIdentityStore) Create(ctx context.Context, identity core.Identity) error {
	model := IdentityModel{
		ID:            identity.ID,
		WalletAddress: identity.WalletAddress,
		Role:          string(identity.Role),
		CreatedAt:     identity.CreatedAt,
	}
	err := s.db.WithContext(ctx).Create(&model).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return core.ErrIdentityExists
	}
	if err != nil {
		return fmt.Errorf("create identity: %w: %w", core.ErrStorage, err)
	}
	return nil
}

var _ ports.IdentityStore = (*GormIdentityStore)(nil)
