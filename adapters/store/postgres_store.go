package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
)

// DB is the subset of pgxpool.Pool used by the Postgres store
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// uniqueViolation is the SQLSTATE for a primary key conflict
const uniqueViolation = "23505"

const nonceSchema = `
	CREATE TABLE IF NOT EXISTS wallet_auth_nonces (
		wallet_address TEXT        NOT NULL,
		nonce          TEXT        NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL,
		expires_at     TIMESTAMPTZ NOT NULL,
		used           BOOLEAN     NOT NULL DEFAULT FALSE,
		used_at        TIMESTAMPTZ,
		PRIMARY KEY (wallet_address, nonce)
	);
	CREATE INDEX IF NOT EXISTS wallet_auth_nonces_expires_at_idx ON wallet_auth_nonces (expires_at);
`

// PostgresNonceStore keeps challenges in a table and consumes them with a
// single conditional UPDATE ... RETURNING statement.
type PostgresNonceStore struct {
	db    DB
	clock ports.Clock
}

// NewPostgresNonceStore creates a new Postgres nonce store
func NewPostgresNonceStore(db DB, clock ports.Clock) *PostgresNonceStore {
	return &PostgresNonceStore{db: db, clock: clock}
}

// Migrate creates the nonce table if it does not exist
func (s *PostgresNonceStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, nonceSchema); err != nil {
		return fmt.Errorf("migrate nonce table: %w: %w", core.ErrStorage, err)
	}
	return nil
}

func (s *PostgresNonceStore) Put(ctx context.Context, record core.NonceRecord) error {
	q := `
        INSERT INTO wallet_auth_nonces (wallet_address, nonce, created_at, expires_at, used)
        VALUES ($1, $2, $3, $4, FALSE)
    `
	if _, err := s.db.Exec(ctx, q, record.Address, record.Nonce, record.CreatedAt, record.ExpiresAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return duplicateChallenge()
		}
		return fmt.Errorf("put nonce: %w: %w", core.ErrStorage, err)
	}
	return nil
}

func (s *PostgresNonceStore) Consume(ctx context.Context, address, nonce string) (core.NonceRecord, bool, error) {
	q := `
        UPDATE wallet_auth_nonces
        SET used = TRUE, used_at = $3
        WHERE wallet_address = $1 AND nonce = $2 AND used = FALSE AND expires_at > $3
        RETURNING created_at, expires_at
    `
	var createdAt, expiresAt time.Time
	err := s.db.QueryRow(ctx, q, address, nonce, s.clock.Now()).Scan(&createdAt, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.NonceRecord{}, false, nil
	}
	if err != nil {
		return core.NonceRecord{}, false, fmt.Errorf("consume nonce: %w: %w", core.ErrStorage, err)
	}

	return core.NonceRecord{
		Address:   address,
		Nonce:     nonce,
		CreatedAt: createdAt.UTC(),
		ExpiresAt: expiresAt.UTC(),
		Used:      true,
	}, true, nil
}

// Sweep deletes challenges that expired before the cutoff
func (s *PostgresNonceStore) Sweep(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM wallet_auth_nonces WHERE expires_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("sweep nonces: %w: %w", core.ErrStorage, err)
	}
	return tag.RowsAffected(), nil
}

var (
	_ ports.NonceStore   = (*PostgresNonceStore)(nil)
	_ ports.NonceSweeper = (*PostgresNonceStore)(nil)
)
