package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
	"github.com/redis/go-redis/v9"
)

// keyGrace keeps consumed records around slightly past expiry so the
// expiry decision is always made by the clock comparison in consumeScript.
const keyGrace = time.Minute

// consumeScript marks an unused, unexpired challenge as used and returns its
// created_at and expires_at_ms fields. Anything else returns nil.
var consumeScript = redis.NewScript(`
local fields = redis.call('HMGET', KEYS[1], 'used', 'created_at', 'expires_at_ms')
if not fields[1] or fields[1] ~= '0' then
  return false
end
if tonumber(ARGV[1]) >= tonumber(fields[3]) then
  return false
end
redis.call('HSET', KEYS[1], 'used', '1')
return {fields[2], fields[3]}
`)

// putScript records a challenge only if its key does not exist yet
var putScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
redis.call('HSET', KEYS[1], 'used', '0', 'created_at', ARGV[1], 'expires_at_ms', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

// RedisNonceStore is a Redis implementation of the NonceStore interface
type RedisNonceStore struct {
	client redis.UniversalClient
	clock  ports.Clock
	prefix string
}

// NewRedisNonceStore creates a new Redis nonce store
func NewRedisNonceStore(client redis.UniversalClient, clock ports.Clock) *RedisNonceStore {
	return &RedisNonceStore{
		client: client,
		clock:  clock,
		prefix: "walletauth:nonce:",
	}
}

func (s *RedisNonceStore) key(address, nonce string) string {
	return s.prefix + address + ":" + nonce
}

// Put stores the challenge as a hash whose key expires shortly after the
// challenge. An existing key is left untouched.
func (s *RedisNonceStore) Put(ctx context.Context, record core.NonceRecord) error {
	key := s.key(record.Address, record.Nonce)
	ttl := record.ExpiresAt.Sub(record.CreatedAt) + keyGrace

	created, err := putScript.Run(ctx, s.client, []string{key},
		strconv.FormatInt(record.CreatedAt.UnixNano(), 10),
		strconv.FormatInt(record.ExpiresAt.UnixMilli(), 10),
		ttl.Milliseconds(),
	).Int()
	if err != nil {
		return fmt.Errorf("put nonce: %w: %w", core.ErrStorage, err)
	}
	if created == 0 {
		return duplicateChallenge()
	}
	return nil
}

// Consume runs the check-and-mark as a single script so concurrent callers serialize
func (s *RedisNonceStore) Consume(ctx context.Context, address, nonce string) (core.NonceRecord, bool, error) {
	now := s.clock.Now().UnixMilli()
	res, err := consumeScript.Run(ctx, s.client, []string{s.key(address, nonce)}, now).StringSlice()
	if errors.Is(err, redis.Nil) {
		return core.NonceRecord{}, false, nil
	}
	if err != nil {
		return core.NonceRecord{}, false, fmt.Errorf("consume nonce: %w: %w", core.ErrStorage, err)
	}
	if len(res) != 2 {
		return core.NonceRecord{}, false, fmt.Errorf("consume nonce: %w: unexpected reply length %d", core.ErrStorage, len(res))
	}

	createdNs, err := strconv.ParseInt(res[0], 10, 64)
	if err != nil {
		return core.NonceRecord{}, false, fmt.Errorf("consume nonce: %w: bad created_at: %w", core.ErrStorage, err)
	}
	expiresMs, err := strconv.ParseInt(res[1], 10, 64)
	if err != nil {
		return core.NonceRecord{}, false, fmt.Errorf("consume nonce: %w: bad expires_at: %w", core.ErrStorage, err)
	}

	return core.NonceRecord{
		Address:   address,
		Nonce:     nonce,
		CreatedAt: time.Unix(0, createdNs).UTC(),
		ExpiresAt: time.UnixMilli(expiresMs).UTC(),
		Used:      true,
	}, true, nil
}

var _ ports.NonceStore = (*RedisNonceStore)(nil)
