package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// stockKeyPrefix namespaces per-item stock counters.
	stockKeyPrefix = "labtrade:ledger:stock:"

	// releaseKeyPrefix namespaces the once-per-operation release locks.
	releaseKeyPrefix = "labtrade:ledger:released:"

	// releaseLockTTL bounds how long a release lock is remembered.
	releaseLockTTL = 7 * 24 * time.Hour
)

// luaCommitStock performs an atomic read -> compare -> DECRBY inside Redis.
// KEYS[1] = stock key, ARGV[1] = quantity. Returns the remaining quantity,
// or -1 when fewer units remain than requested.
const luaCommitStock = `
local key = KEYS[1]
local decr = tonumber(ARGV[1])
local current = tonumber(redis.call('GET', key) or '0')
if current >= decr then
  return redis.call('DECRBY', key, decr)
else
  return -1
end
`

// luaReleaseOnce guards the add-back with a SETNX lock so the same operation
// can never release twice. KEYS[1] = lock key, KEYS[2] = stock key,
// ARGV[1] = quantity, ARGV[2] = lock TTL seconds.
const luaReleaseOnce = `
local lockKey = KEYS[1]
local stockKey = KEYS[2]
local quantity = tonumber(ARGV[1])
local ttlSec = tonumber(ARGV[2])

if redis.call('SETNX', lockKey, '1') == 1 then
  redis.call('EXPIRE', lockKey, ttlSec)
  redis.call('INCRBY', stockKey, quantity)
  return 1
end
return 0
`

// RedisLedger is a Redis-backed implementation of Ledger. Commit runs a Lua
// script so the check-and-decrement is a single atomic step even with many
// API instances sharing the same Redis.
type RedisLedger struct {
	client *redis.Client
}

// NewRedisLedger creates a Redis-backed ledger on an existing client.
func NewRedisLedger(client *redis.Client) *RedisLedger {
	return &RedisLedger{client: client}
}

func stockKey(itemID string) string {
	return stockKeyPrefix + itemID
}

// Preload seeds the available quantity for an item.
func (l *RedisLedger) Preload(ctx context.Context, itemID string, quantity int) error {
	if err := l.client.Set(ctx, stockKey(itemID), quantity, 0).Err(); err != nil {
		return fmt.Errorf("failed to preload stock for %s: %w", itemID, err)
	}
	return nil
}

// Available returns the current available quantity for an item.
func (l *RedisLedger) Available(ctx context.Context, itemID string) (int, error) {
	val, err := l.client.Get(ctx, stockKey(itemID)).Int()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read stock for %s: %w", itemID, err)
	}
	return val, nil
}

// CheckAvailable reports whether at least quantity units are available.
func (l *RedisLedger) CheckAvailable(ctx context.Context, itemID string, quantity int) (bool, error) {
	available, err := l.Available(ctx, itemID)
	if err != nil {
		return false, err
	}
	return available >= quantity, nil
}

// Commit atomically decrements the available quantity.
func (l *RedisLedger) Commit(ctx context.Context, itemID string, quantity int) error {
	res, err := l.client.Eval(ctx, luaCommitStock, []string{stockKey(itemID)}, quantity).Int()
	if err != nil {
		return fmt.Errorf("failed to commit stock for %s: %w", itemID, err)
	}
	if res < 0 {
		available, _ := l.Available(ctx, itemID)
		return &InsufficientQuantityError{
			ItemID:    itemID,
			Requested: quantity,
			Available: available,
		}
	}
	return nil
}

// Release adds quantity back, at most once per opKey.
func (l *RedisLedger) Release(ctx context.Context, opKey, itemID string, quantity int) (bool, error) {
	keys := []string{releaseKeyPrefix + opKey, stockKey(itemID)}
	n, err := l.client.Eval(ctx, luaReleaseOnce, keys, quantity, int64(releaseLockTTL/time.Second)).Int()
	if err != nil {
		return false, fmt.Errorf("failed to release stock for %s: %w", itemID, err)
	}
	return n == 1, nil
}

// Close is a no-op; the underlying client is shared and closed by the caller.
func (l *RedisLedger) Close() error {
	return nil
}

// Ensure RedisLedger implements Ledger
var _ Ledger = (*RedisLedger)(nil)
