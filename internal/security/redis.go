package security

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// KEYS[1]=key, ARGV[1]=now ms, ARGV[2]=window start ms, ARGV[3]=ttl sec, ARGV[4]=member
const luaRecordFailure = `
local key = KEYS[1]
redis.call('ZREMRANGEBYSCORE', key, '0', ARGV[2])
redis.call('ZADD', key, ARGV[1], ARGV[4])
redis.call('EXPIRE', key, ARGV[3])
return redis.call('ZCARD', key)
`

// KEYS[1]=key, ARGV[1]=window start ms
const luaCountFailures = `
local key = KEYS[1]
redis.call('ZREMRANGEBYSCORE', key, '0', ARGV[1])
return redis.call('ZCARD', key)
`

// RedisTracker shares failure counts across instances through a sorted set
// per key, scored by attempt time.
type RedisTracker struct {
	rdb    redis.UniversalClient
	policy Policy
	prefix string
	now    func() time.Time
}

func NewRedisTracker(rdb redis.UniversalClient, policy Policy) *RedisTracker {
	return &RedisTracker{rdb: rdb, policy: policy, prefix: "odenehouk:failed:", now: time.Now}
}

func (r *RedisTracker) key(k string) string { return r.prefix + k }

func (r *RedisTracker) Locked(ctx context.Context, key string) (bool, error) {
	start := r.now().Add(-r.policy.Window).UnixMilli()
	n, err := r.rdb.Eval(ctx, luaCountFailures, []string{r.key(key)}, start).Int()
	if err != nil {
		return false, fmt.Errorf("count failures: %w", err)
	}
	return n >= r.policy.Threshold, nil
}

func (r *RedisTracker) RecordFailure(ctx context.Context, key string) (int, error) {
	now := r.now()
	start := now.Add(-r.policy.Window).UnixMilli()
	ttl := int64(r.policy.Window.Seconds()) + 1
	member := fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.NewString())
	n, err := r.rdb.Eval(ctx, luaRecordFailure, []string{r.key(key)}, now.UnixMilli(), start, ttl, member).Int()
	if err != nil {
		return 0, fmt.Errorf("record failure: %w", err)
	}
	return n, nil
}

func (r *RedisTracker) Reset(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, r.key(key)).Err()
}
