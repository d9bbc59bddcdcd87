package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Limiter decides whether one more request for key fits in the window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Limit() int
}

// InMemoryRateLimiter limits requests per key (e.g. IP or user ID).
type InMemoryRateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
}

func NewInMemoryRateLimiter(limit int, window time.Duration) *InMemoryRateLimiter {
	r := &InMemoryRateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
	go r.cleanup()
	return r
}

func (r *InMemoryRateLimiter) Limit() int { return r.limit }

func (r *InMemoryRateLimiter) Allow(_ context.Context, key string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	valid := r.prune(key, now.Add(-r.window))
	if len(valid) >= r.limit {
		return false, nil
	}
	r.requests[key] = append(valid, now)
	return true, nil
}

// prune drops entries older than cutoff. Caller holds mu.
func (r *InMemoryRateLimiter) prune(key string, cutoff time.Time) []time.Time {
	var valid []time.Time
	for _, t := range r.requests[key] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		delete(r.requests, key)
	} else {
		r.requests[key] = valid
	}
	return valid
}

func (r *InMemoryRateLimiter) cleanup() {
	tick := time.NewTicker(time.Minute)
	for range tick.C {
		r.mu.Lock()
		cutoff := time.Now().Add(-r.window)
		for k := range r.requests {
			r.prune(k, cutoff)
		}
		r.mu.Unlock()
	}
}

// KEYS[1]=key, ARGV[1]=now ms, ARGV[2]=window start ms, ARGV[3]=window sec,
// ARGV[4]=member, ARGV[5]=limit. Returns the count in window or -1 when full.
const luaRateLimit = `
local key = KEYS[1]
redis.call('ZREMRANGEBYSCORE', key, '0', ARGV[2])
local count = redis.call('ZCARD', key)
if count < tonumber(ARGV[5]) then
  redis.call('ZADD', key, ARGV[1], ARGV[4])
  redis.call('EXPIRE', key, ARGV[3])
  return count + 1
end
return -1
`

// RedisRateLimiter is a sliding-window limiter shared by all instances.
type RedisRateLimiter struct {
	rdb    redis.UniversalClient
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

func NewRedisRateLimiter(rdb redis.UniversalClient, limit int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{rdb: rdb, limit: limit, window: window, prefix: "odenehouk:rl:", now: time.Now}
}

func (r *RedisRateLimiter) Limit() int { return r.limit }

func (r *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := r.now()
	windowSec := int64(r.window.Seconds())
	if windowSec < 1 {
		windowSec = 1
	}
	member := fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.NewString())
	res, err := r.rdb.Eval(ctx, luaRateLimit, []string{r.prefix + key},
		now.UnixMilli(), now.Add(-r.window).UnixMilli(), windowSec, member, r.limit).Int()
	if err != nil {
		return false, err
	}
	return res >= 0, nil
}

// RateLimit returns a middleware that limits by client IP within scope.
// Limiter errors let the request through.
func RateLimit(limiter Limiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := scope + ":" + c.ClientIP()
		ok, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			log.Printf("[ratelimit] %s: %v", scope, err)
			c.Next()
			return
		}
		c.Header("RateLimit-Limit", strconv.Itoa(limiter.Limit()))
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, try again later"})
			return
		}
		c.Next()
	}
}
