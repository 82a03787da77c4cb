// Package ratelimit provides a fixed-window counter shared by every API
// instance through Redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrScript increments the window counter and arms its expiry on first hit,
// returning the new count and the remaining TTL in milliseconds.
var incrScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {n, ttl}
`)

// Decision is the outcome of one check-and-increment.
type Decision struct {
	Allowed    bool
	Count      int64
	RetryAfter time.Duration
}

type Limiter struct {
	rdb    redis.Scripter
	prefix string
}

func New(rdb redis.Scripter, prefix string) *Limiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &Limiter{rdb: rdb, prefix: prefix}
}

// Allow counts one hit for key inside window and reports whether the count is
// still within limit.
func (l *Limiter) Allow(ctx context.Context, key string, limit int64, window time.Duration) (Decision, error) {
	res, err := incrScript.Run(ctx, l.rdb, []string{l.prefix + ":" + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit %s: %w", key, err)
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("rate limit %s: unexpected reply %v", key, res)
	}
	d := Decision{Count: res[0], Allowed: res[0] <= limit}
	if !d.Allowed && res[1] > 0 {
		d.RetryAfter = time.Duration(res[1]) * time.Millisecond
	}
	return d, nil
}

// Block rejects every Allow on key for window. Used for lockouts after a
// failed attempt.
func (l *Limiter) Block(ctx context.Context, key string, window time.Duration) error {
	_, err := blockScript.Run(ctx, l.rdb, []string{l.prefix + ":" + key}, window.Milliseconds()).Result()
	if err != nil {
		return fmt.Errorf("rate limit block %s: %w", key, err)
	}
	return nil
}

var blockScript = redis.NewScript(`
redis.call("SET", KEYS[1], 1000000, "PX", ARGV[1])
return 1
`)
