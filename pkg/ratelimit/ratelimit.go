// Package ratelimit implements a Redis backed sliding window limiter.
//
// Each identifier owns one counter per fixed window. A request is admitted when
// the current window count plus the previous window count, weighted by how much
// of the previous window still overlaps the sliding window, stays below the limit.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var slidingWindow = redis.NewScript(`
local current_key = KEYS[1]
local previous_key = KEYS[2]
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local elapsed = tonumber(ARGV[3])

local previous = tonumber(redis.call("GET", previous_key) or "0")
local current = tonumber(redis.call("GET", current_key) or "0")
local used = math.floor(previous * (window - elapsed) / window) + current

if used >= limit then
  return {0, used}
end

current = redis.call("INCR", current_key)
if current == 1 then
  redis.call("PEXPIRE", current_key, window * 2)
end
return {1, used + 1}
`)

// Rule is one limiter tier.
type Rule struct {
	Name   string
	Limit  int
	Window time.Duration
}

// Result describes the outcome of one admission check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// RetryAfter is the wait until the current window closes.
func (r Result) RetryAfter(now time.Time) time.Duration {
	if d := r.Reset.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Limiter evaluates rules against Redis.
type Limiter struct {
	client redis.Scripter
	prefix string
	now    func() time.Time
}

// New constructs a limiter storing counters under prefix.
func New(client redis.Scripter, prefix string) *Limiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &Limiter{client: client, prefix: prefix, now: time.Now}
}

// WithClock overrides the time source.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	if now != nil {
		l.now = now
	}
	return l
}

// Allow consumes one request for identifier under rule.
func (l *Limiter) Allow(ctx context.Context, rule Rule, identifier string) (Result, error) {
	if rule.Limit <= 0 || rule.Window <= 0 {
		return Result{Allowed: true, Limit: rule.Limit}, nil
	}

	now := l.now()
	windowMs := rule.Window.Milliseconds()
	nowMs := now.UnixMilli()
	index := nowMs / windowMs
	elapsed := nowMs % windowMs

	keys := []string{
		fmt.Sprintf("%s:%s:%s:%d", l.prefix, rule.Name, identifier, index),
		fmt.Sprintf("%s:%s:%s:%d", l.prefix, rule.Name, identifier, index-1),
	}

	raw, err := slidingWindow.Run(ctx, l.client, keys, rule.Limit, windowMs, elapsed).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("evaluate rate limit %s: %w", rule.Name, err)
	}
	if len(raw) != 2 {
		return Result{}, fmt.Errorf("evaluate rate limit %s: unexpected reply %v", rule.Name, raw)
	}

	used := int(raw[1])
	remaining := rule.Limit - used
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Allowed:   raw[0] == 1,
		Limit:     rule.Limit,
		Remaining: remaining,
		Reset:     time.UnixMilli((index + 1) * windowMs),
	}, nil
}
