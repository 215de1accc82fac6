package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// Redis is a fixed-window limiter shared by every instance pointing at the same server.
type Redis struct {
	incr   func(ctx context.Context, key string, window time.Duration) (int64, error)
	limit  int
	window time.Duration
	prefix string
}

func NewRedis(rdb redis.Scripter, limit int, window time.Duration, prefix string) *Redis {
	r := newRedis(limit, window, prefix)
	r.incr = func(ctx context.Context, key string, window time.Duration) (int64, error) {
		res, err := fixedWindowScript.Run(ctx, rdb, []string{key}, window.Milliseconds()).Result()
		if err != nil {
			return 0, err
		}
		return toCount(res)
	}
	return r
}

func newRedis(limit int, window time.Duration, prefix string) *Redis {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "rl"
	}
	return &Redis{limit: limit, window: window, prefix: prefix}
}

func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	count, err := r.incr(ctx, r.prefix+":"+key, r.window)
	if err != nil {
		return false, err
	}
	return count <= int64(r.limit), nil
}

func toCount(res any) (int64, error) {
	switch v := res.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected redis script result type %T", res)
	}
}

// PingCheck reports whether the redis server answers.
func PingCheck(rdb *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
}
