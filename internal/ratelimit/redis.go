package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Счётчик растёт только пока он меньше лимита; TTL ставится на первом запросе окна.
// Возвращает {count, pttl, allowed}.
var hitScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local allowed = 0
if current < limit then
  current = redis.call('INCR', KEYS[1])
  allowed = 1
  if current == 1 then
    redis.call('PEXPIRE', KEYS[1], window)
  end
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
  redis.call('PEXPIRE', KEYS[1], window)
  ttl = window
end
return {current, ttl, allowed}
`)

// RedisStore — окна в Redis, общие для всех экземпляров приложения
type RedisStore struct {
	rdb    redis.Scripter
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

type RedisOption func(*RedisStore)

func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.prefix = strings.Trim(prefix, ":") }
}

func NewRedisStore(rdb redis.Scripter, limit int, window time.Duration, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		rdb:    rdb,
		prefix: "ratelimit",
		limit:  limit,
		window: window,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hit реализует Store
func (s *RedisStore) Hit(ctx context.Context, key string) (Window, error) {
	res, err := hitScript.Run(ctx, s.rdb, []string{s.prefix + ":" + key}, s.limit, s.window.Milliseconds()).Int64Slice()
	if err != nil {
		return Window{}, fmt.Errorf("ratelimit redis hit: %w", err)
	}
	if len(res) != 3 {
		return Window{}, fmt.Errorf("ratelimit redis hit: неожиданный ответ %v", res)
	}
	return Window{
		Count:   int(res[0]),
		Limit:   s.limit,
		ResetAt: s.now().Add(time.Duration(res[1]) * time.Millisecond),
		Allowed: res[2] == 1,
	}, nil
}
