package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedRedis повторяет логику Lua-скрипта в памяти
type scriptedRedis struct {
	counts map[string]int64
	keys   []string
	fail   error
}

func (f *scriptedRedis) run(keys []string, args ...interface{}) *redis.Cmd {
	if f.fail != nil {
		return redis.NewCmdResult(nil, f.fail)
	}
	f.keys = append(f.keys, keys[0])
	limit := toInt(args[0])
	window := toInt(args[1])
	cur := f.counts[keys[0]]
	var allowed int64
	if cur < limit {
		cur++
		f.counts[keys[0]] = cur
		allowed = 1
	}
	return redis.NewCmdResult([]interface{}{cur, window, allowed}, nil)
}

func toInt(v interface{}) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	}
	return 0
}

func (f *scriptedRedis) Eval(_ context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	return f.run(keys, args...)
}

func (f *scriptedRedis) EvalSha(_ context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	return f.run(keys, args...)
}

func (f *scriptedRedis) EvalRO(_ context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	return f.run(keys, args...)
}

func (f *scriptedRedis) EvalShaRO(_ context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	return f.run(keys, args...)
}

func (f *scriptedRedis) ScriptExists(_ context.Context, hashes ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceResult(make([]bool, len(hashes)), nil)
}

func (f *scriptedRedis) ScriptLoad(_ context.Context, _ string) *redis.StringCmd {
	return redis.NewStringResult("", nil)
}

func TestRedisStore_HitParsesScriptReply(t *testing.T) {
	fake := &scriptedRedis{counts: map[string]int64{}}
	s := NewRedisStore(fake, 2, time.Hour, WithPrefix("natours:rl:"))

	w, err := s.Hit(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, w.Allowed)
	assert.Equal(t, 1, w.Count)
	assert.Equal(t, 2, w.Limit)
	assert.WithinDuration(t, time.Now().Add(time.Hour), w.ResetAt, time.Minute)
	assert.Equal(t, []string{"natours:rl:10.0.0.1"}, fake.keys)

	_, _ = s.Hit(context.Background(), "10.0.0.1")
	w, err = s.Hit(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, w.Allowed)
	assert.Equal(t, 2, w.Count)
}

func TestRedisStore_PropagatesErrors(t *testing.T) {
	fake := &scriptedRedis{counts: map[string]int64{}, fail: errors.New("connection refused")}
	s := NewRedisStore(fake, 2, time.Hour)

	_, err := s.Hit(context.Background(), "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
