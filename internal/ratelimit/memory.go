package ratelimit

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

const shardCount = 32

// MemoryStore — окна в памяти процесса, разбитые на шарды с отдельными мьютексами.
// Просроченные окна пересоздаются лениво при обращении; Sweep удаляет их целиком.
type MemoryStore struct {
	limit  int
	window time.Duration
	now    func() time.Time
	shards [shardCount]shard
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	count   int
	resetAt time.Time
}

type MemoryOption func(*MemoryStore)

// WithClock подменяет источник времени (тесты)
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

func NewMemoryStore(limit int, window time.Duration, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{limit: limit, window: window, now: time.Now}
	for i := range s.shards {
		s.shards[i].entries = make(map[string]*entry)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &s.shards[h.Sum32()%shardCount]
}

// Hit реализует Store
func (s *MemoryStore) Hit(_ context.Context, key string) (Window, error) {
	now := s.now()
	sh := s.shardFor(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.entries[key]
	if !ok || !now.Before(e.resetAt) {
		e = &entry{resetAt: now.Add(s.window)}
		sh.entries[key] = e
	}

	allowed := e.count < s.limit
	if allowed {
		e.count++
	}
	return Window{Count: e.count, Limit: s.limit, ResetAt: e.resetAt, Allowed: allowed}, nil
}

// Sweep удаляет закончившиеся окна
func (s *MemoryStore) Sweep() {
	now := s.now()
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		for k, e := range sh.entries {
			if !now.Before(e.resetAt) {
				delete(sh.entries, k)
			}
		}
		sh.mu.Unlock()
	}
}

// Len — число активных ключей (для тестов и диагностики)
func (s *MemoryStore) Len() int {
	n := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		n += len(sh.entries)
		sh.mu.Unlock()
	}
	return n
}

// StartJanitor периодически вызывает Sweep. Останавливается отменой контекста.
func (s *MemoryStore) StartJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Sweep()
			}
		}
	}()
}
