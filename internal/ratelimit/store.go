// Package ratelimit хранит счётчики фиксированных окон по ключу клиента.
//
// Store.Hit атомарно учитывает запрос и возвращает состояние окна. После
// достижения лимита счётчик больше не растёт до конца окна.
package ratelimit

import (
	"context"
	"time"
)

// Window — состояние окна после учёта запроса
type Window struct {
	Count   int       // учтённых запросов в окне (не больше Limit)
	Limit   int       // максимум за окно
	ResetAt time.Time // когда окно закончится
	Allowed bool      // запрос укладывается в лимит
}

// Remaining — сколько запросов ещё можно сделать в этом окне
func (w Window) Remaining() int {
	if n := w.Limit - w.Count; n > 0 {
		return n
	}
	return 0
}

// RetryAfter — через сколько можно повторить (для заголовка Retry-After)
func (w Window) RetryAfter(now time.Time) time.Duration {
	if d := w.ResetAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Store — хранилище счётчиков (память процесса или Redis)
type Store interface {
	Hit(ctx context.Context, key string) (Window, error)
}
