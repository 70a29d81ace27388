package pipeline

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"natours/internal/core"
	"natours/internal/ratelimit"
)

// KeyFunc — идентичность клиента для счётчика
type KeyFunc func(r *http.Request) string

// RateLimit ограничивает запросы к API: Max запросов на клиента за окно.
// Другие пути не считаются.
type RateLimit struct {
	store   ratelimit.Store
	prefix  string
	message string
	key     KeyFunc
	now     func() time.Time
}

func NewRateLimit(store ratelimit.Store, prefix, message string, key KeyFunc) *RateLimit {
	if key == nil {
		key = core.ClientIP(nil)
	}
	return &RateLimit{
		store:   store,
		prefix:  strings.TrimSuffix(prefix, "/"),
		message: message,
		key:     key,
		now:     time.Now,
	}
}

func (l *RateLimit) Name() string { return "rate-limit" }

func (l *RateLimit) Process(rc *RequestContext) Outcome {
	r := rc.Request()
	if !hasPathPrefix(r.URL.Path, l.prefix) {
		return Continue()
	}

	win, err := l.store.Hit(r.Context(), l.key(r))
	if err != nil {
		// хранилище недоступно: пропускаем, чтобы не уронить API
		core.LogError("Rate limit: ошибка хранилища", map[string]interface{}{
			"path":  r.URL.Path,
			"error": err.Error(),
		})
		return Continue()
	}

	h := rc.Writer().Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(win.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(win.Remaining()))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(win.ResetAt.Unix(), 10))

	if !win.Allowed {
		retry := int(win.RetryAfter(l.now()).Round(time.Second) / time.Second)
		if retry < 1 {
			retry = 1
		}
		h.Set("Retry-After", strconv.Itoa(retry))
		return Fail(core.TooManyRequests(l.message))
	}
	return Continue()
}

// /api совпадает с /api и /api/..., но не с /apix
func hasPathPrefix(p, prefix string) bool {
	if prefix == "" {
		return true
	}
	if !strings.HasPrefix(p, prefix) {
		return false
	}
	return len(p) == len(prefix) || p[len(prefix)] == '/'
}
