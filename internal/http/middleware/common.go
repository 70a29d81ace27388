// common.go
package middleware

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// UseCommon — общие middleware маршрутизатора (после цепочки pipeline)
func UseCommon(r chi.Router, timeout time.Duration) {
	r.Use(middleware.CleanPath)
	if timeout > 0 {
		r.Use(middleware.Timeout(timeout))
	}
	r.Use(NoStore)
}
